// Package domain models river gauges and the NOAA/USGS hydrology data cached for them.
//
// # Data Sources
//
// Gauge discovery uses the USGS Site Web Service
// (https://waterservices.usgs.gov/nwis/site/) in RDB format: a tab-separated
// table preceded by "#" comment lines, a header row and a column-width row
// ("5s 15s 50s ..."). Only active stream sites (siteType=ST) are requested.
//
// Per-gauge telemetry comes from the NOAA National Water Prediction Service
// (NWPS) API (https://api.water.noaa.gov/nwps/v1):
//
//	details              /gauges/{site_no}
//	stageflow            /gauges/{site_no}/stageflow
//	reach                /reaches/{reachId}
//	historical_forecast  /products/stageflow/{site_no}/{pedts.observed}
//
// The reach and historical forecast lookups chain off the details payload:
// "reachId" names the NWM reach and "pedts.observed" is the SHEF physical
// element/duration/type/source code of the observed series (e.g. "HGIRG").
//
// # Caching
//
// Payloads are stored opaquely as JSON, one row per fetch. A lookup returns
// the most recent row for a (kind, site_no) pair and classifies it as
// [Fresh], [Stale] or [Absent]. Details, stageflow and historical forecast
// rows go stale after 15 minutes; reach rows never do because a gauge's
// reach id does not change.
//
// # Bounding Box
//
// Discovery queries a box around the search point built from four
// great-circle destination points on a 6371 km sphere. Near the poles or
// across the antimeridian the box can come out inverted; it is passed to
// USGS unchanged. See [BoundingBox].
package domain
