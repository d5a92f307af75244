package usgs

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/river-gauge-etl/internal/domain"
)

// RDB column positions in the default site service output:
// agency_cd, site_no, station_nm, site_tp_cd, dec_lat_va, dec_long_va, ...
const (
	colSiteNo  = 1
	colStation = 2
	colLat     = 4
	colLon     = 5
)

// ParseRDB reads a USGS RDB table. Lines starting with "#" are comments; the
// first two remaining lines are the header and the column-width row. Rows
// that are too short or carry unparseable coordinates are skipped.
func ParseRDB(r io.Reader) ([]domain.Gauge, error) {
	var gauges []domain.Gauge
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	dataLine := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, "#") {
			continue
		}
		dataLine++
		if dataLine <= 2 {
			continue
		}

		gauge, ok := parseRow(line)
		if !ok {
			continue
		}
		gauges = append(gauges, gauge)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rdb: %w", err)
	}
	return gauges, nil
}

func parseRow(line string) (domain.Gauge, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) <= colLon {
		return domain.Gauge{}, false
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[colLat]), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[colLon]), 64)
	if errLat != nil || errLon != nil {
		return domain.Gauge{}, false
	}
	siteNo := strings.TrimSpace(parts[colSiteNo])
	if siteNo == "" {
		return domain.Gauge{}, false
	}
	return domain.Gauge{
		SiteNo:      siteNo,
		StationName: strings.TrimSpace(parts[colStation]),
		Latitude:    lat,
		Longitude:   lon,
	}, true
}
