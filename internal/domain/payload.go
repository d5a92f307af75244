package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// detailsPayload holds the two fields of an NWPS gauge details response
// that later requests depend on. Everything else stays opaque.
type detailsPayload struct {
	ReachID json.RawMessage `json:"reachId"`
	PEDTS   json.RawMessage `json:"pedts"`
}

type pedtsPayload struct {
	Observed json.RawMessage `json:"observed"`
}

// ReachID extracts "reachId" from a details snapshot.
func ReachID(details Snapshot) (string, error) {
	p, err := decodeDetails(details, "reachId")
	if err != nil {
		return "", err
	}
	return scalarField(p.ReachID, details.SiteNo, "reachId")
}

// ObservedPEDTS extracts "pedts.observed" from a details snapshot.
func ObservedPEDTS(details Snapshot) (string, error) {
	p, err := decodeDetails(details, "pedts.observed")
	if err != nil {
		return "", err
	}
	var pedts pedtsPayload
	if err := json.Unmarshal(p.PEDTS, &pedts); err != nil {
		return "", &MissingFieldError{SiteNo: details.SiteNo, Field: "pedts.observed"}
	}
	return scalarField(pedts.Observed, details.SiteNo, "pedts.observed")
}

func decodeDetails(details Snapshot, field string) (detailsPayload, error) {
	var p detailsPayload
	// A details payload that is not an object cannot carry the fields either.
	if err := json.Unmarshal(details.Payload, &p); err != nil {
		return detailsPayload{}, &MissingFieldError{SiteNo: details.SiteNo, Field: field}
	}
	return p, nil
}

// scalarField accepts a non-empty JSON string or a JSON number.
func scalarField(raw json.RawMessage, siteNo, field string) (string, error) {
	missing := &MissingFieldError{SiteNo: siteNo, Field: field}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", missing
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return "", missing
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", missing
}
