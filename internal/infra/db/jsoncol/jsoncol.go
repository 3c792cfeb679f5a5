// Package jsoncol encodes the structured columns of an analysis row.
//
// Geo points and IOCs are stored as opaque JSON arrays; decoding goes through
// the fixed domain schemas so a malformed blob fails loudly instead of
// leaking untyped maps into the domain.
package jsoncol

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EncodeGeo returns the column value for geo points; nil encodes as [].
func EncodeGeo(points []domain.GeoPoint) ([]byte, error) {
	if points == nil {
		points = []domain.GeoPoint{}
	}
	b, err := json.Marshal(points)
	if err != nil {
		return nil, fmt.Errorf("encode geo_data: %w", err)
	}
	return b, nil
}

// EncodeIOCs returns the column value for IOCs; nil encodes as [].
func EncodeIOCs(iocs []domain.IOC) ([]byte, error) {
	if iocs == nil {
		iocs = []domain.IOC{}
	}
	b, err := json.Marshal(iocs)
	if err != nil {
		return nil, fmt.Errorf("encode iocs: %w", err)
	}
	return b, nil
}

// DecodeGeo parses a geo_data column. Empty or NULL yields an empty slice.
func DecodeGeo(b []byte) ([]domain.GeoPoint, error) {
	out := []domain.GeoPoint{}
	if len(b) == 0 || string(b) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode geo_data: %w", err)
	}
	if out == nil {
		out = []domain.GeoPoint{}
	}
	return out, nil
}

// DecodeIOCs parses an iocs column. Empty or NULL yields an empty slice.
func DecodeIOCs(b []byte) ([]domain.IOC, error) {
	out := []domain.IOC{}
	if len(b) == 0 || string(b) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode iocs: %w", err)
	}
	if out == nil {
		out = []domain.IOC{}
	}
	return out, nil
}
