package analyses

import (
	"fmt"
	"strings"
)

// Validate checks d against the record invariants. Every failure wraps
// ErrInvalidDraft.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Filename) == "" {
		return invalid("filename is required")
	}
	if d.Filesize < 0 {
		return invalid("filesize must not be negative")
	}
	if d.TotalPackets < 0 || d.UniqueIPs < 0 {
		return invalid("packet and ip counts must not be negative")
	}
	if d.Prediction == "" {
		return invalid("prediction is required")
	}
	if !inPercent(d.MaliciousPercent) {
		return invalid("malicious percent %v out of range", d.MaliciousPercent)
	}
	if !inPercent(d.Confidence) {
		return invalid("confidence %v out of range", d.Confidence)
	}
	for i, g := range d.GeoData {
		if g.Lat < -90 || g.Lat > 90 || g.Lon < -180 || g.Lon > 180 {
			return invalid("geo point %d has invalid coordinates", i)
		}
	}
	seen := make(map[string]struct{}, len(d.IOCs))
	for _, ioc := range d.IOCs {
		if !ioc.Type.Valid() {
			return invalid("ioc %q has unknown type %q", ioc.ID, ioc.Type)
		}
		if ioc.ThreatScore < 0 || ioc.ThreatScore > 100 {
			return invalid("ioc %q threat score %d out of range", ioc.ID, ioc.ThreatScore)
		}
		if ioc.Count < 0 {
			return invalid("ioc %q count must not be negative", ioc.ID)
		}
		if _, dup := seen[ioc.ID]; dup {
			return invalid("duplicate ioc id %q", ioc.ID)
		}
		seen[ioc.ID] = struct{}{}
	}
	return nil
}

func inPercent(v float64) bool { return v >= 0 && v <= 100 }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDraft, fmt.Sprintf(format, args...))
}
