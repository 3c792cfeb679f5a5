package analyses

import (
	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
)

// Summary is the scalar part of the public analysis view.
type Summary struct {
	Packets          int     `json:"packets"`
	UniqueIPs        int     `json:"unique_ips"`
	Prediction       string  `json:"prediction"`
	MaliciousPercent float64 `json:"malicious_percent"`
	Confidence       float64 `json:"confidence"`
}

// View is the shape the dashboard consumes for a single analysis.
type View struct {
	ID      domain.AnalysisID `json:"id"`
	Summary Summary           `json:"summary"`
	Geo     []domain.GeoPoint `json:"geo"`
	IOCs    []domain.IOC      `json:"iocs"`
}

// NewView reshapes a stored record. Geo and IOC lists are never nil.
func NewView(a *domain.Analysis) View {
	v := View{
		ID: a.ID,
		Summary: Summary{
			Packets:          a.TotalPackets,
			UniqueIPs:        a.UniqueIPs,
			Prediction:       a.Prediction,
			MaliciousPercent: a.MaliciousPercent,
			Confidence:       a.Confidence,
		},
		Geo:  a.GeoData,
		IOCs: a.IOCs,
	}
	if v.Geo == nil {
		v.Geo = []domain.GeoPoint{}
	}
	if v.IOCs == nil {
		v.IOCs = []domain.IOC{}
	}
	return v
}

// ReportStub is the placeholder returned until report rendering exists.
type ReportStub struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}
