package analyses

import (
	"strings"
	"time"
)

// ID tipe untuk Analysis
type AnalysisID string

// IOCType enum
type IOCType string

const (
	IOCTypeIP     IOCType = "IP"
	IOCTypeDomain IOCType = "Domain"
	IOCTypeHash   IOCType = "Hash"
)

// IOCTypes lists every indicator type in generation order.
var IOCTypes = []IOCType{IOCTypeIP, IOCTypeDomain, IOCTypeHash}

// Valid reports whether t is one of the known indicator types.
func (t IOCType) Valid() bool {
	switch t {
	case IOCTypeIP, IOCTypeDomain, IOCTypeHash:
		return true
	}
	return false
}

// ParseIOCType matches s against the known types ignoring case.
func ParseIOCType(s string) (IOCType, bool) {
	for _, t := range IOCTypes {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

// Prediction labels produced by the traffic classifier.
const (
	PredictionDDoS         = "DDoS Attack"
	PredictionPortScan     = "Port Scan"
	PredictionBruteForce   = "Brute Force"
	PredictionMalwareC2    = "Malware C2"
	PredictionExfiltration = "Data Exfiltration"
)

// Predictions is the fixed label set, in classifier order.
var Predictions = []string{
	PredictionDDoS,
	PredictionPortScan,
	PredictionBruteForce,
	PredictionMalwareC2,
	PredictionExfiltration,
}

// GeoPoint value object
type GeoPoint struct {
	IP      string  `json:"ip"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// IOC value object (indicator of compromise)
type IOC struct {
	ID          string  `json:"id"`
	Type        IOCType `json:"type"`
	Value       string  `json:"value"`
	ThreatScore int     `json:"threatScore"`
	FirstSeen   string  `json:"firstSeen"`
	Count       int     `json:"count"`
}

// Result is what the classifier produces for one capture.
type Result struct {
	TotalPackets     int        `json:"totalPackets"`
	UniqueIPs        int        `json:"uniqueIps"`
	Prediction       string     `json:"prediction"`
	MaliciousPercent float64    `json:"maliciousPercent"`
	Confidence       float64    `json:"confidence"`
	GeoData          []GeoPoint `json:"geoData"`
	IOCs             []IOC      `json:"iocs"`
}

// Draft is an analysis that has not been stored yet.
type Draft struct {
	Filename string `json:"filename"`
	Filesize int64  `json:"filesize"`
	Result
}

// Aggregate Root: Analysis
type Analysis struct {
	ID         AnalysisID `json:"id"`
	Filename   string     `json:"filename"`
	Filesize   int64      `json:"filesize"`
	UploadedAt time.Time  `json:"uploadedAt"`
	Result
}

// NewAnalysis builds the stored form of d. Slices are copied so the record
// shares no backing arrays with the draft.
func NewAnalysis(id AnalysisID, uploadedAt time.Time, d Draft) *Analysis {
	res := d.Result
	res.GeoData = append(make([]GeoPoint, 0, len(d.GeoData)), d.GeoData...)
	res.IOCs = append(make([]IOC, 0, len(d.IOCs)), d.IOCs...)
	return &Analysis{
		ID:         id,
		Filename:   d.Filename,
		Filesize:   d.Filesize,
		UploadedAt: uploadedAt,
		Result:     res,
	}
}

// Clone returns a deep copy of a.
func (a *Analysis) Clone() *Analysis {
	if a == nil {
		return nil
	}
	return NewAnalysis(a.ID, a.UploadedAt, Draft{Filename: a.Filename, Filesize: a.Filesize, Result: a.Result})
}

// Normalize replaces nil collections with empty ones so they encode as [].
func (r *Result) Normalize() {
	if r.GeoData == nil {
		r.GeoData = []GeoPoint{}
	}
	if r.IOCs == nil {
		r.IOCs = []IOC{}
	}
}
