package analyses

// Threat levels used by the dashboard badges.
const (
	LevelBenign     = "benign"
	LevelSuspicious = "suspicious"
	LevelMalicious  = "malicious"
)

// ThreatLevel buckets a threat score: <30 benign, 30-59 suspicious, >=60 malicious.
func ThreatLevel(score int) string {
	switch {
	case score >= 60:
		return LevelMalicious
	case score >= 30:
		return LevelSuspicious
	default:
		return LevelBenign
	}
}
