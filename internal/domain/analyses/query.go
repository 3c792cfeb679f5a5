package analyses

import (
	"fmt"
	"sort"
	"strings"
)

// IOC sort keys accepted by IOCQuery.
const (
	SortThreatScore = "threatScore"
	SortCount       = "count"
	SortFirstSeen   = "firstSeen"
	SortValue       = "value"
	SortType        = "type"
)

// IOCQuery filters and orders the indicators of one analysis.
// The zero value keeps every IOC and sorts by threat score, highest first.
type IOCQuery struct {
	Search string
	Type   IOCType
	SortBy string
	Asc    bool
}

// Validate rejects unknown sort keys and types.
func (q IOCQuery) Validate() error {
	if q.Type != "" && !q.Type.Valid() {
		return fmt.Errorf("unknown ioc type %q", q.Type)
	}
	switch q.SortBy {
	case "", SortThreatScore, SortCount, SortFirstSeen, SortValue, SortType:
		return nil
	}
	return fmt.Errorf("unknown sort key %q", q.SortBy)
}

// IsZero reports whether q leaves the IOC list untouched apart from ordering.
func (q IOCQuery) IsZero() bool { return q == IOCQuery{} }

// Apply returns a filtered, stably sorted copy of iocs.
func (q IOCQuery) Apply(iocs []IOC) []IOC {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]IOC, 0, len(iocs))
	for _, ioc := range iocs {
		if q.Type != "" && ioc.Type != q.Type {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(ioc.Value), term) {
			continue
		}
		out = append(out, ioc)
	}

	less := iocLess(q.SortBy)
	sort.SliceStable(out, func(i, j int) bool {
		if q.Asc {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out
}

func iocLess(key string) func(a, b IOC) bool {
	switch key {
	case SortCount:
		return func(a, b IOC) bool { return a.Count < b.Count }
	case SortFirstSeen:
		// "YYYY-MM-DD HH:MM" sorts lexically
		return func(a, b IOC) bool { return a.FirstSeen < b.FirstSeen }
	case SortValue:
		return func(a, b IOC) bool { return a.Value < b.Value }
	case SortType:
		return func(a, b IOC) bool { return a.Type < b.Type }
	default:
		return func(a, b IOC) bool { return a.ThreatScore < b.ThreatScore }
	}
}
