// Package synthetic fabricates classifier output for an uploaded capture.
//
// It stands in for a real traffic-classification pipeline: the file content
// is never read, only the output shape matters. A real implementation must
// keep field names, types and ranges so the dashboard keeps working.
package synthetic

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/bryanwahyu/pcap-insight/internal/application"
	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
)

// DefaultDelay is the simulated processing time per capture.
const DefaultDelay = 2 * time.Second

// FirstSeenLayout is the IOC firstSeen format (UTC, minute precision).
const FirstSeenLayout = "2006-01-02 15:04"

type country struct {
	name     string
	lat, lon float64
}

var countries = []country{
	{"United States", 37.7749, -122.4194},
	{"Russia", 55.7558, 37.6173},
	{"China", 39.9042, 116.4074},
	{"Germany", 52.5200, 13.4050},
	{"Japan", 35.6762, 139.6503},
	{"Brazil", -23.5505, -46.6333},
	{"India", 28.6139, 77.2090},
	{"United Kingdom", 51.5074, -0.1278},
	{"France", 48.8566, 2.3522},
	{"South Korea", 37.5665, 126.9780},
}

var (
	domainPrefixes = []string{"malicious", "suspicious", "unknown", "bad", "evil", "dark"}
	domainSuffixes = []string{"site", "server", "network", "domain", "host"}
	domainTLDs     = []string{"com", "net", "org", "ru", "cn"}
)

const hexDigits = "0123456789abcdef"

type Generator struct {
	mu    sync.Mutex
	rnd   *rand.Rand
	delay time.Duration
	clock application.Clock
}

// New returns a generator seeded from the clock.
func New(delay time.Duration, clock application.Clock) *Generator {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return NewWithSource(rand.NewSource(clock.Now().UnixNano()), delay, clock)
}

// NewWithSource uses src for every random draw; handy for deterministic tests.
func NewWithSource(src rand.Source, delay time.Duration, clock application.Clock) *Generator {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if delay < 0 {
		delay = 0
	}
	return &Generator{rnd: rand.New(src), delay: delay, clock: clock}
}

// Generate waits for the configured delay, then builds a random result.
// Only the calling goroutine waits; ctx cancellation aborts the wait.
func (g *Generator) Generate(ctx context.Context, filename string, filesize int64) (domain.Result, error) {
	if g.delay > 0 {
		t := time.NewTimer(g.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return domain.Result{}, fmt.Errorf("analyze %s: %w", filename, ctx.Err())
		case <-t.C:
		}
	}

	// rand.Rand is not safe for concurrent use
	g.mu.Lock()
	defer g.mu.Unlock()

	res := domain.Result{
		TotalPackets:     g.rnd.Intn(50000) + 10000,
		UniqueIPs:        g.rnd.Intn(200) + 50,
		Prediction:       domain.Predictions[g.rnd.Intn(len(domain.Predictions))],
		MaliciousPercent: g.rnd.Float64()*15 + 5,
		Confidence:       g.rnd.Float64()*15 + 85,
	}

	numGeo := g.rnd.Intn(5) + 3
	res.GeoData = make([]domain.GeoPoint, 0, numGeo)
	for i := 0; i < numGeo; i++ {
		c := countries[g.rnd.Intn(len(countries))]
		res.GeoData = append(res.GeoData, domain.GeoPoint{
			IP:      g.randomIP(),
			Country: c.name,
			Lat:     c.lat,
			Lon:     c.lon,
		})
	}

	now := g.clock.Now().UTC()
	numIOCs := g.rnd.Intn(10) + 5
	res.IOCs = make([]domain.IOC, 0, numIOCs)
	for i := 0; i < numIOCs; i++ {
		typ := domain.IOCTypes[g.rnd.Intn(len(domain.IOCTypes))]
		var value string
		switch typ {
		case domain.IOCTypeIP:
			value = g.randomIP()
		case domain.IOCTypeDomain:
			value = g.randomDomain()
		default:
			value = g.randomHash()
		}
		minutesAgo := time.Duration(g.rnd.Intn(60)) * time.Minute
		res.IOCs = append(res.IOCs, domain.IOC{
			ID:          fmt.Sprintf("ioc-%d", i),
			Type:        typ,
			Value:       value,
			ThreatScore: g.rnd.Intn(100),
			FirstSeen:   now.Add(-minutesAgo).Format(FirstSeenLayout),
			Count:       g.rnd.Intn(500) + 10,
		})
	}
	return res, nil
}

func (g *Generator) randomIP() string {
	return fmt.Sprintf("%d.%d.%d.%d", g.rnd.Intn(256), g.rnd.Intn(256), g.rnd.Intn(256), g.rnd.Intn(256))
}

func (g *Generator) randomDomain() string {
	return fmt.Sprintf("%s-%s.%s",
		domainPrefixes[g.rnd.Intn(len(domainPrefixes))],
		domainSuffixes[g.rnd.Intn(len(domainSuffixes))],
		domainTLDs[g.rnd.Intn(len(domainTLDs))],
	)
}

func (g *Generator) randomHash() string {
	var b strings.Builder
	b.Grow(32)
	for i := 0; i < 32; i++ {
		b.WriteByte(hexDigits[g.rnd.Intn(len(hexDigits))])
	}
	return b.String()
}
