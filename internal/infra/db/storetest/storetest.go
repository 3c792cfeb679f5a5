// Package storetest holds the behavioural contract every analysis
// repository must satisfy. Store packages call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/pcap-insight/internal/application"
	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
)

// Factory builds an empty repository that stamps records with clock.
type Factory func(t *testing.T, clock application.Clock) domain.Repository

// StepClock returns the preset times in order, then repeats the last one.
type StepClock struct {
	mu    sync.Mutex
	times []time.Time
	i     int
}

func NewStepClock(times ...time.Time) *StepClock { return &StepClock{times: times} }

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.times) == 0 {
		return time.Now()
	}
	t := c.times[c.i]
	if c.i < len(c.times)-1 {
		c.i++
	}
	return t
}

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// SampleDraft returns a fully populated draft tagged with name.
func SampleDraft(name string) domain.Draft {
	return domain.Draft{
		Filename: name,
		Filesize: 10 * 1024,
		Result: domain.Result{
			TotalPackets:     23456,
			UniqueIPs:        77,
			Prediction:       domain.PredictionMalwareC2,
			MaliciousPercent: 12.25,
			Confidence:       93.5,
			GeoData: []domain.GeoPoint{
				{IP: "203.0.113.9", Country: "Germany", Lat: 52.52, Lon: 13.405},
				{IP: "198.51.100.4", Country: "Brazil", Lat: -23.5505, Lon: -46.6333},
			},
			IOCs: []domain.IOC{
				{ID: "ioc-0", Type: domain.IOCTypeIP, Value: "192.0.2.10", ThreatScore: 72, FirstSeen: "2025-06-01 11:31", Count: 120},
				{ID: "ioc-1", Type: domain.IOCTypeDomain, Value: "evil-server.ru", ThreatScore: 45, FirstSeen: "2025-06-01 11:02", Count: 33},
				{ID: "ioc-2", Type: domain.IOCTypeHash, Value: "0123456789abcdef0123456789abcdef", ThreatScore: 3, FirstSeen: "2025-06-01 11:59", Count: 10},
			},
		},
	}
}

// Run executes the repository contract against fresh stores from newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("RoundTrip", func(t *testing.T) { testRoundTrip(t, newRepo) })
	t.Run("EmptyCollections", func(t *testing.T) { testEmptyCollections(t, newRepo) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newRepo) })
	t.Run("Ordering", func(t *testing.T) { testOrdering(t, newRepo) })
	t.Run("DeleteIdempotent", func(t *testing.T) { testDelete(t, newRepo) })
	t.Run("UniqueIDs", func(t *testing.T) { testUnique(t, newRepo) })
}

// RunConcurrent hammers one store from several goroutines.
func RunConcurrent(t *testing.T, newRepo Factory, workers, perWorker int) {
	ctx := context.Background()
	repo := newRepo(t, application.SystemClock{})

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				rec, err := repo.Create(ctx, SampleDraft(fmt.Sprintf("w%d-%d.pcap", w, i)))
				if err != nil {
					errs <- err
					continue
				}
				if _, err := repo.Get(ctx, rec.ID); err != nil {
					errs <- err
				}
				if _, err := repo.List(ctx); err != nil {
					errs <- err
				}
				if i%2 == 1 {
					if err := repo.Delete(ctx, rec.ID); err != nil {
						errs <- err
					}
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, workers*(perWorker-perWorker/2))
}

func testRoundTrip(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, NewStepClock(base.Add(1234567*time.Nanosecond)))

	draft := SampleDraft("traffic.pcap")
	created, err := repo.Create(ctx, draft)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	_, err = uuid.Parse(string(created.ID))
	assert.NoError(t, err, "id should be a uuid")
	assert.True(t, created.UploadedAt.Equal(base.Add(1234*time.Microsecond)), "uploadedAt = %v", created.UploadedAt)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.True(t, got.UploadedAt.Equal(created.UploadedAt), "stored %v, created %v", got.UploadedAt, created.UploadedAt)
	assert.Equal(t, draft.Filename, got.Filename)
	assert.Equal(t, draft.Filesize, got.Filesize)
	assert.Equal(t, draft.Result, got.Result)
}

func testEmptyCollections(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, application.SystemClock{})

	d := SampleDraft("empty.pcapng")
	d.GeoData = nil
	d.IOCs = nil
	created, err := repo.Create(ctx, d)
	require.NoError(t, err)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.GeoData)
	assert.NotNil(t, got.IOCs)
	assert.Empty(t, got.GeoData)
	assert.Empty(t, got.IOCs)
}

func testNotFound(t *testing.T, newRepo Factory) {
	repo := newRepo(t, application.SystemClock{})
	got, err := repo.Get(context.Background(), domain.AnalysisID(uuid.NewString()))
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testOrdering(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	t0 := base
	t1 := base.Add(time.Second)
	t2 := base.Add(2 * time.Second)
	// b and c share a timestamp
	repo := newRepo(t, NewStepClock(t0, t1, t1, t2))

	names := []string{"a.pcap", "b.pcap", "c.pcap", "d.pcap"}
	for _, n := range names {
		_, err := repo.Create(ctx, SampleDraft(n))
		require.NoError(t, err)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)

	got := make([]string, len(list))
	for i, a := range list {
		got[i] = a.Filename
	}
	assert.Equal(t, []string{"d.pcap", "b.pcap", "c.pcap", "a.pcap"}, got)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].UploadedAt.After(list[i-1].UploadedAt))
	}
}

func testDelete(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, application.SystemClock{})

	keep, err := repo.Create(ctx, SampleDraft("keep.pcap"))
	require.NoError(t, err)
	gone, err := repo.Create(ctx, SampleDraft("gone.pcap"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, gone.ID))
	require.NoError(t, repo.Delete(ctx, gone.ID), "second delete must not fail")

	_, err = repo.Get(ctx, gone.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)
}

func testUnique(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	repo := newRepo(t, application.SystemClock{})

	const n = 40
	seen := make(map[domain.AnalysisID]struct{}, n)
	for i := 0; i < n; i++ {
		a, err := repo.Create(ctx, SampleDraft(fmt.Sprintf("cap-%d.pcap", i)))
		require.NoError(t, err)
		seen[a.ID] = struct{}{}
	}
	assert.Len(t, seen, n)
}
