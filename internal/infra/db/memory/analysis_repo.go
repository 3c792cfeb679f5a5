package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/bryanwahyu/pcap-insight/internal/application"
	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
)

type entry struct {
	seq uint64
	rec *domain.Analysis
}

// AnalysisRepository keeps records in a map. Safe for concurrent use.
type AnalysisRepository struct {
	mu      sync.RWMutex
	records map[domain.AnalysisID]entry
	nextSeq uint64
	clock   application.Clock
}

func NewAnalysisRepository(clock application.Clock) *AnalysisRepository {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &AnalysisRepository{
		records: make(map[domain.AnalysisID]entry),
		clock:   clock,
	}
}

func (r *AnalysisRepository) Create(_ context.Context, d domain.Draft) (*domain.Analysis, error) {
	rec := domain.NewAnalysis(domain.AnalysisID(uuid.NewString()), application.StoreTime(r.clock), d)

	r.mu.Lock()
	r.nextSeq++
	r.records[rec.ID] = entry{seq: r.nextSeq, rec: rec}
	r.mu.Unlock()

	return rec.Clone(), nil
}

func (r *AnalysisRepository) Get(_ context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	r.mu.RLock()
	e, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e.rec.Clone(), nil
}

func (r *AnalysisRepository) List(_ context.Context) ([]*domain.Analysis, error) {
	r.mu.RLock()
	entries := make([]entry, 0, len(r.records))
	for _, e := range r.records {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		ti, tj := entries[i].rec.UploadedAt, entries[j].rec.UploadedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return entries[i].seq < entries[j].seq
	})

	out := make([]*domain.Analysis, len(entries))
	for i, e := range entries {
		out[i] = e.rec.Clone()
	}
	return out, nil
}

func (r *AnalysisRepository) Delete(_ context.Context, id domain.AnalysisID) error {
	r.mu.Lock()
	delete(r.records, id)
	r.mu.Unlock()
	return nil
}

// Len returns the number of stored records.
func (r *AnalysisRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
