package sqlite

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bryanwahyu/pcap-insight/internal/application"
	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
	"github.com/bryanwahyu/pcap-insight/internal/infra/db/storetest"
)

// openTestDB creates a SQLite in-memory DB unique per test.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newRepo(t *testing.T, clock application.Clock) domain.Repository {
	repo := NewAnalysisRepository(openTestDB(t), clock)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestAnalysisRepository_Contract(t *testing.T) {
	storetest.Run(t, newRepo)
}

func TestAnalysisRepository_StoresJSONColumns(t *testing.T) {
	db := openTestDB(t)
	repo := NewAnalysisRepository(db, nil)
	require.NoError(t, repo.EnsureSchema(context.Background()))

	a, err := repo.Create(context.Background(), storetest.SampleDraft("blob.pcap"))
	require.NoError(t, err)

	var raw struct {
		GeoData string
		IOCs    string
	}
	err = db.Raw(`SELECT geo_data, iocs FROM pcap_analyses WHERE id = ?`, string(a.ID)).Row().Scan(&raw.GeoData, &raw.IOCs)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw.GeoData, "[{"), raw.GeoData)
	assert.Contains(t, raw.IOCs, `"threatScore":72`)
}

func TestAnalysisRepository_ClosedDB(t *testing.T) {
	db := openTestDB(t)
	repo := NewAnalysisRepository(db, nil)
	require.NoError(t, repo.EnsureSchema(context.Background()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	_, err = repo.Create(context.Background(), storetest.SampleDraft("x.pcap"))
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestOpen_PlainMemoryKeepsSchema(t *testing.T) {
	db, err := Open("sqlite://:memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	repo := NewAnalysisRepository(db, nil)
	require.NoError(t, repo.EnsureSchema(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(context.Background(), storetest.SampleDraft(fmt.Sprintf("c%d.pcap", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 8)
}

func TestPrivateMemory(t *testing.T) {
	assert.True(t, privateMemory(":memory:"))
	assert.True(t, privateMemory("file:pcap?mode=memory"))
	assert.False(t, privateMemory("file:pcap?mode=memory&cache=shared"))
	assert.False(t, privateMemory("/var/lib/pcap/insight.db"))
}
