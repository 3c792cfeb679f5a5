package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bryanwahyu/pcap-insight/internal/application"
	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
	"github.com/bryanwahyu/pcap-insight/internal/infra/db/jsoncol"
)

const selectColumns = `
SELECT id, filename, filesize, uploaded_at,
       total_packets, unique_ips, prediction, malicious_percent, confidence,
       geo_data, iocs
FROM pcap_analyses`

type AnalysisRepository struct {
	db    *sql.DB
	clock application.Clock
}

func NewAnalysisRepository(db *sql.DB, clock application.Clock) *AnalysisRepository {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &AnalysisRepository{db: db, clock: clock}
}

// Create insert satu record baru
func (r *AnalysisRepository) Create(ctx context.Context, d domain.Draft) (*domain.Analysis, error) {
	const q = `
INSERT INTO pcap_analyses
(id, filename, filesize, uploaded_at,
 total_packets, unique_ips, prediction, malicious_percent, confidence,
 geo_data, iocs)
VALUES ($1,$2,$3,$4,
        $5,$6,$7,$8,$9,
        $10,$11);`

	rec := domain.NewAnalysis(domain.AnalysisID(uuid.NewString()), application.StoreTime(r.clock), d)

	geo, err := jsoncol.EncodeGeo(rec.GeoData)
	if err != nil {
		return nil, err
	}
	iocs, err := jsoncol.EncodeIOCs(rec.IOCs)
	if err != nil {
		return nil, err
	}

	// jsonb params go over the wire as text
	_, err = r.db.ExecContext(ctx, q,
		rec.ID, rec.Filename, rec.Filesize, rec.UploadedAt,
		rec.TotalPackets, rec.UniqueIPs, rec.Prediction, rec.MaliciousPercent, rec.Confidence,
		string(geo), string(iocs),
	)
	if err != nil {
		return nil, storageErr("insert analysis", err)
	}
	return rec, nil
}

// Get by ID
func (r *AnalysisRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id=$1 LIMIT 1;`, id)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get analysis", err)
	}
	return a, nil
}

// List semua record, terbaru dulu
func (r *AnalysisRepository) List(ctx context.Context) ([]*domain.Analysis, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY uploaded_at DESC, seq ASC;`)
	if err != nil {
		return nil, storageErr("list analyses", err)
	}
	defer rows.Close()

	out := []*domain.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, storageErr("scan analysis", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate analyses", err)
	}
	return out, nil
}

func (r *AnalysisRepository) Delete(ctx context.Context, id domain.AnalysisID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pcap_analyses WHERE id=$1;`, id); err != nil {
		return storageErr("delete analysis", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*domain.Analysis, error) {
	var a domain.Analysis
	var geo, iocs []byte
	if err := row.Scan(
		&a.ID, &a.Filename, &a.Filesize, &a.UploadedAt,
		&a.TotalPackets, &a.UniqueIPs, &a.Prediction, &a.MaliciousPercent, &a.Confidence,
		&geo, &iocs,
	); err != nil {
		return nil, err
	}
	var err error
	if a.GeoData, err = jsoncol.DecodeGeo(geo); err != nil {
		return nil, err
	}
	if a.IOCs, err = jsoncol.DecodeIOCs(iocs); err != nil {
		return nil, err
	}
	a.UploadedAt = a.UploadedAt.UTC()
	return &a, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("postgres %s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
