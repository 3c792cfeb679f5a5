package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bryanwahyu/pcap-insight/internal/application"
	domain "github.com/bryanwahyu/pcap-insight/internal/domain/analyses"
	"github.com/bryanwahyu/pcap-insight/internal/infra/db/jsoncol"
)

// analysisRow is the persisted layout of one analysis.
type analysisRow struct {
	ID               string    `gorm:"column:id;primaryKey;size:36"`
	Filename         string    `gorm:"column:filename;not null"`
	Filesize         int64     `gorm:"column:filesize;not null"`
	UploadedAt       time.Time `gorm:"column:uploaded_at;not null;index"`
	TotalPackets     int       `gorm:"column:total_packets;not null"`
	UniqueIPs        int       `gorm:"column:unique_ips;not null"`
	Prediction       string    `gorm:"column:prediction;not null"`
	MaliciousPercent float64   `gorm:"column:malicious_percent;not null"`
	Confidence       float64   `gorm:"column:confidence;not null"`
	GeoData          string    `gorm:"column:geo_data;type:text;not null"`
	IOCs             string    `gorm:"column:iocs;type:text;not null"`
}

func (analysisRow) TableName() string { return "pcap_analyses" }

type AnalysisRepository struct {
	db    *gorm.DB
	clock application.Clock
}

func NewAnalysisRepository(db *gorm.DB, clock application.Clock) *AnalysisRepository {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &AnalysisRepository{db: db, clock: clock}
}

// EnsureSchema creates the analyses table when missing.
func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&analysisRow{}); err != nil {
		return fmt.Errorf("sqlite schema: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) Create(ctx context.Context, d domain.Draft) (*domain.Analysis, error) {
	rec := domain.NewAnalysis(domain.AnalysisID(uuid.NewString()), application.StoreTime(r.clock), d)

	row, err := toRow(rec)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, storageErr("insert analysis", err)
	}
	return rec, nil
}

func (r *AnalysisRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	var row analysisRow
	err := r.db.WithContext(ctx).Where("id = ?", string(id)).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get analysis", err)
	}
	return fromRow(row)
}

// List orders by upload time, then by rowid so equal timestamps keep
// insertion order.
func (r *AnalysisRepository) List(ctx context.Context) ([]*domain.Analysis, error) {
	var rows []analysisRow
	if err := r.db.WithContext(ctx).Order("uploaded_at DESC").Order("rowid ASC").Find(&rows).Error; err != nil {
		return nil, storageErr("list analyses", err)
	}
	out := make([]*domain.Analysis, 0, len(rows))
	for _, row := range rows {
		a, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *AnalysisRepository) Delete(ctx context.Context, id domain.AnalysisID) error {
	if err := r.db.WithContext(ctx).Where("id = ?", string(id)).Delete(&analysisRow{}).Error; err != nil {
		return storageErr("delete analysis", err)
	}
	return nil
}

func toRow(a *domain.Analysis) (analysisRow, error) {
	geo, err := jsoncol.EncodeGeo(a.GeoData)
	if err != nil {
		return analysisRow{}, err
	}
	iocs, err := jsoncol.EncodeIOCs(a.IOCs)
	if err != nil {
		return analysisRow{}, err
	}
	return analysisRow{
		ID:               string(a.ID),
		Filename:         a.Filename,
		Filesize:         a.Filesize,
		UploadedAt:       a.UploadedAt,
		TotalPackets:     a.TotalPackets,
		UniqueIPs:        a.UniqueIPs,
		Prediction:       a.Prediction,
		MaliciousPercent: a.MaliciousPercent,
		Confidence:       a.Confidence,
		GeoData:          string(geo),
		IOCs:             string(iocs),
	}, nil
}

func fromRow(row analysisRow) (*domain.Analysis, error) {
	geo, err := jsoncol.DecodeGeo([]byte(row.GeoData))
	if err != nil {
		return nil, storageErr("decode row", err)
	}
	iocs, err := jsoncol.DecodeIOCs([]byte(row.IOCs))
	if err != nil {
		return nil, storageErr("decode row", err)
	}
	return &domain.Analysis{
		ID:         domain.AnalysisID(row.ID),
		Filename:   row.Filename,
		Filesize:   row.Filesize,
		UploadedAt: row.UploadedAt.UTC(),
		Result: domain.Result{
			TotalPackets:     row.TotalPackets,
			UniqueIPs:        row.UniqueIPs,
			Prediction:       row.Prediction,
			MaliciousPercent: row.MaliciousPercent,
			Confidence:       row.Confidence,
			GeoData:          geo,
			IOCs:             iocs,
		},
	}, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("sqlite %s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
