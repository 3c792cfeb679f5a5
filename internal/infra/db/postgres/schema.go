package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS pcap_analyses (
  id                VARCHAR(36) PRIMARY KEY,
  seq               BIGSERIAL,
  filename          TEXT NOT NULL,
  filesize          BIGINT NOT NULL,
  uploaded_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
  total_packets     INTEGER NOT NULL,
  unique_ips        INTEGER NOT NULL,
  prediction        TEXT NOT NULL,
  malicious_percent DOUBLE PRECISION NOT NULL,
  confidence        DOUBLE PRECISION NOT NULL,
  geo_data          JSONB NOT NULL DEFAULT '[]'::jsonb,
  iocs              JSONB NOT NULL DEFAULT '[]'::jsonb
);
CREATE INDEX IF NOT EXISTS idx_pcap_analyses_uploaded ON pcap_analyses (uploaded_at DESC, seq);
`

// EnsureSchema creates the analyses table when missing.
func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres schema: %w", err)
	}
	return nil
}
