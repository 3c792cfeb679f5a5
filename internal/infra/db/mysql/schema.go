package mysql

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS pcap_analyses (
  id                VARCHAR(36) NOT NULL PRIMARY KEY,
  seq               BIGINT NOT NULL AUTO_INCREMENT UNIQUE,
  filename          VARCHAR(1024) NOT NULL,
  filesize          BIGINT NOT NULL,
  uploaded_at       DATETIME(6) NOT NULL,
  total_packets     INT NOT NULL,
  unique_ips        INT NOT NULL,
  prediction        VARCHAR(64) NOT NULL,
  malicious_percent DOUBLE NOT NULL,
  confidence        DOUBLE NOT NULL,
  geo_data          JSON NOT NULL,
  iocs              JSON NOT NULL,
  KEY idx_pcap_analyses_uploaded (uploaded_at, seq)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;`

// EnsureSchema creates the analyses table when missing.
func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("mysql schema: %w", err)
	}
	return nil
}
