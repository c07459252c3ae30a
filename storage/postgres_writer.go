package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	_ "github.com/lib/pq"

	"cml-linkmap/models"
	"cml-linkmap/utils"
)

const linkColumns = 7

// PostgresWriter persists rendered links to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cml_links (
			link_id      TEXT PRIMARY KEY,
			hop_id       TEXT             NOT NULL,
			carrier      TEXT             NOT NULL,
			tx_latitude  DOUBLE PRECISION,
			tx_longitude DOUBLE PRECISION,
			rx_latitude  DOUBLE PRECISION,
			rx_longitude DOUBLE PRECISION,
			updated_at   TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_cml_links_carrier ON cml_links(carrier);
	`)
	return err
}

// Write upserts links in batches of 50.
func (pw *PostgresWriter) Write(ctx context.Context, links []*models.LinkRecord) error {
	const batchSize = 50
	for i := 0; i < len(links); i += batchSize {
		end := i + batchSize
		if end > len(links) {
			end = len(links)
		}
		query, args := buildUpsert(links[i:end])
		if _, err := pw.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: upsert batch at %d: %w", i, err)
		}
	}
	return nil
}

func buildUpsert(batch []*models.LinkRecord) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*linkColumns)

	for idx, l := range batch {
		base := idx * linkColumns
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		valueArgs = append(valueArgs,
			l.LinkID, l.HopID, l.Carrier,
			nullable(l.TxLatitude), nullable(l.TxLongitude),
			nullable(l.RxLatitude), nullable(l.RxLongitude))
	}

	query := fmt.Sprintf(`
		INSERT INTO cml_links (link_id, hop_id, carrier, tx_latitude, tx_longitude, rx_latitude, rx_longitude)
		VALUES %s
		ON CONFLICT (link_id) DO UPDATE SET
			hop_id = EXCLUDED.hop_id,
			carrier = EXCLUDED.carrier,
			tx_latitude = EXCLUDED.tx_latitude,
			tx_longitude = EXCLUDED.tx_longitude,
			rx_latitude = EXCLUDED.rx_latitude,
			rx_longitude = EXCLUDED.rx_longitude,
			updated_at = NOW()
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
