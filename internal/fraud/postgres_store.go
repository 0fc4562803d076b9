package fraud

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed fraud record store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the fraud_records table if it doesn't exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fraud_records (
			id               VARCHAR(36) PRIMARY KEY,
			transaction_id   VARCHAR(255) NOT NULL,
			user_ip          VARCHAR(100) NOT NULL,
			device_id        VARCHAR(255),
			user_id          VARCHAR(255) NOT NULL,
			risk_level       VARCHAR(10) NOT NULL DEFAULT 'low'
				CHECK (risk_level IN ('low', 'medium', 'high', 'critical')),
			additional_data  JSONB,
			is_blocked       BOOLEAN NOT NULL DEFAULT FALSE,
			block_reason     TEXT,
			attempt_count    INTEGER NOT NULL DEFAULT 0 CHECK (attempt_count >= 0),
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CHECK (NOT is_blocked OR block_reason IS NOT NULL)
		);
		CREATE INDEX IF NOT EXISTS idx_fraud_records_transaction
			ON fraud_records (transaction_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_fraud_records_user
			ON fraud_records (user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_fraud_records_user_ip
			ON fraud_records (user_ip, user_id);
	`)
	return err
}

const recordColumns = `id, transaction_id, user_ip, device_id, user_id,
	risk_level, additional_data, is_blocked, block_reason, attempt_count,
	created_at, updated_at`

func (p *PostgresStore) Create(ctx context.Context, rec *Record) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO fraud_records (
			id, transaction_id, user_ip, device_id, user_id,
			risk_level, additional_data, is_blocked, block_reason, attempt_count,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		rec.ID, rec.TransactionID, rec.UserIP, nullString(rec.DeviceID), rec.UserID,
		string(rec.RiskLevel), nullJSON(rec.AdditionalData), rec.IsBlocked,
		nullString(rec.BlockReason), rec.AttemptCount,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert fraud record: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM fraud_records WHERE id = $1
	`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fraud record: %w", err)
	}
	return rec, nil
}

// GetByTransaction returns the most recent record for a transaction id.
func (p *PostgresStore) GetByTransaction(ctx context.Context, transactionID string) (*Record, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM fraud_records WHERE transaction_id = $1
		ORDER BY created_at DESC, id DESC LIMIT 1
	`, transactionID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fraud record by transaction: %w", err)
	}
	return rec, nil
}

func (p *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*Record, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM fraud_records WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list fraud records by user: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func (p *PostgresStore) List(ctx context.Context, offset, limit int) ([]*Record, int, error) {
	var total int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fraud_records`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count fraud records: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM fraud_records
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list fraud records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// Update rewrites all mutable fields. ID and created_at stay untouched.
func (p *PostgresStore) Update(ctx context.Context, rec *Record) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE fraud_records SET
			transaction_id  = $2,
			user_ip         = $3,
			device_id       = $4,
			user_id         = $5,
			risk_level      = $6,
			additional_data = $7,
			is_blocked      = $8,
			block_reason    = $9,
			attempt_count   = $10,
			updated_at      = $11
		WHERE id = $1
	`,
		rec.ID, rec.TransactionID, rec.UserIP, nullString(rec.DeviceID), rec.UserID,
		string(rec.RiskLevel), nullJSON(rec.AdditionalData), rec.IsBlocked,
		nullString(rec.BlockReason), rec.AttemptCount, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update fraud record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := p.db.ExecContext(ctx, `DELETE FROM fraud_records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete fraud record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

func (p *PostgresStore) CountByUserSince(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM fraud_records
		WHERE user_id = $1 AND created_at >= $2
	`, userID, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count fraud records by user since: %w", err)
	}
	return count, nil
}

func (p *PostgresStore) CountByUserIP(ctx context.Context, userIP, userID string) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM fraud_records
		WHERE user_ip = $1 AND user_id = $2
	`, userIP, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count fraud records by ip: %w", err)
	}
	return count, nil
}

// scannable abstracts *sql.Row and *sql.Rows for shared scanning logic.
type scannable interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scannable) (*Record, error) {
	var rec Record
	var riskLevel string
	var deviceID, blockReason sql.NullString
	var additionalData []byte

	err := row.Scan(
		&rec.ID, &rec.TransactionID, &rec.UserIP, &deviceID, &rec.UserID,
		&riskLevel, &additionalData, &rec.IsBlocked, &blockReason, &rec.AttemptCount,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.RiskLevel = RiskLevel(riskLevel)
	if deviceID.Valid {
		rec.DeviceID = deviceID.String
	}
	if blockReason.Valid {
		rec.BlockReason = blockReason.String
	}
	if len(additionalData) > 0 {
		rec.AdditionalData = additionalData
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	result := make([]*Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// nullString maps "" to NULL so optional columns stay NULL-able.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullJSON maps empty JSON to NULL for the JSONB column.
func nullJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}
