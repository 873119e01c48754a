package audit

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"strings"
	"time"

	xerrors "ChainGate/internal/errors"

	"github.com/go-sql-driver/mysql"
)

// MySQLStore persists decision records in MySQL.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore connects to MySQL and bootstraps the schema.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "MySQL DSN cannot be empty")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "open MySQL connection")
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "ping MySQL")
	}

	store := &MySQLStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *MySQLStore) initSchema() error {
	const schema = `CREATE TABLE IF NOT EXISTS decision_records (
        id VARCHAR(64) PRIMARY KEY,
        validation_id VARCHAR(128) DEFAULT '',
        from_address VARCHAR(64) NOT NULL,
        to_address VARCHAR(64) NOT NULL,
        chain_id BIGINT NOT NULL,
        verdict VARCHAR(16) DEFAULT '',
        allowed TINYINT(1) NOT NULL,
        error_code VARCHAR(64) DEFAULT '',
        message TEXT,
        created_at BIGINT NOT NULL,
        INDEX idx_decision_allowed (allowed),
        INDEX idx_decision_verdict (verdict),
        INDEX idx_decision_created (created_at)
)`

	if _, err := s.db.Exec(schema); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "initialise decision_records table")
	}
	return nil
}

// Save implements Store.
func (s *MySQLStore) Save(ctx context.Context, record *Record) error {
	if record == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "record cannot be nil")
	}
	if strings.TrimSpace(record.ID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "record id cannot be empty")
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}

	const stmt = `INSERT INTO decision_records
        (id, validation_id, from_address, to_address, chain_id, verdict, allowed, error_code, message, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt,
		record.ID,
		record.ValidationID,
		record.From,
		record.To,
		record.ChainID,
		record.Verdict,
		record.Allowed,
		record.ErrorCode,
		record.Message,
		record.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if stdErrors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrRecordConflict
		}
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "insert decision record")
	}
	return nil
}

// Get implements Store.
func (s *MySQLStore) Get(ctx context.Context, id string) (*Record, error) {
	const stmt = `SELECT id, validation_id, from_address, to_address, chain_id, verdict, allowed, error_code, message, created_at
        FROM decision_records WHERE id = ?`

	var record Record
	err := s.db.QueryRowContext(ctx, stmt, id).Scan(
		&record.ID,
		&record.ValidationID,
		&record.From,
		&record.To,
		&record.ChainID,
		&record.Verdict,
		&record.Allowed,
		&record.ErrorCode,
		&record.Message,
		&record.CreatedAt,
	)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "query decision record")
	}
	return &record, nil
}

// List implements Store, newest records first.
func (s *MySQLStore) List(ctx context.Context, opts ListOptions) ([]*Record, error) {
	opts.applyDefaults()

	query := `SELECT id, validation_id, from_address, to_address, chain_id, verdict, allowed, error_code, message, created_at
        FROM decision_records`

	conditions := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if opts.Allowed != nil {
		conditions = append(conditions, "allowed = ?")
		args = append(args, *opts.Allowed)
	}
	if opts.Verdict != "" {
		conditions = append(conditions, "verdict = ?")
		args = append(args, opts.Verdict)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "query decision records")
	}
	defer rows.Close()

	records := make([]*Record, 0, opts.Limit)
	for rows.Next() {
		var record Record
		if err := rows.Scan(
			&record.ID,
			&record.ValidationID,
			&record.From,
			&record.To,
			&record.ChainID,
			&record.Verdict,
			&record.Allowed,
			&record.ErrorCode,
			&record.Message,
			&record.CreatedAt,
		); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "scan decision record")
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "iterate decision records")
	}
	return records, nil
}

// Stats implements Store.
func (s *MySQLStore) Stats(ctx context.Context) (Stats, error) {
	const query = `SELECT
        COUNT(*) AS total,
        COALESCE(SUM(CASE WHEN allowed = 1 THEN 1 ELSE 0 END), 0) AS allowed,
        COALESCE(SUM(CASE WHEN allowed = 0 THEN 1 ELSE 0 END), 0) AS blocked,
        COALESCE(SUM(CASE WHEN error_code <> '' THEN 1 ELSE 0 END), 0) AS errored
        FROM decision_records`

	var stats Stats
	if err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.Total,
		&stats.Allowed,
		&stats.Blocked,
		&stats.Errored,
	); err != nil {
		return Stats{}, xerrors.Wrap(xerrors.CodeStorageFailure, err, "query decision stats")
	}
	return stats, nil
}

// Close implements Store.
func (s *MySQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*MySQLStore)(nil)
