package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gitlab.com/TitanInd/milestone-escrow/internal/campaign"
	"gitlab.com/TitanInd/milestone-escrow/internal/repositories/journal/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// SQLite persists notifications so they survive restarts
type SQLite struct {
	sqlDB *sql.DB
}

// OpenSQLite opens the database file at path and applies the embedded schema
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLite{sqlDB: sqlDB}, nil
}

func (s *SQLite) Append(ctx context.Context, n campaign.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return ErrClosed
	}

	var amount sql.NullString
	if n.Amount != nil {
		amount = sql.NullString{String: n.Amount.String(), Valid: true}
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO notifications (
		   id,
		   campaign_id,
		   kind,
		   actor,
		   amount,
		   milestone_index,
		   support,
		   outcome,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.CampaignID,
		string(n.Kind),
		n.Actor.Hex(),
		amount,
		n.MilestoneIndex,
		n.Support,
		n.Outcome,
		toMillis(n.Timestamp),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, campaignID string, limit int) ([]campaign.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, campaign_id, kind, actor, amount, milestone_index, support, outcome, created_at
		 FROM notifications
		 WHERE campaign_id = ?
		 ORDER BY seq DESC
		 LIMIT ?`,
		campaignID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var res []campaign.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	reverse(res)
	return res, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func scanNotification(rows *sql.Rows) (campaign.Notification, error) {
	var (
		n         campaign.Notification
		kind      string
		actor     string
		amount    sql.NullString
		createdAt int64
	)
	err := rows.Scan(&n.ID, &n.CampaignID, &kind, &actor, &amount, &n.MilestoneIndex, &n.Support, &n.Outcome, &createdAt)
	if err != nil {
		return n, fmt.Errorf("scan notification: %w", err)
	}

	n.Kind = campaign.NotificationKind(kind)
	n.Actor = common.HexToAddress(actor)
	n.Timestamp = fromMillis(createdAt)
	if amount.Valid {
		value, ok := new(big.Int).SetString(amount.String, 10)
		if !ok {
			return n, fmt.Errorf("invalid amount %q in notification %s", amount.String, n.ID)
		}
		n.Amount = value
	}
	return n, nil
}

// applyMigrations runs every embedded .sql file once, in name order
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	files, err := fs.Glob(migrationFS, "*.sql")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		var count int
		if err := sqlDB.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, file).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if count > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		tx, err := sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, file, toMillis(time.Now())); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
