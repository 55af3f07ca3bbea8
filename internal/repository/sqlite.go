package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"talento/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSessionRepository keeps session slots in a local SQLite file so a
// console restart behaves like a browser reload.
type SQLiteSessionRepository struct {
	db  *sql.DB
	ttl time.Duration
}

func NewSQLiteSessionRepository(path string, ttl time.Duration) (*SQLiteSessionRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteSessionRepository{db: db, ttl: ttl}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS session_slots (
            slot_key TEXT PRIMARY KEY,
            payload TEXT NOT NULL,
            expires_at INTEGER NOT NULL DEFAULT 0,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS rate_limits (
            user_id INTEGER PRIMARY KEY,
            count INTEGER NOT NULL,
            expires_at INTEGER NOT NULL
        )`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteSessionRepository) GetSession(ctx context.Context, slot string) (*models.Session, error) {
	var payload string
	var expiresAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM session_slots WHERE slot_key = ?`, slotKey(slot),
	).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from sqlite: %w", err)
	}

	if expiresAt > 0 && time.Now().Unix() > expiresAt {
		_ = r.ClearSession(ctx, slot)
		return nil, nil
	}

	var session models.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *SQLiteSessionRepository) SetSession(ctx context.Context, slot string, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	var expiresAt int64
	if r.ttl > 0 {
		expiresAt = time.Now().Add(r.ttl).Unix()
	}

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO session_slots (slot_key, payload, expires_at, updated_at)
        VALUES (?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(slot_key) DO UPDATE SET
            payload = excluded.payload,
            expires_at = excluded.expires_at,
            updated_at = CURRENT_TIMESTAMP`,
		slotKey(slot), string(data), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to save session in sqlite: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) ClearSession(ctx context.Context, slot string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session_slots WHERE slot_key = ?`, slotKey(slot)); err != nil {
		return fmt.Errorf("failed to delete session from sqlite: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin rate limit tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	var expiresAt int64
	err = tx.QueryRowContext(ctx, `SELECT count, expires_at FROM rate_limits WHERE user_id = ?`, userID).Scan(&count, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows) || (err == nil && now.Unix() > expiresAt):
		count = 1
		expiresAt = now.Add(window).Unix()
	case err != nil:
		return false, fmt.Errorf("failed to read rate limit: %w", err)
	default:
		count++
	}

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO rate_limits (user_id, count, expires_at) VALUES (?, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET count = excluded.count, expires_at = excluded.expires_at`,
		userID, count, expiresAt); err != nil {
		return false, fmt.Errorf("failed to write rate limit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit rate limit: %w", err)
	}

	return count <= limit, nil
}

// PingContext is used by the readiness check.
func (r *SQLiteSessionRepository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteSessionRepository) Close() error {
	return r.db.Close()
}
