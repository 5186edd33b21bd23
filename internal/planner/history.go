package planner

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// HistoryEntry is a recorded plan for a project.
type HistoryEntry struct {
	ID        string
	Request   string
	PlanText  string
	Steps     int
	CreatedAt time.Time
}

// HistoryStore records generated plans so they can be reviewed later.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore opens (or creates) the plan history database.
func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS plan_history (
			id TEXT PRIMARY KEY,
			request TEXT NOT NULL,
			plan_text TEXT NOT NULL,
			steps INT NOT NULL,
			created_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &HistoryStore{db: db}, nil
}

// Record stores a plan and returns its history entry.
func (s *HistoryStore) Record(plan *Plan) (*HistoryEntry, error) {
	entry := &HistoryEntry{
		ID:        uuid.New().String(),
		Request:   plan.Request,
		PlanText:  plan.Text(),
		Steps:     len(plan.Steps),
		CreatedAt: plan.CreatedAt,
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO plan_history (id, request, plan_text, steps, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ID, entry.Request, entry.PlanText, entry.Steps, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}

	return entry, nil
}

// Recent returns the most recent entries, newest first.
func (s *HistoryStore) Recent(limit int) ([]*HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`
		SELECT id, request, plan_text, steps, created_at
		FROM plan_history
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.Request, &e.PlanText, &e.Steps, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}
