package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"meetcal/internal/model"
)

// PostgresStore keeps meetings in a single relational table. The seq column
// records insertion order so List returns the collection in the same order
// the file store would.
type PostgresStore struct {
	db *sql.DB
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS meetings (
	seq              BIGSERIAL,
	id               TEXT PRIMARY KEY,
	date             TEXT NOT NULL,
	start_time       TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL,
	category         TEXT NOT NULL,
	title            TEXT NOT NULL DEFAULT '',
	host             TEXT NOT NULL DEFAULT '',
	agenda           TEXT NOT NULL DEFAULT '',
	join_url         TEXT NOT NULL DEFAULT '',
	zoom_id          BIGINT NOT NULL DEFAULT 0
)`

// NewPostgresStore connects to the given DSN and ensures the meetings table
// exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("store: postgres dsn is empty")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create meetings table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]model.Meeting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, start_time, duration_minutes, category,
		       title, host, agenda, join_url, zoom_id
		FROM meetings ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Meeting, 0)
	for rows.Next() {
		var m model.Meeting
		var category string
		if err := rows.Scan(&m.ID, &m.Date, &m.StartTime, &m.DurationMinutes, &category,
			&m.Title, &m.Host, &m.Agenda, &m.JoinURL, &m.ZoomID); err != nil {
			return nil, err
		}
		m.Category = model.ParseCategory(category)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id string) (model.Meeting, error) {
	var m model.Meeting
	var category string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, date, start_time, duration_minutes, category,
		       title, host, agenda, join_url, zoom_id
		FROM meetings WHERE id = $1`, id).
		Scan(&m.ID, &m.Date, &m.StartTime, &m.DurationMinutes, &category,
			&m.Title, &m.Host, &m.Agenda, &m.JoinURL, &m.ZoomID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Meeting{}, ErrNotFound
	}
	if err != nil {
		return model.Meeting{}, err
	}
	m.Category = model.ParseCategory(category)
	return m, nil
}

func (s *PostgresStore) Put(ctx context.Context, m model.Meeting) error {
	if err := m.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meetings
			(id, date, start_time, duration_minutes, category,
			 title, host, agenda, join_url, zoom_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date,
			start_time = EXCLUDED.start_time,
			duration_minutes = EXCLUDED.duration_minutes,
			category = EXCLUDED.category,
			title = EXCLUDED.title,
			host = EXCLUDED.host,
			agenda = EXCLUDED.agenda,
			join_url = EXCLUDED.join_url,
			zoom_id = EXCLUDED.zoom_id`,
		m.ID, m.Date, m.StartTime, m.DurationMinutes, string(m.Category),
		m.Title, m.Host, m.Agenda, m.JoinURL, m.ZoomID)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }
