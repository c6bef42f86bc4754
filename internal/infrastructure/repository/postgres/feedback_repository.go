// Package postgres stores the collaborator state excluded from the
// retrieval core: operators, answer feedback and daily accuracy rollups.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dkovalev/operator-kb-assistant/internal/core/domain"
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *FeedbackRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT PRIMARY KEY,
	username TEXT,
	first_name TEXT,
	is_admin BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_activity TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS feedback (
	id TEXT PRIMARY KEY,
	user_id BIGINT REFERENCES users(id),
	question TEXT NOT NULL,
	bot_response TEXT NOT NULL,
	is_correct BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_statistics (
	date DATE PRIMARY KEY,
	total_questions INTEGER NOT NULL DEFAULT 0,
	correct_answers INTEGER NOT NULL DEFAULT 0,
	accuracy_rate DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_feedback_user_id ON feedback(user_id);
CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) UpsertUser(ctx context.Context, user domain.User) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, username, first_name, is_admin, created_at, last_activity)
VALUES ($1,$2,$3,$4,now(),now())
ON CONFLICT (id) DO UPDATE
SET username = EXCLUDED.username, first_name = EXCLUDED.first_name, last_activity = now()
`, user.ID, user.Username, user.FirstName, user.Admin)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// SaveFeedback records one verdict and folds it into that day's rollup.
func (r *FeedbackRepository) SaveFeedback(ctx context.Context, fb domain.Feedback) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin feedback tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO feedback (id, user_id, question, bot_response, is_correct, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, fb.ID, fb.UserID, fb.Question, fb.Answer, fb.Correct, fb.CreatedAt); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}

	correctDelta := 0
	if fb.Correct {
		correctDelta = 1
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO daily_statistics (date, total_questions, correct_answers, accuracy_rate)
VALUES ($1::date, 1, $2, $2 * 100.0)
ON CONFLICT (date) DO UPDATE
SET total_questions = daily_statistics.total_questions + 1,
	correct_answers = daily_statistics.correct_answers + $2,
	accuracy_rate = (daily_statistics.correct_answers + $2) * 100.0 / (daily_statistics.total_questions + 1)
`, fb.CreatedAt, correctDelta); err != nil {
		return fmt.Errorf("update daily statistics: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit feedback tx: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) Counters(ctx context.Context) (domain.AccuracyCounters, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT COUNT(*), COUNT(*) FILTER (WHERE is_correct)
FROM feedback
`)

	var counters domain.AccuracyCounters
	if err := row.Scan(&counters.Total, &counters.Correct); err != nil {
		return domain.AccuracyCounters{}, fmt.Errorf("scan counters: %w", err)
	}
	return counters, nil
}

func (r *FeedbackRepository) DailyStats(ctx context.Context, days int) ([]domain.DailyStat, error) {
	if days <= 0 {
		days = 7
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT date::text, total_questions, correct_answers, accuracy_rate
FROM daily_statistics
WHERE date >= current_date - $1::int
ORDER BY date DESC
`, days)
	if err != nil {
		return nil, fmt.Errorf("query daily statistics: %w", err)
	}
	defer rows.Close()

	var out []domain.DailyStat
	for rows.Next() {
		var stat domain.DailyStat
		if err := rows.Scan(&stat.Date, &stat.Total, &stat.Correct, &stat.AccuracyRate); err != nil {
			return nil, fmt.Errorf("scan daily stat: %w", err)
		}
		out = append(out, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily statistics: %w", err)
	}
	return out, nil
}
