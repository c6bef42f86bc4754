package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dkovalev/operator-kb-assistant/internal/core/domain"
)

func newMockRepo(t *testing.T) (*FeedbackRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewFeedbackRepository(db), mock
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs(int64(2026083001)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(int64(42), "op42", "Anna", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertUser(context.Background(), domain.User{
		ID:        42,
		Username:  "op42",
		FirstName: "Anna",
	})
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveFeedbackUpdatesDailyRollup(t *testing.T) {
	repo, mock := newMockRepo(t)

	createdAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	fb := domain.Feedback{
		ID:        "fb-1",
		UserID:    42,
		Question:  "how to pay",
		Answer:    "Pay through the portal.",
		Correct:   true,
		CreatedAt: createdAt,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO feedback").
		WithArgs(fb.ID, fb.UserID, fb.Question, fb.Answer, fb.Correct, fb.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO daily_statistics").
		WithArgs(fb.CreatedAt, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SaveFeedback(context.Background(), fb); err != nil {
		t.Fatalf("save feedback: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveFeedbackRollsBackOnInsertError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO feedback").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.SaveFeedback(context.Background(), domain.Feedback{ID: "fb-2"})
	if err == nil {
		t.Fatalf("expected insert error to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCounters(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count", "correct"}).AddRow(20, 15))

	counters, err := repo.Counters(context.Background())
	if err != nil {
		t.Fatalf("counters: %v", err)
	}
	if counters.Total != 20 || counters.Correct != 15 {
		t.Fatalf("unexpected counters: %+v", counters)
	}
	if counters.Accuracy() != 75 {
		t.Fatalf("unexpected accuracy: %f", counters.Accuracy())
	}
}

func TestDailyStats(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"date", "total_questions", "correct_answers", "accuracy_rate"}).
		AddRow("2026-08-30", 10, 8, 80.0).
		AddRow("2026-08-29", 5, 5, 100.0)
	mock.ExpectQuery("FROM daily_statistics").
		WithArgs(7).
		WillReturnRows(rows)

	stats, err := repo.DailyStats(context.Background(), 0)
	if err != nil {
		t.Fatalf("daily stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(stats))
	}
	if stats[0].Date != "2026-08-30" || stats[0].AccuracyRate != 80.0 {
		t.Fatalf("unexpected first row: %+v", stats[0])
	}
}
