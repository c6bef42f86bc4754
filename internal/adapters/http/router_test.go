package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dkovalev/operator-kb-assistant/internal/config"
	"github.com/dkovalev/operator-kb-assistant/internal/core/domain"
)

type fakeAnswerService struct {
	answer *domain.Answer
	err    error
}

func (f *fakeAnswerService) Answer(_ context.Context, question string) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer", context.Canceled)
	}
	return f.answer, f.err
}

type fakeCoverageService struct {
	coverage map[string]domain.TopicCoverage
	gaps     []string
}

func (f *fakeCoverageService) AnalyzeCoverage(context.Context) map[string]domain.TopicCoverage {
	return f.coverage
}

func (f *fakeCoverageService) FindGaps(_ context.Context, questions []string) []string {
	if f.gaps != nil {
		return f.gaps
	}
	return questions
}

type fakeCorpusAdmin struct {
	backupPath  string
	exportText  string
	exportJSON  []byte
	importErr   error
	imported    []byte
	importedFmt string
	restored    bool
	rotatedKeep int
}

func (f *fakeCorpusAdmin) Backup() (string, error)      { return f.backupPath, nil }
func (f *fakeCorpusAdmin) RotateBackups(keep int) error { f.rotatedKeep = keep; return nil }
func (f *fakeCorpusAdmin) Restore() error               { f.restored = true; return nil }
func (f *fakeCorpusAdmin) ExportText() (string, error)  { return f.exportText, nil }
func (f *fakeCorpusAdmin) ExportJSON() ([]byte, error)  { return f.exportJSON, nil }

func (f *fakeCorpusAdmin) Import(payload []byte, format string) error {
	if f.importErr != nil {
		return f.importErr
	}
	f.imported = payload
	f.importedFmt = format
	return nil
}

type fakeFeedbackStore struct {
	users    []domain.User
	feedback []domain.Feedback
	counters domain.AccuracyCounters
	daily    []domain.DailyStat
}

func (f *fakeFeedbackStore) UpsertUser(_ context.Context, user domain.User) error {
	f.users = append(f.users, user)
	return nil
}

func (f *fakeFeedbackStore) SaveFeedback(_ context.Context, fb domain.Feedback) error {
	f.feedback = append(f.feedback, fb)
	return nil
}

func (f *fakeFeedbackStore) Counters(context.Context) (domain.AccuracyCounters, error) {
	return f.counters, nil
}

func (f *fakeFeedbackStore) DailyStats(context.Context, int) ([]domain.DailyStat, error) {
	return f.daily, nil
}

type fakeCorpusSource struct{ raw string }

func (f *fakeCorpusSource) RawText(context.Context) string { return f.raw }

type fakeEventQueue struct {
	published []string
	err       error
}

func (f *fakeEventQueue) PublishCorpusUpdated(_ context.Context, reason string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, reason)
	return nil
}

func (f *fakeEventQueue) SubscribeCorpusUpdated(context.Context, func(context.Context, string) error) error {
	return nil
}

type testDeps struct {
	answers  *fakeAnswerService
	coverage *fakeCoverageService
	admin    *fakeCorpusAdmin
	feedback *fakeFeedbackStore
	queue    *fakeEventQueue
}

func newTestHandler(cfg config.Config) (http.Handler, *testDeps) {
	deps := &testDeps{
		answers: &fakeAnswerService{answer: &domain.Answer{
			Text:   "Pay through the portal.",
			Script: "Good afternoon.",
			Source: "Payments",
			Title:  "Payments",
		}},
		coverage: &fakeCoverageService{coverage: map[string]domain.TopicCoverage{
			"Payment": {MatchCount: 12, Level: domain.CoverageHigh},
		}},
		admin:    &fakeCorpusAdmin{backupPath: "/backups/knowledge_backup_1.txt", exportText: "corpus text", exportJSON: []byte(`{"article_count":0}`)},
		feedback: &fakeFeedbackStore{counters: domain.AccuracyCounters{Total: 4, Correct: 3}},
		queue:    &fakeEventQueue{},
	}
	router := NewRouter(
		deps.answers,
		deps.coverage,
		deps.admin,
		deps.feedback,
		&fakeCorpusSource{raw: "ARTICLE 1: Payments"},
		deps.queue,
		nil,
		cfg,
	)
	return router.Handler(), deps
}

func TestAnswerEndpoint(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})

	body := bytes.NewBufferString(`{"question": "how to pay"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/answers", body)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var answer domain.Answer
	if err := json.NewDecoder(res.Body).Decode(&answer); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if answer.Source != "Payments" || answer.Text == "" {
		t.Fatalf("unexpected answer: %+v", answer)
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestAnswerEndpointValidation(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/v1/answers", bytes.NewBufferString(`{"question": "  "}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank question, got %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/answers", nil)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", res.Code)
	}
}

func TestFeedbackEndpoint(t *testing.T) {
	handler, deps := newTestHandler(config.Config{})

	body := bytes.NewBufferString(`{
		"user_id": 42,
		"username": "op42",
		"first_name": "Anna",
		"question": "how to pay",
		"answer": "Pay through the portal.",
		"correct": true
	}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/feedback", body)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if len(deps.feedback.users) != 1 || deps.feedback.users[0].ID != 42 {
		t.Fatalf("user not upserted: %+v", deps.feedback.users)
	}
	if len(deps.feedback.feedback) != 1 {
		t.Fatalf("feedback not saved: %+v", deps.feedback.feedback)
	}
	saved := deps.feedback.feedback[0]
	if saved.ID == "" {
		t.Fatalf("feedback id not assigned")
	}
	if !saved.Correct || saved.Question != "how to pay" {
		t.Fatalf("unexpected feedback row: %+v", saved)
	}
}

func TestFeedbackEndpointValidation(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/v1/feedback", bytes.NewBufferString(`{"question": "q"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without user_id, got %d", res.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var payload struct {
		Counters domain.AccuracyCounters `json:"counters"`
		Accuracy float64                 `json:"accuracy"`
		Corpus   domain.CorpusStats      `json:"corpus"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if payload.Counters.Total != 4 || payload.Accuracy != 75 {
		t.Fatalf("unexpected stats: %+v", payload)
	}
	if payload.Corpus.ArticleCount != 1 {
		t.Fatalf("unexpected corpus stats: %+v", payload.Corpus)
	}
}

func TestCoverageEndpoint(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/coverage", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var coverage map[string]domain.TopicCoverage
	if err := json.NewDecoder(res.Body).Decode(&coverage); err != nil {
		t.Fatalf("decode coverage: %v", err)
	}
	if coverage["Payment"].Level != domain.CoverageHigh {
		t.Fatalf("unexpected coverage: %+v", coverage)
	}
}

func TestGapsEndpointTruncatesQuestionList(t *testing.T) {
	handler, _ := newTestHandler(config.Config{GapQuestLim: 2})

	body := bytes.NewBufferString(`{"questions": ["one question", "two question", "three question"]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/gaps", body)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var payload struct {
		Gaps []string `json:"gaps"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode gaps: %v", err)
	}
	if len(payload.Gaps) != 2 {
		t.Fatalf("question limit not applied: %v", payload.Gaps)
	}
}

func TestAdminExportEndpoints(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/export", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK || res.Body.String() != "corpus text" {
		t.Fatalf("unexpected text export: %d %q", res.Code, res.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/export?format=json", nil)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for json export, got %d", res.Code)
	}
	if ct := res.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type: %q", ct)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/export?format=xlsx", nil)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported format, got %d", res.Code)
	}
}

func TestAdminImportPublishesEvent(t *testing.T) {
	handler, deps := newTestHandler(config.Config{})

	body := bytes.NewBufferString("new corpus text")
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/import?format=txt", body)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if string(deps.admin.imported) != "new corpus text" || deps.admin.importedFmt != "txt" {
		t.Fatalf("import not forwarded: %q %q", deps.admin.imported, deps.admin.importedFmt)
	}
	if len(deps.queue.published) != 1 || deps.queue.published[0] != "import" {
		t.Fatalf("corpus update event not published: %v", deps.queue.published)
	}
}

func TestAdminImportInvalidFormat(t *testing.T) {
	handler, deps := newTestHandler(config.Config{})
	deps.admin.importErr = domain.WrapError(domain.ErrInvalidInput, "import corpus", context.Canceled)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/import?format=xlsx", bytes.NewBufferString("x"))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if len(deps.queue.published) != 0 {
		t.Fatalf("event published for failed import")
	}
}

func TestAdminBackupAndRestore(t *testing.T) {
	handler, deps := newTestHandler(config.Config{BackupKeep: 3})

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/backup", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if deps.admin.rotatedKeep != 3 {
		t.Fatalf("rotation keep not forwarded: %d", deps.admin.rotatedKeep)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/admin/restore", nil)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !deps.admin.restored {
		t.Fatalf("restore not invoked")
	}
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestHandler(config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestTemporaryErrorMapsTo503(t *testing.T) {
	handler, deps := newTestHandler(config.Config{})
	deps.answers.answer = nil
	deps.answers.err = domain.WrapError(domain.ErrTemporary, "answer", context.DeadlineExceeded)

	req := httptest.NewRequest(http.MethodPost, "/v1/answers", bytes.NewBufferString(`{"question": "q"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for temporary error, got %d", res.Code)
	}
}
