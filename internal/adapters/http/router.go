package httpadapter

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dkovalev/operator-kb-assistant/internal/config"
	"github.com/dkovalev/operator-kb-assistant/internal/core/domain"
	"github.com/dkovalev/operator-kb-assistant/internal/core/ports"
	"github.com/dkovalev/operator-kb-assistant/internal/observability/metrics"
)

const serviceName = "api"

// importBodyLimit bounds admin corpus uploads.
const importBodyLimit = 16 << 20

type Router struct {
	answers  ports.AnswerService
	coverage ports.CoverageService
	admin    ports.CorpusAdmin
	feedback ports.FeedbackStore
	corpus   ports.CorpusSource
	queue    ports.EventQueue
	metrics  *metrics.Metrics
	cfg      config.Config
}

func NewRouter(
	answers ports.AnswerService,
	coverage ports.CoverageService,
	admin ports.CorpusAdmin,
	feedback ports.FeedbackStore,
	corpus ports.CorpusSource,
	queue ports.EventQueue,
	m *metrics.Metrics,
	cfg config.Config,
) *Router {
	return &Router{
		answers:  answers,
		coverage: coverage,
		admin:    admin,
		feedback: feedback,
		corpus:   corpus,
		queue:    queue,
		metrics:  m,
		cfg:      cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/answers", rt.answerQuestion)
	mux.HandleFunc("/v1/feedback", rt.submitFeedback)
	mux.HandleFunc("/v1/stats", rt.getStats)
	mux.HandleFunc("/v1/coverage", rt.getCoverage)
	mux.HandleFunc("/v1/gaps", rt.findGaps)
	mux.HandleFunc("/v1/admin/export", rt.adminExport)
	mux.HandleFunc("/v1/admin/import", rt.adminImport)
	mux.HandleFunc("/v1/admin/backup", rt.adminBackup)
	mux.HandleFunc("/v1/admin/restore", rt.adminRestore)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, 50*time.Millisecond)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) answerQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	start := time.Now()
	answer, err := rt.answers.Answer(r.Context(), req.Question)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordAnswer(serviceName, answer.Source, time.Since(start))
		if answer.Source == domain.SourceNotFound {
			rt.metrics.RecordFallbackFailure(serviceName)
		}
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) submitFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		UserID    int64  `json:"user_id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		Question  string `json:"question"`
		Answer    string `json:"answer"`
		Correct   bool   `json:"correct"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Question) == "" || req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id and question are required")
		return
	}

	if err := rt.feedback.UpsertUser(r.Context(), domain.User{
		ID:        req.UserID,
		Username:  req.Username,
		FirstName: req.FirstName,
	}); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	fb := domain.Feedback{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Question:  req.Question,
		Answer:    req.Answer,
		Correct:   req.Correct,
		CreatedAt: time.Now().UTC(),
	}
	if err := rt.feedback.SaveFeedback(r.Context(), fb); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordFeedback(serviceName, req.Correct)
	}
	writeJSON(w, http.StatusCreated, fb)
}

func (rt *Router) getStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	counters, err := rt.feedback.Counters(r.Context())
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	daily, err := rt.feedback.DailyStats(r.Context(), 7)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"counters": counters,
		"accuracy": counters.Accuracy(),
		"daily":    daily,
		"corpus":   domain.ComputeCorpusStats(rt.corpus.RawText(r.Context())),
	})
}

func (rt *Router) getCoverage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, rt.coverage.AnalyzeCoverage(r.Context()))
}

func (rt *Router) findGaps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Questions []string `json:"questions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if limit := rt.cfg.GapQuestLim; limit > 0 && len(req.Questions) > limit {
		req.Questions = req.Questions[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"gaps": rt.coverage.FindGaps(r.Context(), req.Questions),
	})
}

func (rt *Router) adminExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch r.URL.Query().Get("format") {
	case "json":
		payload, err := rt.admin.ExportJSON()
		if err != nil {
			writeError(w, mapErrorToHTTPStatus(err), err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	case "", "txt":
		text, err := rt.admin.ExportText()
		if err != nil {
			writeError(w, mapErrorToHTTPStatus(err), err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, text)
	default:
		writeError(w, http.StatusBadRequest, "unsupported format")
	}
}

func (rt *Router) adminImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, importBodyLimit))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read import payload")
		return
	}
	if len(payload) == 0 {
		writeError(w, http.StatusBadRequest, "import payload is empty")
		return
	}

	if err := rt.admin.Import(payload, r.URL.Query().Get("format")); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	// Refresh workers take a snapshot of the imported corpus; failing to
	// notify them does not undo the import.
	if rt.queue != nil {
		if err := rt.queue.PublishCorpusUpdated(r.Context(), "import"); err != nil {
			writeJSON(w, http.StatusOK, map[string]string{
				"status":  "imported",
				"warning": "corpus update event not published",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (rt *Router) adminBackup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path, err := rt.admin.Backup()
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	if err := rt.admin.RotateBackups(rt.cfg.BackupKeep); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"backup": path})
}

func (rt *Router) adminRestore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := rt.admin.Restore(); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
