package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/service"
)

const (
	maxBodyBytes    = 2 << 20
	maxRegradeBatch = 100
)

// ExerciseLister отдаёт id упражнений, для которых есть рубрика.
type ExerciseLister interface {
	IDs(ctx context.Context) ([]string, error)
}

type Deps struct {
	Grading   service.GradingService
	Exercises ExerciseLister
	Logger    *zap.Logger
	// MetricsHandler - обычно metrics.Handler(); nil - /metrics не публикуется
	MetricsHandler http.Handler
	// RequestTimeout ограничивает одну проверку, включая запуск браузера
	RequestTimeout time.Duration
	// RegradeParallel - сколько проверок пакета идёт одновременно, из него считается таймаут пакета
	RegradeParallel int
	// MaxRegradeBatch - потолок размера пакета, больше - 400
	MaxRegradeBatch int
}

type Server struct {
	grading   service.GradingService
	exercises ExerciseLister
	logger    *zap.Logger
	metricsH  http.Handler
	timeout   time.Duration
	parallel  int
	maxBatch  int
}

func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.RequestTimeout == 0 {
		deps.RequestTimeout = 90 * time.Second
	}
	if deps.RegradeParallel <= 0 {
		deps.RegradeParallel = 4
	}
	if deps.MaxRegradeBatch <= 0 {
		deps.MaxRegradeBatch = maxRegradeBatch
	}
	return &Server{
		grading:   deps.Grading,
		exercises: deps.Exercises,
		logger:    deps.Logger,
		metricsH:  deps.MetricsHandler,
		timeout:   deps.RequestTimeout,
		parallel:  deps.RegradeParallel,
		maxBatch:  deps.MaxRegradeBatch,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metricsH != nil {
		mux.Handle("GET /metrics", s.metricsH)
	}

	mux.HandleFunc("POST /v1/validate", s.validate)
	mux.HandleFunc("POST /v1/regrade", s.regrade)
	mux.HandleFunc("GET /v1/exercises", s.listExercises)
	mux.HandleFunc("GET /v1/learners/{learner}/history", s.history)
	mux.HandleFunc("GET /v1/learners/{learner}/progress", s.progress)
	return mux
}

// Run слушает addr до отмены ctx, затем даёт активным запросам 10 секунд на завершение.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type validateResponse struct {
	*domain.Submission
	Persisted bool `json:"persisted"`
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	sub, err := s.grading.Submit(ctx, req)
	if err != nil && sub == nil {
		s.writeError(w, err)
		return
	}
	// вердикт есть, но журнал не записан: отдаём результат, помечаем
	writeJSON(w, http.StatusOK, validateResponse{Submission: sub, Persisted: err == nil})
}

type regradeRequest struct {
	Submissions []service.SubmitRequest `json:"submissions"`
}

type regradeResponse struct {
	Results []domain.ValidationResult `json:"results"`
}

func (s *Server) regrade(w http.ResponseWriter, r *http.Request) {
	var req regradeRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Submissions) == 0 {
		http.Error(w, "submissions are required", http.StatusBadRequest)
		return
	}
	if len(req.Submissions) > s.maxBatch {
		http.Error(w, "too many submissions, at most "+strconv.Itoa(s.maxBatch)+" per batch", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.regradeTimeout(len(req.Submissions)))
	defer cancel()

	results, err := s.grading.Regrade(ctx, req.Submissions)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, regradeResponse{Results: results})
}

// regradeTimeout - пакет идёт волнами по parallel проверок, каждой волне своё окно.
func (s *Server) regradeTimeout(n int) time.Duration {
	waves := (n + s.parallel - 1) / s.parallel
	return s.timeout * time.Duration(waves)
}

func (s *Server) listExercises(w http.ResponseWriter, r *http.Request) {
	ids, err := s.exercises.IDs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"exercises": ids})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	subs, err := s.grading.History(r.Context(), r.PathValue("learner"), r.URL.Query().Get("exercise"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if subs == nil {
		subs = []domain.Submission{}
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Submission{"submissions": subs})
}

func (s *Server) progress(w http.ResponseWriter, r *http.Request) {
	summary, err := s.grading.Progress(r.Context(), r.PathValue("learner"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if summary == nil {
		summary = []domain.ExerciseSummary{}
	}
	writeJSON(w, http.StatusOK, map[string][]domain.ExerciseSummary{"exercises": summary})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var rle *service.RateLimitError
	switch {
	case errors.As(err, &rle):
		secs := int(math.Ceil(time.Until(rle.RetryAt).Seconds()))
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, domain.ErrRateLimited):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, domain.ErrEmptyLearnerID), errors.Is(err, domain.ErrEmptyExerciseID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrAuditDisabled):
		http.Error(w, err.Error(), http.StatusNotImplemented)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		http.Error(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		s.logger.Error("request failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "bad json: "+strings.TrimSpace(err.Error()), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
