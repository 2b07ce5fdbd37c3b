package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/resume"
	"github.com/fairyhunter13/ai-interviewer/internal/config"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-interviewer/internal/usecase"
	"github.com/fairyhunter13/ai-interviewer/pkg/textx"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Engine     *usecase.Orchestrator
	Extractor  domain.TextExtractor
	RedisCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers wired.
func NewServer(cfg config.Config, engine *usecase.Orchestrator, extractor domain.TextExtractor, redisCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Engine: engine, Extractor: extractor, RedisCheck: redisCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// sessionView is the API shape of a candidate session, augmented with the
// live timer and busy state that only exist in memory.
type sessionView struct {
	domain.CandidateSession
	TimerRemainingSeconds int  `json:"timer_remaining_seconds"`
	Busy                  bool `json:"busy"`
}

func (s *Server) view(cs domain.CandidateSession) sessionView {
	return sessionView{
		CandidateSession:      cs,
		TimerRemainingSeconds: s.Engine.TimerRemaining(cs.ID),
		Busy:                  s.Engine.Busy(cs.ID),
	}
}

// allowedExt enforces an allowlist for resume uploads: .txt, .pdf, .docx
func allowedExt(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".txt") || strings.HasSuffix(n, ".pdf") || strings.HasSuffix(n, ".docx")
}

func allowedMIMEFor(m, filename string) bool {
	m = strings.ToLower(m)
	// Some detectors misclassify rich .txt files as text/html; accept any
	// text/* for a .txt extension.
	if strings.HasSuffix(strings.ToLower(filename), ".txt") && strings.HasPrefix(m, "text/") {
		return true
	}
	if strings.HasPrefix(m, "text/plain") { // allow parameters such as charset
		return true
	}
	return m == "application/pdf" || m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// extractResumeText extracts plain text from the uploaded resume.
// PDF and DOCX go through the external extractor via a temp file; plain text
// is sanitized directly.
func extractResumeText(ctx context.Context, extractor domain.TextExtractor, h *multipart.FileHeader, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(h.Filename))
	if ext == ".pdf" || ext == ".docx" {
		if extractor == nil {
			return "", fmt.Errorf("%w: %s requires extractor", domain.ErrInvalidArgument, strings.TrimPrefix(ext, "."))
		}
		tmp, err := os.CreateTemp("", "resume-*")
		if err != nil {
			return "", err
		}
		defer func() { _ = os.Remove(tmp.Name()); _ = tmp.Close() }()
		if _, err := tmp.Write(data); err != nil {
			return "", err
		}
		if err := tmp.Close(); err != nil {
			return "", err
		}
		return extractor.ExtractPath(ctx, h.Filename, tmp.Name())
	}
	return textx.SanitizeText(string(data)), nil
}

// CreateSessionHandler creates a new candidate session. The multipart form
// may carry an optional resume file used to pre-fill contact info.
func (s *Server) CreateSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			prefill domain.CandidateInfo
			meta    *domain.ResumeMeta
		)

		if strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			if err := r.ParseMultipartForm(maxBytes); err != nil {
				if strings.Contains(strings.ToLower(err.Error()), "too large") {
					writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
						Code: "INVALID_ARGUMENT", Message: "payload too large",
						Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
					}})
					return
				}
				writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
				return
			}
			file, header, err := r.FormFile("resume")
			switch {
			case err == http.ErrMissingFile:
				// Resume is optional.
			case err != nil:
				writeError(w, r, fmt.Errorf("%w: resume: %v", domain.ErrInvalidArgument, err), nil)
				return
			default:
				defer func() { _ = file.Close() }()
				data, err := io.ReadAll(file)
				if err != nil {
					writeError(w, r, fmt.Errorf("%w: resume read: %v", domain.ErrInvalidArgument, err), nil)
					return
				}
				if !allowedExt(header.Filename) {
					writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
						Code: "INVALID_ARGUMENT", Message: "unsupported media type for resume (extension)",
						Details: map[string]any{"filename": header.Filename},
					}})
					return
				}
				if m := mimetype.Detect(data); !allowedMIMEFor(m.String(), header.Filename) {
					writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
						Code: "INVALID_ARGUMENT", Message: "unsupported media type for resume (content)",
						Details: map[string]any{"mime": m.String(), "filename": header.Filename},
					}})
					return
				}
				text, err := extractResumeText(r.Context(), s.Extractor, header, data)
				if err != nil {
					LoggerFrom(r).Warn("resume extraction failed; continuing without prefill", "error", err)
				} else {
					prefill = resume.ExtractContacts(text)
				}
				meta = &domain.ResumeMeta{FileName: header.Filename, UploadedAt: time.Now().UTC()}
			}
		}

		sess, err := s.Engine.StartSession(r.Context(), prefill, meta)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, s.view(sess))
	}
}

// CurrentSessionHandler returns the active session and a resumable hint for
// the start-or-resume choice after a restart.
func (s *Server) CurrentSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, resumable, err := s.Engine.Current(r.Context())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"session":   s.view(sess),
			"resumable": resumable,
		})
	}
}

// GetSessionHandler returns one session by ID.
func (s *Server) GetSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		sess, err := s.Engine.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, s.view(sess))
	}
}

// SubmitMessageHandler accepts one candidate chat message: a contact-field
// reply while collecting info, or a question answer during the interview.
func (s *Server) SubmitMessageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			Content string `json:"content" validate:"required,max=10000"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			verrs := map[string]string{}
			var ve validator.ValidationErrors
			if errors.As(err, &ve) {
				for _, fe := range ve {
					verrs[strings.ToLower(fe.Field())] = fe.Tag()
				}
			}
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
			return
		}
		sess, err := s.Engine.SubmitMessage(r.Context(), id, req.Content)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, s.view(sess))
	}
}

// SetDraftHandler syncs the answer text typed so far. The draft is consumed
// by the timer expiry path and never persisted.
func (s *Server) SetDraftHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			Content string `json:"content" validate:"max=10000"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), nil)
			return
		}
		if err := s.Engine.SetDraft(r.Context(), id, req.Content); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ResumeSessionHandler reactivates an unfinished session, restarting the
// current question timer with its full time limit.
func (s *Server) ResumeSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		sess, err := s.Engine.ResumeSession(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, s.view(sess))
	}
}

// DiscardSessionHandler abandons an unfinished session (start-fresh action).
func (s *Server) DiscardSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := s.Engine.DiscardSession(r.Context(), id); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// dashboardEntry is the list row for completed interviews.
type dashboardEntry struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	TotalScore  int        `json:"total_score"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// DashboardListHandler returns completed sessions ordered by score.
func (s *Server) DashboardListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions := s.Engine.ListCompleted(r.Context())
		entries := make([]dashboardEntry, 0, len(sessions))
		for _, cs := range sessions {
			entries = append(entries, dashboardEntry{
				ID:          cs.ID,
				Name:        cs.Info.Name,
				Email:       cs.Info.Email,
				TotalScore:  cs.TotalScore,
				CompletedAt: cs.CompletedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"candidates": entries})
	}
}

// DashboardDetailHandler returns the full read-only detail of one completed
// session: questions, answers, judgements and the final summary.
func (s *Server) DashboardDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		sess, err := s.Engine.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		if sess.Status != domain.StatusCompleted {
			writeError(w, r, fmt.Errorf("%w: session %s not completed", domain.ErrNotFound, id), nil)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

// ReadyzHandler probes the snapshot store.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 1)
		if s.RedisCheck != nil {
			if err := s.RedisCheck(ctx); err != nil {
				checks = append(checks, check{Name: "redis", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "redis", OK: true})
			}
		}
		ok := true
		for _, c := range checks {
			if !c.OK {
				ok = false
				break
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
