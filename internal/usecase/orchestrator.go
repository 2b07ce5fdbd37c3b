// Package usecase contains the interview orchestrator: the single state
// machine that drives info collection, question flow, answer resolution and
// completion over the ports defined in domain.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-interviewer/pkg/textx"
)

// Chat copy posted by the assistant. Kept as constants so handlers and tests
// reference one source of truth.
const (
	msgInvalidName  = "Please provide a valid name (only letters and spaces)."
	msgInvalidEmail = "Please provide a valid email address."
	msgInvalidPhone = "Please provide a valid phone number (at least 10 digits)."

	msgAllCollected = "Perfect! All information collected. Let's begin your interview. " +
		"You'll answer 6 questions: 2 Easy, 2 Medium, and 2 Hard. Good luck!"

	// PlaceholderExpiredAnswer substitutes an empty draft when the timer
	// fires before the candidate typed anything.
	PlaceholderExpiredAnswer = "No answer provided (time expired)"
)

// Resolution triggers, used as the metric label for evaluated answers.
const (
	triggerSubmit  = "submit"
	triggerTimeout = "timeout"
)

// Orchestrator serializes every state mutation behind one mutex. Provider
// calls run with the mutex released and the session marked busy; the busy
// flag rejects concurrent mutations of that session while allowing other
// sessions to proceed.
type Orchestrator struct {
	store    domain.SessionStore
	provider domain.QuestionProvider

	mu     sync.Mutex
	snap   domain.Snapshot
	busy   map[string]bool
	drafts map[string]string
	timers map[string]TimerHandle

	newTimer TimerFactory
	now      func() time.Time
	newID    func() string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithTimerFactory substitutes the countdown implementation, used by tests
// to drive expiry deterministically.
func WithTimerFactory(f TimerFactory) Option {
	return func(o *Orchestrator) { o.newTimer = f }
}

// WithClock substitutes the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator builds the engine over a store and question provider.
func NewOrchestrator(store domain.SessionStore, provider domain.QuestionProvider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		provider: provider,
		snap:     domain.Snapshot{Sessions: map[string]*domain.CandidateSession{}},
		busy:     map[string]bool{},
		drafts:   map[string]string{},
		timers:   map[string]TimerHandle{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	o.newTimer = func(seconds int, onExpire func()) TimerHandle {
		return StartCountdown(seconds, time.Second, onExpire)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Hydrate loads persisted state. A missing snapshot is not an error; the
// engine simply starts empty.
func (o *Orchestrator) Hydrate(ctx context.Context) error {
	snap, err := o.store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("op=orchestrator.Hydrate: %w", err)
	}
	o.mu.Lock()
	o.snap = snap
	o.mu.Unlock()
	return nil
}

// StartSession creates a new candidate session, optionally pre-filled from
// resume extraction, and makes it the current session. Pre-filled fields are
// re-validated; invalid values are dropped so the collection loop prompts
// for them again.
func (o *Orchestrator) StartSession(ctx context.Context, prefill domain.CandidateInfo, resume *domain.ResumeMeta) (domain.CandidateSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	info := domain.CandidateInfo{}
	if domain.ValidateName(prefill.Name) {
		info.Name = strings.TrimSpace(prefill.Name)
	}
	if domain.ValidateEmail(prefill.Email) {
		info.Email = prefill.Email
	}
	if domain.ValidatePhone(prefill.Phone) {
		info.Phone = prefill.Phone
	}

	now := o.now()
	s := &domain.CandidateSession{
		ID:                   o.newID(),
		Info:                 info,
		Resume:               resume,
		Status:               domain.StatusCollectingInfo,
		CurrentQuestionIndex: -1,
		CreatedAt:            now,
		LastActiveAt:         now,
	}
	o.snap.Sessions[s.ID] = s
	o.snap.CurrentSessionID = s.ID

	missing := domain.MissingFields(s.Info)
	if len(missing) > 0 {
		o.postAssistant(s, "Please provide your "+missing[0]+".")
	} else {
		o.postAssistant(s, msgAllCollected)
		s.Status = domain.StatusInProgress
		if err := o.askNextLocked(ctx, s); err != nil {
			return domain.CandidateSession{}, err
		}
	}
	o.saveLocked(ctx)
	return cloneSession(s), nil
}

// SubmitMessage processes one candidate chat message: a contact-field answer
// while collecting info, or a question answer while the interview runs.
func (o *Orchestrator) SubmitMessage(ctx context.Context, sessionID, content string) (domain.CandidateSession, error) {
	content = strings.TrimSpace(textx.SanitizeText(content))

	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.sessionLocked(sessionID)
	if err != nil {
		return domain.CandidateSession{}, err
	}
	if o.busy[s.ID] {
		return domain.CandidateSession{}, fmt.Errorf("op=orchestrator.SubmitMessage id=%s: %w", sessionID, domain.ErrSessionBusy)
	}

	switch s.Status {
	case domain.StatusCollectingInfo:
		if content == "" {
			return domain.CandidateSession{}, fmt.Errorf("op=orchestrator.SubmitMessage: empty message: %w", domain.ErrInvalidArgument)
		}
		if err := o.collectInfoLocked(ctx, s, content); err != nil {
			return domain.CandidateSession{}, err
		}
	case domain.StatusInProgress:
		if content == "" {
			return domain.CandidateSession{}, fmt.Errorf("op=orchestrator.SubmitMessage: empty answer: %w", domain.ErrInvalidArgument)
		}
		q := s.CurrentQuestion()
		if q == nil || q.Answered() {
			// No open question: a prior generation attempt failed and the
			// candidate is nudging the interview forward. Drop the message
			// content and retry the next question.
			if err := o.askNextLocked(ctx, s); err != nil {
				return domain.CandidateSession{}, err
			}
			break
		}
		if err := o.resolveAnswerLocked(ctx, s, q, content, triggerSubmit); err != nil {
			return domain.CandidateSession{}, err
		}
	default:
		return domain.CandidateSession{}, fmt.Errorf("op=orchestrator.SubmitMessage: session is %s: %w", s.Status, domain.ErrConflict)
	}

	s.LastActiveAt = o.now()
	o.saveLocked(ctx)
	return cloneSession(s), nil
}

// collectInfoLocked validates the answer for the first missing contact field
// and either re-prompts or advances. When the last field lands it flips the
// session to IN_PROGRESS and asks the first question.
func (o *Orchestrator) collectInfoLocked(ctx context.Context, s *domain.CandidateSession, content string) error {
	o.postUser(s, content)

	missing := domain.MissingFields(s.Info)
	if len(missing) == 0 {
		s.Status = domain.StatusInProgress
		return o.askNextLocked(ctx, s)
	}

	switch field := missing[0]; field {
	case domain.FieldName:
		if !domain.ValidateName(content) {
			o.postAssistant(s, msgInvalidName)
			return nil
		}
		s.Info.Name = strings.TrimSpace(content)
	case domain.FieldEmail:
		if !domain.ValidateEmail(content) {
			o.postAssistant(s, msgInvalidEmail)
			return nil
		}
		s.Info.Email = content
	case domain.FieldPhone:
		if !domain.ValidatePhone(content) {
			o.postAssistant(s, msgInvalidPhone)
			return nil
		}
		s.Info.Phone = content
	}

	if missing = domain.MissingFields(s.Info); len(missing) > 0 {
		o.postAssistant(s, "Great! Now, please provide your "+missing[0]+".")
		return nil
	}
	o.postAssistant(s, msgAllCollected)
	s.Status = domain.StatusInProgress
	return o.askNextLocked(ctx, s)
}

// resolveAnswerLocked is the single resolution path shared by explicit
// submit and timer expiry. It claims the question by setting Answer, stops
// the timer, evaluates with the mutex released and posts the evaluation.
// The claim makes whichever path runs second a guaranteed no-op.
func (o *Orchestrator) resolveAnswerLocked(ctx context.Context, s *domain.CandidateSession, q *domain.Question, answer, trigger string) error {
	q.Answer = &answer
	o.stopTimerLocked(s.ID)
	delete(o.drafts, s.ID)
	o.postUser(s, answer)

	qText, qDiff := q.Text, q.Difficulty
	o.setBusyLocked(s.ID, true)
	o.mu.Unlock()
	ev, err := o.provider.EvaluateAnswer(ctx, qText, answer, qDiff)
	o.mu.Lock()
	o.setBusyLocked(s.ID, false)

	if err != nil {
		// Release the claim so the candidate can retry; the timer stays
		// stopped.
		q.Answer = nil
		o.postAssistant(s, fmt.Sprintf("Error evaluating answer: %v. Please submit your answer again.", err))
		return nil
	}

	q.Score = &ev.Score
	q.Judgement = ev.Judgement
	o.postAssistant(s, fmt.Sprintf("**Evaluation:** %s\n\n**Score:** %d/%d", ev.Judgement, ev.Score, qDiff.MaxScore()))
	observability.AnswersEvaluatedTotal.WithLabelValues(trigger).Inc()

	return o.askNextLocked(ctx, s)
}

// askNextLocked generates and posts the next question, or completes the
// interview once all six slots are filled. Called with the mutex held; it
// releases it around the provider call.
func (o *Orchestrator) askNextLocked(ctx context.Context, s *domain.CandidateSession) error {
	if len(s.Questions) >= domain.TotalQuestions {
		return o.completeLocked(ctx, s)
	}

	d := domain.QuestionSequence()[len(s.Questions)]
	previous := make([]string, 0, len(s.Questions))
	for _, q := range s.Questions {
		previous = append(previous, q.Text)
	}

	o.setBusyLocked(s.ID, true)
	o.mu.Unlock()
	text, err := o.provider.GenerateQuestion(ctx, d, previous)
	o.mu.Lock()
	o.setBusyLocked(s.ID, false)

	if err != nil || strings.TrimSpace(text) == "" {
		// The provider contract guarantees a bank fallback, so this is a
		// local fault. Surface it in chat and keep the session open.
		o.postAssistant(s, "Something went wrong preparing your next question. Please send any message to continue.")
		return nil
	}

	q := domain.Question{
		ID:               o.newID(),
		Text:             text,
		Difficulty:       d,
		TimeLimitSeconds: d.TimeLimitSeconds(),
		CreatedAt:        o.now(),
	}
	s.Questions = append(s.Questions, q)
	s.CurrentQuestionIndex = len(s.Questions) - 1
	o.postAssistant(s, fmt.Sprintf("**Question %d/%d** (%s)\n\n%s", len(s.Questions), domain.TotalQuestions, d, text))
	observability.QuestionsAskedTotal.WithLabelValues(string(d)).Inc()
	o.startTimerLocked(s, q.ID, q.TimeLimitSeconds)
	return nil
}

// completeLocked sums scores, generates the final summary and closes the
// session.
func (o *Orchestrator) completeLocked(ctx context.Context, s *domain.CandidateSession) error {
	total := 0
	results := make([]domain.QuestionResult, 0, len(s.Questions))
	for _, q := range s.Questions {
		score := 0
		if q.Score != nil {
			score = *q.Score
		}
		total += score
		answer := "No answer"
		if q.Answer != nil && *q.Answer != "" {
			answer = *q.Answer
		}
		results = append(results, domain.QuestionResult{
			Question:   q.Text,
			Answer:     answer,
			Score:      score,
			Difficulty: q.Difficulty,
		})
	}
	s.TotalScore = total

	name := s.Info.Name
	if name == "" {
		name = "Candidate"
	}

	o.setBusyLocked(s.ID, true)
	o.mu.Unlock()
	summary, err := o.provider.GenerateFinalSummary(ctx, name, results, total)
	o.mu.Lock()
	o.setBusyLocked(s.ID, false)

	if err != nil || strings.TrimSpace(summary) == "" {
		summary = fmt.Sprintf("%s completed the interview with a total score of %d/%d.", name, total, domain.MaxTotalScore)
	}

	now := o.now()
	s.FinalSummary = summary
	s.CompletedAt = &now
	s.Status = domain.StatusCompleted
	s.CurrentQuestionIndex = len(s.Questions)
	o.postAssistant(s, fmt.Sprintf("**Interview Complete!**\n\n**Final Score:** %d/%d\n\n**Summary:**\n%s\n\nThank you for your time!", total, domain.MaxTotalScore, summary))
	observability.ObserveCompletion(total)
	slog.Info("interview completed", slog.String("session_id", s.ID), slog.Int("total_score", total))
	return nil
}

// SetDraft stores the answer text the candidate has typed so far. The draft
// is ephemeral: it is consumed by the expiry path and never persisted.
func (o *Orchestrator) SetDraft(ctx context.Context, sessionID, content string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	if s.Status != domain.StatusInProgress {
		return fmt.Errorf("op=orchestrator.SetDraft: session is %s: %w", s.Status, domain.ErrConflict)
	}
	o.drafts[sessionID] = textx.SanitizeText(content)
	return nil
}

// handleExpiry is the timer callback. It resolves the current question with
// the latest draft, or the placeholder when nothing was typed. The answered
// check makes it a no-op when an explicit submit won the race.
func (o *Orchestrator) handleExpiry(sessionID, questionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.snap.Sessions[sessionID]
	if !ok || s.Status != domain.StatusInProgress || o.busy[sessionID] {
		return
	}
	q := s.CurrentQuestion()
	if q == nil || q.ID != questionID || q.Answered() {
		return
	}

	answer := strings.TrimSpace(o.drafts[sessionID])
	if answer == "" {
		answer = PlaceholderExpiredAnswer
	}
	observability.TimerExpiriesTotal.Inc()
	slog.Info("question timer expired", slog.String("session_id", sessionID), slog.String("question_id", questionID))

	if err := o.resolveAnswerLocked(ctx, s, q, answer, triggerTimeout); err != nil {
		slog.Error("expiry resolution failed", slog.String("session_id", sessionID), slog.Any("error", err))
		return
	}
	s.LastActiveAt = o.now()
	o.saveLocked(ctx)
}

// Current returns the session the engine considers active, with a resumable
// flag: true when the session is unfinished and no countdown is running,
// which is the state right after hydration from storage.
func (o *Orchestrator) Current(ctx context.Context) (domain.CandidateSession, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.snap.CurrentSessionID == "" {
		return domain.CandidateSession{}, false, fmt.Errorf("op=orchestrator.Current: no active session: %w", domain.ErrNotFound)
	}
	s, ok := o.snap.Sessions[o.snap.CurrentSessionID]
	if !ok {
		return domain.CandidateSession{}, false, fmt.Errorf("op=orchestrator.Current: no active session: %w", domain.ErrNotFound)
	}
	unfinished := s.Status == domain.StatusCollectingInfo || s.Status == domain.StatusInProgress
	resumable := unfinished && o.timers[s.ID] == nil && !o.busy[s.ID]
	return cloneSession(s), resumable, nil
}

// ResumeSession reactivates an unfinished session after a restart. The
// current question's timer restarts with the full time limit; elapsed time
// before the crash is forgiven.
func (o *Orchestrator) ResumeSession(ctx context.Context, sessionID string) (domain.CandidateSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.sessionLocked(sessionID)
	if err != nil {
		return domain.CandidateSession{}, err
	}
	if s.Status == domain.StatusCompleted {
		return domain.CandidateSession{}, fmt.Errorf("op=orchestrator.ResumeSession: session is %s: %w", s.Status, domain.ErrConflict)
	}
	o.snap.CurrentSessionID = s.ID

	if s.Status == domain.StatusInProgress {
		if q := s.CurrentQuestion(); q != nil && !q.Answered() && o.timers[s.ID] == nil {
			o.startTimerLocked(s, q.ID, q.TimeLimitSeconds)
		}
	}
	s.LastActiveAt = o.now()
	o.saveLocked(ctx)
	return cloneSession(s), nil
}

// DiscardSession abandons an unfinished session. Completed sessions are
// immutable history and stay in the dashboard.
func (o *Orchestrator) DiscardSession(ctx context.Context, sessionID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	if o.busy[s.ID] {
		return fmt.Errorf("op=orchestrator.DiscardSession id=%s: %w", sessionID, domain.ErrSessionBusy)
	}
	if s.Status == domain.StatusCompleted {
		return fmt.Errorf("op=orchestrator.DiscardSession: session is %s: %w", s.Status, domain.ErrConflict)
	}

	o.stopTimerLocked(s.ID)
	delete(o.drafts, s.ID)
	delete(o.snap.Sessions, s.ID)
	if o.snap.CurrentSessionID == s.ID {
		o.snap.CurrentSessionID = ""
	}
	o.saveLocked(ctx)
	return nil
}

// Get returns a copy of the session with the given ID.
func (o *Orchestrator) Get(ctx context.Context, sessionID string) (domain.CandidateSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, err := o.sessionLocked(sessionID)
	if err != nil {
		return domain.CandidateSession{}, err
	}
	return cloneSession(s), nil
}

// ListCompleted returns completed sessions ordered by total score descending,
// ties broken by most recent completion.
func (o *Orchestrator) ListCompleted(ctx context.Context) []domain.CandidateSession {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []domain.CandidateSession
	for _, s := range o.snap.Sessions {
		if s.Status == domain.StatusCompleted {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		ti, tj := out[i].CreatedAt, out[j].CreatedAt
		if out[i].CompletedAt != nil && out[j].CompletedAt != nil {
			ti, tj = *out[i].CompletedAt, *out[j].CompletedAt
		}
		return ti.After(tj)
	})
	return out
}

// Busy reports whether a provider call is in flight for the session.
func (o *Orchestrator) Busy(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy[sessionID]
}

// TimerRemaining returns the seconds left on the session's countdown, or 0
// when none is running.
func (o *Orchestrator) TimerRemaining(sessionID string) int {
	o.mu.Lock()
	t := o.timers[sessionID]
	o.mu.Unlock()
	if t == nil {
		return 0
	}
	return t.Remaining()
}

func (o *Orchestrator) sessionLocked(id string) (*domain.CandidateSession, error) {
	s, ok := o.snap.Sessions[id]
	if !ok {
		return nil, fmt.Errorf("op=orchestrator: session %s: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

// setBusyLocked flips the busy flag and pauses or resumes any running
// countdown so provider latency never eats answer time.
func (o *Orchestrator) setBusyLocked(id string, busy bool) {
	o.busy[id] = busy
	if t := o.timers[id]; t != nil {
		if busy {
			t.Pause()
		} else {
			t.Resume()
		}
	}
	if !busy {
		delete(o.busy, id)
	}
}

func (o *Orchestrator) startTimerLocked(s *domain.CandidateSession, questionID string, seconds int) {
	o.stopTimerLocked(s.ID)
	sessionID := s.ID
	o.timers[sessionID] = o.newTimer(seconds, func() {
		o.handleExpiry(sessionID, questionID)
	})
}

func (o *Orchestrator) stopTimerLocked(sessionID string) {
	if t := o.timers[sessionID]; t != nil {
		t.Stop()
		delete(o.timers, sessionID)
	}
}

func (o *Orchestrator) postAssistant(s *domain.CandidateSession, content string) {
	o.post(s, domain.RoleAssistant, content)
}

func (o *Orchestrator) postUser(s *domain.CandidateSession, content string) {
	o.post(s, domain.RoleUser, content)
}

func (o *Orchestrator) post(s *domain.CandidateSession, role domain.Role, content string) {
	s.ChatHistory = append(s.ChatHistory, domain.ChatMessage{
		ID:        o.newID(),
		Role:      role,
		Content:   content,
		Timestamp: o.now(),
	})
}

// saveLocked flushes the snapshot after a mutation. Persistence failure is
// logged rather than surfaced so a storage blip never aborts an interview.
func (o *Orchestrator) saveLocked(ctx context.Context) {
	if err := o.store.Save(ctx, o.snap); err != nil {
		slog.Error("snapshot save failed", slog.Any("error", err))
	}
}

// cloneSession returns a copy safe to hand to callers after the mutex is
// released. Slices are copied; pointer fields are written at most once so
// sharing them is safe.
func cloneSession(s *domain.CandidateSession) domain.CandidateSession {
	c := *s
	c.Questions = append([]domain.Question(nil), s.Questions...)
	c.ChatHistory = append([]domain.ChatMessage(nil), s.ChatHistory...)
	return c
}
