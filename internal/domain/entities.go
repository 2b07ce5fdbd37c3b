// Package domain holds the interview engine's entities and ports.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrSessionBusy     = errors.New("session busy")
	ErrInternal        = errors.New("internal error")
)

// Difficulty is the tier of a generated question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// TimeLimitSeconds returns the fixed answer window for the difficulty.
func (d Difficulty) TimeLimitSeconds() int {
	switch d {
	case DifficultyMedium:
		return 120
	case DifficultyHard:
		return 160
	default:
		return 60
	}
}

// MaxScore returns the score ceiling for the difficulty.
func (d Difficulty) MaxScore() int {
	switch d {
	case DifficultyMedium:
		return 20
	case DifficultyHard:
		return 30
	default:
		return 10
	}
}

// TotalQuestions is the fixed length of an interview.
const TotalQuestions = 6

// MaxTotalScore is the sum of all question ceilings (10+10+20+20+30+30).
const MaxTotalScore = 120

// QuestionSequence returns the fixed difficulty progression of an interview.
func QuestionSequence() []Difficulty {
	return []Difficulty{
		DifficultyEasy, DifficultyEasy,
		DifficultyMedium, DifficultyMedium,
		DifficultyHard, DifficultyHard,
	}
}

// InterviewStatus is the lifecycle state of a candidate session.
// Transitions are monotonic; PAUSED is reserved and currently unused.
type InterviewStatus string

const (
	StatusNotStarted     InterviewStatus = "NOT_STARTED"
	StatusCollectingInfo InterviewStatus = "COLLECTING_INFO"
	StatusInProgress     InterviewStatus = "IN_PROGRESS"
	StatusPaused         InterviewStatus = "PAUSED"
	StatusCompleted      InterviewStatus = "COMPLETED"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// ChatMessage is an append-only transcript entry. Never mutated or removed.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Question is one difficulty slot of the interview. A nil Answer means the
// question is still open; presence of a non-nil Answer is the single source
// of truth for "already answered".
type Question struct {
	ID               string     `json:"id"`
	Text             string     `json:"text"`
	Difficulty       Difficulty `json:"difficulty"`
	TimeLimitSeconds int        `json:"time_limit_seconds"`
	Answer           *string    `json:"answer,omitempty"`
	Score            *int       `json:"score,omitempty"`
	Judgement        string     `json:"judgement,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Answered reports whether the question has been claimed by either the
// explicit-submit or the timer-expiry path.
func (q *Question) Answered() bool { return q.Answer != nil }

// CandidateInfo is the contact info collected before the interview starts.
type CandidateInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ResumeMeta records the uploaded resume file.
type ResumeMeta struct {
	FileName   string    `json:"file_name"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CandidateSession is one interview attempt. It exclusively owns its
// questions and chat history.
//
// Invariants: CurrentQuestionIndex is len(Questions)-1 or len(Questions);
// len(Questions) <= TotalQuestions; TotalScore equals the sum of question
// scores once Status is COMPLETED.
type CandidateSession struct {
	ID                   string          `json:"id"`
	Info                 CandidateInfo   `json:"info"`
	Resume               *ResumeMeta     `json:"resume,omitempty"`
	Questions            []Question      `json:"questions"`
	ChatHistory          []ChatMessage   `json:"chat_history"`
	Status               InterviewStatus `json:"status"`
	CurrentQuestionIndex int             `json:"current_question_index"`
	TotalScore           int             `json:"total_score"`
	FinalSummary         string          `json:"final_summary,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
	LastActiveAt         time.Time       `json:"last_active_at"`
}

// CurrentQuestion returns the active question, or nil when none is open.
func (s *CandidateSession) CurrentQuestion() *Question {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.CurrentQuestionIndex]
}

// Snapshot is the whole-state blob persisted after every mutation and
// hydrated once at startup.
type Snapshot struct {
	CurrentSessionID string                       `json:"current_session_id,omitempty"`
	Sessions         map[string]*CandidateSession `json:"sessions"`
}

// SessionStore persists the snapshot under a fixed application key.
type SessionStore interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

// Evaluation is the outcome of scoring one answer.
type Evaluation struct {
	Score     int
	Judgement string
}

// QuestionResult is the per-question input to final summary generation.
type QuestionResult struct {
	Question   string
	Answer     string
	Score      int
	Difficulty Difficulty
}

// QuestionProvider obtains questions, evaluations and the closing summary.
// Implementations must never return an empty question text and must absorb
// upstream provider failures by deterministic local fallback.
type QuestionProvider interface {
	GenerateQuestion(ctx context.Context, d Difficulty, previous []string) (string, error)
	EvaluateAnswer(ctx context.Context, question, answer string, d Difficulty) (Evaluation, error)
	GenerateFinalSummary(ctx context.Context, candidateName string, results []QuestionResult, totalScore int) (string, error)
}

// ChatCompleter is the raw chat-completion capability of an external AI
// provider. A nil ChatCompleter means no provider is configured.
type ChatCompleter interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error)
}

// TextExtractor extracts plain text from an uploaded resume file.
type TextExtractor interface {
	ExtractPath(ctx context.Context, fileName, path string) (string, error)
}
