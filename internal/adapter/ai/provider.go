// Package ai implements the question provider client: AI-backed question
// generation, answer evaluation and summary generation with a guaranteed
// deterministic local fallback.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/ai/local"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-interviewer/pkg/textx"
)

// difficultyTopics constrain the provider prompt per tier.
var difficultyTopics = map[domain.Difficulty]string{
	domain.DifficultyEasy:   "basic concepts like variables, functions, simple syntax",
	domain.DifficultyMedium: "intermediate topics like APIs, state management, async operations",
	domain.DifficultyHard:   "advanced concepts like optimization, architecture, design patterns",
}

var (
	leadingLabelRe = regexp.MustCompile(`(?i)^(question:|answer:|here's a question:|here is a question:)\s*`)
	summaryLabelRe = regexp.MustCompile(`(?i)^(summary:|here's a summary:|interview summary:)\s*`)
	scoreRe        = regexp.MustCompile(`(?i)SCORE[:\s]+(\d+)`)
	feedbackRe     = regexp.MustCompile(`(?is)FEEDBACK[:\s]+(.+)`)
)

const (
	maxQuestionWords  = 15
	maxJudgementChars = 250
)

// Provider is the single question provider client. A nil chat completer
// means no external provider is configured; every operation then runs on
// the local analyzer and static bank. Provider failures are absorbed the
// same way, preserving interview liveness.
type Provider struct {
	chat     domain.ChatCompleter
	analyzer *local.Analyzer
	bank     local.Bank

	evalDelay    time.Duration
	summaryDelay time.Duration
	sleep        func(ctx context.Context, d time.Duration)
}

// Option customizes a Provider.
type Option func(*Provider)

// WithCourtesyDelays sets the pre-call delays for evaluation and summary
// requests issued to an external provider.
func WithCourtesyDelays(eval, summary time.Duration) Option {
	return func(p *Provider) {
		p.evalDelay = eval
		p.summaryDelay = summary
	}
}

// NewProvider builds a provider over an optional chat completer and bank.
func NewProvider(chat domain.ChatCompleter, bank local.Bank, opts ...Option) *Provider {
	p := &Provider{
		chat:     chat,
		analyzer: local.NewAnalyzer(),
		bank:     bank,
		sleep:    sleepCtx,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// GenerateQuestion returns the next question text for the difficulty. The
// result is never empty: on any provider failure or invalid output it draws
// from the static bank, excluding texts in previous.
func (p *Provider) GenerateQuestion(ctx context.Context, d domain.Difficulty, previous []string) (string, error) {
	if p.chat == nil {
		return p.bank.Pick(d, previous), nil
	}

	// Only the most recent questions matter for topic avoidance.
	recent := previous
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	avoid := ""
	if len(recent) > 0 {
		avoid = "Avoid: " + strings.Join(recent, "; ") + "\n"
	}
	userPrompt := fmt.Sprintf(`Generate ONE short %s interview question for Full Stack Developer (React/Node.js).

Topic: %s
%s
Requirements:
- Maximum 15 words
- Clear and specific
- One question only
- No explanations

Return ONLY the question.`, d, difficultyTopics[d], avoid)

	raw, err := p.chat.Complete(ctx, "You are a technical interviewer for a Full Stack Developer (React/Node.js) position. Generate clear, specific interview questions.", userPrompt, 0.7, 150)
	if err != nil {
		slog.Warn("question generation failed; using fallback bank", slog.String("difficulty", string(d)), slog.Any("error", err))
		observability.AIFallbacksTotal.WithLabelValues("generate").Inc()
		return p.bank.Pick(d, previous), nil
	}

	question := sanitizeQuestion(raw)
	if question == "" {
		observability.AIFallbacksTotal.WithLabelValues("generate").Inc()
		return p.bank.Pick(d, previous), nil
	}
	return question, nil
}

// sanitizeQuestion strips leading labels, forces a single line, truncates
// over-generated text and guarantees a trailing question mark.
func sanitizeQuestion(raw string) string {
	q := textx.NormalizeSpace(leadingLabelRe.ReplaceAllString(strings.TrimSpace(raw), ""))
	if q == "" {
		return ""
	}
	if words := strings.Fields(q); len(words) > maxQuestionWords {
		q = strings.TrimRight(strings.Join(words[:maxQuestionWords], " "), ".,;: ")
	}
	if !strings.HasSuffix(q, "?") {
		q += "?"
	}
	return q
}

// EvaluateAnswer scores an answer, preferring the external provider and
// falling back to the deterministic analyzer whenever the call fails or the
// reply cannot be parsed.
func (p *Provider) EvaluateAnswer(ctx context.Context, question, answer string, d domain.Difficulty) (domain.Evaluation, error) {
	if p.chat == nil {
		return p.analyzer.Evaluate(answer, d), nil
	}

	// Courtesy delay to stay under provider rate limits.
	p.sleep(ctx, p.evalDelay)

	userPrompt := fmt.Sprintf(`Question (%s): %s

Candidate's Answer: %s

Evaluate based on: correctness, completeness, clarity.

Provide your evaluation in this EXACT format:
SCORE: [number out of %d]
FEEDBACK: [2 sentences of constructive feedback]`, d, question, answer, d.MaxScore())

	raw, err := p.chat.Complete(ctx, "You are evaluating a Full Stack Developer interview answer. Be fair but strict.", userPrompt, 0.3, 200)
	if err != nil {
		slog.Warn("answer evaluation failed; using local analyzer", slog.String("difficulty", string(d)), slog.Any("error", err))
		observability.AIFallbacksTotal.WithLabelValues("evaluate").Inc()
		return p.analyzer.Evaluate(answer, d), nil
	}

	scoreMatch := scoreRe.FindStringSubmatch(raw)
	if scoreMatch == nil {
		observability.AIFallbacksTotal.WithLabelValues("evaluate").Inc()
		return p.analyzer.Evaluate(answer, d), nil
	}
	score, err := strconv.Atoi(scoreMatch[1])
	if err != nil {
		observability.AIFallbacksTotal.WithLabelValues("evaluate").Inc()
		return p.analyzer.Evaluate(answer, d), nil
	}
	if score > d.MaxScore() {
		score = d.MaxScore()
	}

	judgement := "Your answer shows understanding. Consider providing more specific examples and technical details."
	if m := feedbackRe.FindStringSubmatch(raw); m != nil {
		judgement = strings.TrimSpace(m[1])
		if len(judgement) > maxJudgementChars {
			judgement = judgement[:maxJudgementChars]
		}
		judgement = textx.NormalizeSpace(judgement)
	}
	return domain.Evaluation{Score: score, Judgement: judgement}, nil
}

// GenerateFinalSummary produces the closing narrative, preferring the
// provider and falling back to the deterministic summary.
func (p *Provider) GenerateFinalSummary(ctx context.Context, candidateName string, results []domain.QuestionResult, totalScore int) (string, error) {
	if p.chat == nil {
		return p.analyzer.Summary(candidateName, results, totalScore), nil
	}

	p.sleep(ctx, p.summaryDelay)

	percentage := int(math.Round(float64(totalScore) / float64(domain.MaxTotalScore) * 100))
	var perf strings.Builder
	for i, r := range results {
		fmt.Fprintf(&perf, "Q%d (%s): %d/%d\n", i+1, r.Difficulty, r.Score, r.Difficulty.MaxScore())
	}
	userPrompt := fmt.Sprintf(`Create a professional interview summary for %s.

Total Score: %d/%d (%d%%)

Performance:
%s
Write a 3-4 sentence professional summary covering:
1. Overall performance assessment
2. Key strengths observed
3. Hiring recommendation (Strong Yes/Yes/Maybe/No)

Keep it concise and professional.`, candidateName, totalScore, domain.MaxTotalScore, percentage, perf.String())

	raw, err := p.chat.Complete(ctx, "You are an experienced technical interviewer creating professional candidate summaries.", userPrompt, 0.5, 250)
	if err != nil {
		slog.Warn("summary generation failed; using deterministic narrative", slog.Any("error", err))
		observability.AIFallbacksTotal.WithLabelValues("summary").Inc()
		return p.analyzer.Summary(candidateName, results, totalScore), nil
	}

	summary := strings.TrimSpace(summaryLabelRe.ReplaceAllString(strings.TrimSpace(raw), ""))
	if summary == "" {
		observability.AIFallbacksTotal.WithLabelValues("summary").Inc()
		return p.analyzer.Summary(candidateName, results, totalScore), nil
	}
	return summary, nil
}
