// Package local implements the deterministic scoring analyzer and the static
// question bank used whenever no external AI provider is reachable.
package local

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// technicalTerms is the fixed vocabulary matched as case-insensitive
// substrings when scoring an answer.
var technicalTerms = []string{
	"component", "hook", "state", "props", "render", "virtual dom",
	"async", "await", "promise", "callback", "closure", "scope",
	"api", "rest", "graphql", "middleware", "authentication",
	"optimization", "performance", "memoization", "lazy loading",
	"reconciliation", "redux", "context", "useeffect", "usestate",
	"jsx", "typescript", "node.js", "express", "mongodb", "sql",
	"jwt", "token", "cache", "redis", "websocket", "ssr", "csr",
}

var codePatterns = []*regexp.Regexp{
	regexp.MustCompile("```[\\s\\S]*?```"),
	regexp.MustCompile("`[^`]+`"),
	regexp.MustCompile(`\b(function|const|let|var|if|else|return|import|export)\b`),
	regexp.MustCompile(`[{}\[\]();]`),
	regexp.MustCompile(`=>`),
}

var explanationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(because|since|due to|reason|allows|enables|helps)\b`),
	regexp.MustCompile(`(?i)\b(for example|such as|like|including)\b`),
	regexp.MustCompile(`(?i)\b(first|second|then|finally|additionally)\b`),
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

// difficultyDamping scores harder questions more conservatively to offset
// length-based inflation.
var difficultyDamping = map[domain.Difficulty]float64{
	domain.DifficultyEasy:   0.90,
	domain.DifficultyMedium: 0.85,
	domain.DifficultyHard:   0.80,
}

// answerMetrics are the raw signals extracted from an answer.
type answerMetrics struct {
	wordCount      int
	hasCode        bool
	technicalTerms int
	hasExplanation bool
	complexity     float64
}

func analyze(answer string) answerMetrics {
	words := strings.Fields(answer)
	wordCount := len(words)

	hasCode := false
	for _, p := range codePatterns {
		if p.MatchString(answer) {
			hasCode = true
			break
		}
	}

	lower := strings.ToLower(answer)
	termCount := 0
	for _, term := range technicalTerms {
		if strings.Contains(lower, term) {
			termCount++
		}
	}

	hasExplanation := false
	for _, p := range explanationPatterns {
		if p.MatchString(answer) {
			hasExplanation = true
			break
		}
	}

	sentences := 0
	for _, s := range sentenceSplitRe.Split(answer, -1) {
		if len(strings.TrimSpace(s)) > 10 {
			sentences++
		}
	}
	avgSentenceLen := 0.0
	if sentences > 0 {
		avgSentenceLen = float64(wordCount) / float64(sentences)
	}

	codeWeight := 0.0
	if hasCode {
		codeWeight = 0.3
	}
	complexity := math.Min(avgSentenceLen/15+float64(termCount)*0.1+codeWeight, 1.0)

	return answerMetrics{
		wordCount:      wordCount,
		hasCode:        hasCode,
		technicalTerms: termCount,
		hasExplanation: hasExplanation,
		complexity:     complexity,
	}
}

// Analyzer is the deterministic heuristic scorer. It is pure: identical
// inputs always yield identical outputs.
type Analyzer struct{}

// NewAnalyzer constructs the deterministic analyzer.
func NewAnalyzer() *Analyzer { return &Analyzer{} }

// Evaluate scores an answer for the given difficulty. The result is always
// within [0, MaxScore(difficulty)].
func (a *Analyzer) Evaluate(answer string, d domain.Difficulty) domain.Evaluation {
	m := analyze(answer)

	var base float64
	switch {
	case m.wordCount < 10:
		base = 0.2
	case m.wordCount < 25:
		base = 0.4
	case m.wordCount < 50:
		base = 0.6
	case m.wordCount < 100:
		base = 0.75
	default:
		base = 0.85
	}

	technicalBonus := math.Min(float64(m.technicalTerms)*0.05, 0.2)
	codeBonus := 0.0
	if m.hasCode {
		codeBonus = 0.15
	}
	explanationBonus := 0.0
	if m.hasExplanation {
		explanationBonus = 0.1
	}
	complexityBonus := m.complexity * 0.1

	final := base + technicalBonus + codeBonus + explanationBonus + complexityBonus

	// Damping is applied before the clamp: for weak HARD answers the 0.15
	// floor partially absorbs the damping factor. Intentionally preserved.
	final *= difficultyDamping[d]
	final = math.Min(math.Max(final, 0.15), 0.95)

	score := int(math.Round(float64(d.MaxScore()) * final))
	return domain.Evaluation{Score: score, Judgement: buildJudgement(m, d)}
}

// buildJudgement selects up to two feedback fragments keyed by which metrics
// were strong or weak, joined into one capitalized sentence.
func buildJudgement(m answerMetrics, d domain.Difficulty) string {
	var parts []string

	switch {
	case m.wordCount < 25:
		parts = append(parts, "consider providing more detailed explanations")
	case m.wordCount > 100:
		parts = append(parts, "comprehensive answer with good depth")
	default:
		parts = append(parts, "good level of detail in your explanation")
	}

	if m.hasCode {
		parts = append(parts, "excellent use of code examples to illustrate concepts")
	} else if d != domain.DifficultyEasy {
		parts = append(parts, "adding code examples would strengthen your answer")
	}

	switch {
	case m.technicalTerms >= 3:
		parts = append(parts, "strong technical vocabulary demonstrated")
	case m.technicalTerms == 0:
		parts = append(parts, "include more technical terminology to show depth of knowledge")
	}

	if m.hasExplanation {
		parts = append(parts, "clear reasoning and structure")
	}

	if len(parts) > 2 {
		parts = parts[:2]
	}
	judgement := strings.Join(parts, ", ") + "."
	return strings.ToUpper(judgement[:1]) + judgement[1:]
}

// Summary builds the deterministic narrative used when no provider is
// configured or the provider summary fails.
func (a *Analyzer) Summary(candidateName string, results []domain.QuestionResult, totalScore int) string {
	percentage := 0
	if domain.MaxTotalScore > 0 {
		percentage = int(math.Round(float64(totalScore) / float64(domain.MaxTotalScore) * 100))
	}

	perf := map[domain.Difficulty][]int{}
	for _, r := range results {
		perf[r.Difficulty] = append(perf[r.Difficulty], r.Score)
	}
	avgPct := func(d domain.Difficulty) int {
		scores := perf[d]
		if len(scores) == 0 {
			return 0
		}
		sum := 0
		for _, s := range scores {
			sum += s
		}
		return int(math.Round(float64(sum) / float64(len(scores)) / float64(d.MaxScore()) * 100))
	}
	easyPerf := avgPct(domain.DifficultyEasy)
	mediumPerf := avgPct(domain.DifficultyMedium)
	hardPerf := avgPct(domain.DifficultyHard)

	var strengths, weaknesses []string
	if easyPerf >= 70 {
		strengths = append(strengths, "fundamental concepts")
	} else if easyPerf < 50 {
		weaknesses = append(weaknesses, "basic fundamentals")
	}
	if mediumPerf >= 70 {
		strengths = append(strengths, "intermediate problem-solving")
	} else if mediumPerf < 50 {
		weaknesses = append(weaknesses, "intermediate topics")
	}
	if hardPerf >= 70 {
		strengths = append(strengths, "advanced architecture and optimization")
	} else if hardPerf < 50 {
		weaknesses = append(weaknesses, "complex system design")
	}

	termsTotal, codeAnswers := 0, 0
	for _, r := range results {
		m := analyze(r.Answer)
		termsTotal += m.technicalTerms
		if m.hasCode {
			codeAnswers++
		}
	}
	if len(results) > 0 && float64(termsTotal)/float64(len(results)) >= 3 {
		strengths = append(strengths, "strong technical vocabulary")
	}
	if codeAnswers >= 3 {
		strengths = append(strengths, "practical code examples")
	}

	var performanceDesc string
	switch {
	case percentage >= 85:
		performanceDesc = "exceptional performance"
	case percentage >= 75:
		performanceDesc = "strong performance"
	case percentage >= 65:
		performanceDesc = "solid performance"
	case percentage >= 50:
		performanceDesc = "adequate performance"
	default:
		performanceDesc = "developing performance"
	}

	var recommendation string
	switch {
	case percentage >= 85:
		recommendation = "Strong Yes - Outstanding candidate with deep technical knowledge"
	case percentage >= 75:
		recommendation = "Yes - Solid hire with good technical foundation"
	case percentage >= 60:
		recommendation = "Maybe - Shows potential, needs development in specific areas"
	default:
		recommendation = "No - Requires significant additional experience"
	}

	strengthsText := "Shows baseline technical awareness."
	if len(strengths) > 0 {
		if len(strengths) > 2 {
			strengths = strengths[:2]
		}
		strengthsText = fmt.Sprintf("Demonstrated %s.", strings.Join(strengths, " and "))
	}
	weaknessText := ""
	if len(weaknesses) > 0 {
		weaknessText = fmt.Sprintf(" Needs improvement in %s.", weaknesses[0])
	}

	return fmt.Sprintf("%s achieved %d/%d (%d%%), demonstrating %s. %s%s Recommendation: %s",
		candidateName, totalScore, domain.MaxTotalScore, percentage, performanceDesc, strengthsText, weaknessText, recommendation)
}
