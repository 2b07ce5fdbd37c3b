package local

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

// Bank is the static per-difficulty question pool drawn from when no
// provider is configured or the provider fails.
type Bank map[domain.Difficulty][]string

// DefaultBank returns the built-in Full Stack (React/Node.js) question pool.
func DefaultBank() Bank {
	return Bank{
		domain.DifficultyEasy: {
			"What is JSX in React and why is it useful?",
			"Explain the difference between let, const, and var in JavaScript.",
			"What are props in React components?",
			"What is the purpose of the useState hook?",
			"How do you handle events in React?",
			"What is the virtual DOM in React?",
			"What is the difference between == and === in JavaScript?",
			"Explain what arrow functions are and their benefits.",
		},
		domain.DifficultyMedium: {
			"Explain how the useEffect hook works in React and its dependency array.",
			"What is the difference between controlled and uncontrolled components?",
			"How does async/await work in JavaScript?",
			"Explain React Context API and when you would use it.",
			"What are Higher Order Components (HOCs) in React?",
			"How would you optimize a React component that re-renders too often?",
			"Explain closure in JavaScript with a practical example.",
			"What is the difference between REST and GraphQL APIs?",
		},
		domain.DifficultyHard: {
			"How would you optimize performance in a large React application?",
			"Explain the concept of reconciliation in React and how keys work.",
			"Design a scalable folder structure for a large React/Node.js application.",
			"How would you implement server-side rendering with React?",
			"Explain memory leaks in JavaScript and how to prevent them.",
			"Design a caching strategy for a REST API with Redis.",
			"How would you implement authentication using JWT in a Node.js application?",
			"Explain the Event Loop in Node.js and how it handles asynchronous operations.",
		},
	}
}

// bankFile is the YAML shape of an external question bank override.
type bankFile struct {
	Easy   []string `yaml:"easy"`
	Medium []string `yaml:"medium"`
	Hard   []string `yaml:"hard"`
}

// LoadBankFile reads a YAML question bank. Every difficulty must have at
// least one question so the fallback path can never come up empty.
func LoadBankFile(path string) (Bank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("op=local.LoadBankFile: %w", err)
	}
	var f bankFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("op=local.LoadBankFile: %w", err)
	}
	b := Bank{
		domain.DifficultyEasy:   f.Easy,
		domain.DifficultyMedium: f.Medium,
		domain.DifficultyHard:   f.Hard,
	}
	for _, d := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
		if len(b[d]) == 0 {
			return nil, fmt.Errorf("op=local.LoadBankFile: %w: no %s questions in %s", domain.ErrInvalidArgument, d, path)
		}
	}
	return b, nil
}

// Pick draws a question for the difficulty, excluding texts already asked.
// When every bank question has been used it falls back to the full pool, so
// the result is never empty.
func (b Bank) Pick(d domain.Difficulty, previous []string) string {
	pool := b[d]
	seen := make(map[string]bool, len(previous))
	for _, p := range previous {
		seen[p] = true
	}
	available := make([]string, 0, len(pool))
	for _, q := range pool {
		if !seen[q] {
			available = append(available, q)
		}
	}
	if len(available) == 0 {
		available = pool
	}
	return available[rand.Intn(len(available))] //nolint:gosec // Selection variety only; not security sensitive.
}
