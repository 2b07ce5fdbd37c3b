package local

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

func TestDefaultBankCoversAllDifficulties(t *testing.T) {
	t.Parallel()
	b := DefaultBank()
	for _, d := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
		assert.NotEmpty(t, b[d], "difficulty %s", d)
	}
}

func TestPickExcludesPrevious(t *testing.T) {
	t.Parallel()
	b := Bank{
		domain.DifficultyEasy: {"q1", "q2", "q3"},
	}
	got := b.Pick(domain.DifficultyEasy, []string{"q1", "q3"})
	assert.Equal(t, "q2", got)
}

func TestPickFallsBackToFullPoolWhenExhausted(t *testing.T) {
	t.Parallel()
	b := Bank{
		domain.DifficultyEasy: {"q1", "q2"},
	}
	got := b.Pick(domain.DifficultyEasy, []string{"q1", "q2"})
	assert.Contains(t, []string{"q1", "q2"}, got)
}

func TestLoadBankFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bank.yaml")
	content := []byte("easy:\n  - e1\nmedium:\n  - m1\n  - m2\nhard:\n  - h1\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	b, err := LoadBankFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, b[domain.DifficultyEasy])
	assert.Equal(t, []string{"m1", "m2"}, b[domain.DifficultyMedium])
	assert.Equal(t, []string{"h1"}, b[domain.DifficultyHard])
}

func TestLoadBankFileRejectsEmptyDifficulty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte("easy:\n  - e1\n"), 0o600))

	_, err := LoadBankFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
