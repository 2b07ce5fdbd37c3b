package textx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hello world", SanitizeText("  hello world  "))
	assert.Equal(t, "a\nb", SanitizeText("a\nb"))
	assert.Equal(t, "ab", SanitizeText("a\x00\x1bb"))
	assert.Equal(t, "tab\tkept", SanitizeText("tab\tkept"))
}

func TestNormalizeSpace(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a b c", NormalizeSpace("  a\n\tb   c  "))
	assert.Equal(t, "", NormalizeSpace("   "))
}

func TestTruncateWords(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "one two three", TruncateWords("one two three", 5))
	assert.Equal(t, "one two", TruncateWords("one two three", 2))
	assert.Equal(t, "", TruncateWords("", 3))
}
