package resume

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractContactsFull(t *testing.T) {
	t.Parallel()
	text := "Jane Doe\nSenior Engineer\njane.doe@example.com\n+62 812-3456-7890\n"
	info := ExtractContacts(text)
	assert.Equal(t, "Jane Doe", info.Name)
	assert.Equal(t, "jane.doe@example.com", info.Email)
	assert.NotEmpty(t, info.Phone)
}

func TestExtractContactsNameHeuristicRejectsNonNameFirstLine(t *testing.T) {
	t.Parallel()
	text := "Curriculum Vitae 2024\nJane Doe\njane@example.com"
	info := ExtractContacts(text)
	// First non-empty line contains digits, so no name is extracted.
	assert.Empty(t, info.Name)
	assert.Equal(t, "jane@example.com", info.Email)
}

func TestExtractContactsLowercasesEmail(t *testing.T) {
	t.Parallel()
	info := ExtractContacts("Contact: Jane.Doe@Example.COM")
	assert.Equal(t, "jane.doe@example.com", info.Email)
}

func TestExtractContactsEmptyText(t *testing.T) {
	t.Parallel()
	info := ExtractContacts("")
	assert.Empty(t, info.Name)
	assert.Empty(t, info.Email)
	assert.Empty(t, info.Phone)
}
