package httpserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

func TestAllowedExt(t *testing.T) {
	t.Parallel()
	assert.True(t, allowedExt("resume.pdf"))
	assert.True(t, allowedExt("RESUME.DOCX"))
	assert.True(t, allowedExt("notes.txt"))
	assert.False(t, allowedExt("script.sh"))
	assert.False(t, allowedExt("archive.zip"))
	assert.False(t, allowedExt("resume"))
}

func TestAllowedMIMEFor(t *testing.T) {
	t.Parallel()
	assert.True(t, allowedMIMEFor("application/pdf", "a.pdf"))
	assert.True(t, allowedMIMEFor("application/vnd.openxmlformats-officedocument.wordprocessingml.document", "a.docx"))
	assert.True(t, allowedMIMEFor("text/plain; charset=utf-8", "a.txt"))
	assert.True(t, allowedMIMEFor("text/html", "a.txt"), "misdetected rich text is accepted for .txt")
	assert.False(t, allowedMIMEFor("text/html", "a.pdf"))
	assert.False(t, allowedMIMEFor("application/zip", "a.docx"))
}

func TestWriteErrorMapsSentinels(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("x: %w", domain.ErrInvalidArgument), http.StatusBadRequest, "INVALID_ARGUMENT"},
		{fmt.Errorf("x: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("x: %w", domain.ErrConflict), http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("x: %w", domain.ErrSessionBusy), http.StatusConflict, "SESSION_BUSY"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, nil, tc.err, nil)
		assert.Equal(t, tc.status, rec.Code)
		assert.Contains(t, rec.Body.String(), tc.code)
	}
}
