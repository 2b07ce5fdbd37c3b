// Package resume extracts best-effort candidate contact info from resume
// text. The result only pre-fills the session; every field is re-validated
// by the orchestrator before acceptance.
package resume

import (
	"regexp"
	"strings"

	"github.com/fairyhunter13/ai-interviewer/internal/domain"
)

var (
	nameLineRe = regexp.MustCompile(`^[A-Za-z\s]{2,50}$`)
	emailRe    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe    = regexp.MustCompile(`(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}|\+?\d{10,}`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// ExtractContacts scans extracted resume text for a name, email and phone.
// The name heuristic takes the first non-empty line when it looks like a
// 2-4 word name; email and phone use the first regex match anywhere.
func ExtractContacts(text string) domain.CandidateInfo {
	var info domain.CandidateInfo

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if nameLineRe.MatchString(line) && len(strings.Fields(line)) <= 4 {
			info.Name = line
		}
		break
	}

	if m := emailRe.FindString(text); m != "" {
		info.Email = strings.ToLower(m)
	}
	if m := phoneRe.FindString(text); m != "" {
		info.Phone = strings.TrimSpace(spaceRe.ReplaceAllString(m, " "))
	}
	return info
}
