package app

import (
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const maxRunTitle = 50

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Run names the export directory shared by every artifact of one
// generation: a uuid followed by the sanitized topic.
type Run struct {
	ID  string
	Dir string
}

func NewRun(topic string) Run {
	id := uuid.NewString()
	title := sanitizeForPath(topic)
	if len(title) > maxRunTitle {
		title = strings.TrimRight(title[:maxRunTitle], "_")
	}
	if title == "" {
		return Run{ID: id, Dir: id}
	}
	return Run{ID: id, Dir: id + "_" + title}
}

func (r Run) path(name string) string {
	return path.Join(r.Dir, name)
}

func sanitizeForPath(s string) string {
	s = strings.ToLower(s)
	s = sanitizeRegex.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
