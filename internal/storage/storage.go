// Package storage saves generated artifacts (scripts, audio, image lists)
// to a local directory or a Cloud Storage bucket.
package storage

import (
	"context"
	"path"
	"strings"
)

type Exporter interface {
	// Save writes data under name and returns where it ended up.
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// ScriptFileName is the download name of a generated script:
// roteiro-<topic with dashes>-<provider>.txt.
func ScriptFileName(topic, providerID string) string {
	return "roteiro-" + strings.Join(strings.Fields(topic), "-") + "-" + providerID + ".txt"
}

// cleanName keeps exports inside their root: leading slashes and dot
// segments are removed.
func cleanName(name string) string {
	cleaned := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimPrefix(cleaned, "/")
}
