package runner

// This file contains screenshot collection: explicit screenshot actions
// plus image artifacts that appeared on disk after the run started.

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/e2etap/e2etap/model"
)

var imageContentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// collectAttachments gathers screenshots for a finalized entry. Paths
// are verified to exist at collection time; anything that vanished is
// skipped.
func (r *Runner) collectAttachments(entry *model.TestEntry, since time.Time) {
	seen := make(map[string]bool)

	// Explicit screenshot actions carry the output path in params.
	for _, action := range entry.Actions {
		if action.Type != "screenshot" {
			continue
		}
		path, _ := action.Params["path"].(string)
		if path == "" {
			continue
		}
		if r.opts.WorkDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(r.opts.WorkDir, path)
		}
		if att, ok := attachmentFor(path); ok && !seen[path] {
			seen[path] = true
			entry.Attachments = append(entry.Attachments, att)
		}
	}

	// Filesystem artifacts created after the run started.
	if r.opts.ArtifactsDir == "" {
		return
	}
	filepath.WalkDir(r.opts.ArtifactsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || seen[path] {
			return nil
		}
		if _, ok := imageContentTypes[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.ModTime().Before(since) {
			return nil
		}
		if att, ok := attachmentFor(path); ok {
			seen[path] = true
			entry.Attachments = append(entry.Attachments, att)
		}
		return nil
	})
}

func attachmentFor(path string) (model.Attachment, bool) {
	if _, err := os.Stat(path); err != nil {
		return model.Attachment{}, false
	}
	return model.Attachment{
		Name:        filepath.Base(path),
		Path:        path,
		ContentType: imageContentTypes[strings.ToLower(filepath.Ext(path))],
	}, true
}
