package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"court-order-server/internal/domain"

	"github.com/google/uuid"
)

const maxStagedNameLen = 100

// StagedFile is an upload written to disk for the engine to read.
type StagedFile struct {
	Path string

	logger domain.Logger
	once   sync.Once
}

// Remove deletes the staged file. It is safe to call more than once.
func (f *StagedFile) Remove() {
	f.once.Do(func() {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("failed to remove staged file", "path", f.Path, "error", err.Error())
			return
		}
		f.logger.Debug("staged file removed", "path", f.Path)
	})
}

// Stager writes uploads into a private staging directory.
type Stager struct {
	dir    string
	logger domain.Logger
}

// NewStager creates a stager rooted at dir.
func NewStager(dir string, logger domain.Logger) *Stager {
	return &Stager{dir: dir, logger: logger}
}

// Stage writes content under a collision-free name derived from originalName.
func (s *Stager) Stage(originalName string, content []byte) (*StagedFile, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create staging dir: %w", err)
	}

	path := filepath.Join(s.dir, StagedName(originalName, time.Now()))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file: %w", err)
	}
	staged := &StagedFile{Path: path, logger: s.logger}

	if _, err := f.Write(content); err != nil {
		f.Close()
		staged.Remove()
		return nil, fmt.Errorf("failed to write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		staged.Remove()
		return nil, fmt.Errorf("failed to close staged file: %w", err)
	}

	s.logger.Debug("upload staged", "path", path, "bytes", len(content))
	return staged, nil
}

// StagedName builds upload_<unixmillis>_<uuid8>_<sanitized name>.
func StagedName(originalName string, now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("upload_%d_%s_%s", now.UnixMilli(), id, sanitizeFileName(originalName))
}

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "document"
	}
	if len(out) > maxStagedNameLen {
		ext := filepath.Ext(out)
		if len(ext) > 10 {
			ext = ""
		}
		out = out[:maxStagedNameLen-len(ext)] + ext
	}
	return out
}
