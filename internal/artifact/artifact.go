// Package artifact owns the files an inspection produces: uploaded
// originals, annotated media, and JSON result records. Artifacts are
// append-only; the retention sweep in diskmanager is the only deletion
// path.
package artifact

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/logging"
)

// Namespace separates inbound originals from derived outputs.
type Namespace string

const (
	// NamespaceUploads holds inbound original images and videos.
	NamespaceUploads Namespace = "uploads"

	// NamespaceResults holds annotated media, extracted frames and
	// result records.
	NamespaceResults Namespace = "results"
)

// Store resolves artifact paths under a root directory and persists
// result records. The clock is injectable so tests can pin filename
// timestamps.
type Store struct {
	root string
	now  func() time.Time
}

// NewStore creates a store rooted at the configured artifact path and
// ensures both namespaces exist.
func NewStore(settings *conf.Settings) (*Store, error) {
	s := &Store{
		root: settings.Inspection.Artifacts.Path,
		now:  time.Now,
	}

	for _, ns := range []Namespace{NamespaceUploads, NamespaceResults} {
		if err := os.MkdirAll(s.Dir(ns), 0o755); err != nil {
			return nil, errors.New(err).
				Component("artifact").
				Category(errors.CategoryFileIO).
				Context("namespace", string(ns)).
				Build()
		}
	}

	return s, nil
}

// SetClock overrides the store's clock. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Root returns the artifact root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory of a namespace.
func (s *Store) Dir(ns Namespace) string {
	return filepath.Join(s.root, string(ns))
}

// NewID generates a default inspection identifier of the form
// PCB-{8 uppercase hex}.
func NewID() string {
	return "PCB-" + strings.ToUpper(uuid.New().String()[:8])
}

// Timestamp returns the filename timestamp for the current time.
func (s *Store) Timestamp() string {
	return s.now().Format(conf.FilenameTimestamp)
}

// FileName builds the canonical artifact name {id}_{timestamp}[_suffix].{ext}.
// The timestamp scopes names to one inspection run, so names cannot collide
// within the retention window.
func FileName(id, timestamp, suffix, ext string) string {
	name := id + "_" + timestamp
	if suffix != "" {
		name += "_" + suffix
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}

// Path resolves an artifact name inside a namespace.
func (s *Store) Path(ns Namespace, name string) string {
	return filepath.Join(s.Dir(ns), name)
}

// Write persists data as a named artifact and returns its full path.
func (s *Store) Write(ns Namespace, name string, data []byte) (string, error) {
	path := s.Path(ns, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.New(err).
			Component("artifact").
			Category(errors.CategoryFileIO).
			FileContext(path, int64(len(data))).
			Build()
	}
	return path, nil
}

var log *slog.Logger

func init() {
	log = logging.ForService("artifact")
	if log == nil {
		log = slog.Default().With("service", "artifact")
	}
}
