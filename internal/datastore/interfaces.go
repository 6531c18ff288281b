// Package datastore persists inspection verdicts to SQLite or MySQL
// through gorm. Persistence is supplementary to the JSON result records
// in the artifact store: a datastore failure degrades queries, it never
// fails an inspection.
package datastore

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/pcbvision/aoi-go/internal/artifact"
	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/logging"
	"github.com/pcbvision/aoi-go/internal/observability/metrics"
)

// Interface is the datastore contract used by the inspection
// orchestrator and the CLI.
type Interface interface {
	Open() error
	Save(rec *artifact.Record, source string) error
	Get(pcbID string) (*artifact.Record, error)
	GetAll(limit int) ([]*artifact.Record, error)
	Close() error
}

// DataStore implements the shared parts of Interface using gorm.
type DataStore struct {
	DB      *gorm.DB
	metrics *metrics.DatastoreMetrics
}

// New creates the appropriate store based on the output settings.
// Returns nil when no database output is enabled.
func New(settings *conf.Settings, m *metrics.DatastoreMetrics) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			DataStore: DataStore{metrics: m},
			Settings:  settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			DataStore: DataStore{metrics: m},
			Settings:  settings,
		}
	default:
		return nil
	}
}

// record wraps a datastore operation with metrics.
func (ds *DataStore) record(operation string, start time.Time, err error) {
	if ds.metrics == nil {
		return
	}
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
	}
	ds.metrics.RecordOperation(operation, status, time.Since(start))
}

var log *slog.Logger

func init() {
	log = logging.ForService("datastore")
	if log == nil {
		log = slog.Default().With("service", "datastore")
	}
}
