// manage.go: shared CRUD and schema management.
package datastore

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pcbvision/aoi-go/internal/artifact"
	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/taxonomy"
	"github.com/pcbvision/aoi-go/internal/verdict"
)

// gormConfig returns the gorm configuration shared by both stores.
func gormConfig(debug bool) *gorm.Config {
	level := gormlogger.Silent
	if debug {
		level = gormlogger.Info
	}
	return &gorm.Config{Logger: gormlogger.Default.LogMode(level)}
}

// performAutoMigration creates or updates the schema.
func performAutoMigration(db *gorm.DB, driver string) error {
	if err := db.AutoMigrate(&Inspection{}, &Detection{}); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("driver", driver).
			Context("operation", "auto_migrate").
			Build()
	}
	return nil
}

// toEntity converts a result record into its persistence shape.
func toEntity(rec *artifact.Record, source string) (*Inspection, error) {
	metricsJSON, err := json.Marshal(rec.Metrics)
	if err != nil {
		return nil, dbError(err, "encode_metrics", rec.PCBID)
	}

	entity := &Inspection{
		PCBID:      rec.PCBID,
		Source:     source,
		Status:     string(rec.Status),
		DefectType: rec.DefectType,
		Timestamp:  rec.Timestamp,
		Metrics:    string(metricsJSON),
	}
	for i := range rec.Detections {
		det := &rec.Detections[i]
		entity.Detections = append(entity.Detections, Detection{
			Class:      det.Class.Label(),
			Confidence: det.Confidence,
			X1:         det.Box.X1,
			Y1:         det.Box.Y1,
			X2:         det.Box.X2,
			Y2:         det.Box.Y2,
			Area:       det.Area,
		})
	}
	return entity, nil
}

// toRecord converts a persisted inspection back to the result record
// shape. Unknown class labels from newer schema versions survive as
// unknown classes.
func toRecord(entity *Inspection) (*artifact.Record, error) {
	rec := &artifact.Record{
		PCBID:      entity.PCBID,
		Status:     verdict.Status(entity.Status),
		DefectType: entity.DefectType,
		Timestamp:  entity.Timestamp,
	}

	if entity.Metrics != "" {
		if err := json.Unmarshal([]byte(entity.Metrics), &rec.Metrics); err != nil {
			return nil, dbError(err, "decode_metrics", entity.PCBID)
		}
	}

	for i := range entity.Detections {
		row := &entity.Detections[i]
		class, err := taxonomy.ClassFromLabel(row.Class)
		if err != nil {
			class = taxonomy.Class(taxonomy.NumClasses) // first unknown id
		}
		rec.Detections = append(rec.Detections, taxonomy.Detection{
			Class:      class,
			Confidence: row.Confidence,
			Box:        taxonomy.Box{X1: row.X1, Y1: row.Y1, X2: row.X2, Y2: row.Y2},
			Area:       row.Area,
		})
	}
	return rec, nil
}

// Save persists a verdict and its detections in one transaction.
func (ds *DataStore) Save(rec *artifact.Record, source string) (err error) {
	start := time.Now()
	defer func() { ds.record("save", start, err) }()

	if ds.DB == nil {
		return dbError(nil, "save", rec.PCBID)
	}

	entity, err := toEntity(rec, source)
	if err != nil {
		return err
	}

	err = ds.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(entity).Error
	})
	if err != nil {
		return classifyDBError(err, "save", rec.PCBID)
	}
	return nil
}

// Get returns the most recent verdict for a PCB id.
func (ds *DataStore) Get(pcbID string) (rec *artifact.Record, err error) {
	start := time.Now()
	defer func() { ds.record("get", start, err) }()

	if ds.DB == nil {
		return nil, dbError(nil, "get", pcbID)
	}

	var entity Inspection
	result := ds.DB.Preload("Detections").
		Where("pcb_id = ?", pcbID).
		Order("timestamp DESC").
		First(&entity)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			err = errors.Newf("no verdict for %s", pcbID).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
			return nil, err
		}
		err = classifyDBError(result.Error, "get", pcbID)
		return nil, err
	}

	return toRecord(&entity)
}

// GetAll returns the most recent verdicts, newest first.
func (ds *DataStore) GetAll(limit int) (recs []*artifact.Record, err error) {
	start := time.Now()
	defer func() { ds.record("get_all", start, err) }()

	if ds.DB == nil {
		return nil, dbError(nil, "get_all", "")
	}
	if limit <= 0 {
		limit = 100
	}

	var entities []Inspection
	result := ds.DB.Preload("Detections").
		Order("timestamp DESC").
		Limit(limit).
		Find(&entities)
	if result.Error != nil {
		err = classifyDBError(result.Error, "get_all", "")
		return nil, err
	}

	recs = make([]*artifact.Record, 0, len(entities))
	for i := range entities {
		rec, convErr := toRecord(&entities[i])
		if convErr != nil {
			return nil, convErr
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Close closes the underlying connection pool.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "close", "")
	}
	return sqlDB.Close()
}
