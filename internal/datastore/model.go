// model.go: gorm entities for persisted inspection verdicts.
package datastore

import (
	"time"
)

// Inspection is one persisted inspection verdict. The PCB id is not
// unique, re-inspections of the same board create new rows.
type Inspection struct {
	ID         uint   `gorm:"primaryKey"`
	PCBID      string `gorm:"index:idx_inspections_pcbid"`
	Source     string // image, batch_item or video
	Status     string
	DefectType string
	Timestamp  time.Time `gorm:"index:idx_inspections_timestamp"`
	Metrics    string    // JSON encoded metrics mapping
	Detections []Detection `gorm:"foreignKey:InspectionID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
}

// Detection is one defect box of an inspection.
type Detection struct {
	ID           uint `gorm:"primaryKey"`
	InspectionID uint `gorm:"index"`
	Class        string
	Confidence   float64
	X1, Y1       float64
	X2, Y2       float64
	Area         float64
}
