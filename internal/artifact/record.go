package artifact

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/taxonomy"
	"github.com/pcbvision/aoi-go/internal/verdict"
)

// ImageRefs names the media files of an image inspection.
type ImageRefs struct {
	Original  string `json:"original,omitempty"`
	Annotated string `json:"annotated,omitempty"`
}

// VideoRefs names the media files of a video inspection.
type VideoRefs struct {
	Original  string `json:"original,omitempty"`
	Processed string `json:"processed,omitempty"`
}

// FrameRef names one retained defect frame pair and carries its
// sub-verdict.
type FrameRef struct {
	FrameIndex int            `json:"frameIndex"`
	Timestamp  float64        `json:"timestampSeconds"`
	Status     verdict.Status `json:"status"`
	Original   string         `json:"original"`
	Annotated  string         `json:"annotated"`
}

// Record is the persisted result of one inspection. The field names
// form the contract with the presentation layer and must not change.
type Record struct {
	PCBID      string                `json:"pcbId"`
	Status     verdict.Status        `json:"status"`
	DefectType string                `json:"defectType"`
	Timestamp  time.Time             `json:"timestamp"`
	Metrics    map[string]float64    `json:"metrics,omitempty"`
	Detections []taxonomy.Detection  `json:"defects_detected"`
	Images     *ImageRefs            `json:"images,omitempty"`
	Videos     *VideoRefs            `json:"videos,omitempty"`
	Frames     []FrameRef            `json:"frames,omitempty"`
	Error      bool                  `json:"error,omitempty"`
}

// recordSuffix tags result record files inside the results namespace.
const recordSuffix = "result"

// SaveRecord writes the record as {id}_{timestamp}_result.json in the
// results namespace and returns the file path.
func (s *Store) SaveRecord(rec *Record, timestamp string) (string, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", errors.New(err).
			Component("artifact").
			Category(errors.CategoryFileIO).
			Context("pcb_id", rec.PCBID).
			Build()
	}
	return s.Write(NamespaceResults, FileName(rec.PCBID, timestamp, recordSuffix, "json"), data)
}

// LoadRecord reads a record file back from disk.
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("artifact").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.New(err).
			Component("artifact").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return &rec, nil
}

// LatestRecord finds the most recent result record of an inspection id,
// by the timestamp embedded in the file name. Returns a not-found error
// when the id has no records on disk.
func (s *Store) LatestRecord(id string) (*Record, error) {
	entries, err := os.ReadDir(s.Dir(NamespaceResults))
	if err != nil {
		return nil, errors.New(err).
			Component("artifact").
			Category(errors.CategoryFileIO).
			Context("namespace", string(NamespaceResults)).
			Build()
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, id+"_") && strings.HasSuffix(name, "_"+recordSuffix+".json") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, errors.Newf("no result record for %s", id).
			Component("artifact").
			Category(errors.CategoryNotFound).
			Build()
	}

	// Filename timestamps sort lexicographically in time order.
	sort.Strings(names)
	return LoadRecord(s.Path(NamespaceResults, names[len(names)-1]))
}
