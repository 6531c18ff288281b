package inspection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pcbvision/aoi-go/internal/annotate"
	"github.com/pcbvision/aoi-go/internal/artifact"
	"github.com/pcbvision/aoi-go/internal/cpuspec"
	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/taxonomy"
	"github.com/pcbvision/aoi-go/internal/verdict"
)

// InspectImage runs the binary image pipeline over one board photo.
// payload is the raw image bytes or a data URI. An empty pcbID gets a
// generated identifier. Undecodable payloads are rejected before any
// artifact is written; failures past that point yield an ERROR record
// that is persisted like any other verdict.
func (i *Inspector) InspectImage(ctx context.Context, payload []byte, pcbID string) (*artifact.Record, error) {
	rec, err := i.inspectImage(ctx, payload, pcbID)
	if err != nil {
		return nil, err
	}
	i.sweep()
	return rec, nil
}

// inspectImage is InspectImage without the trailing retention sweep, so
// batch jobs can run one sweep for the whole batch.
func (i *Inspector) inspectImage(ctx context.Context, payload []byte, pcbID string) (*artifact.Record, error) {
	if pcbID == "" {
		pcbID = artifact.NewID()
	}
	start := time.Now()
	timestamp := i.store.Timestamp()

	img, err := artifact.DecodeImage(payload)
	if err != nil {
		return nil, err
	}

	originalName := artifact.FileName(pcbID, timestamp, "", "jpg")
	if _, err := i.store.SaveImage(artifact.NamespaceUploads, originalName, img); err != nil {
		return nil, err
	}

	raws, err := i.detector.Detect(ctx, img, i.Settings.Detector.Confidence, i.Settings.Detector.IoU)
	if err != nil {
		log.Error("detector failed",
			slog.String("pcb_id", pcbID),
			slog.Any("error", err))
		rec := i.errorRecord(pcbID, err)
		rec.Images = &artifact.ImageRefs{Original: originalName}
		if err := i.finish(ctx, rec, timestamp, "image"); err != nil {
			return nil, err
		}
		i.recordInspection("image", rec, start)
		return rec, nil
	}

	detections := taxonomy.NormalizeAll(raws)

	annotatedName := artifact.FileName(pcbID, timestamp, "annotated", "jpg")
	annotated := annotate.Draw(img, detections)
	if _, err := i.store.SaveImage(artifact.NamespaceResults, annotatedName, annotated); err != nil {
		return nil, err
	}

	rec := &artifact.Record{
		PCBID:      pcbID,
		Status:     verdict.ForImage(detections),
		DefectType: verdict.PrimaryDefect(detections),
		Timestamp:  time.Now(),
		Metrics: map[string]float64{
			"total_defects": float64(len(detections)),
		},
		Detections: detections,
		Images: &artifact.ImageRefs{
			Original:  originalName,
			Annotated: annotatedName,
		},
	}

	if err := i.finish(ctx, rec, timestamp, "image"); err != nil {
		return nil, err
	}
	i.recordInspection("image", rec, start)
	return rec, nil
}

// InspectBatch inspects a batch of board photos on a bounded worker
// pool. ids supplies per-item identifiers; missing or empty entries get
// sequential PCB-001 style identifiers. The returned slice is in input
// order. One item's failure never stops its siblings; failed items have
// a nil record and their errors are joined into the returned error. A
// single retention sweep runs after the whole batch.
func (i *Inspector) InspectBatch(ctx context.Context, payloads [][]byte, ids []string) ([]*artifact.Record, error) {
	records := make([]*artifact.Record, len(payloads))
	itemErrs := make([]error, len(payloads))

	sem := semaphore.NewWeighted(int64(i.batchWorkers()))
	var wg sync.WaitGroup
	for idx := range payloads {
		if err := sem.Acquire(ctx, 1); err != nil {
			itemErrs[idx] = err
			continue
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer sem.Release(1)

			id := ""
			if idx < len(ids) {
				id = ids[idx]
			}
			if id == "" {
				id = fmt.Sprintf("PCB-%03d", idx+1)
			}

			rec, err := i.inspectImage(ctx, payloads[idx], id)
			records[idx] = rec
			if err != nil {
				log.Warn("batch item failed",
					slog.Int("item", idx+1),
					slog.String("pcb_id", id),
					slog.Any("error", err))
				itemErrs[idx] = err
			}
		}(idx)
	}
	wg.Wait()

	i.sweep()
	return records, errors.Join(itemErrs...)
}

// batchWorkers resolves the worker pool size, falling back to the
// optimal thread count for the host CPU.
func (i *Inspector) batchWorkers() int {
	if w := i.Settings.Inspection.Batch.Workers; w > 0 {
		return w
	}
	return cpuspec.GetCPUSpec().GetOptimalThreadCount()
}
