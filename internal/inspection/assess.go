package inspection

import (
	"context"
	"log/slog"
	"time"

	"github.com/pcbvision/aoi-go/internal/artifact"
	"github.com/pcbvision/aoi-go/internal/ensemble"
)

// Assess runs the multi-pass quality scorer over one board photo. The
// assessment is an alternate classification lens over the same
// detector, it produces no verdict record and no artifacts beyond the
// uploaded original.
func (i *Inspector) Assess(ctx context.Context, payload []byte, pcbID string) (*ensemble.Assessment, error) {
	if pcbID == "" {
		pcbID = artifact.NewID()
	}
	start := time.Now()

	img, err := artifact.DecodeImage(payload)
	if err != nil {
		return nil, err
	}

	name := artifact.FileName(pcbID, i.store.Timestamp(), "", "jpg")
	if _, err := i.store.SaveImage(artifact.NamespaceUploads, name, img); err != nil {
		return nil, err
	}

	assessment, err := ensemble.New(i.detector).Assess(ctx, img)
	if err != nil {
		return nil, err
	}

	log.Info("ensemble assessment finished",
		slog.String("pcb_id", pcbID),
		slog.String("quality", string(assessment.Quality)),
		slog.Float64("score", assessment.Score),
		slog.Duration("duration", time.Since(start)))

	return assessment, nil
}
