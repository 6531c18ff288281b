package inspection

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pcbvision/aoi-go/internal/annotate"
	"github.com/pcbvision/aoi-go/internal/artifact"
	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/sampler"
	"github.com/pcbvision/aoi-go/internal/taxonomy"
	"github.com/pcbvision/aoi-go/internal/verdict"
	"github.com/pcbvision/aoi-go/internal/video"
)

// defaultMaxDefectFrames caps the retained defect frame pairs when the
// setting is unset.
const defaultMaxDefectFrames = 20

// InspectVideo runs the density pipeline over a recorded board video.
// Frames are read, sampled, detected and written back out in input
// order. Unprobeable files are rejected before any artifact is written;
// a detector failure mid-stream yields a persisted ERROR record; an
// encode failure aborts only this job.
func (i *Inspector) InspectVideo(ctx context.Context, videoPath, pcbID string) (*artifact.Record, error) {
	if pcbID == "" {
		pcbID = artifact.NewID()
	}
	start := time.Now()
	timestamp := i.store.Timestamp()
	vs := &i.Settings.Inspection.Video

	info, err := video.Probe(ctx, vs, videoPath)
	if err != nil {
		return nil, err
	}

	samp, err := sampler.New(info.FPS, vs.SampleCoefficient)
	if err != nil {
		return nil, err
	}

	originalName := artifact.FileName(pcbID, timestamp, "", strings.TrimPrefix(filepath.Ext(videoPath), "."))
	uploadPath := i.store.Path(artifact.NamespaceUploads, originalName)
	if err := i.copyUpload(videoPath, uploadPath); err != nil {
		return nil, err
	}

	log.Info("video inspection started",
		slog.String("pcb_id", pcbID),
		slog.String("path", videoPath),
		slog.Int("width", info.Width),
		slog.Int("height", info.Height),
		slog.Float64("fps", info.FPS),
		slog.Int("frame_interval", samp.Interval()))

	agg, err := i.processFrames(ctx, pcbID, timestamp, uploadPath, samp, info)
	if err != nil {
		var detectorFailed *detectorError
		if errors.As(err, &detectorFailed) {
			rec := i.errorRecord(pcbID, detectorFailed.cause)
			rec.Videos = &artifact.VideoRefs{Original: originalName}
			if err := i.finish(ctx, rec, timestamp, "video"); err != nil {
				return nil, err
			}
			i.recordInspection("video", rec, start)
			i.sweep()
			return rec, nil
		}
		return nil, err
	}

	processedPath := agg.encodedPath
	if transcoded, err := video.Transcode(ctx, vs, processedPath); err != nil {
		log.Warn("web transcode failed, keeping raw encode",
			slog.String("pcb_id", pcbID),
			slog.Any("error", err))
		if i.metrics != nil {
			i.metrics.Video.RecordTranscode("error")
		}
	} else {
		if i.metrics != nil && transcoded != processedPath {
			i.metrics.Video.RecordTranscode("success")
		}
		processedPath = transcoded
	}

	if err := video.Verify(ctx, vs, processedPath); err != nil {
		return nil, err
	}

	density := verdict.Density(agg.defectFrames, agg.processedFrames)
	rec := &artifact.Record{
		PCBID:      pcbID,
		Status:     verdict.ForVideo(density),
		DefectType: verdict.DominantDefect(agg.detections),
		Timestamp:  time.Now(),
		Metrics: map[string]float64{
			"total_frames":        float64(agg.totalFrames),
			"processed_frames":    float64(agg.processedFrames),
			"frames_with_defects": float64(agg.defectFrames),
			"defect_density":      density,
			"frame_interval":      float64(samp.Interval()),
			"fps":                 info.FPS,
		},
		Detections: agg.detections,
		Videos: &artifact.VideoRefs{
			Original:  originalName,
			Processed: filepath.Base(processedPath),
		},
		Frames: agg.frameRefs,
	}

	if err := i.finish(ctx, rec, timestamp, "video"); err != nil {
		return nil, err
	}
	i.recordInspection("video", rec, start)
	if i.metrics != nil {
		i.metrics.Inspection.ObserveDefectDensity(density)
	}
	i.sweep()
	return rec, nil
}

// frameAggregate accumulates the per-frame results of one video job.
type frameAggregate struct {
	totalFrames     int
	processedFrames int
	defectFrames    int
	detections      []taxonomy.Detection
	frameRefs       []artifact.FrameRef
	encodedPath     string
}

// detectorError marks a detector failure mid-stream so the caller can
// turn it into an ERROR verdict instead of rejecting the input.
type detectorError struct {
	cause error
}

func (e *detectorError) Error() string {
	return e.cause.Error()
}

func (e *detectorError) Unwrap() error {
	return e.cause
}

// processFrames reads, detects, annotates and re-encodes the frame
// stream. Output frame order is input order; every frame carries a
// status banner and sampled defect frames additionally carry bounding
// boxes.
func (i *Inspector) processFrames(ctx context.Context, pcbID, timestamp, uploadPath string, samp *sampler.Sampler, info *video.StreamInfo) (*frameAggregate, error) {
	vs := &i.Settings.Inspection.Video

	reader, err := video.NewFrameReader(ctx, vs, uploadPath, info)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			log.Debug("frame reader close", slog.Any("error", err))
		}
	}()

	basePath := filepath.Join(i.store.Dir(artifact.NamespaceResults),
		fmt.Sprintf("%s_%s_processed", pcbID, timestamp))
	writer, err := video.NewFrameWriter(ctx, vs, basePath, info)
	if err != nil {
		return nil, err
	}

	maxDefectFrames := vs.MaxDefectFrames
	if maxDefectFrames <= 0 {
		maxDefectFrames = defaultMaxDefectFrames
	}

	agg := &frameAggregate{}
	encodeStart := time.Now()
	for frameIndex := 1; ; frameIndex++ {
		frame, err := reader.ReadFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			writer.Abort()
			return nil, err
		}
		agg.totalFrames++

		sampled := samp.ShouldProcess(frameIndex)
		var detections []taxonomy.Detection
		if sampled {
			frameStart := time.Now()
			raws, err := i.detector.Detect(ctx, frame, i.Settings.Detector.Confidence, i.Settings.Detector.IoU)
			if err != nil {
				writer.Abort()
				return nil, &detectorError{cause: err}
			}
			if i.metrics != nil {
				i.metrics.Inspection.ObserveFrameProcessing(time.Since(frameStart))
			}

			detections = taxonomy.NormalizeAll(raws)
			agg.processedFrames++
			if len(detections) > 0 {
				agg.defectFrames++
				agg.detections = append(agg.detections, detections...)
			}
		}

		out := frame
		if len(detections) > 0 {
			out = annotate.Draw(frame, detections)
		}
		out = annotate.DrawFrameStatus(out, frameIndex, len(detections), sampled)

		if len(detections) > 0 && len(agg.frameRefs) < maxDefectFrames {
			ref, err := i.saveDefectFrame(pcbID, timestamp, frameIndex, info.FPS, frame, out, len(detections))
			if err != nil {
				writer.Abort()
				return nil, err
			}
			agg.frameRefs = append(agg.frameRefs, ref)
		}

		if err := writer.WriteFrame(out); err != nil {
			writer.Abort()
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	agg.encodedPath = writer.FinalPath()

	if i.metrics != nil {
		i.metrics.Video.RecordCandidate(writer.Codec().Codec, "success")
		i.metrics.Video.ObserveEncodeDuration(time.Since(encodeStart))
		i.metrics.Video.AddFramesWritten(writer.Frames())
	}

	return agg, nil
}

// saveDefectFrame writes one raw and annotated frame pair and builds its
// sub-verdict reference. Frame timestamps are seconds from stream start.
func (i *Inspector) saveDefectFrame(pcbID, timestamp string, frameIndex int, fps float64, raw, annotated *image.RGBA, detectionCount int) (artifact.FrameRef, error) {
	suffix := fmt.Sprintf("frame%04d", frameIndex)
	originalName := artifact.FileName(pcbID, timestamp, suffix, "jpg")
	annotatedName := artifact.FileName(pcbID, timestamp, suffix+"_annotated", "jpg")

	if _, err := i.store.SaveImage(artifact.NamespaceResults, originalName, raw); err != nil {
		return artifact.FrameRef{}, err
	}
	if _, err := i.store.SaveImage(artifact.NamespaceResults, annotatedName, annotated); err != nil {
		return artifact.FrameRef{}, err
	}

	return artifact.FrameRef{
		FrameIndex: frameIndex,
		Timestamp:  taxonomy.Round(float64(frameIndex)/fps, 3),
		Status:     i.framePolicy.ForFrame(detectionCount),
		Original:   originalName,
		Annotated:  annotatedName,
	}, nil
}

// copyUpload copies the inbound video into the uploads namespace.
func (i *Inspector) copyUpload(videoPath, dstPath string) error {
	src, err := os.Open(videoPath)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", videoPath).
			Build()
	}
	defer src.Close()

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", dstPath).
			Build()
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("path", dstPath).
			Build()
	}
	return dst.Close()
}
