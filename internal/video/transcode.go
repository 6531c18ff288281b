package video

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/errors"
)

// defaultTranscodeTimeout bounds the web transcode when the setting is
// unset.
const defaultTranscodeTimeout = 120 * time.Second

// Transcode re-encodes an annotated video as H.264/AAC MP4 with the
// moov atom up front so browsers can start playback while downloading.
// Returns the path of the playable file. Callers treat failure as
// non-fatal and keep the raw encode.
func Transcode(ctx context.Context, settings *conf.VideoSettings, inputPath string) (string, error) {
	if !settings.Encoder.WebOptimize {
		return inputPath, nil
	}
	if err := validateToolPath("ffmpeg", settings.FfmpegPath); err != nil {
		return inputPath, errors.New(err).
			Category(errors.CategorySystem).
			Build()
	}

	timeout := defaultTranscodeTimeout
	if settings.Encoder.TranscodeTimeout > 0 {
		timeout = time.Duration(settings.Encoder.TranscodeTimeout) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outputPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".mp4"
	tempPath := outputPath + tempExt

	start := time.Now()
	cmd := exec.CommandContext(ctx, settings.FfmpegPath,
		"-i", inputPath,
		"-loglevel", "error",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-movflags", "+faststart",
		"-f", "mp4",
		"-hide_banner",
		"-y",
		tempPath,
	)

	stderrBuf := newBoundedBuffer(4096)
	cmd.Stderr = stderrBuf

	if err := cmd.Run(); err != nil {
		if rmErr := os.Remove(tempPath); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn("failed to remove partial transcode output",
				slog.String("path", tempPath),
				slog.Any("error", rmErr))
		}
		if ctx.Err() != nil {
			return inputPath, errors.New(ctx.Err()).
				Category(errors.CategoryTimeout).
				Context("video_path", inputPath).
				Context("operation", "transcode").
				Timing("transcode", time.Since(start)).
				Build()
		}
		return inputPath, errors.Newf("transcode failed: %s", strings.TrimSpace(stderrBuf.String())).
			Category(errors.CategoryTranscode).
			Context("video_path", inputPath).
			Build()
	}

	if err := os.Rename(tempPath, outputPath); err != nil {
		return inputPath, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("temp_path", tempPath).
			Build()
	}

	if outputPath != inputPath {
		if err := os.Remove(inputPath); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove pre-transcode video",
				slog.String("path", inputPath),
				slog.Any("error", err))
		}
	}

	log.Info("video transcoded for web playback",
		slog.String("path", outputPath),
		slog.Duration("duration", time.Since(start)))

	return outputPath, nil
}
