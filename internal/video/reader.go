package video

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/errors"
)

// FrameReader streams decoded RGBA frames from a video file through an
// ffmpeg subprocess.
type FrameReader struct {
	info   StreamInfo
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout io.ReadCloser
	stderr *boundedBuffer
	done   chan error
	frame  int
}

// NewFrameReader starts an ffmpeg process decoding the file into raw
// RGBA frames on stdout.
func NewFrameReader(ctx context.Context, settings *conf.VideoSettings, videoPath string, info *StreamInfo) (*FrameReader, error) {
	if err := validateToolPath("ffmpeg", settings.FfmpegPath); err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Build()
	}

	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, settings.FfmpegPath,
		"-i", videoPath,
		"-loglevel", "error",
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-hide_banner",
		"pipe:1",
	)

	stderrBuf := newBoundedBuffer(4096)
	cmd.Stderr = stderrBuf

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, errors.New(fmt.Errorf("error creating ffmpeg pipe: %w", err)).
			Category(errors.CategoryVideoDecode).
			Context("video_path", videoPath).
			Build()
	}

	if settings.Debug {
		log.Debug("starting ffmpeg decoder", slog.String("command", cmd.String()))
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, errors.New(fmt.Errorf("error starting ffmpeg: %w", err)).
			Category(errors.CategoryVideoDecode).
			Context("video_path", videoPath).
			Build()
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	return &FrameReader{
		info:   *info,
		cmd:    cmd,
		cancel: cancel,
		stdout: stdout,
		stderr: stderrBuf,
		done:   done,
	}, nil
}

// ReadFrame returns the next decoded frame. io.EOF signals the clean end
// of the stream. The returned image is freshly allocated and safe to
// retain.
func (r *FrameReader) ReadFrame() (*image.RGBA, error) {
	frame := image.NewRGBA(image.Rect(0, 0, r.info.Width, r.info.Height))

	if _, err := io.ReadFull(r.stdout, frame.Pix); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		// A short trailing read also means end of stream, anything else
		// is a decode failure.
		if errors.Is(err, io.ErrUnexpectedEOF) && r.frame > 0 {
			return nil, io.EOF
		}
		return nil, errors.New(err).
			Category(errors.CategoryVideoDecode).
			Context("frame", r.frame+1).
			Context("stderr", strings.TrimSpace(r.stderr.String())).
			Build()
	}

	r.frame++
	return frame, nil
}

// FramesRead returns the number of frames decoded so far.
func (r *FrameReader) FramesRead() int {
	return r.frame
}

// Close terminates the decoder process. Safe to call after EOF.
func (r *FrameReader) Close() error {
	r.cancel()
	err := <-r.done
	if err != nil && !isExpectedExit(err) {
		return errors.New(err).
			Category(errors.CategoryVideoDecode).
			Context("stderr", strings.TrimSpace(r.stderr.String())).
			Build()
	}
	return nil
}

// isExpectedExit reports whether a process exit error is the normal
// result of cancellation or early pipe closure.
func isExpectedExit(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "signal: killed") || strings.Contains(msg, "broken pipe")
}
