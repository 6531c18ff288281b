package video

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/errors"
)

// tempExt is appended to encoder output paths until the file is
// finalized, so half written videos never appear under the final name.
const tempExt = ".temp"

// encoderProbeDelay is how long a freshly launched encoder gets to
// reject its arguments before the candidate is accepted.
const encoderProbeDelay = 300 * time.Millisecond

// Candidate is one codec and container pairing from the configured
// fallback chain.
type Candidate struct {
	Codec     string
	Container string
}

// ParseCandidate splits a "codec/container" configuration entry.
func ParseCandidate(s string) (Candidate, error) {
	codec, container, found := strings.Cut(s, "/")
	if !found || codec == "" || container == "" {
		return Candidate{}, fmt.Errorf("invalid encoder candidate %q, expected codec/container", s)
	}
	return Candidate{Codec: codec, Container: container}, nil
}

// encoderName maps a candidate codec tag to the ffmpeg encoder.
func encoderName(codec string) string {
	switch codec {
	case "mp4v":
		return "mpeg4"
	case "xvid":
		return "libxvid"
	case "mjpg":
		return "mjpeg"
	case "h264":
		return "libx264"
	default:
		return codec
	}
}

// pixelFormat returns the encoder output pixel format. MJPEG uses the
// full range JPEG variant, everything else the playback safe yuv420p.
func pixelFormat(codec string) string {
	if codec == "mjpg" {
		return "yuvj420p"
	}
	return "yuv420p"
}

// FrameWriter encodes RGBA frames into a video file, trying each
// configured codec candidate in order until one accepts the stream. The
// first write launches the winning encoder, subsequent frames stream to
// the same process in input order.
type FrameWriter struct {
	ctx        context.Context
	settings   *conf.VideoSettings
	basePath   string
	info       StreamInfo
	candidates []Candidate

	proc      *encoderProc
	candidate Candidate
	frames    int
}

// encoderProc is a running ffmpeg encode process.
type encoderProc struct {
	cmd       *exec.Cmd
	cancel    context.CancelFunc
	stdin     io.WriteCloser
	stderr    *boundedBuffer
	done      chan error
	tempPath  string
	finalPath string
}

// NewFrameWriter prepares a writer for the given stream geometry. The
// basePath must not carry an extension, the winning candidate's
// container decides it.
func NewFrameWriter(ctx context.Context, settings *conf.VideoSettings, basePath string, info *StreamInfo) (*FrameWriter, error) {
	if err := validateToolPath("ffmpeg", settings.FfmpegPath); err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Build()
	}

	candidates := make([]Candidate, 0, len(settings.Encoder.Candidates))
	for _, raw := range settings.Encoder.Candidates {
		cand, err := ParseCandidate(raw)
		if err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryConfiguration).
				Build()
		}
		candidates = append(candidates, cand)
	}
	if len(candidates) == 0 {
		return nil, errors.Newf("no encoder candidates configured").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return &FrameWriter{
		ctx:        ctx,
		settings:   settings,
		basePath:   basePath,
		info:       *info,
		candidates: candidates,
	}, nil
}

// WriteFrame encodes one frame. The frame must match the stream
// geometry the writer was created with.
func (w *FrameWriter) WriteFrame(frame *image.RGBA) error {
	if err := w.checkFrame(frame); err != nil {
		return err
	}

	if w.proc == nil {
		if err := w.selectEncoder(frame); err != nil {
			return err
		}
		w.frames++
		return nil
	}

	if err := w.writeRaw(frame.Pix); err != nil {
		return err
	}
	w.frames++
	return nil
}

func (w *FrameWriter) checkFrame(frame *image.RGBA) error {
	bounds := frame.Bounds()
	if bounds.Dx() != w.info.Width || bounds.Dy() != w.info.Height || frame.Stride != 4*w.info.Width {
		return errors.Newf("frame geometry %dx%d does not match stream %dx%d",
			bounds.Dx(), bounds.Dy(), w.info.Width, w.info.Height).
			Category(errors.CategoryEncode).
			Build()
	}
	return nil
}

// selectEncoder walks the candidate chain with the first frame until an
// encoder accepts it. Every candidate failure is logged, running out of
// candidates is a fatal encode error.
func (w *FrameWriter) selectEncoder(first *image.RGBA) error {
	for _, cand := range w.candidates {
		proc, err := w.launch(cand)
		if err != nil {
			log.Warn("encoder candidate failed to launch",
				slog.String("codec", cand.Codec),
				slog.String("container", cand.Container),
				slog.Any("error", err))
			continue
		}

		if err := proc.write(first.Pix); err != nil {
			log.Warn("encoder candidate rejected first frame",
				slog.String("codec", cand.Codec),
				slog.String("container", cand.Container),
				slog.String("stderr", strings.TrimSpace(proc.stderr.String())))
			proc.abort()
			continue
		}

		// A bad codec or container pairing usually exits within the
		// probe window instead of consuming further input.
		select {
		case <-proc.done:
			log.Warn("encoder candidate exited during probe",
				slog.String("codec", cand.Codec),
				slog.String("container", cand.Container),
				slog.String("stderr", strings.TrimSpace(proc.stderr.String())))
			proc.abort()
			continue
		case <-time.After(encoderProbeDelay):
		}

		log.Info("encoder selected",
			slog.String("codec", cand.Codec),
			slog.String("container", cand.Container),
			slog.String("path", proc.finalPath))
		w.proc = proc
		w.candidate = cand
		return nil
	}

	return errors.Newf("all encoder candidates failed").
		Category(errors.CategoryEncode).
		Context("candidates", strings.Join(w.settings.Encoder.Candidates, ",")).
		Build()
}

func (w *FrameWriter) launch(cand Candidate) (*encoderProc, error) {
	finalPath := w.basePath + "." + cand.Container
	tempPath := finalPath + tempExt

	ctx, cancel := context.WithCancel(w.ctx)

	cmd := exec.CommandContext(ctx, w.settings.FfmpegPath,
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", w.info.Width, w.info.Height),
		"-framerate", fmt.Sprintf("%g", w.info.FPS),
		"-i", "-",
		"-loglevel", "error",
		"-an",
		"-c:v", encoderName(cand.Codec),
		"-pix_fmt", pixelFormat(cand.Codec),
		"-f", cand.Container,
		"-hide_banner",
		"-y",
		tempPath,
	)

	stderrBuf := newBoundedBuffer(4096)
	cmd.Stderr = stderrBuf

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if w.settings.Debug {
		log.Debug("starting ffmpeg encoder", slog.String("command", cmd.String()))
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	return &encoderProc{
		cmd:       cmd,
		cancel:    cancel,
		stdin:     stdin,
		stderr:    stderrBuf,
		done:      done,
		tempPath:  tempPath,
		finalPath: finalPath,
	}, nil
}

func (p *encoderProc) write(pix []byte) error {
	_, err := p.stdin.Write(pix)
	return err
}

// abort kills the process and removes its partial output.
func (p *encoderProc) abort() {
	p.cancel()
	<-p.done
	if err := os.Remove(p.tempPath); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove partial encode output",
			slog.String("path", p.tempPath),
			slog.Any("error", err))
	}
}

func (w *FrameWriter) writeRaw(pix []byte) error {
	if err := w.proc.write(pix); err != nil {
		return errors.New(err).
			Category(errors.CategoryEncode).
			Context("codec", w.candidate.Codec).
			Context("frame", w.frames+1).
			Context("stderr", strings.TrimSpace(w.proc.stderr.String())).
			Build()
	}
	return nil
}

// Frames returns the number of frames written so far.
func (w *FrameWriter) Frames() int {
	return w.frames
}

// Codec returns the accepted candidate. Only valid after the first
// successful WriteFrame.
func (w *FrameWriter) Codec() Candidate {
	return w.candidate
}

// FinalPath returns the finalized output location. Only valid after
// Close succeeds.
func (w *FrameWriter) FinalPath() string {
	if w.proc == nil {
		return ""
	}
	return w.proc.finalPath
}

// Close flushes the encoder and moves the output to its final name.
// Closing a writer that never accepted a frame is an encode failure.
func (w *FrameWriter) Close() error {
	if w.proc == nil {
		return errors.Newf("no frames were encoded").
			Category(errors.CategoryEncode).
			Build()
	}

	if err := w.proc.stdin.Close(); err != nil && !strings.Contains(err.Error(), "file already closed") {
		log.Warn("failed to close encoder stdin", slog.Any("error", err))
	}

	if err := <-w.proc.done; err != nil {
		w.removeTemp()
		return errors.New(err).
			Category(errors.CategoryEncode).
			Context("codec", w.candidate.Codec).
			Context("stderr", strings.TrimSpace(w.proc.stderr.String())).
			Build()
	}

	if err := os.Rename(w.proc.tempPath, w.proc.finalPath); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("temp_path", w.proc.tempPath).
			Build()
	}
	return nil
}

// Abort kills the encoder and discards any partial output.
func (w *FrameWriter) Abort() {
	if w.proc != nil {
		w.proc.abort()
	}
}

func (w *FrameWriter) removeTemp() {
	if err := os.Remove(w.proc.tempPath); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove partial encode output",
			slog.String("path", w.proc.tempPath),
			slog.Any("error", err))
	}
}
