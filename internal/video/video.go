// Package video streams frames out of inspection recordings and encodes
// annotated review footage. All decoding and encoding runs through
// ffmpeg and ffprobe subprocesses with raw RGBA frames piped between
// them and the inspection pipeline.
package video

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/pcbvision/aoi-go/internal/logging"
)

// StreamInfo describes the primary video stream of a recording.
type StreamInfo struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int // 0 when the container does not declare it
}

// FrameBytes returns the size of one raw RGBA frame.
func (s StreamInfo) FrameBytes() int {
	return s.Width * s.Height * 4
}

// validateToolPath checks that an ffmpeg tool has been resolved.
func validateToolPath(name, path string) error {
	if path == "" {
		return fmt.Errorf("%s is not available", name)
	}
	return nil
}

// parseRational parses an ffprobe rational such as "30000/1001" into a
// float. A plain number is returned as-is.
func parseRational(s string) (float64, error) {
	num, den, found := strings.Cut(s, "/")
	if !found {
		return strconv.ParseFloat(s, 64)
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rational %q: %w", s, err)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rational %q: %w", s, err)
	}
	if d == 0 {
		return 0, nil
	}
	return n / d, nil
}

// boundedBuffer keeps the tail of subprocess stderr without growing
// unbounded on chatty failures.
type boundedBuffer struct {
	buffer bytes.Buffer
	mu     sync.Mutex
	size   int
}

func newBoundedBuffer(size int) *boundedBuffer {
	return &boundedBuffer{size: size}
}

func (b *boundedBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buffer.Len()+len(p) > b.size {
		b.buffer.Reset()
		if len(p) > b.size {
			p = p[len(p)-b.size:]
		}
	}
	return b.buffer.Write(p)
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}

var log *slog.Logger

func init() {
	log = logging.ForService("video")
	if log == nil {
		log = slog.Default().With("service", "video")
	}
}
