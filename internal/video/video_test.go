package video

import (
	"context"
	"image"
	"image/color"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/errors"
)

func TestParseRational(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "30000/1001", want: 29.97002997002997},
		{in: "25/1", want: 25},
		{in: "25", want: 25},
		{in: "0/0", want: 0},
		{in: "abc", wantErr: true},
		{in: "30/x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseRational(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseCandidate(t *testing.T) {
	t.Parallel()

	cand, err := ParseCandidate("mp4v/mp4")
	require.NoError(t, err)
	assert.Equal(t, Candidate{Codec: "mp4v", Container: "mp4"}, cand)

	for _, bad := range []string{"h264", "/avi", "mjpg/", ""} {
		_, err := ParseCandidate(bad)
		assert.Error(t, err, bad)
	}
}

func TestEncoderMapping(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "mpeg4", encoderName("mp4v"))
	assert.Equal(t, "libxvid", encoderName("xvid"))
	assert.Equal(t, "mjpeg", encoderName("mjpg"))
	assert.Equal(t, "libx264", encoderName("h264"))
	assert.Equal(t, "ffv1", encoderName("ffv1"))

	assert.Equal(t, "yuvj420p", pixelFormat("mjpg"))
	assert.Equal(t, "yuv420p", pixelFormat("h264"))
}

func TestBoundedBufferKeepsTail(t *testing.T) {
	t.Parallel()

	buf := newBoundedBuffer(8)
	_, err := buf.Write([]byte("0123"))
	require.NoError(t, err)
	_, err = buf.Write([]byte("45678901"))
	require.NoError(t, err)

	assert.Equal(t, "45678901", buf.String())

	_, err = buf.Write([]byte("this is far too long"))
	require.NoError(t, err)
	assert.Equal(t, "too long", buf.String())
}

func TestStreamInfoFrameBytes(t *testing.T) {
	t.Parallel()

	info := StreamInfo{Width: 640, Height: 480}
	assert.Equal(t, 640*480*4, info.FrameBytes())
}

func TestProbeRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	settings := &conf.VideoSettings{FfprobePath: "ffprobe"}
	_, err := Probe(context.Background(), settings, "")
	require.Error(t, err)
	assert.True(t, errors.IsInputError(err))
}

func TestProbeRequiresResolvedTool(t *testing.T) {
	t.Parallel()

	_, err := Probe(context.Background(), &conf.VideoSettings{}, "board.mp4")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategorySystem))
}

func encoderSettings(t *testing.T, candidates ...string) *conf.VideoSettings {
	t.Helper()
	return &conf.VideoSettings{
		FfmpegPath: "ffmpeg",
		Encoder: conf.EncoderSettings{
			Candidates: candidates,
		},
	}
}

func TestNewFrameWriterValidatesCandidates(t *testing.T) {
	t.Parallel()

	info := &StreamInfo{Width: 64, Height: 48, FPS: 10}

	_, err := NewFrameWriter(context.Background(), encoderSettings(t), "out", info)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	_, err = NewFrameWriter(context.Background(), encoderSettings(t, "mp4v"), "out", info)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestFrameWriterRejectsGeometryMismatch(t *testing.T) {
	t.Parallel()

	info := &StreamInfo{Width: 64, Height: 48, FPS: 10}
	w, err := NewFrameWriter(context.Background(), encoderSettings(t, "mp4v/mp4"), "out", info)
	require.NoError(t, err)

	err = w.WriteFrame(image.NewRGBA(image.Rect(0, 0, 32, 32)))
	require.Error(t, err)
	assert.True(t, errors.IsFatalEncodeError(err))
}

func TestFrameWriterCloseWithoutFrames(t *testing.T) {
	t.Parallel()

	info := &StreamInfo{Width: 64, Height: 48, FPS: 10}
	w, err := NewFrameWriter(context.Background(), encoderSettings(t, "mp4v/mp4"), "out", info)
	require.NoError(t, err)

	err = w.Close()
	require.Error(t, err)
	assert.True(t, errors.IsFatalEncodeError(err))
}

func TestIsExpectedExit(t *testing.T) {
	t.Parallel()

	assert.True(t, isExpectedExit(context.Canceled))
	assert.True(t, isExpectedExit(errors.NewStd("signal: killed")))
	assert.True(t, isExpectedExit(errors.NewStd("write |1: broken pipe")))
	assert.False(t, isExpectedExit(errors.NewStd("exit status 1")))
}

// requireVideoTools resolves ffmpeg and ffprobe or skips the test.
func requireVideoTools(t *testing.T) (ffmpeg, ffprobe string) {
	t.Helper()
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg not available")
	}
	ffprobe, err = exec.LookPath("ffprobe")
	if err != nil {
		t.Skip("ffprobe not available")
	}
	return ffmpeg, ffprobe
}

func TestEncodeProbeDecodeRoundTrip(t *testing.T) {
	ffmpeg, ffprobe := requireVideoTools(t)

	settings := &conf.VideoSettings{
		FfmpegPath:  ffmpeg,
		FfprobePath: ffprobe,
		Encoder: conf.EncoderSettings{
			Candidates: []string{"mp4v/mp4", "mjpg/avi"},
		},
	}

	const frames = 8
	info := &StreamInfo{Width: 64, Height: 48, FPS: 10}
	basePath := filepath.Join(t.TempDir(), "annotated")

	ctx := context.Background()
	w, err := NewFrameWriter(ctx, settings, basePath, info)
	require.NoError(t, err)

	for i := 0; i < frames; i++ {
		frame := image.NewRGBA(image.Rect(0, 0, info.Width, info.Height))
		for y := 0; y < info.Height; y++ {
			for x := 0; x < info.Width; x++ {
				frame.SetRGBA(x, y, color.RGBA{R: uint8(i * 30), G: uint8(x), B: uint8(y), A: 255})
			}
		}
		require.NoError(t, w.WriteFrame(frame))
	}
	require.NoError(t, w.Close())

	outPath := w.FinalPath()
	require.True(t, strings.HasSuffix(outPath, ".mp4") || strings.HasSuffix(outPath, ".avi"))

	require.NoError(t, Verify(ctx, settings, outPath))

	probed, err := Probe(ctx, settings, outPath)
	require.NoError(t, err)
	assert.Equal(t, info.Width, probed.Width)
	assert.Equal(t, info.Height, probed.Height)
	assert.InDelta(t, info.FPS, probed.FPS, 0.01)

	r, err := NewFrameReader(ctx, settings, outPath, probed)
	require.NoError(t, err)

	decoded := 0
	for {
		_, err := r.ReadFrame()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		decoded++
	}
	require.NoError(t, r.Close())
	assert.Equal(t, frames, decoded)
}

func TestEncoderFallsBackThroughCandidates(t *testing.T) {
	ffmpeg, ffprobe := requireVideoTools(t)

	// The first two candidates name encoders ffmpeg does not have, so
	// the writer must walk the chain and settle on the third.
	settings := &conf.VideoSettings{
		FfmpegPath:  ffmpeg,
		FfprobePath: ffprobe,
		Encoder: conf.EncoderSettings{
			Candidates: []string{"bogus/mp4", "alsobad/avi", "mjpg/avi"},
		},
	}

	const frames = 4
	info := &StreamInfo{Width: 64, Height: 48, FPS: 10}
	basePath := filepath.Join(t.TempDir(), "annotated")

	ctx := context.Background()
	w, err := NewFrameWriter(ctx, settings, basePath, info)
	require.NoError(t, err)

	for i := 0; i < frames; i++ {
		frame := image.NewRGBA(image.Rect(0, 0, info.Width, info.Height))
		for y := 0; y < info.Height; y++ {
			for x := 0; x < info.Width; x++ {
				frame.SetRGBA(x, y, color.RGBA{R: uint8(i * 40), G: uint8(x), B: uint8(y), A: 255})
			}
		}
		require.NoError(t, w.WriteFrame(frame))
	}
	require.NoError(t, w.Close())

	// The winning candidate decides both the codec and the container
	// extension of the final file.
	assert.Equal(t, Candidate{Codec: "mjpg", Container: "avi"}, w.Codec())
	assert.True(t, strings.HasSuffix(w.FinalPath(), ".avi"))

	require.NoError(t, Verify(ctx, settings, w.FinalPath()))
}

func TestEncoderFailsWhenNoCandidateOpens(t *testing.T) {
	ffmpeg, _ := requireVideoTools(t)

	settings := &conf.VideoSettings{
		FfmpegPath: ffmpeg,
		Encoder: conf.EncoderSettings{
			Candidates: []string{"bogus/mp4", "alsobad/avi"},
		},
	}

	info := &StreamInfo{Width: 64, Height: 48, FPS: 10}
	w, err := NewFrameWriter(context.Background(), settings, filepath.Join(t.TempDir(), "annotated"), info)
	require.NoError(t, err)

	err = w.WriteFrame(image.NewRGBA(image.Rect(0, 0, info.Width, info.Height)))
	require.Error(t, err)
	assert.True(t, errors.IsFatalEncodeError(err))
}
