package video

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/errors"
)

// probeTimeout bounds a single ffprobe invocation.
const probeTimeout = 15 * time.Second

// Probe inspects the primary video stream of the file. Unreadable files
// and streams without a usable frame rate or geometry are rejected as
// invalid input.
func Probe(ctx context.Context, settings *conf.VideoSettings, videoPath string) (*StreamInfo, error) {
	fields, err := probeStream(ctx, settings, videoPath)
	if err != nil {
		return nil, err
	}

	info := &StreamInfo{}
	info.Width, _ = strconv.Atoi(fields["width"])
	info.Height, _ = strconv.Atoi(fields["height"])
	if rate, ok := fields["r_frame_rate"]; ok {
		info.FPS, _ = parseRational(rate)
	}
	if frames, ok := fields["nb_frames"]; ok && frames != "N/A" {
		info.FrameCount, _ = strconv.Atoi(frames)
	}

	if info.Width <= 0 || info.Height <= 0 {
		return nil, errors.Newf("video has invalid dimensions %dx%d", info.Width, info.Height).
			Category(errors.CategoryVideoProbe).
			Context("video_path", videoPath).
			Build()
	}
	if info.FPS <= 0 {
		return nil, errors.Newf("video has invalid frame rate").
			Category(errors.CategoryVideoProbe).
			Context("video_path", videoPath).
			Context("r_frame_rate", fields["r_frame_rate"]).
			Build()
	}

	return info, nil
}

// Verify re-probes an encoded file and confirms it contains at least one
// readable frame. A file that fails verification is not a usable review
// artifact and the encode is treated as fatal.
func Verify(ctx context.Context, settings *conf.VideoSettings, videoPath string) error {
	fields, err := probeStream(ctx, settings, videoPath)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryEncode).
			Context("video_path", videoPath).
			Context("operation", "verify").
			Build()
	}

	frames := 0
	if v, ok := fields["nb_frames"]; ok && v != "N/A" {
		frames, _ = strconv.Atoi(v)
	}
	if frames == 0 {
		if v, ok := fields["nb_read_packets"]; ok && v != "N/A" {
			frames, _ = strconv.Atoi(v)
		}
	}

	if frames <= 0 {
		return errors.Newf("encoded video has no readable frames").
			Category(errors.CategoryEncode).
			Context("video_path", videoPath).
			Context("operation", "verify").
			Build()
	}
	return nil
}

// probeStream runs ffprobe over the first video stream and returns its
// key=value fields.
func probeStream(ctx context.Context, settings *conf.VideoSettings, videoPath string) (map[string]string, error) {
	if videoPath == "" {
		return nil, errors.Newf("video path cannot be empty").
			Category(errors.CategoryVideoProbe).
			Build()
	}
	if err := validateToolPath("ffprobe", settings.FfprobePath); err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	// -count_packets provides a frame count fallback for containers
	// that do not declare nb_frames.
	cmd := exec.CommandContext(ctx, settings.FfprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames,nb_read_packets",
		"-of", "default=noprint_wrappers=1",
		videoPath)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.New(ctx.Err()).
				Category(errors.CategoryTimeout).
				Context("video_path", videoPath).
				Context("operation", "probe").
				Build()
		}
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		return nil, errors.Newf("ffprobe failed: %s", errMsg).
			Category(errors.CategoryVideoProbe).
			Context("video_path", videoPath).
			Build()
	}

	fields := make(map[string]string)
	for _, line := range strings.Split(out.String(), "\n") {
		if key, value, found := strings.Cut(strings.TrimSpace(line), "="); found {
			fields[key] = value
		}
	}
	if len(fields) == 0 {
		return nil, errors.Newf("no video stream found").
			Category(errors.CategoryVideoProbe).
			Context("video_path", videoPath).
			Build()
	}

	return fields, nil
}
