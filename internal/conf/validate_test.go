package conf

import (
	"strings"
	"testing"
)

// validTestSettings returns a Settings struct that passes validation.
func validTestSettings() *Settings {
	s := &Settings{}
	s.Detector = DetectorConfig{
		ModelPath:  "models/pcb-defect.onnx",
		InputSize:  640,
		Confidence: 0.25,
		IoU:        0.45,
		Threads:    0,
	}
	s.Inspection.Artifacts = ArtifactSettings{
		Path: "artifacts/",
		Retention: RetentionSettings{
			Policy:   "age",
			Window:   10,
			MaxUsage: "80%",
		},
	}
	s.Inspection.Video = VideoSettings{
		SampleCoefficient: 0.7,
		MaxDefectFrames:   20,
		Encoder: EncoderSettings{
			Candidates:       []string{"mp4v/mp4", "xvid/avi", "mjpg/avi", "h264/mp4"},
			WebOptimize:      true,
			TranscodeTimeout: 120,
		},
	}
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "aoi.db"
	return s
}

func TestValidateSettings_Valid(t *testing.T) {
	t.Parallel()

	if err := ValidateSettings(validTestSettings()); err != nil {
		t.Errorf("expected valid settings to pass validation, got: %v", err)
	}
}

func TestValidateDetectorSettings(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*DetectorConfig)
		wantErr string
	}{
		{
			name:    "empty model path",
			mutate:  func(d *DetectorConfig) { d.ModelPath = "" },
			wantErr: "model path must not be empty",
		},
		{
			name:    "unsupported model format",
			mutate:  func(d *DetectorConfig) { d.ModelPath = "models/pcb-defect.pt" },
			wantErr: "must end in .onnx or .tflite",
		},
		{
			name:    "tflite model accepted",
			mutate:  func(d *DetectorConfig) { d.ModelPath = "models/pcb-defect.tflite" },
			wantErr: "",
		},
		{
			name:    "confidence above one",
			mutate:  func(d *DetectorConfig) { d.Confidence = 1.5 },
			wantErr: "confidence must be between",
		},
		{
			name:    "negative IoU",
			mutate:  func(d *DetectorConfig) { d.IoU = -0.1 },
			wantErr: "IoU must be between",
		},
		{
			name:    "zero input size",
			mutate:  func(d *DetectorConfig) { d.InputSize = 0 },
			wantErr: "input size must be positive",
		},
		{
			name:    "negative threads",
			mutate:  func(d *DetectorConfig) { d.Threads = -1 },
			wantErr: "threads must be 0 or positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			detector := validTestSettings().Detector
			tt.mutate(&detector)

			err := validateDetectorSettings(&detector)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateArtifactSettings(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*ArtifactSettings)
		wantErr string
	}{
		{
			name:    "empty artifact path",
			mutate:  func(a *ArtifactSettings) { a.Path = "" },
			wantErr: "artifact path must not be empty",
		},
		{
			name:    "unknown retention policy",
			mutate:  func(a *ArtifactSettings) { a.Retention.Policy = "lru" },
			wantErr: "retention policy must be",
		},
		{
			name: "age policy with nonpositive window",
			mutate: func(a *ArtifactSettings) {
				a.Retention.Policy = "age"
				a.Retention.Window = 0
			},
			wantErr: "retention window must be positive",
		},
		{
			name: "usage policy with bad percentage",
			mutate: func(a *ArtifactSettings) {
				a.Retention.Policy = "usage"
				a.Retention.MaxUsage = "eighty"
			},
			wantErr: "invalid retention max usage",
		},
		{
			name:    "none policy needs nothing else",
			mutate:  func(a *ArtifactSettings) { a.Retention = RetentionSettings{Policy: "none"} },
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			artifacts := validTestSettings().Inspection.Artifacts
			tt.mutate(&artifacts)

			err := validateArtifactSettings(&artifacts)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateVideoSettings(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*VideoSettings)
		wantErr string
	}{
		{
			name:    "zero sample coefficient",
			mutate:  func(v *VideoSettings) { v.SampleCoefficient = 0 },
			wantErr: "sample coefficient must be positive",
		},
		{
			name:    "empty candidate list",
			mutate:  func(v *VideoSettings) { v.Encoder.Candidates = nil },
			wantErr: "candidate list must not be empty",
		},
		{
			name:    "malformed candidate",
			mutate:  func(v *VideoSettings) { v.Encoder.Candidates = []string{"mp4v"} },
			wantErr: "must be 'codec/container'",
		},
		{
			name:    "zero transcode timeout",
			mutate:  func(v *VideoSettings) { v.Encoder.TranscodeTimeout = 0 },
			wantErr: "transcode timeout must be positive",
		},
		{
			name:    "negative max defect frames",
			mutate:  func(v *VideoSettings) { v.MaxDefectFrames = -1 },
			wantErr: "max defect frames must be 0 or positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			video := validTestSettings().Inspection.Video
			tt.mutate(&video)

			err := validateVideoSettings(&video)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestParsePercentage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"plain percentage", "80%", 80, false},
		{"fractional percentage", "92.5%", 92.5, false},
		{"missing suffix", "80", 0, true},
		{"not a number", "abc%", 0, true},
		{"zero", "0%", 0, true},
		{"over hundred", "150%", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePercentage(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for input %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if got != tt.want {
				t.Errorf("ParsePercentage(%q) = %g, want %g", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateMQTTSettings(t *testing.T) {
	t.Parallel()

	disabled := MQTTSettings{Enabled: false}
	if err := validateMQTTSettings(&disabled); err != nil {
		t.Errorf("disabled MQTT must not be validated, got: %v", err)
	}

	missingBroker := MQTTSettings{Enabled: true, Topic: "aoi/inspection"}
	if err := validateMQTTSettings(&missingBroker); err == nil {
		t.Error("expected error for enabled MQTT without broker")
	}

	missingTopic := MQTTSettings{Enabled: true, Broker: "tcp://localhost:1883"}
	if err := validateMQTTSettings(&missingTopic); err == nil {
		t.Error("expected error for enabled MQTT without topic")
	}
}
