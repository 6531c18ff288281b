// conf/validate.go

package conf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	// Validate detector settings
	if err := validateDetectorSettings(&settings.Detector); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate artifact and retention settings
	if err := validateArtifactSettings(&settings.Inspection.Artifacts); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate video pipeline settings
	if err := validateVideoSettings(&settings.Inspection.Video); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate MQTT settings
	if err := validateMQTTSettings(&settings.Inspection.MQTT); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate database output settings
	if err := validateOutputSettings(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateDetectorSettings(detector *DetectorConfig) error {
	if detector.ModelPath == "" {
		return errors.New("detector model path must not be empty")
	}
	switch {
	case strings.HasSuffix(detector.ModelPath, ".onnx"),
		strings.HasSuffix(detector.ModelPath, ".tflite"):
		// supported backends
	default:
		return fmt.Errorf("detector model path must end in .onnx or .tflite, got '%s'", detector.ModelPath)
	}
	if detector.InputSize <= 0 {
		return fmt.Errorf("detector input size must be positive, got %d", detector.InputSize)
	}
	if detector.Confidence < 0.0 || detector.Confidence > 1.0 {
		return fmt.Errorf("detector confidence must be between 0.0 and 1.0, got %g", detector.Confidence)
	}
	if detector.IoU < 0.0 || detector.IoU > 1.0 {
		return fmt.Errorf("detector IoU must be between 0.0 and 1.0, got %g", detector.IoU)
	}
	if detector.Threads < 0 {
		return fmt.Errorf("detector threads must be 0 or positive, got %d", detector.Threads)
	}
	return nil
}

func validateArtifactSettings(artifacts *ArtifactSettings) error {
	if artifacts.Path == "" {
		return errors.New("artifact path must not be empty")
	}

	retention := &artifacts.Retention
	switch retention.Policy {
	case "none":
		// no retention, nothing more to check
	case "age":
		if retention.Window <= 0 {
			return fmt.Errorf("retention window must be positive for the age policy, got %d", retention.Window)
		}
	case "usage":
		if _, err := ParsePercentage(retention.MaxUsage); err != nil {
			return fmt.Errorf("invalid retention max usage: %w", err)
		}
	default:
		return fmt.Errorf("retention policy must be 'none', 'age' or 'usage', got '%s'", retention.Policy)
	}
	return nil
}

func validateVideoSettings(video *VideoSettings) error {
	if video.SampleCoefficient <= 0 {
		return fmt.Errorf("video sample coefficient must be positive, got %g", video.SampleCoefficient)
	}
	if video.MaxDefectFrames < 0 {
		return fmt.Errorf("max defect frames must be 0 or positive, got %d", video.MaxDefectFrames)
	}
	if len(video.Encoder.Candidates) == 0 {
		return errors.New("encoder candidate list must not be empty")
	}
	for _, candidate := range video.Encoder.Candidates {
		parts := strings.Split(candidate, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("encoder candidate must be 'codec/container', got '%s'", candidate)
		}
	}
	if video.Encoder.TranscodeTimeout <= 0 {
		return fmt.Errorf("transcode timeout must be positive, got %d", video.Encoder.TranscodeTimeout)
	}
	return nil
}

func validateMQTTSettings(mqtt *MQTTSettings) error {
	if !mqtt.Enabled {
		return nil
	}
	if mqtt.Broker == "" {
		return errors.New("MQTT broker URL must not be empty when MQTT is enabled")
	}
	if mqtt.Topic == "" {
		return errors.New("MQTT topic must not be empty when MQTT is enabled")
	}
	return nil
}

func validateOutputSettings(settings *Settings) error {
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return errors.New("SQLite database path must not be empty when SQLite output is enabled")
	}
	if settings.Output.MySQL.Enabled {
		if settings.Output.MySQL.Host == "" {
			return errors.New("MySQL host must not be empty when MySQL output is enabled")
		}
		if settings.Output.MySQL.Database == "" {
			return errors.New("MySQL database name must not be empty when MySQL output is enabled")
		}
	}
	return nil
}

// ParsePercentage parses a percentage string such as "80%" into a float64.
func ParsePercentage(percentage string) (float64, error) {
	if !strings.HasSuffix(percentage, "%") {
		return 0, fmt.Errorf("percentage must end with '%%', got '%s'", percentage)
	}
	value, err := strconv.ParseFloat(strings.TrimSuffix(percentage, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage value: %w", err)
	}
	if value <= 0 || value > 100 {
		return 0, fmt.Errorf("percentage must be between 0 and 100, got %g", value)
	}
	return value, nil
}
