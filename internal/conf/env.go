// env.go - Environment variable configuration and validation for AOI-Go
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		// Core configuration
		{"debug", "AOI_DEBUG", validateEnvBool},
		{"main.name", "AOI_NAME", nil},

		// Detector configuration
		{"detector.modelpath", "AOI_DETECTOR_MODELPATH", validateEnvPath},
		{"detector.inputsize", "AOI_DETECTOR_INPUTSIZE", validateEnvPositiveInt},
		{"detector.confidence", "AOI_DETECTOR_CONFIDENCE", validateEnvThreshold},
		{"detector.iou", "AOI_DETECTOR_IOU", validateEnvThreshold},
		{"detector.threads", "AOI_DETECTOR_THREADS", validateEnvThreads},
		{"detector.usexnnpack", "AOI_DETECTOR_USEXNNPACK", validateEnvBool},

		// Artifact and retention configuration
		{"inspection.artifacts.path", "AOI_ARTIFACTS_PATH", validateEnvPath},
		{"inspection.artifacts.retention.policy", "AOI_RETENTION_POLICY", validateEnvRetentionPolicy},
		{"inspection.artifacts.retention.window", "AOI_RETENTION_WINDOW", validateEnvPositiveInt},

		// MQTT configuration
		{"inspection.mqtt.enabled", "AOI_MQTT_ENABLED", validateEnvBool},
		{"inspection.mqtt.broker", "AOI_MQTT_BROKER", nil},
		{"inspection.mqtt.topic", "AOI_MQTT_TOPIC", nil},
		{"inspection.mqtt.username", "AOI_MQTT_USERNAME", nil},
		{"inspection.mqtt.password", "AOI_MQTT_PASSWORD", nil},

		// Database configuration
		{"output.sqlite.enabled", "AOI_SQLITE_ENABLED", validateEnvBool},
		{"output.sqlite.path", "AOI_SQLITE_PATH", validateEnvPath},
		{"output.mysql.enabled", "AOI_MYSQL_ENABLED", validateEnvBool},
		{"output.mysql.host", "AOI_MYSQL_HOST", nil},
		{"output.mysql.password", "AOI_MYSQL_PASSWORD", nil},
	}
}

// bindEnvVars binds environment variables to config keys and validates set values
func bindEnvVars() error {
	bindings := getEnvBindings()
	var warnings []string

	for _, binding := range bindings {
		// Bind the environment variable to the config key
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		// Validate the value if it's set and validation function is provided
		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// Environment variable validation functions

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be a boolean value (true/false), got: '%s'", value)
	}
	return nil
}

func validateEnvThreshold(value string) error {
	threshold, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid threshold: %w", err)
	}
	if threshold < 0.0 || threshold > 1.0 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0, got %g", threshold)
	}
	return nil
}

func validateEnvThreads(value string) error {
	threads, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid threads: %w", err)
	}
	if threads < 0 {
		return fmt.Errorf("threads must be 0 or positive, got %d", threads)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n <= 0 {
		return fmt.Errorf("must be positive, got %d", n)
	}
	return nil
}

func validateEnvRetentionPolicy(value string) error {
	switch value {
	case "none", "age", "usage":
		return nil
	default:
		return fmt.Errorf("retention policy must be 'none', 'age' or 'usage', got: '%s'", value)
	}
}

func validateEnvPath(value string) error {
	if value == "" {
		return fmt.Errorf("path cannot be empty")
	}
	// Reject null bytes and other control characters that break filesystems
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("path contains a null byte")
	}
	if !filepath.IsLocal(value) && !filepath.IsAbs(value) {
		return fmt.Errorf("path must be local or absolute, got: '%s'", value)
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable handling
func configureEnvironmentVariables() error {
	// Set up key replacer for nested config keys
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind specific environment variables with validation
	// Return any errors to the caller for centralized handling
	return bindEnvVars()
}
