package conf

import (
	"testing"
)

func TestValidateEnvThreshold(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid threshold", "0.25", false},
		{"lower bound", "0.0", false},
		{"upper bound", "1.0", false},
		{"above range", "1.5", true},
		{"negative", "-0.1", true},
		{"not a number", "high", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateEnvThreshold(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateEnvThreshold(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEnvRetentionPolicy(t *testing.T) {
	t.Parallel()
	for _, valid := range []string{"none", "age", "usage"} {
		if err := validateEnvRetentionPolicy(valid); err != nil {
			t.Errorf("expected policy %q to validate, got: %v", valid, err)
		}
	}
	if err := validateEnvRetentionPolicy("fifo"); err == nil {
		t.Error("expected unknown policy to fail validation")
	}
}

func TestValidateEnvPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"relative path", "artifacts/", false},
		{"absolute path", "/var/lib/aoi", false},
		{"empty", "", true},
		{"null byte", "bad\x00path", true},
		{"parent escape", "../outside", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateEnvPath(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateEnvPath(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEnvBool(t *testing.T) {
	t.Parallel()
	for _, valid := range []string{"true", "false", "1", "0", "TRUE"} {
		if err := validateEnvBool(valid); err != nil {
			t.Errorf("expected %q to validate as bool, got: %v", valid, err)
		}
	}
	if err := validateEnvBool("yes"); err == nil {
		t.Error("expected 'yes' to fail bool validation")
	}
}

func TestEnvBindingsAreWellFormed(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, binding := range getEnvBindings() {
		if binding.ConfigKey == "" || binding.EnvVar == "" {
			t.Errorf("binding %+v has empty key or env var", binding)
		}
		if seen[binding.EnvVar] {
			t.Errorf("duplicate env var binding: %s", binding.EnvVar)
		}
		seen[binding.EnvVar] = true
	}
}
