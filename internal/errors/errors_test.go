package errors

import (
	"fmt"
	"testing"
)

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("test error")
	ee := New(err).Build()

	if ee.Err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", ee.Err.Error())
	}

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected category 'generic' for unclassifiable error, got '%s'", ee.Category)
	}
}

func TestCategoryDetection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected ErrorCategory
	}{
		{"model load", fmt.Errorf("failed to read model weights"), CategoryModelLoad},
		{"transcode", fmt.Errorf("transcode pass timed out"), CategoryTranscode},
		{"encode", fmt.Errorf("no working codec candidate"), CategoryEncode},
		{"probe", fmt.Errorf("ffprobe exited with status 1"), CategoryVideoProbe},
		{"validation", fmt.Errorf("invalid frame rate"), CategoryValidation},
		{"broker", fmt.Errorf("broker unreachable"), CategoryMQTTConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ee := New(tt.err).Build()
			if ee.Category != tt.expected {
				t.Errorf("Expected category '%s', got '%s'", tt.expected, ee.Category)
			}
		})
	}
}

func TestExplicitCategoryWins(t *testing.T) {
	t.Parallel()

	ee := New(fmt.Errorf("invalid codec")).Category(CategoryEncode).Build()
	if ee.Category != CategoryEncode {
		t.Errorf("Expected explicit category to win, got '%s'", ee.Category)
	}
}

func TestFailureClassPredicates(t *testing.T) {
	t.Parallel()

	input := New(NewStd("bad payload")).Category(CategoryValidation).Build()
	if !IsInputError(input) {
		t.Error("Expected validation error to classify as input error")
	}
	if IsFatalEncodeError(input) {
		t.Error("Validation error must not classify as fatal encode")
	}

	probe := New(NewStd("stream unreadable")).Category(CategoryVideoProbe).Build()
	if !IsInputError(probe) {
		t.Error("Expected probe error to classify as input error")
	}

	encode := New(NewStd("all candidates failed")).Category(CategoryEncode).Build()
	if !IsFatalEncodeError(encode) {
		t.Error("Expected encode error to classify as fatal encode")
	}
	if IsInputError(encode) {
		t.Error("Encode error must not classify as input error")
	}

	cleanup := New(NewStd("remove failed")).Category(CategoryDiskCleanup).Build()
	if !IsCleanupWarning(cleanup) {
		t.Error("Expected cleanup error to classify as cleanup warning")
	}

	if IsInputError(NewStd("plain error")) {
		t.Error("Plain errors must not classify as input errors")
	}
}

func TestContextCopyIsolation(t *testing.T) {
	t.Parallel()

	ee := New(fmt.Errorf("ctx")).Context("key", "value").Build()
	got := ee.GetContext()
	got["key"] = "mutated"

	if ee.GetContext()["key"] != "value" {
		t.Error("GetContext must return a copy, not the internal map")
	}
}
