package errors

import (
	"fmt"
	"testing"
)

// BenchmarkErrorCreation tests error creation performance with explicit metadata
func BenchmarkErrorCreation(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		err := fmt.Errorf("test error")
		_ = New(err).
			Component("test").
			Category(CategoryGeneric).
			Build()
	}
}

// BenchmarkErrorCreationAutoDetect tests error creation with category auto-detection
func BenchmarkErrorCreationAutoDetect(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		err := fmt.Errorf("test error")
		_ = New(err).Build()
	}
}

// BenchmarkErrorCreationWithContext tests error creation with context data
func BenchmarkErrorCreationWithContext(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		err := fmt.Errorf("test error")
		_ = New(err).
			Component("test").
			Category(CategoryProcessing).
			Context("inspection_id", "PCB-001").
			Context("frame", 42).
			Build()
	}
}

// BenchmarkComponentDetection tests the lazy call-stack component lookup
func BenchmarkComponentDetection(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		err := fmt.Errorf("test error")
		ee := New(err).Build()
		_ = ee.GetComponent()
	}
}
