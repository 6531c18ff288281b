// Package cpuspec maps known CPU models to their performance core counts
// so inference thread counts can be sized to P-cores on hybrid parts.
package cpuspec

import (
	"regexp"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// CPUSpec describes the detected processor.
type CPUSpec struct {
	BrandName        string
	PerformanceCores int
}

// GetCPUSpec inspects the host CPU and resolves its performance core count.
func GetCPUSpec() CPUSpec {
	brandName := cpuid.CPU.BrandName
	return CPUSpec{
		BrandName:        brandName,
		PerformanceCores: determinePerformanceCores(brandName),
	}
}

// GetOptimalThreadCount returns the recommended number of inference
// threads. Hybrid architectures are limited to their performance cores,
// everything else uses all logical cores. VMs may expose fewer CPUs than
// the physical part has, so the count is capped at runtime.NumCPU.
func (c CPUSpec) GetOptimalThreadCount() int {
	availableCPUs := runtime.NumCPU()

	if c.PerformanceCores > 0 {
		return min(c.PerformanceCores, availableCPUs)
	}

	if logical := cpuid.CPU.LogicalCores; logical > 0 {
		return logical
	}
	return availableCPUs
}

// intelPerformanceCores maps hybrid Core i-series model numbers to their
// P-core counts. K/KF/KS variants share the base model number.
var intelPerformanceCores = map[string]int{
	// 12th gen
	"12900": 8,
	"12700": 8,
	"12600": 6,
	"12400": 6,
	"12100": 4,
	// 13th gen
	"13900": 8,
	"13700": 8,
	"13600": 6,
	"13500": 6,
	"13400": 6,
	"13100": 4,
	// 14th gen
	"14900": 8,
	"14700": 8,
	"14600": 6,
	"14400": 6,
	"14100": 4,
}

// intelUltraPerformanceCores maps Core Ultra "series model" pairs to
// P-core counts. The spec sheets list E-cores separately, these are
// P-cores only.
var intelUltraPerformanceCores = map[string]int{
	"9 285": 8,
	"7 265": 8,
	"7 255": 8,
	"5 235": 6,
	"5 225": 4,
}

// applePerformanceCores maps Apple Silicon chips to P-core counts. Where
// a chip shipped with binned variants the higher count is used.
var applePerformanceCores = map[string]int{
	"m1":       4,
	"m1 pro":   8,
	"m1 max":   8,
	"m1 ultra": 16,
	"m2":       4,
	"m2 pro":   8,
	"m2 max":   12,
	"m2 ultra": 24,
	"m3":       4,
	"m3 pro":   8,
	"m3 max":   12,
	"m3 ultra": 24,
	"m4":       6,
	"m4 pro":   8,
	"m4 max":   12,
}

var (
	intelCoreRegex = regexp.MustCompile(`intel.*(?:core.*i[3579]-(\d{5})|core.*ultra\s+([579])\s+(?:processor\s+)?(\d{3}))`)
	appleRegex     = regexp.MustCompile(`(?i)apple\s+(m[1234]\s*(?:pro|max|ultra)?)\s*`)
)

// determinePerformanceCores resolves the P-core count from the CPU brand
// string. Returns 0 for unknown or non-hybrid parts.
func determinePerformanceCores(brandName string) int {
	brandName = strings.ToLower(brandName)

	if matches := intelCoreRegex.FindStringSubmatch(brandName); len(matches) > 1 {
		if matches[1] != "" {
			return intelPerformanceCores[matches[1]]
		}
		if matches[2] != "" {
			return intelUltraPerformanceCores[matches[2]+" "+matches[3]]
		}
	}

	if matches := appleRegex.FindStringSubmatch(brandName); len(matches) > 1 {
		chip := strings.Join(strings.Fields(strings.ToLower(matches[1])), " ")
		return applePerformanceCores[chip]
	}

	return 0
}
