package cpuspec

import "testing"

func TestDeterminePerformanceCores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		brand string
		want  int
	}{
		{"12th Gen Intel(R) Core(TM) i9-12900K", 8},
		{"13th Gen Intel(R) Core(TM) i5-13600KF", 6},
		{"Intel(R) Core(TM) i3-14100", 4},
		{"Intel(R) Core(TM) Ultra 9 285K", 8},
		{"Intel(R) Core(TM) Ultra 5 225", 4},
		{"Apple M1 Pro", 8},
		{"Apple M2 Max", 12},
		{"Apple M4", 6},
		{"AMD Ryzen 9 5950X 16-Core Processor", 0},
		{"Intel(R) Xeon(R) CPU E5-2680 v4", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.brand, func(t *testing.T) {
			t.Parallel()
			if got := determinePerformanceCores(tt.brand); got != tt.want {
				t.Errorf("determinePerformanceCores(%q) = %d, want %d", tt.brand, got, tt.want)
			}
		})
	}
}

func TestGetOptimalThreadCountPositive(t *testing.T) {
	t.Parallel()

	if got := GetCPUSpec().GetOptimalThreadCount(); got < 1 {
		t.Errorf("GetOptimalThreadCount() = %d, want >= 1", got)
	}
}
