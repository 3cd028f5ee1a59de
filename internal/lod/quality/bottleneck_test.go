package quality

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	target := time.Second / 60 // ~16.7ms
	budget := int64(1_000_000)

	tests := []struct {
		name         string
		sample       Sample
		wantKind     Bottleneck
		wantSeverity Severity
	}{
		{
			name:         "cpu bound",
			sample:       Sample{CPUTime: 15 * time.Millisecond, GPUTime: 5 * time.Millisecond},
			wantKind:     CPUBound,
			wantSeverity: SeverityHigh,
		},
		{
			name:         "cpu critical",
			sample:       Sample{CPUTime: 16500 * time.Microsecond, GPUTime: 5 * time.Millisecond},
			wantKind:     CPUBound,
			wantSeverity: SeverityCritical,
		},
		{
			name:         "gpu bound",
			sample:       Sample{CPUTime: 5 * time.Millisecond, GPUTime: 15 * time.Millisecond},
			wantKind:     GPUBound,
			wantSeverity: SeverityHigh,
		},
		{
			name:         "balanced",
			sample:       Sample{CPUTime: 8 * time.Millisecond, GPUTime: 8 * time.Millisecond},
			wantKind:     Balanced,
			wantSeverity: SeverityNone,
		},
		{
			// Both sides high but neither dominates: still balanced
			name:         "high but even",
			sample:       Sample{CPUTime: 15 * time.Millisecond, GPUTime: 14 * time.Millisecond},
			wantKind:     Balanced,
			wantSeverity: SeverityNone,
		},
		{
			name:         "memory bound",
			sample:       Sample{MemoryBytes: 920_000},
			wantKind:     MemoryBound,
			wantSeverity: SeverityHigh,
		},
		{
			name:         "memory critical",
			sample:       Sample{MemoryBytes: 990_000},
			wantKind:     MemoryBound,
			wantSeverity: SeverityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Classify(tt.sample, target, budget)
			if d.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", d.Kind, tt.wantKind)
			}
			if d.Severity != tt.wantSeverity {
				t.Errorf("Severity = %v, want %v", d.Severity, tt.wantSeverity)
			}
		})
	}
}

func TestClassifyKeepsTimingSource(t *testing.T) {
	d := Classify(Sample{GPUSource: Estimated, GPUTime: 15 * time.Millisecond}, time.Second/60, 0)
	if d.GPUSource != Estimated {
		t.Error("an estimated GPU time must stay labeled estimated in the diagnosis")
	}

	d = Classify(Sample{GPUSource: Measured}, time.Second/60, 0)
	if d.GPUSource != Measured {
		t.Error("a measured GPU time should stay labeled measured")
	}
}

func TestClassifyRecommendation(t *testing.T) {
	d := Classify(Sample{CPUTime: 15 * time.Millisecond}, time.Second/60, 0)
	if d.Recommendation == "" {
		t.Error("a classified bottleneck should carry a recommendation")
	}
	d = Classify(Sample{}, time.Second/60, 0)
	if d.Kind != Balanced || d.Recommendation != "" {
		t.Error("balanced should carry no recommendation")
	}
}
