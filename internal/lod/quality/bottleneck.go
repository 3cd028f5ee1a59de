package quality

import "time"

// Bottleneck names the resource limiting frame rate.
type Bottleneck uint8

const (
	Balanced Bottleneck = iota
	CPUBound
	GPUBound
	MemoryBound
)

func (b Bottleneck) String() string {
	switch b {
	case CPUBound:
		return "cpu-bound"
	case GPUBound:
		return "gpu-bound"
	case MemoryBound:
		return "memory-bound"
	default:
		return "balanced"
	}
}

// Severity grades a classified bottleneck.
type Severity uint8

const (
	SeverityNone Severity = iota
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "none"
	}
}

// Classification thresholds: a side must use more than boundUtilization
// percent of the frame budget and dominate the other side by dominanceRatio
// to count as the bottleneck. Above criticalUtilization the severity
// escalates. Memory is bound past memoryBoundRatio of the budget.
const (
	boundUtilization    = 80.0
	criticalUtilization = 95.0
	dominanceRatio      = 1.5
	memoryBoundRatio    = 0.9
)

// Diagnosis is the outcome of classifying one sample.
type Diagnosis struct {
	Kind           Bottleneck
	Severity       Severity
	CPUUtilization float64
	GPUUtilization float64
	GPUSource      TimingSource
	Recommendation string
}

// Classify decides the dominant bottleneck for a sample against a target
// frame time and memory budget. Utilization is percent of the frame budget.
func Classify(s Sample, targetFrame time.Duration, memoryBudget int64) Diagnosis {
	d := Diagnosis{GPUSource: s.GPUSource}
	if targetFrame <= 0 {
		targetFrame = time.Second / 60
	}

	d.CPUUtilization = float64(s.CPUTime) / float64(targetFrame) * 100
	d.GPUUtilization = float64(s.GPUTime) / float64(targetFrame) * 100

	memRatio := 0.0
	if memoryBudget > 0 {
		memRatio = float64(s.MemoryBytes) / float64(memoryBudget)
	}

	switch {
	case memRatio > memoryBoundRatio:
		d.Kind = MemoryBound
		d.Severity = SeverityHigh
		if memRatio*100 > criticalUtilization {
			d.Severity = SeverityCritical
		}
		d.Recommendation = "lower detail tier to shrink resident geometry"
	case d.CPUUtilization > boundUtilization && d.CPUUtilization > dominanceRatio*d.GPUUtilization:
		d.Kind = CPUBound
		d.Severity = severityFor(d.CPUUtilization)
		d.Recommendation = "lower detail tier to cut per-frame CPU work"
	case d.GPUUtilization > boundUtilization && d.GPUUtilization > dominanceRatio*d.CPUUtilization:
		d.Kind = GPUBound
		d.Severity = severityFor(d.GPUUtilization)
		d.Recommendation = "reduce tessellation density or disable effects"
	default:
		d.Kind = Balanced
		d.Severity = SeverityNone
	}
	return d
}

func severityFor(utilization float64) Severity {
	if utilization > criticalUtilization {
		return SeverityCritical
	}
	return SeverityHigh
}
