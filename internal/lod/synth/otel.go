package synth

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/molscope/molscope/internal/lod/synth"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
