package quality

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/molscope/molscope/internal/lod/quality"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
