package quality

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/molscope/molscope/internal/lod"
	"github.com/molscope/molscope/internal/logger"
)

// State is the process-wide quality state. The orchestrator reads it before
// dispatching each tier; only the controller and explicit user overrides
// mutate it.
type State struct {
	TargetTier   lod.Tier
	AutoAdjust   bool
	TargetFPS    float64
	ReduceMotion bool
}

// DefaultState targets full detail at 60 FPS with auto-adjust on.
func DefaultState() State {
	return State{TargetTier: lod.Full, AutoAdjust: true, TargetFPS: 60}
}

// Config tunes the controller. The zero value selects the defaults.
type Config struct {
	// Interval is the sampling cadence.
	Interval time.Duration
	// Window is how many samples the sliding window retains.
	Window int
	// Hysteresis is how many consecutive samples must agree before the
	// target tier moves.
	Hysteresis int
	// RaiseMargin is the factor above TargetFPS the rate must hold before
	// raising detail, leaving a dead zone between lower and raise.
	RaiseMargin float64
	// MemoryBudget feeds the memory-bound classification.
	MemoryBudget int64
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 100 * time.Millisecond
	}
	if c.Window <= 0 {
		c.Window = 60
	}
	if c.Hysteresis <= 0 {
		c.Hysteresis = 5
	}
	if c.RaiseMargin <= 1 {
		c.RaiseMargin = 1.2
	}
	if c.MemoryBudget <= 0 {
		c.MemoryBudget = lod.DefaultMemoryBudget
	}
	return c
}

// Controller maintains the quality state and the live sample window. One
// goroutine samples at the configured cadence; the render loop only calls
// RecordFrame.
type Controller struct {
	cfg Config

	mu          sync.Mutex
	state       State
	ceiling     lod.Tier
	pending     []Frame
	window      []Sample
	belowStreak int
	aboveStreak int
	lastFPS     float64
	lastDiag    Diagnosis

	stop     chan struct{}
	stopOnce sync.Once

	adjustments metric.Int64Counter
}

// New builds a controller and starts its sampling loop.
func New(cfg Config, initial State) (*Controller, error) {
	cfg = cfg.withDefaults()
	if !initial.TargetTier.Valid() {
		initial.TargetTier = lod.Full
	}
	if initial.TargetFPS <= 0 {
		initial.TargetFPS = 60
	}

	c := &Controller{
		cfg:     cfg,
		state:   initial,
		ceiling: lod.Full,
		stop:    make(chan struct{}),
	}

	m := meter()
	var err error
	c.adjustments, err = m.Int64Counter(
		"quality.tier.adjustments",
		metric.WithDescription("Automatic target tier changes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating adjustment counter: %w", err)
	}

	fpsGauge, err := m.Float64ObservableGauge(
		"quality.fps",
		metric.WithDescription("Frame rate over the last sampling interval"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fps gauge: %w", err)
	}
	tierGauge, err := m.Int64ObservableGauge(
		"quality.target_tier",
		metric.WithDescription("Current target detail tier"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tier gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			o.ObserveFloat64(fpsGauge, c.lastFPS)
			o.ObserveInt64(tierGauge, int64(c.state.TargetTier))
			return nil
		},
		fpsGauge, tierGauge,
	)
	if err != nil {
		return nil, fmt.Errorf("registering quality gauges: %w", err)
	}

	go c.run()
	return c, nil
}

func (c *Controller) run() {
	t := time.NewTicker(c.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case now := <-t.C:
			c.sample(now)
		case <-c.stop:
			return
		}
	}
}

// Stop ends the sampling loop.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// RecordFrame feeds one frame's timings. Call once per rendered frame.
func (c *Controller) RecordFrame(f Frame) {
	c.mu.Lock()
	c.pending = append(c.pending, f)
	c.mu.Unlock()
}

// State returns a copy of the current quality state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Override pins the target tier by user request and restarts hysteresis.
// Overrides may exceed the structure ceiling; it bounds only auto-raise.
func (c *Controller) Override(t lod.Tier) {
	if !t.Valid() {
		return
	}
	c.mu.Lock()
	c.state.TargetTier = t
	c.belowStreak, c.aboveStreak = 0, 0
	c.mu.Unlock()
	logger.Log.Info("quality target overridden", zap.Stringer("tier", t))
}

// SetAutoAdjust toggles automatic tier changes.
func (c *Controller) SetAutoAdjust(on bool) {
	c.mu.Lock()
	c.state.AutoAdjust = on
	c.belowStreak, c.aboveStreak = 0, 0
	c.mu.Unlock()
}

// SetReduceMotion toggles continuous-motion effects; the tier policy is
// unaffected.
func (c *Controller) SetReduceMotion(on bool) {
	c.mu.Lock()
	c.state.ReduceMotion = on
	c.mu.Unlock()
}

// SetTargetFPS changes the frame-rate goal.
func (c *Controller) SetTargetFPS(fps float64) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	c.state.TargetFPS = fps
	c.belowStreak, c.aboveStreak = 0, 0
	c.mu.Unlock()
}

// SetCeiling bounds auto-raise to the tier the current structure justifies.
// The target is clamped down immediately if it now sits above the ceiling.
func (c *Controller) SetCeiling(t lod.Tier) {
	if !t.Valid() {
		return
	}
	c.mu.Lock()
	c.ceiling = t
	if c.state.TargetTier > t {
		c.state.TargetTier = t
	}
	c.mu.Unlock()
}

// Diagnostics is a snapshot for display surfaces.
type Diagnostics struct {
	FPS         float64
	TargetTier  lod.Tier
	Bottleneck  Diagnosis
	SampleCount int
}

// Diagnostics returns the latest aggregated view.
func (c *Controller) Diagnostics() Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Diagnostics{
		FPS:         c.lastFPS,
		TargetTier:  c.state.TargetTier,
		Bottleneck:  c.lastDiag,
		SampleCount: len(c.window),
	}
}

// Window returns a copy of the sample window, oldest first.
func (c *Controller) Window() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Sample, len(c.window))
	copy(out, c.window)
	return out
}

// sample aggregates the frames recorded since the last tick into one
// observation and applies the adjustment policy.
func (c *Controller) sample(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	frames := c.pending
	c.pending = nil
	if len(frames) == 0 {
		// Paused or minimized; a silent interval must not punish the tier.
		return
	}

	var frameSum, cpuSum, gpuSum time.Duration
	var mem int64
	measured := true
	for _, f := range frames {
		frameSum += f.FrameTime
		cpuSum += f.CPUTime
		gpuSum += f.GPUTime
		if !f.GPUMeasured {
			measured = false
		}
		if f.MemoryBytes > mem {
			mem = f.MemoryBytes
		}
	}

	n := time.Duration(len(frames))
	s := Sample{
		Time:        now,
		FrameTime:   frameSum / n,
		CPUTime:     cpuSum / n,
		MemoryBytes: mem,
		DrawCalls:   frames[len(frames)-1].DrawCalls,
		Triangles:   frames[len(frames)-1].Triangles,
	}
	if s.FrameTime <= 0 {
		return
	}
	s.FPS = float64(time.Second) / float64(s.FrameTime)
	if measured {
		s.GPUTime = gpuSum / n
		s.GPUSource = Measured
	} else {
		s.GPUTime = time.Duration(float64(s.FrameTime) * estimatedGPUFraction)
		s.GPUSource = Estimated
	}

	c.window = append(c.window, s)
	if len(c.window) > c.cfg.Window {
		copy(c.window, c.window[1:])
		c.window = c.window[:c.cfg.Window]
	}

	targetFrame := time.Duration(float64(time.Second) / c.state.TargetFPS)
	c.lastFPS = s.FPS
	c.lastDiag = Classify(s, targetFrame, c.cfg.MemoryBudget)

	if !c.state.AutoAdjust {
		c.belowStreak, c.aboveStreak = 0, 0
		return
	}

	switch {
	case s.FPS < c.state.TargetFPS:
		c.belowStreak++
		c.aboveStreak = 0
		if c.belowStreak >= c.cfg.Hysteresis && c.state.TargetTier > lod.Preview {
			c.state.TargetTier--
			c.belowStreak = 0
			c.adjustments.Add(context.Background(), 1,
				metric.WithAttributes(attribute.String("direction", "down")))
			logger.Log.Info("quality target lowered",
				zap.Stringer("tier", c.state.TargetTier),
				zap.Float64("fps", s.FPS),
				zap.Stringer("bottleneck", c.lastDiag.Kind))
		}
	case s.FPS > c.state.TargetFPS*c.cfg.RaiseMargin:
		c.aboveStreak++
		c.belowStreak = 0
		if c.aboveStreak >= c.cfg.Hysteresis && c.state.TargetTier < c.ceiling {
			c.state.TargetTier++
			c.aboveStreak = 0
			c.adjustments.Add(context.Background(), 1,
				metric.WithAttributes(attribute.String("direction", "up")))
			logger.Log.Info("quality target raised",
				zap.Stringer("tier", c.state.TargetTier),
				zap.Float64("fps", s.FPS))
		}
	default:
		// Comfortable dead zone between lower and raise
		c.belowStreak, c.aboveStreak = 0, 0
	}
}
