package quality

import (
	"os"
	"testing"
	"time"

	"github.com/molscope/molscope/internal/lod"
	"github.com/molscope/molscope/internal/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitWithFileConfig("error", logger.FileConfig{}, false)
	os.Exit(m.Run())
}

// newTestController keeps the real ticker effectively idle so tests drive
// sampling themselves.
func newTestController(t *testing.T, cfg Config, initial State) *Controller {
	t.Helper()
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
	c, err := New(cfg, initial)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Stop)
	return c
}

// tick records n frames of the given frame time and runs one sampling pass.
func tick(c *Controller, frameTime time.Duration, n int) {
	for i := 0; i < n; i++ {
		c.RecordFrame(Frame{FrameTime: frameTime, CPUTime: frameTime / 2})
	}
	c.sample(time.Now())
}

func TestSampleAggregates(t *testing.T) {
	c := newTestController(t, Config{}, DefaultState())

	tick(c, 16*time.Millisecond, 3)

	w := c.Window()
	if len(w) != 1 {
		t.Fatalf("window length = %d, want 1", len(w))
	}
	s := w[0]
	if s.FPS < 60 || s.FPS > 65 {
		t.Errorf("FPS = %v, want ~62.5 for 16ms frames", s.FPS)
	}
	// No timer queries recorded: GPU time is the fixed fraction, labeled
	if s.GPUSource != Estimated {
		t.Error("GPU time should be labeled estimated")
	}
	want := time.Duration(float64(16*time.Millisecond) * estimatedGPUFraction)
	if s.GPUTime != want {
		t.Errorf("GPU estimate = %v, want %v", s.GPUTime, want)
	}
}

func TestSampleMeasuredGPU(t *testing.T) {
	c := newTestController(t, Config{}, DefaultState())

	c.RecordFrame(Frame{FrameTime: 16 * time.Millisecond, GPUTime: 4 * time.Millisecond, GPUMeasured: true})
	c.RecordFrame(Frame{FrameTime: 16 * time.Millisecond, GPUTime: 6 * time.Millisecond, GPUMeasured: true})
	c.sample(time.Now())

	w := c.Window()
	if len(w) != 1 {
		t.Fatalf("window length = %d, want 1", len(w))
	}
	if w[0].GPUSource != Measured {
		t.Error("all-measured frames should produce a measured sample")
	}
	if w[0].GPUTime != 5*time.Millisecond {
		t.Errorf("GPU time = %v, want the 5ms average", w[0].GPUTime)
	}
}

func TestEmptyIntervalSkipped(t *testing.T) {
	c := newTestController(t, Config{}, DefaultState())
	c.sample(time.Now())
	if len(c.Window()) != 0 {
		t.Error("an interval without frames should not produce a sample")
	}
}

func TestAutoLowerAfterStreak(t *testing.T) {
	c := newTestController(t, Config{Hysteresis: 3}, DefaultState())

	// 25ms frames are 40 FPS, well under the 60 FPS target.
	tick(c, 25*time.Millisecond, 2)
	tick(c, 25*time.Millisecond, 2)
	if got := c.State().TargetTier; got != lod.Full {
		t.Fatalf("tier lowered after only 2 samples: %v", got)
	}

	tick(c, 25*time.Millisecond, 2)
	if got := c.State().TargetTier; got != lod.Interactive {
		t.Errorf("tier = %v after 3 slow samples, want interactive", got)
	}

	// Streak restarts; three more drops to the floor and stays there.
	for i := 0; i < 6; i++ {
		tick(c, 25*time.Millisecond, 2)
	}
	if got := c.State().TargetTier; got != lod.Preview {
		t.Errorf("tier = %v, want preview floor", got)
	}
}

func TestSingleSlowSampleResets(t *testing.T) {
	c := newTestController(t, Config{Hysteresis: 3}, DefaultState())

	tick(c, 25*time.Millisecond, 2) // slow
	tick(c, 15*time.Millisecond, 2) // comfortable: 66 FPS, inside dead zone
	tick(c, 25*time.Millisecond, 2)
	tick(c, 25*time.Millisecond, 2)

	if got := c.State().TargetTier; got != lod.Full {
		t.Errorf("tier = %v, a broken streak should not lower it", got)
	}
}

func TestAutoRaiseRespectsCeiling(t *testing.T) {
	initial := DefaultState()
	initial.TargetTier = lod.Preview
	c := newTestController(t, Config{Hysteresis: 3}, initial)
	c.SetCeiling(lod.Interactive)

	// 8ms frames are 125 FPS, past the raise margin.
	for i := 0; i < 3; i++ {
		tick(c, 8*time.Millisecond, 2)
	}
	if got := c.State().TargetTier; got != lod.Interactive {
		t.Fatalf("tier = %v after a fast streak, want interactive", got)
	}

	for i := 0; i < 6; i++ {
		tick(c, 8*time.Millisecond, 2)
	}
	if got := c.State().TargetTier; got != lod.Interactive {
		t.Errorf("tier = %v, auto-raise must stop at the ceiling", got)
	}
}

func TestRaiseNeedsMargin(t *testing.T) {
	initial := DefaultState()
	initial.TargetTier = lod.Preview
	c := newTestController(t, Config{Hysteresis: 2}, initial)

	// 65 FPS beats the target but not target*1.2; the dead zone holds.
	for i := 0; i < 6; i++ {
		tick(c, 15384*time.Microsecond, 2)
	}
	if got := c.State().TargetTier; got != lod.Preview {
		t.Errorf("tier = %v, want preview without margin headroom", got)
	}
}

func TestAutoAdjustDisabled(t *testing.T) {
	initial := DefaultState()
	initial.AutoAdjust = false
	c := newTestController(t, Config{Hysteresis: 2}, initial)

	for i := 0; i < 6; i++ {
		tick(c, 30*time.Millisecond, 2)
	}
	if got := c.State().TargetTier; got != lod.Full {
		t.Errorf("tier = %v, disabled auto-adjust must not move it", got)
	}
}

func TestOverride(t *testing.T) {
	c := newTestController(t, Config{}, DefaultState())

	c.Override(lod.Preview)
	if got := c.State().TargetTier; got != lod.Preview {
		t.Errorf("tier = %v after override, want preview", got)
	}

	c.Override(lod.Tier(99))
	if got := c.State().TargetTier; got != lod.Preview {
		t.Errorf("invalid override changed the tier to %v", got)
	}
}

func TestSetCeilingClampsTarget(t *testing.T) {
	c := newTestController(t, Config{}, DefaultState())

	c.SetCeiling(lod.Interactive)
	if got := c.State().TargetTier; got != lod.Interactive {
		t.Errorf("tier = %v, lowering the ceiling should clamp the target", got)
	}
}

func TestWindowBounded(t *testing.T) {
	c := newTestController(t, Config{Window: 4}, DefaultState())

	for i := 0; i < 6; i++ {
		tick(c, 16*time.Millisecond, 1)
	}
	w := c.Window()
	if len(w) != 4 {
		t.Fatalf("window length = %d, want 4", len(w))
	}
	for i := 1; i < len(w); i++ {
		if w[i].Time.Before(w[i-1].Time) {
			t.Error("window should stay ordered oldest first")
		}
	}
}

func TestDiagnostics(t *testing.T) {
	c := newTestController(t, Config{}, DefaultState())

	tick(c, 16*time.Millisecond, 2)
	d := c.Diagnostics()
	if d.FPS <= 0 {
		t.Error("diagnostics should report the sampled FPS")
	}
	if !d.TargetTier.Valid() {
		t.Error("diagnostics should carry a valid target tier")
	}
	if d.SampleCount != 1 {
		t.Errorf("sample count = %d, want 1", d.SampleCount)
	}
}

func TestReduceMotionDoesNotAffectTier(t *testing.T) {
	c := newTestController(t, Config{Hysteresis: 2}, DefaultState())
	c.SetReduceMotion(true)

	if !c.State().ReduceMotion {
		t.Fatal("reduce motion flag not recorded")
	}
	tick(c, 25*time.Millisecond, 2)
	tick(c, 25*time.Millisecond, 2)
	// The policy still runs; reduce motion only gates animation elsewhere.
	if got := c.State().TargetTier; got != lod.Interactive {
		t.Errorf("tier = %v, reduce motion must not disable the policy", got)
	}
}
