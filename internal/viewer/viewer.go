// Package viewer implements the interactive application loop: it owns the
// window, camera, and render surface, drives the progressive loading
// pipeline, and feeds frame timings to the quality controller. All GL work
// happens on this loop's thread; geometry synthesis results arrive over a
// channel and are uploaded here.
package viewer

import (
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/molscope/molscope/internal/config"
	"github.com/molscope/molscope/internal/engine/camera"
	"github.com/molscope/molscope/internal/engine/debug"
	"github.com/molscope/molscope/internal/engine/input"
	"github.com/molscope/molscope/internal/engine/picking"
	"github.com/molscope/molscope/internal/engine/render"
	"github.com/molscope/molscope/internal/engine/window"
	"github.com/molscope/molscope/internal/lod"
	"github.com/molscope/molscope/internal/lod/quality"
	"github.com/molscope/molscope/internal/lod/synth"
	"github.com/molscope/molscope/internal/logger"
	"github.com/molscope/molscope/internal/pipeline"
	"github.com/molscope/molscope/pkg/math"
	"github.com/molscope/molscope/pkg/molecule"
)

// stage is one completed tier delivered by the pipeline, queued for upload
// on the viewer thread.
type stage struct {
	session  uint64
	tier     lod.Tier
	buf      *synth.Buffer
	features lod.FeatureSet
}

// Viewer is the interactive application.
type Viewer struct {
	cfg *config.Config

	window   *window.Window
	input    *input.Input
	camera   *camera.OrbitCamera
	renderer *render.Renderer

	quality *quality.Controller
	orch    *pipeline.Orchestrator

	stages chan stage
	errs   chan error

	structure *molecule.Structure
	session   *pipeline.Session
	selector  lod.DistanceSelector
	scheme    synth.Scheme

	// meshes holds the uploaded geometry per delivered tier for the
	// active session; the distance selector picks among them.
	meshes          map[lod.Tier]*render.Mesh
	uploadedSession uint64
	highest         lod.Tier
	displayTier     lod.Tier

	shadows   bool
	running   bool
	capture   bool
	selection string
	lastErr   string

	screenshots *debug.ScreenshotCapture

	// drag state
	leftDown  bool
	rightDown bool
	dragAccum float32
}

// New creates the viewer: window, GL context, renderer, quality controller,
// and pipeline, wired together.
func New(cfg *config.Config) (*Viewer, error) {
	logger.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	v := &Viewer{
		cfg:     cfg,
		stages:  make(chan stage, 8),
		errs:    make(chan error, 4),
		meshes:  make(map[lod.Tier]*render.Mesh),
		shadows: true,
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:      "molscope",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer needs the GL context the window just created
	v.renderer, err = render.New(render.Config{
		Width:            cfg.Graphics.Width,
		Height:           cfg.Graphics.Height,
		ShadowResolution: cfg.Graphics.ShadowResolution,
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.input = input.New()
	v.camera = camera.New()
	v.screenshots = debug.NewScreenshotCapture(cfg.Viewer.ScreenshotDir, "molscope")

	initial := quality.DefaultState()
	if t, err := lod.ParseQuality(cfg.Quality.Quality); err == nil {
		initial.TargetTier = t
	} else {
		logger.Warn("unknown quality preset, using full", zap.String("quality", cfg.Quality.Quality))
	}
	initial.AutoAdjust = cfg.Quality.AutoAdjust
	initial.ReduceMotion = cfg.Quality.ReduceMotion
	if cfg.Quality.TargetFPS > 0 {
		initial.TargetFPS = cfg.Quality.TargetFPS
	}

	v.quality, err = quality.New(quality.Config{
		MemoryBudget: cfg.Pipeline.MemoryBudgetBytes(),
	}, initial)
	if err != nil {
		v.renderer.Close()
		v.window.Close()
		return nil, fmt.Errorf("failed to create quality controller: %w", err)
	}

	v.orch, err = pipeline.New(pipeline.Config{
		Workers:      cfg.Pipeline.Workers,
		MemoryBudget: cfg.Pipeline.MemoryBudgetBytes(),
		MinAtoms:     cfg.Pipeline.MinAtoms,
		OnStageReady: v.onStageReady,
		OnError:      v.onError,
	}, v.quality)
	if err != nil {
		v.quality.Stop()
		v.renderer.Close()
		v.window.Close()
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	logger.Info("viewer initialized")
	return v, nil
}

// Close shuts everything down and persists quality preferences.
func (v *Viewer) Close() {
	v.orch.Stop()
	v.quality.Stop()
	v.clearMeshes()
	v.renderer.Close()
	v.window.Close()

	v.savePreferences()
}

// savePreferences writes the live quality state back into the config file
// so the next run starts where the user left off.
func (v *Viewer) savePreferences() {
	st := v.quality.State()
	v.cfg.Quality.Quality = qualityName(st.TargetTier)
	v.cfg.Quality.AutoAdjust = st.AutoAdjust
	v.cfg.Quality.TargetFPS = st.TargetFPS
	v.cfg.Quality.ReduceMotion = st.ReduceMotion

	if err := v.cfg.Save(); err != nil {
		logger.Warn("failed to save preferences", zap.Error(err))
		return
	}
	logger.Info("preferences saved", zap.String("quality", v.cfg.Quality.Quality))
}

func qualityName(t lod.Tier) string {
	switch t {
	case lod.Preview:
		return "low"
	case lod.Interactive:
		return "medium"
	default:
		return "high"
	}
}

// onStageReady runs on the orchestrator's delivery goroutine; it must not
// block, so the buffer is queued for the viewer thread and dropped with a
// warning if the queue is somehow full.
func (v *Viewer) onStageReady(s *pipeline.Session, tier lod.Tier, buf *synth.Buffer, features lod.FeatureSet) {
	select {
	case v.stages <- stage{session: s.ID(), tier: tier, buf: buf, features: features}:
	default:
		logger.Warn("stage queue full, dropping buffer",
			zap.Uint64("session", s.ID()),
			zap.Stringer("tier", tier))
	}
}

func (v *Viewer) onError(s *pipeline.Session, tier lod.Tier, err error) {
	select {
	case v.errs <- err:
	default:
	}
}

// Load starts a progressive load of the structure, superseding any load in
// flight. Meshes from the previous session stay on screen until the new
// session's first stage lands, so the view never blanks.
func (v *Viewer) Load(s *molecule.Structure) error {
	v.structure = s
	v.scheme = v.colorScheme(s)

	bounds := s.Bounds()
	center := bounds.Center()
	radius := bounds.Radius()
	v.camera.FitToBounds(center, radius)
	v.renderer.SetScene(center, radius)
	v.selector = lod.NewDistanceSelector(radius)

	sess, err := v.orch.StartLoad(s, pipeline.LoadOptions{Scheme: v.scheme})
	if err != nil {
		return err
	}
	v.session = sess
	v.selection = ""
	v.lastErr = ""
	return nil
}

func (v *Viewer) colorScheme(s *molecule.Structure) synth.Scheme {
	switch v.cfg.Viewer.ColorScheme {
	case "chain":
		return synth.ByChain(s)
	case "secondary":
		return synth.BySecondary(s)
	default:
		return synth.ByElement()
	}
}

// Run is the main loop. It returns when the user quits.
func (v *Viewer) Run() error {
	v.running = true

	last := time.Now()
	titleAt := time.Now()
	var pulse float32

	logger.Info("starting viewer loop")

	for v.running {
		frameStart := time.Now()
		dt := frameStart.Sub(last)
		last = frameStart

		// 1. Input
		if v.input.Update() {
			v.running = false
		}
		v.handleEvents()

		// 2. Drain completed synthesis stages (upload is the only
		// synchronous geometry work on this thread)
		v.drainStages()
		v.drainErrors()

		// 3. Pick the tier to display from what has been delivered
		mesh, features := v.chooseMesh()

		// 4. Idle pulse on the background while a load is in flight,
		// unless the user asked for reduced motion
		if !v.quality.State().ReduceMotion && v.loading() {
			pulse += float32(dt.Seconds())
			glow := 0.02 * (1 + math32.Sin(pulse*3))
			v.renderer.SetBackground(0.08+glow, 0.09+glow, 0.12+glow)
		} else {
			v.renderer.SetBackground(0.08, 0.09, 0.12)
		}

		// 5. Render
		w, h := v.window.GetSize()
		aspect := float32(w) / float32(max(h, 1))
		near, far := v.clipPlanes()
		proj := math.Perspective(0.785, aspect, near, far)
		view := v.camera.ViewMatrix()
		camPos := v.camera.Position()

		stats := v.renderer.Frame(mesh, features, v.shadows, view, proj, camPos)

		if v.capture {
			v.capture = false
			v.takeScreenshot()
		}

		// 6. Feed the quality controller before the swap blocks on vsync
		cpu := time.Since(frameStart)
		gpu, measured := v.renderer.GPUTime()
		v.quality.RecordFrame(quality.Frame{
			FrameTime:   dt,
			CPUTime:     cpu,
			GPUTime:     gpu,
			GPUMeasured: measured,
			DrawCalls:   stats.DrawCalls,
			Triangles:   stats.Triangles,
			MemoryBytes: v.residentBytes(),
		})

		v.window.SwapBuffers()

		if time.Since(titleAt) >= 500*time.Millisecond {
			titleAt = time.Now()
			v.window.SetTitle(v.title())
		}
	}

	logger.Info("viewer loop ended")
	return nil
}

// loading reports whether the active session is still advancing tiers.
func (v *Viewer) loading() bool {
	if v.session == nil {
		return false
	}
	st := v.session.Info().State
	return st != pipeline.StateSettled && st != pipeline.StateCancelled
}

func (v *Viewer) clipPlanes() (near, far float32) {
	radius := float32(50)
	if v.structure != nil {
		radius = v.structure.Bounds().Radius()
	}
	if radius < 1 {
		radius = 1
	}
	near = radius * 0.01
	if near < 0.05 {
		near = 0.05
	}
	return near, radius * 50
}

// drainStages uploads every queued buffer whose session is still active.
func (v *Viewer) drainStages() {
	for {
		select {
		case st := <-v.stages:
			if v.session == nil || st.session != v.session.ID() {
				// Superseded before upload; the orchestrator already
				// counts these, just drop the buffer.
				continue
			}
			v.uploadStage(st)
		default:
			return
		}
	}
}

func (v *Viewer) uploadStage(st stage) {
	if st.session != v.uploadedSession {
		// First stage of a fresh session; the previous structure's
		// meshes come down only now, so the view never blanks while
		// the new load is still synthesizing.
		v.clearMeshes()
		v.uploadedSession = st.session
	} else if st.tier <= v.highest {
		// Tiers arrive in increasing order within a session; anything
		// else indicates a stale queue entry.
		logger.Debug("ignoring out-of-order stage", zap.Stringer("tier", st.tier))
		return
	}

	start := time.Now()
	m := render.Upload(st.buf)
	v.meshes[st.tier] = m
	v.highest = st.tier
	if v.displayTier == 0 || st.tier > v.displayTier {
		v.displayTier = st.tier
	}

	logger.Info("stage uploaded",
		zap.Uint64("session", st.session),
		zap.Stringer("tier", st.tier),
		zap.Int("triangles", m.Triangles()),
		zap.Duration("upload", time.Since(start)))
}

func (v *Viewer) drainErrors() {
	for {
		select {
		case err := <-v.errs:
			v.lastErr = err.Error()
			logger.Warn("pipeline error", zap.Error(err))
		default:
			return
		}
	}
}

// chooseMesh applies the distance selector over the delivered tiers. The
// camera lingering near a threshold stays on its current tier thanks to
// the selector's dead zone.
func (v *Viewer) chooseMesh() (*render.Mesh, lod.FeatureSet) {
	if v.highest == 0 {
		return nil, lod.FeatureSet{}
	}

	want := v.selector.Select(v.displayTier, v.camera.Distance)
	if want > v.highest {
		want = v.highest
	}
	// Fall back to the nearest delivered tier at or below the wanted one
	for t := want; t >= lod.Preview; t-- {
		if m, ok := v.meshes[t]; ok {
			v.displayTier = t
			return m, t.Config().Features
		}
	}
	// Nothing at or below; show the coarsest delivered tier
	for t := want + 1; t <= lod.Full; t++ {
		if m, ok := v.meshes[t]; ok {
			v.displayTier = t
			return m, t.Config().Features
		}
	}
	return nil, lod.FeatureSet{}
}

func (v *Viewer) clearMeshes() {
	for t, m := range v.meshes {
		m.Delete()
		delete(v.meshes, t)
	}
	v.highest = 0
	v.displayTier = 0
}

func (v *Viewer) residentBytes() int64 {
	var total int64
	for _, m := range v.meshes {
		total += m.ByteSize()
	}
	return total
}

func (v *Viewer) handleEvents() {
	for _, e := range v.input.Events() {
		switch e.Type {
		case input.EventQuit:
			v.running = false

		case input.EventWindowResize:
			v.renderer.Resize(e.Width, e.Height)

		case input.EventKeyDown:
			v.handleKey(e.Key)

		case input.EventMouseDown:
			switch e.Button {
			case sdl.BUTTON_LEFT:
				v.leftDown = true
				v.dragAccum = 0
			case sdl.BUTTON_RIGHT:
				v.rightDown = true
			}

		case input.EventMouseUp:
			switch e.Button {
			case sdl.BUTTON_LEFT:
				v.leftDown = false
				// A press-release without meaningful motion is a pick
				if v.dragAccum < 4 {
					v.pickAtom(e.MouseX, e.MouseY)
				}
			case sdl.BUTTON_RIGHT:
				v.rightDown = false
			}

		case input.EventMouseMove:
			dx, dy := float32(e.RelX), float32(e.RelY)
			if v.leftDown {
				v.dragAccum += math32.Abs(dx) + math32.Abs(dy)
				v.camera.HandleDrag(dx, dy)
			} else if v.rightDown {
				v.camera.HandlePan(-dx, dy)
			}

		case input.EventMouseWheel:
			v.camera.HandleZoom(float32(e.WheelY))
		}
	}
}

func (v *Viewer) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false

	case sdl.SCANCODE_1:
		v.quality.Override(lod.Preview)
	case sdl.SCANCODE_2:
		v.quality.Override(lod.Interactive)
	case sdl.SCANCODE_3:
		v.quality.Override(lod.Full)

	case sdl.SCANCODE_A:
		on := !v.quality.State().AutoAdjust
		v.quality.SetAutoAdjust(on)
		logger.Info("auto-adjust toggled", zap.Bool("enabled", on))

	case sdl.SCANCODE_M:
		on := !v.quality.State().ReduceMotion
		v.quality.SetReduceMotion(on)

	case sdl.SCANCODE_D:
		v.shadows = !v.shadows
		logger.Info("shadows toggled", zap.Bool("enabled", v.shadows))

	case sdl.SCANCODE_R:
		if v.structure != nil {
			if err := v.Load(v.structure); err != nil {
				logger.Error("reload failed", zap.Error(err))
			}
		}

	case sdl.SCANCODE_F12:
		v.capture = true
	}
}

// pickAtom resolves a click to the nearest atom sphere. Selection works as
// soon as the first tier is on screen; it ray-casts against the full atom
// list, not the reduced render set.
func (v *Viewer) pickAtom(x, y int) {
	if v.structure == nil || v.highest == 0 {
		return
	}

	w, h := v.window.GetSize()
	aspect := float32(w) / float32(max(h, 1))
	near, far := v.clipPlanes()
	proj := math.Perspective(0.785, aspect, near, far)
	view := v.camera.ViewMatrix()
	inv := proj.Mul(view).Inverse()

	ray := picking.ScreenToRay(float32(x), float32(y), float32(w), float32(h), inv)
	hit, ok := picking.PickAtom(v.structure.Atoms, ray)
	if !ok {
		v.selection = ""
		return
	}

	a := v.structure.Atoms[hit.Index]
	v.selection = fmt.Sprintf("%s %s%d:%s", a.Element, a.Residue, a.ResidueSeq, a.Chain)
	logger.Info("atom picked",
		zap.Int("index", hit.Index),
		zap.String("element", a.Element),
		zap.String("residue", a.Residue),
		zap.Int("seq", a.ResidueSeq),
		zap.String("chain", a.Chain))
}

func (v *Viewer) takeScreenshot() {
	pixels, w, h := v.renderer.ReadPixels()
	path, err := v.screenshots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

// title composes the diagnostics line shown in the window title. Estimated
// GPU timings are labelled so they are never mistaken for measurements.
func (v *Viewer) title() string {
	d := v.orch.Diagnostics()

	s := "molscope"
	if v.structure != nil && v.structure.Meta.Title != "" {
		s += " - " + v.structure.Meta.Title
	}

	if v.cfg.Viewer.ShowFPS {
		s += fmt.Sprintf(" | %.0f fps", d.Quality.FPS)
	}
	s += fmt.Sprintf(" | tier %s (target %s)", v.displayTier, d.Quality.TargetTier)

	if d.HasSession {
		switch d.Session.State {
		case pipeline.StateSettled:
			s += fmt.Sprintf(" | settled (%s)", d.Session.Reason)
		case pipeline.StateCancelled:
		default:
			s += " | loading..."
		}
	}

	if b := d.Quality.Bottleneck; b.Kind != quality.Balanced {
		s += fmt.Sprintf(" | %s (%s)", b.Kind, b.Severity)
		if b.GPUSource == quality.Estimated {
			s += " [gpu est.]"
		}
	}

	if v.selection != "" {
		s += " | sel: " + v.selection
	}
	if v.lastErr != "" {
		s += " | error: " + v.lastErr
	}
	return s
}
