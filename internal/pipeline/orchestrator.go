// Package pipeline coordinates progressive structure loading. The
// orchestrator runs one load session at a time through the tier sequence
// recommended by complexity analysis, dispatches geometry synthesis to the
// worker pool, gates each advance on the quality target and the memory
// budget, and discards results from superseded sessions.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/molscope/molscope/internal/lod"
	"github.com/molscope/molscope/internal/lod/quality"
	"github.com/molscope/molscope/internal/lod/synth"
	"github.com/molscope/molscope/internal/logger"
	"github.com/molscope/molscope/pkg/molecule"
)

// overrunFactor flags a stage as overrunning when its wall-clock time
// exceeds this multiple of the tier's budget. Overruns are diagnostic
// only; in-flight synthesis is never aborted.
const overrunFactor = 3

// Config wires an orchestrator. The callbacks run on the orchestrator's
// delivery goroutine and must not block; a session may be superseded while
// a callback is in flight, so consumers compare the handle against their
// current session before acting on the buffer.
type Config struct {
	// Workers sizes the synthesis pool; <= 0 fits it to the machine.
	Workers int
	// MemoryBudget bounds resident geometry; <= 0 uses the default.
	MemoryBudget int64
	// MinAtoms is the reduction floor handed to synthesis; <= 0 uses
	// the default.
	MinAtoms int
	// Decimator overrides the simplification strategy. Nil selects the
	// stride variant.
	Decimator synth.Decimator

	// OnStageReady delivers each completed tier, in increasing order
	// within a session. The receiver owns the buffer.
	OnStageReady func(s *Session, tier lod.Tier, buf *synth.Buffer, features lod.FeatureSet)
	// OnError surfaces a failed stage. The session is already settled
	// at its last good tier when this fires.
	OnError func(s *Session, tier lod.Tier, err error)
}

// LoadOptions selects per-load rendering choices.
type LoadOptions struct {
	// Scheme resolves atom colors at synthesis time. Nil means by element.
	Scheme synth.Scheme
	// SurfaceRequested widens the complexity estimate for surface meshes.
	SurfaceRequested bool
}

// Orchestrator owns the load state machine. One delivery goroutine feeds
// results from the pool back into it, so callbacks fire serially.
type Orchestrator struct {
	cfg  Config
	pool *synth.Pool
	qc   *quality.Controller

	mu     sync.Mutex
	active *Session
	nextID uint64

	done     chan struct{}
	stopOnce sync.Once

	sessions  metric.Int64Counter
	cancelled metric.Int64Counter
	stages    metric.Int64Counter
	settled   metric.Int64Counter
	stale     metric.Int64Counter
}

// New builds an orchestrator and starts its delivery loop. The quality
// controller is shared with the render loop; the orchestrator only reads
// its state and narrows its ceiling per structure.
func New(cfg Config, qc *quality.Controller) (*Orchestrator, error) {
	if cfg.MemoryBudget <= 0 {
		cfg.MemoryBudget = lod.DefaultMemoryBudget
	}

	pool, err := synth.NewPool(cfg.Workers, cfg.Decimator)
	if err != nil {
		return nil, fmt.Errorf("starting synthesis pool: %w", err)
	}

	o := &Orchestrator{
		cfg:  cfg,
		pool: pool,
		qc:   qc,
		done: make(chan struct{}),
	}

	m := meter()
	o.sessions, err = m.Int64Counter(
		"pipeline.sessions.started",
		metric.WithDescription("Load sessions started"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating session counter: %w", err)
	}
	o.cancelled, err = m.Int64Counter(
		"pipeline.sessions.cancelled",
		metric.WithDescription("Load sessions superseded before settling"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cancel counter: %w", err)
	}
	o.stages, err = m.Int64Counter(
		"pipeline.stages.delivered",
		metric.WithDescription("Tier buffers delivered to the render surface"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage counter: %w", err)
	}
	o.settled, err = m.Int64Counter(
		"pipeline.sessions.settled",
		metric.WithDescription("Sessions settled, by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating settle counter: %w", err)
	}
	o.stale, err = m.Int64Counter(
		"pipeline.results.stale",
		metric.WithDescription("Results discarded because their session was superseded"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stale counter: %w", err)
	}

	go o.receive()
	return o, nil
}

// Stop ends the delivery loop and the synthesis pool. In-flight batches
// are abandoned.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		close(o.done)
		o.pool.Stop()
	})
}

// StartLoad begins a progressive load, superseding any active session.
// The structure is read-only to the pipeline until the session settles.
// Validation failures return a *ValidationError before anything is
// dispatched.
func (o *Orchestrator) StartLoad(s *molecule.Structure, opts LoadOptions) (*Session, error) {
	if s == nil {
		return nil, &ValidationError{Err: fmt.Errorf("no structure")}
	}
	if err := s.Validate(); err != nil {
		return nil, &ValidationError{Err: err}
	}
	desc, start, err := lod.Analyze(s, o.cfg.MemoryBudget, opts.SurfaceRequested)
	if err != nil {
		return nil, &ValidationError{Err: err}
	}

	// Auto-raise may never climb past what the structure affords.
	ceiling := start
	for t := start; t <= lod.Full; t++ {
		if projectedBytes(desc.AtomCount, t, o.cfg.MinAtoms) <= o.cfg.MemoryBudget {
			ceiling = t
		}
	}
	if q := o.qc.State().TargetTier; q.Valid() && q < start {
		start = q
	}

	o.mu.Lock()
	o.supersedeLocked()
	o.nextID++
	sess := &Session{
		o:         o,
		id:        o.nextID,
		structure: s,
		scheme:    opts.Scheme,
		desc:      desc,
		startTier: start,
		ceiling:   ceiling,
		state:     StateIdle,
		started:   time.Now(),
	}
	o.active = sess
	if !o.dispatchLocked(sess, start) {
		sess.state = StateCancelled
		o.active = nil
		o.mu.Unlock()
		return nil, fmt.Errorf("synthesis queue full")
	}
	o.mu.Unlock()

	o.qc.SetCeiling(ceiling)
	o.sessions.Add(context.Background(), 1)
	logger.Log.Info("load session started",
		zap.Uint64("session", sess.id),
		zap.String("title", s.Meta.Title),
		zap.Int("atoms", desc.AtomCount),
		zap.Stringer("start", start),
		zap.Stringer("ceiling", ceiling))
	return sess, nil
}

// Diagnostics combines the active session snapshot with the live quality
// view for display surfaces.
type Diagnostics struct {
	HasSession bool
	Session    SessionInfo
	Quality    quality.Diagnostics
}

func (o *Orchestrator) Diagnostics() Diagnostics {
	d := Diagnostics{Quality: o.qc.Diagnostics()}
	o.mu.Lock()
	if o.active != nil {
		s := o.active
		d.HasSession = true
		d.Session = SessionInfo{
			ID:            s.id,
			State:         s.state,
			Tier:          s.tier,
			StartTier:     s.startTier,
			Ceiling:       s.ceiling,
			Reason:        s.reason,
			Descriptor:    s.desc,
			ResidentBytes: s.resident,
			Overruns:      s.overruns,
			Err:           s.err,
		}
	}
	o.mu.Unlock()
	return d
}

func (o *Orchestrator) receive() {
	for {
		select {
		case res := <-o.pool.Results():
			o.handleResult(res)
		case <-o.done:
			return
		}
	}
}

// handleResult is the single receipt point for synthesis results. Every
// result is matched against the active session id first; mismatches are
// dropped without side effects.
func (o *Orchestrator) handleResult(res synth.Result) {
	ctx := context.Background()

	o.mu.Lock()
	s := o.active
	if s == nil || res.Session != s.id || s.terminal() {
		o.mu.Unlock()
		o.stale.Add(ctx, 1)
		logger.Log.Debug("discarding stale result",
			zap.Uint64("session", res.Session),
			zap.Stringer("tier", res.Tier))
		return
	}

	if res.Err != nil {
		err := &SynthesisError{Session: s.id, Tier: res.Tier, Err: res.Err}
		s.err = err
		o.settleLocked(s, SettleError)
		cb := o.cfg.OnError
		o.mu.Unlock()
		if cb != nil {
			cb(s, res.Tier, err)
		}
		return
	}

	if budget := res.Tier.Config().Budget; budget > 0 && res.Elapsed > overrunFactor*budget {
		s.overruns++
		logger.Log.Warn("synthesis stage overran its budget",
			zap.Uint64("session", s.id),
			zap.Stringer("tier", res.Tier),
			zap.Duration("elapsed", res.Elapsed),
			zap.Duration("budget", budget))
	}

	s.tier = res.Tier
	s.resident = res.Buffer.ByteSize()

	next := res.Tier + 1
	switch {
	case res.Tier >= lod.Full:
		o.settleLocked(s, SettleComplete)
	case next > o.qc.State().TargetTier:
		o.settleLocked(s, SettleQuality)
	case next > s.ceiling,
		projectedBytes(s.desc.AtomCount, next, o.cfg.MinAtoms) > o.cfg.MemoryBudget-s.resident:
		// A policy stop, not an error: the view keeps the tier it has.
		o.settleLocked(s, SettleBudget)
	default:
		if !o.dispatchLocked(s, next) {
			s.err = fmt.Errorf("synthesis queue full at %s", next)
			o.settleLocked(s, SettleError)
		}
	}

	features := res.Tier.Config().Features
	cb := o.cfg.OnStageReady
	o.mu.Unlock()

	o.stages.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", res.Tier.String())))
	if cb != nil {
		cb(s, res.Tier, res.Buffer, features)
	}
}

func (o *Orchestrator) dispatchLocked(s *Session, t lod.Tier) bool {
	ok := o.pool.Enqueue(synth.Request{
		Session:  s.id,
		Tier:     t,
		Atoms:    s.structure.Atoms,
		Scheme:   s.scheme,
		MinAtoms: o.cfg.MinAtoms,
	})
	if ok {
		s.state = stateForTier(t)
	}
	return ok
}

func (o *Orchestrator) settleLocked(s *Session, r SettleReason) {
	s.state = StateSettled
	s.reason = r
	o.settled.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("reason", r.String())))
	logger.Log.Info("load session settled",
		zap.Uint64("session", s.id),
		zap.Stringer("tier", s.tier),
		zap.Stringer("reason", r),
		zap.Duration("elapsed", time.Since(s.started)))
}

// supersedeLocked cancels the active session. Its pending results are not
// awaited; they fall out in handleResult as stale.
func (o *Orchestrator) supersedeLocked() {
	s := o.active
	if s == nil || s.terminal() {
		return
	}
	s.state = StateCancelled
	o.cancelled.Add(context.Background(), 1)
	logger.Log.Info("load session superseded",
		zap.Uint64("session", s.id),
		zap.Stringer("tier", s.tier))
}

// projectedBytes estimates the resident footprint of one tier for a
// structure of n atoms, honoring the tier's vertex cap.
func projectedBytes(n int, t lod.Tier, minAtoms int) int64 {
	cfg := t.Config()
	vpi := (cfg.SphereSegments + 1) * (cfg.SphereSegments + 1)
	verts := lod.RetainedCount(n, t, minAtoms) * vpi
	if verts > cfg.MaxVertices {
		verts = cfg.MaxVertices
	}
	return int64(verts) * lod.BytesPerVertex
}
