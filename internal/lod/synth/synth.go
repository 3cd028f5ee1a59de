package synth

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/chewxy/math32"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/molscope/molscope/internal/lod"
	"github.com/molscope/molscope/internal/logger"
	"github.com/molscope/molscope/pkg/molecule"
)

// Request asks the pool to synthesize one tier's geometry for a load
// session. Atoms is read-only to the pool; the caller keeps ownership.
type Request struct {
	Session uint64
	Tier    lod.Tier
	Atoms   []molecule.Atom
	// Scheme resolves instance colors. Nil means color by element.
	Scheme Scheme
	// MinAtoms overrides the reduction floor; <= 0 uses the default.
	MinAtoms int
}

// Result carries one finished batch back to the coordinator. Buffer is nil
// when Err is set. Err, if non-nil, wraps a *BatchError carrying the
// session the failure belongs to.
type Result struct {
	Session       uint64
	Tier          lod.Tier
	Buffer        *Buffer
	AtomsRendered int
	Elapsed       time.Duration
	Err           error
}

// BatchError reports a synthesis batch rejected as a whole. The session id
// lets the receiver attribute the failure even after sessions changed.
type BatchError struct {
	Session   uint64
	Tier      lod.Tier
	AtomIndex int
	Reason    string
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("synthesis batch rejected (session %d, tier %s): atom %d: %s",
		e.Session, e.Tier, e.AtomIndex, e.Reason)
}

// Pool runs geometry synthesis on background workers. Requests go in through
// Enqueue, results come out of Results; the pool shares no memory with its
// callers beyond those channels.
type Pool struct {
	requests  chan Request
	results   chan Result
	stop      chan struct{}
	decimator Decimator

	batches  metric.Int64Counter
	rejected metric.Int64Counter
	vertices metric.Int64Counter
	duration metric.Float64Histogram
}

// NewPool starts a pool with the given worker count; workers <= 0 sizes it
// to the machine, leaving one CPU for the interactive thread. A nil
// decimator selects the stride variant.
func NewPool(workers int, dec Decimator) (*Pool, error) {
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers < 1 {
			workers = 1
		}
	}
	if dec == nil {
		dec = StrideDecimator{}
	}

	p := &Pool{
		requests:  make(chan Request, 16),
		results:   make(chan Result, 16),
		stop:      make(chan struct{}),
		decimator: dec,
	}

	m := meter()
	var err error
	p.batches, err = m.Int64Counter(
		"synth.batches.completed",
		metric.WithDescription("Geometry batches synthesized"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating batch counter: %w", err)
	}
	p.rejected, err = m.Int64Counter(
		"synth.batches.rejected",
		metric.WithDescription("Geometry batches rejected for malformed input"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}
	p.vertices, err = m.Int64Counter(
		"synth.vertices.emitted",
		metric.WithDescription("Vertices emitted across all batches"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating vertex counter: %w", err)
	}
	p.duration, err = m.Float64Histogram(
		"synth.batch.duration",
		metric.WithDescription("Wall-clock time per synthesized batch"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p, nil
}

// Enqueue submits a request without blocking. It reports false when the
// queue is full; the caller may retry or skip the tier.
func (p *Pool) Enqueue(req Request) bool {
	select {
	case p.requests <- req:
		return true
	default:
		return false
	}
}

// Results returns the channel finished batches arrive on.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Stop ends the workers. In-flight batches are abandoned; results already
// queued stay readable.
func (p *Pool) Stop() {
	close(p.stop)
}

func (p *Pool) worker() {
	ctx := context.Background()
	for {
		select {
		case req := <-p.requests:
			res := p.process(req)
			attrs := metric.WithAttributes(attribute.String("tier", req.Tier.String()))
			if res.Err != nil {
				p.rejected.Add(ctx, 1, attrs)
				logger.Log.Warn("synthesis batch rejected",
					zap.Uint64("session", req.Session),
					zap.Stringer("tier", req.Tier),
					zap.Error(res.Err))
			} else {
				p.batches.Add(ctx, 1, attrs)
				p.vertices.Add(ctx, int64(res.Buffer.VertexCount()), attrs)
				p.duration.Record(ctx, float64(res.Elapsed.Microseconds())/1000, attrs)
				logger.Log.Debug("synthesis batch complete",
					zap.Uint64("session", req.Session),
					zap.Stringer("tier", req.Tier),
					zap.Int("atoms", res.AtomsRendered),
					zap.Int("vertices", res.Buffer.VertexCount()),
					zap.Duration("elapsed", res.Elapsed))
			}
			select {
			case p.results <- res:
			case <-p.stop:
				return
			}
		case <-p.stop:
			return
		}
	}
}

// process shields the worker from panics in geometry code; a bad batch
// becomes an error result instead of a dead worker.
func (p *Pool) process(req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Session: req.Session,
				Tier:    req.Tier,
				Err:     fmt.Errorf("synthesis panic: %v", r),
			}
		}
	}()
	return p.generate(req)
}

func (p *Pool) generate(req Request) Result {
	start := time.Now()

	if i := firstNonFinite(req.Atoms); i >= 0 {
		return Result{
			Session: req.Session,
			Tier:    req.Tier,
			Err: &BatchError{
				Session:   req.Session,
				Tier:      req.Tier,
				AtomIndex: i,
				Reason:    "non-finite coordinate",
			},
		}
	}

	cfg := req.Tier.Config()
	atoms := ForTier(req.Atoms, req.Tier, req.MinAtoms)
	if len(atoms) == 0 {
		return Result{
			Session: req.Session,
			Tier:    req.Tier,
			Err: &BatchError{
				Session: req.Session,
				Tier:    req.Tier,
				Reason:  "no atoms retained",
			},
		}
	}

	// All instances share one template. When the whole batch would blow the
	// tier's vertex cap, the template itself is decimated so the per-atom
	// structure survives.
	tpl := unitSphere(cfg.SphereSegments)
	positions, indices := tpl.positions, tpl.indices
	if perAtom := cfg.MaxVertices / len(atoms); perAtom < tpl.vertexCount() {
		positions, indices = p.decimator.Decimate(positions, indices, perAtom)
	}
	vpi := len(positions) / 3

	scheme := req.Scheme
	if scheme == nil {
		scheme = ByElement()
	}

	buf := &Buffer{
		Vertices:         make([]float32, 0, len(atoms)*len(positions)),
		Normals:          make([]float32, 0, len(atoms)*len(positions)),
		Indices:          make([]uint32, 0, len(atoms)*len(indices)),
		Colors:           make([]float32, 0, len(atoms)*3),
		VertsPerInstance: vpi,
		Instances:        len(atoms),
		Tier:             req.Tier,
		Session:          req.Session,
	}

	for n, a := range atoms {
		r := molecule.CovalentRadius(a.Element)
		base := uint32(n * vpi)
		for i := 0; i+2 < len(positions); i += 3 {
			x, y, z := positions[i], positions[i+1], positions[i+2]
			buf.Vertices = append(buf.Vertices,
				a.Position[0]+x*r,
				a.Position[1]+y*r,
				a.Position[2]+z*r)
			// Unit sphere positions are their own normals.
			buf.Normals = append(buf.Normals, x, y, z)
		}
		for _, idx := range indices {
			buf.Indices = append(buf.Indices, base+idx)
		}
		c := scheme(a)
		buf.Colors = append(buf.Colors, c[0], c[1], c[2])
	}

	return Result{
		Session:       req.Session,
		Tier:          req.Tier,
		Buffer:        buf,
		AtomsRendered: len(atoms),
		Elapsed:       time.Since(start),
	}
}

func firstNonFinite(atoms []molecule.Atom) int {
	for i, a := range atoms {
		for _, c := range a.Position {
			if math32.IsNaN(c) || math32.IsInf(c, 0) {
				return i
			}
		}
	}
	return -1
}
