package synth

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/chewxy/math32"

	"github.com/molscope/molscope/internal/lod"
	"github.com/molscope/molscope/internal/logger"
	"github.com/molscope/molscope/pkg/molecule"
)

func TestMain(m *testing.M) {
	// Quiet logger for tests
	_ = logger.InitWithFileConfig("error", logger.FileConfig{}, false)
	os.Exit(m.Run())
}

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	p, err := NewPool(1, nil)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(p.Stop)
	return p
}

func awaitResult(t *testing.T, p *Pool) Result {
	t.Helper()
	select {
	case res := <-p.Results():
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a synthesis result")
		return Result{}
	}
}

func TestPoolSynthesizesBuffer(t *testing.T) {
	p := newTestPool(t)
	s := molecule.BuildHelix(10, false)

	if !p.Enqueue(Request{Session: 7, Tier: lod.Full, Atoms: s.Atoms}) {
		t.Fatal("Enqueue refused")
	}
	res := awaitResult(t, p)

	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Session != 7 || res.Tier != lod.Full {
		t.Errorf("result stamped (session %d, tier %v), want (7, full)", res.Session, res.Tier)
	}
	buf := res.Buffer
	if buf == nil {
		t.Fatal("nil buffer on success")
	}
	if buf.Session != 7 || buf.Tier != lod.Full {
		t.Errorf("buffer stamped (session %d, tier %v), want (7, full)", buf.Session, buf.Tier)
	}

	// Full keeps every atom, each expanded to one sphere instance
	if buf.Instances != len(s.Atoms) {
		t.Errorf("instances = %d, want %d", buf.Instances, len(s.Atoms))
	}
	segments := lod.Full.Config().SphereSegments
	wantVPI := (segments + 1) * (segments + 1)
	if buf.VertsPerInstance != wantVPI {
		t.Errorf("verts per instance = %d, want %d", buf.VertsPerInstance, wantVPI)
	}
	if buf.VertexCount() != buf.Instances*buf.VertsPerInstance {
		t.Errorf("vertex count %d does not match instances*vpi", buf.VertexCount())
	}
	if len(buf.Colors) != buf.Instances*3 {
		t.Errorf("color floats = %d, want %d", len(buf.Colors), buf.Instances*3)
	}
	if len(buf.Normals) != len(buf.Vertices) {
		t.Errorf("normals length %d != vertices length %d", len(buf.Normals), len(buf.Vertices))
	}
	vc := uint32(buf.VertexCount())
	for i, idx := range buf.Indices {
		if idx >= vc {
			t.Fatalf("index %d = %d out of range", i, idx)
		}
	}
}

func TestPoolRejectsNonFinite(t *testing.T) {
	p := newTestPool(t)
	atoms := []molecule.Atom{
		{Element: "C", Position: [3]float32{0, 0, 0}, Backbone: true},
		{Element: "C", Position: [3]float32{math32.NaN(), 0, 0}, Backbone: true},
	}

	if !p.Enqueue(Request{Session: 3, Tier: lod.Preview, Atoms: atoms}) {
		t.Fatal("Enqueue refused")
	}
	res := awaitResult(t, p)

	if res.Err == nil {
		t.Fatal("batch with a non-finite coordinate should be rejected")
	}
	if res.Buffer != nil {
		t.Error("rejected batch should not carry a buffer")
	}
	var batchErr *BatchError
	if !errors.As(res.Err, &batchErr) {
		t.Fatalf("error %T is not a BatchError", res.Err)
	}
	if batchErr.Session != 3 {
		t.Errorf("error session = %d, want 3", batchErr.Session)
	}
	if batchErr.AtomIndex != 1 {
		t.Errorf("error atom index = %d, want 1", batchErr.AtomIndex)
	}
}

func TestPoolStampsEachSession(t *testing.T) {
	p := newTestPool(t)
	s := molecule.BuildHelix(3, false)

	p.Enqueue(Request{Session: 1, Tier: lod.Preview, Atoms: s.Atoms})
	p.Enqueue(Request{Session: 2, Tier: lod.Preview, Atoms: s.Atoms})

	first := awaitResult(t, p)
	second := awaitResult(t, p)
	// One worker, so results arrive in submission order
	if first.Session != 1 || second.Session != 2 {
		t.Errorf("sessions arrived as (%d, %d), want (1, 2)", first.Session, second.Session)
	}
}

func TestPoolAppliesVertexCap(t *testing.T) {
	p := newTestPool(t)

	// Enough backbone atoms that full-resolution preview spheres would
	// blow the tier cap, forcing template decimation.
	var atoms []molecule.Atom
	for i := 0; i < 20000; i++ {
		atoms = append(atoms, molecule.Atom{
			Element:  "C",
			Position: [3]float32{float32(i % 100), float32(i / 100), 0},
			Backbone: true,
		})
	}

	p.Enqueue(Request{Session: 1, Tier: lod.Preview, Atoms: atoms})
	res := awaitResult(t, p)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}

	maxVerts := lod.Preview.Config().MaxVertices
	if res.Buffer.VertexCount() > maxVerts {
		t.Errorf("vertex count %d exceeds tier cap %d", res.Buffer.VertexCount(), maxVerts)
	}
	segments := lod.Preview.Config().SphereSegments
	if res.Buffer.VertsPerInstance >= (segments+1)*(segments+1) {
		t.Error("template should have been decimated")
	}
}

func TestPoolSchemeResolvedAtSynthesis(t *testing.T) {
	p := newTestPool(t)
	s := molecule.BuildHelix(2, false)

	constant := func(molecule.Atom) [3]float32 { return [3]float32{0.1, 0.2, 0.3} }
	p.Enqueue(Request{Session: 1, Tier: lod.Preview, Atoms: s.Atoms, Scheme: constant})
	res := awaitResult(t, p)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	for i := 0; i+2 < len(res.Buffer.Colors); i += 3 {
		got := [3]float32{res.Buffer.Colors[i], res.Buffer.Colors[i+1], res.Buffer.Colors[i+2]}
		if got != ([3]float32{0.1, 0.2, 0.3}) {
			t.Fatalf("instance %d color = %v, want the supplied scheme's color", i/3, got)
		}
	}
}
