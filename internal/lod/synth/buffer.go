// Package synth turns atom subsets into GPU-ready geometry buffers on a
// worker pool. Callers communicate with the pool only through its request
// and result channels; a finished buffer is handed over by ownership
// transfer, the pool keeps no reference to it after sending.
package synth

import (
	"github.com/molscope/molscope/internal/lod"
)

// Buffer is one tier's renderable geometry. Vertices and normals are packed
// xyz triples, colors are one rgb triple per atom instance. All instances
// share the same tessellation, so vertex i belongs to instance
// i/VertsPerInstance.
//
// A Buffer has exactly one owner. The pool builds it, sends it, and forgets
// it; whoever receives it may upload or mutate it freely.
type Buffer struct {
	Vertices []float32
	Normals  []float32
	Indices  []uint32
	Colors   []float32

	VertsPerInstance int
	Instances        int

	Tier    lod.Tier
	Session uint64
}

// VertexCount returns the number of vertices.
func (b *Buffer) VertexCount() int {
	return len(b.Vertices) / 3
}

// TriangleCount returns the number of indexed triangles.
func (b *Buffer) TriangleCount() int {
	return len(b.Indices) / 3
}

// ByteSize returns the resident footprint of the buffer's arrays.
func (b *Buffer) ByteSize() int64 {
	return int64(len(b.Vertices)+len(b.Normals)+len(b.Colors))*4 + int64(len(b.Indices))*4
}
