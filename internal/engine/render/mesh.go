package render

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/molscope/molscope/internal/lod"
	"github.com/molscope/molscope/internal/lod/synth"
)

// vertexStride is floats per vertex: position, normal, color.
const vertexStride = 9

// Mesh is one geometry buffer uploaded to the GPU. Uploading consumes the
// buffer: per-instance colors are expanded to per-vertex during the
// interleave and the CPU arrays are not retained.
type Mesh struct {
	vao uint32
	vbo uint32
	ebo uint32

	indexCount int32
	vertices   int
	triangles  int
	byteSize   int64

	// Tier and Session identify the pipeline stage this mesh came from.
	Tier    lod.Tier
	Session uint64
}

// Upload interleaves a synthesis buffer and pushes it to the GPU. This is
// the one bounded piece of synchronous work the interactive thread does per
// delivered stage; it is proportional to the buffer size, which the tier's
// vertex cap bounds.
func Upload(buf *synth.Buffer) *Mesh {
	data := interleave(buf)

	m := &Mesh{
		indexCount: int32(len(buf.Indices)),
		vertices:   buf.VertexCount(),
		triangles:  buf.TriangleCount(),
		byteSize:   int64(len(data))*4 + int64(len(buf.Indices))*4,
		Tier:       buf.Tier,
		Session:    buf.Session,
	}

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(buf.Indices)*4, gl.Ptr(buf.Indices), gl.STATIC_DRAW)

	// Position attribute (location = 0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, vertexStride*4, nil)
	gl.EnableVertexAttribArray(0)

	// Normal attribute (location = 1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, vertexStride*4, unsafe.Pointer(uintptr(3*4)))
	gl.EnableVertexAttribArray(1)

	// Color attribute (location = 2)
	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, vertexStride*4, unsafe.Pointer(uintptr(6*4)))
	gl.EnableVertexAttribArray(2)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	return m
}

// interleave packs [pos normal color] per vertex, expanding the buffer's
// per-instance colors to per-vertex.
func interleave(buf *synth.Buffer) []float32 {
	n := buf.VertexCount()
	data := make([]float32, 0, n*vertexStride)

	vpi := buf.VertsPerInstance
	if vpi <= 0 {
		vpi = 1
	}

	for i := 0; i < n; i++ {
		data = append(data,
			buf.Vertices[i*3], buf.Vertices[i*3+1], buf.Vertices[i*3+2],
			buf.Normals[i*3], buf.Normals[i*3+1], buf.Normals[i*3+2])

		inst := i / vpi
		if inst*3+2 < len(buf.Colors) {
			data = append(data, buf.Colors[inst*3], buf.Colors[inst*3+1], buf.Colors[inst*3+2])
		} else {
			data = append(data, 0.5, 0.5, 0.5)
		}
	}
	return data
}

// Draw issues the indexed draw call for this mesh.
func (m *Mesh) Draw() {
	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// Triangles returns the indexed triangle count.
func (m *Mesh) Triangles() int {
	return m.triangles
}

// ByteSize returns the GPU footprint of the mesh.
func (m *Mesh) ByteSize() int64 {
	return m.byteSize
}

// Delete releases the GPU buffers.
func (m *Mesh) Delete() {
	if m == nil {
		return
	}
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
		m.vbo = 0
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
		m.ebo = 0
	}
}
