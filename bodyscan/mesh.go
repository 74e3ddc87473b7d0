package bodyscan

import "gonum.org/v1/gonum/spatial/r3"

// ScannedMesh is a triangle mesh extracted from the reconstruction volume.
// Indices holds 3 vertex indices per triangle.
type ScannedMesh struct {
	Vertices []r3.Vec
	Normals  []r3.Vec
	Indices  []int32
}

// VertexCount returns the number of vertices
func (m *ScannedMesh) VertexCount() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles
func (m *ScannedMesh) TriangleCount() int {
	if m == nil {
		return 0
	}
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry
func (m *ScannedMesh) IsEmpty() bool {
	return m.VertexCount() == 0
}

// Bounds returns axis-aligned bounding box of the vertices
func (m *ScannedMesh) Bounds() r3.Box {
	if m.IsEmpty() {
		return r3.Box{}
	}
	box := r3.Box{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		box.Min = r3.Vec{X: min(box.Min.X, v.X), Y: min(box.Min.Y, v.Y), Z: min(box.Min.Z, v.Z)}
		box.Max = r3.Vec{X: max(box.Max.X, v.X), Y: max(box.Max.Y, v.Y), Z: max(box.Max.Z, v.Z)}
	}
	return box
}
