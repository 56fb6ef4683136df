package model

import "github.com/go-gl/mathgl/mgl32"

// needsNormals reports whether every normal is zero, which is how the
// importer marks a primitive that shipped without them.
func needsNormals(normals [][3]float32) bool {
	for _, n := range normals {
		if n != ([3]float32{}) {
			return false
		}
	}
	return true
}

// smoothNormals computes area-weighted vertex normals from triangles.
func smoothNormals(positions [][3]float32, indices []uint32) [][3]float32 {
	acc := make([]mgl32.Vec3, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		p0, p1, p2 := mgl32.Vec3(positions[a]), mgl32.Vec3(positions[b]), mgl32.Vec3(positions[c])
		// Unnormalized cross product weights by triangle area.
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		acc[a] = acc[a].Add(n)
		acc[b] = acc[b].Add(n)
		acc[c] = acc[c].Add(n)
	}

	out := make([][3]float32, len(positions))
	for i, n := range acc {
		if n.Len() < 1e-12 {
			out[i] = [3]float32{0, 1, 0}
			continue
		}
		out[i] = n.Normalize()
	}
	return out
}

// rebaseNormals moves absolute target normals from the imported base onto the
// generated one, keeping each target's displacement.
func rebaseNormals(target, imported, generated [][3]float32) [][3]float32 {
	if len(target) != len(generated) {
		// Extract reports the mismatch.
		return target
	}
	out := make([][3]float32, len(target))
	for i := range target {
		var base [3]float32
		if i < len(imported) {
			base = imported[i]
		}
		for c := 0; c < 3; c++ {
			out[i][c] = generated[i][c] + target[i][c] - base[c]
		}
	}
	return out
}
