package morph

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLayout(t *testing.T) {
	base := [][3]float32{{0, 0, 0}, {1, 0, 0}}
	normals := [][3]float32{{0, 0, 1}, {0, 0, 1}}
	variants := []Variant{
		{
			Name:      "jawOpen",
			Positions: [][3]float32{{0, -1, 0}, {1, 0, 0}},
			Normals:   [][3]float32{{0, 1, 0}, {0, 0, 1}},
			Default:   0.25,
		},
		{
			Name:      "smile",
			Positions: [][3]float32{{0, 0, 0}, {1.5, 0.5, 0}},
		},
	}

	s, err := Extract(base, normals, variants)
	require.NoError(t, err)

	assert.Equal(t, 2, s.VertexCount)
	assert.Equal(t, 2, s.TargetCount())
	assert.Equal(t, []string{"jawOpen", "smile"}, s.Names)
	assert.Equal(t, []float32{0.25, 0}, s.Defaults)
	require.Len(t, s.Deltas, 2*2*TexelsPerVertex)

	want := []mgl32.Vec4{
		// target 0, vertex 0: pos, normal
		{0, -1, 0, 0}, {0, 1, -1, 0},
		// target 0, vertex 1
		{0, 0, 0, 0}, {0, 0, 0, 0},
		// target 1, vertex 0 (no normals supplied)
		{0, 0, 0, 0}, {0, 0, 0, 0},
		// target 1, vertex 1
		{0.5, 0.5, 0, 0}, {0, 0, 0, 0},
	}
	assert.Equal(t, want, s.Deltas)
}

func TestExtractEqualVerticesAreExactZero(t *testing.T) {
	// Values that do not round-trip through subtraction cleanly.
	base := [][3]float32{{0.1, 0.2, 0.3}}
	s, err := Extract(base, nil, []Variant{{Name: "same", Positions: [][3]float32{{0.1, 0.2, 0.3}}}})
	require.NoError(t, err)

	assert.Equal(t, mgl32.Vec4{}, s.Deltas[0])
}

func TestExtractWComponentIsZero(t *testing.T) {
	base := [][3]float32{{1, 2, 3}}
	s, err := Extract(base, [][3]float32{{0, 1, 0}}, []Variant{{
		Positions: [][3]float32{{2, 3, 4}},
		Normals:   [][3]float32{{1, 0, 0}},
	}})
	require.NoError(t, err)

	for i, v := range s.Deltas {
		assert.Zero(t, v[3], "delta %d has non-zero w", i)
	}
}

func TestExtractVertexCountMismatch(t *testing.T) {
	base := [][3]float32{{0, 0, 0}, {1, 0, 0}}

	_, err := Extract(base, nil, []Variant{{Name: "short", Positions: [][3]float32{{0, 0, 0}}}})
	assert.ErrorIs(t, err, ErrVertexCount)

	_, err = Extract(base, nil, []Variant{{
		Positions: base,
		Normals:   [][3]float32{{0, 0, 1}},
	}})
	assert.ErrorIs(t, err, ErrVertexCount)
}

func TestExtractNoTargets(t *testing.T) {
	s, err := Extract([][3]float32{{0, 0, 0}}, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, s.TargetCount())
	assert.Empty(t, s.Deltas)
	assert.Empty(t, s.Flat())
}

func TestShapeAndFlat(t *testing.T) {
	base := [][3]float32{{0, 0, 0}}
	s, err := Extract(base, [][3]float32{{0, 0, 1}}, []Variant{
		{Name: "a", Positions: [][3]float32{{1, 0, 0}}},
		{Name: "b", Positions: [][3]float32{{0, 2, 0}}, Normals: [][3]float32{{0, 1, 1}}},
	})
	require.NoError(t, err)

	b := s.Shape(1)
	assert.Equal(t, "b", b.Name)
	assert.Equal(t, []mgl32.Vec4{{0, 2, 0, 0}}, b.PositionDeltas)
	assert.Equal(t, []mgl32.Vec4{{0, 1, 0, 0}}, b.NormalDeltas)

	assert.Equal(t, []float32{
		1, 0, 0, 0, 0, 0, 0, 0,
		0, 2, 0, 0, 0, 1, 0, 0,
	}, s.Flat())
}
