// Package scene imports glTF scenes into plain mesh and morph-channel data.
//
// Blend-shape variants are returned as absolute vertex attributes (base plus
// displacement) so consumers can derive deltas themselves without knowing how
// the source file stored them.
package scene

// Graph is an imported scene.
type Graph struct {
	Path     string
	Meshes   []*Mesh
	Channels []*Channel
}

// Mesh is one triangle primitive attached to a named node.
type Mesh struct {
	Node      string // Owning node name; morph channels bind to it
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	TexCoords [][2]float32
	Indices   []uint32

	Targets        []Target
	DefaultWeights []float32 // One per target

	Texture *TextureRef // nil when the material has no base colour texture
}

// VertexCount returns the number of vertices in the mesh.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// Target is a blend-shape variant of a mesh. Normals is nil when the source
// only displaced positions.
type Target struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
}

// TextureRef locates a diffuse image either embedded in the file or on disk.
type TextureRef struct {
	Path     string // Absolute or model-relative resolved path; empty when embedded
	Data     []byte // Encoded image bytes when embedded
	MimeType string
}

// Embedded reports whether the image bytes live inside the model file.
func (t *TextureRef) Embedded() bool {
	return len(t.Data) > 0
}

// Channel animates the morph weights of every mesh under one node.
type Channel struct {
	Animation string
	Target    string // Node name
	Keys      []Key
}

// Key is one sampled weight vector. Time is in milliseconds.
type Key struct {
	Time    float32
	Weights []float32
}

// ChannelFor returns the first weights channel targeting node. An empty
// animation name matches any animation.
func (g *Graph) ChannelFor(node, animation string) *Channel {
	for _, c := range g.Channels {
		if c.Target == node && (animation == "" || c.Animation == animation) {
			return c
		}
	}
	return nil
}
