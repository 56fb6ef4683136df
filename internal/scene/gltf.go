package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/facemorph/internal/logger"
)

// Supported file extensions.
var supportedExt = map[string]bool{
	".glb":  true,
	".gltf": true,
}

// Load imports a glTF/GLB scene. Failures are always *ImportError.
func Load(path string) (*Graph, error) {
	log := logger.Named("scene")

	if info, err := os.Stat(path); err != nil || info.IsDir() {
		if err == nil {
			err = fs.ErrInvalid
		}
		return nil, importErr(path, ReasonMissingFile, err)
	}
	if !supportedExt[strings.ToLower(filepath.Ext(path))] {
		return nil, importErr(path, ReasonUnsupportedFormat, nil)
	}

	doc, err := gltf.Open(path)
	if err != nil {
		return nil, importErr(path, ReasonUnsupportedFormat, err)
	}

	g := &Graph{Path: path}
	dir := filepath.Dir(path)

	for ni, node := range doc.Nodes {
		if node.Mesh == nil {
			continue
		}
		if int(*node.Mesh) >= len(doc.Meshes) {
			return nil, importErr(path, ReasonIncompleteScene, fmt.Errorf("node %d references mesh %d", ni, *node.Mesh))
		}
		src := doc.Meshes[*node.Mesh]
		nodeName := nodeName(doc, uint32(ni))

		for pi, prim := range src.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				log.Warn("skipping non-triangle primitive",
					zap.String("node", nodeName), zap.Int("primitive", pi))
				continue
			}
			m, err := readPrimitive(doc, prim, dir)
			if err != nil {
				return nil, importErr(path, ReasonIncompleteScene, fmt.Errorf("node %q primitive %d: %w", nodeName, pi, err))
			}
			m.Node = nodeName
			m.Name = src.Name
			m.DefaultWeights = defaultWeights(src, node, len(m.Targets))
			names := targetNames(src.Extras)
			for ti := range m.Targets {
				if ti < len(names) && names[ti] != "" {
					m.Targets[ti].Name = names[ti]
				} else {
					m.Targets[ti].Name = fmt.Sprintf("target_%d", ti)
				}
			}
			g.Meshes = append(g.Meshes, m)
		}
	}

	if len(g.Meshes) == 0 {
		return nil, importErr(path, ReasonIncompleteScene, errors.New("no triangle meshes"))
	}

	for _, anim := range doc.Animations {
		for ci, ch := range anim.Channels {
			if ch.Target.Path != gltf.TRSWeights || ch.Target.Node == nil || ch.Sampler == nil {
				continue
			}
			c, err := readWeightsChannel(doc, anim, ch)
			if err != nil {
				log.Warn("skipping unreadable weights channel",
					zap.String("animation", anim.Name), zap.Int("channel", ci), zap.Error(err))
				continue
			}
			g.Channels = append(g.Channels, c)
		}
	}

	log.Debug("scene imported",
		zap.String("path", path),
		zap.Int("meshes", len(g.Meshes)),
		zap.Int("channels", len(g.Channels)))
	return g, nil
}

func nodeName(doc *gltf.Document, idx uint32) string {
	if n := doc.Nodes[idx].Name; n != "" {
		return n
	}
	return fmt.Sprintf("node_%d", idx)
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive, dir string) (*Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("no POSITION attribute")
	}
	positions, err := readAccessor(doc, posIdx, modeler.ReadPosition)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}
	n := len(positions)

	m := &Mesh{Positions: positions}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		m.Normals, err = readAccessor(doc, idx, modeler.ReadNormal)
		if err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
	}
	if len(m.Normals) != n {
		m.Normals = make([][3]float32, n)
	}

	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		m.TexCoords, err = readAccessor(doc, idx, modeler.ReadTextureCoord)
		if err != nil {
			return nil, fmt.Errorf("reading texcoords: %w", err)
		}
	}
	if len(m.TexCoords) != n {
		m.TexCoords = make([][2]float32, n)
	}

	if prim.Indices != nil {
		m.Indices, err = readAccessor(doc, *prim.Indices, modeler.ReadIndices)
		if err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
		for _, i := range m.Indices {
			if int(i) >= n {
				return nil, fmt.Errorf("index %d out of range for %d vertices", i, n)
			}
		}
	} else {
		m.Indices = make([]uint32, n)
		for i := range m.Indices {
			m.Indices[i] = uint32(i)
		}
	}

	for ti, attrs := range prim.Targets {
		t := Target{Positions: make([][3]float32, n)}
		copy(t.Positions, positions)

		if idx, ok := attrs[gltf.POSITION]; ok {
			disp, err := readAccessor(doc, idx, modeler.ReadPosition)
			if err != nil {
				return nil, fmt.Errorf("target %d positions: %w", ti, err)
			}
			if len(disp) != n {
				return nil, fmt.Errorf("target %d has %d positions, mesh has %d", ti, len(disp), n)
			}
			addInto(t.Positions, disp)
		}
		if idx, ok := attrs[gltf.NORMAL]; ok {
			disp, err := readAccessor(doc, idx, modeler.ReadNormal)
			if err != nil {
				return nil, fmt.Errorf("target %d normals: %w", ti, err)
			}
			if len(disp) != n {
				return nil, fmt.Errorf("target %d has %d normals, mesh has %d", ti, len(disp), n)
			}
			t.Normals = make([][3]float32, n)
			copy(t.Normals, m.Normals)
			addInto(t.Normals, disp)
		}
		m.Targets = append(m.Targets, t)
	}

	m.Texture = baseColorTexture(doc, prim, dir)
	return m, nil
}

// addInto adds displacement d to base in place.
func addInto(base, d [][3]float32) {
	for i := range base {
		base[i][0] += d[i][0]
		base[i][1] += d[i][1]
		base[i][2] += d[i][2]
	}
}

// defaultWeights prefers node weights over mesh weights; missing entries are 0.
func defaultWeights(mesh *gltf.Mesh, node *gltf.Node, targets int) []float32 {
	out := make([]float32, targets)
	src := mesh.Weights
	if len(node.Weights) > 0 {
		src = node.Weights
	}
	for i := 0; i < targets && i < len(src); i++ {
		out[i] = float32(src[i])
	}
	return out
}

// targetNames reads the de-facto "targetNames" extra written by most exporters.
func targetNames(extras interface{}) []string {
	var raw map[string]interface{}
	switch v := extras.(type) {
	case map[string]interface{}:
		raw = v
	case json.RawMessage:
		if err := json.Unmarshal(v, &raw); err != nil {
			return nil
		}
	default:
		return nil
	}
	list, ok := raw["targetNames"].([]interface{})
	if !ok {
		return nil
	}
	names := make([]string, len(list))
	for i, v := range list {
		names[i], _ = v.(string)
	}
	return names
}

func baseColorTexture(doc *gltf.Document, prim *gltf.Primitive, dir string) *TextureRef {
	if prim.Material == nil || int(*prim.Material) >= len(doc.Materials) {
		return nil
	}
	mat := doc.Materials[*prim.Material]
	if mat.PBRMetallicRoughness == nil || mat.PBRMetallicRoughness.BaseColorTexture == nil {
		return nil
	}
	ti := mat.PBRMetallicRoughness.BaseColorTexture.Index
	if int(ti) >= len(doc.Textures) || doc.Textures[ti].Source == nil {
		return nil
	}
	si := *doc.Textures[ti].Source
	if int(si) >= len(doc.Images) {
		return nil
	}
	img := doc.Images[si]
	ref := &TextureRef{MimeType: img.MimeType}

	switch {
	case img.BufferView != nil:
		if checkView(doc, *img.BufferView, 0) != nil {
			return nil
		}
		data, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil
		}
		ref.Data = data
	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			return nil
		}
		ref.Data = data
	case img.URI != "":
		p, err := url.PathUnescape(img.URI)
		if err != nil {
			p = img.URI
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, filepath.FromSlash(p))
		}
		ref.Path = p
	default:
		return nil
	}
	return ref
}

func readWeightsChannel(doc *gltf.Document, anim *gltf.Animation, ch *gltf.Channel) (*Channel, error) {
	if int(*ch.Sampler) >= len(anim.Samplers) {
		return nil, fmt.Errorf("sampler %d out of range", *ch.Sampler)
	}
	if int(*ch.Target.Node) >= len(doc.Nodes) {
		return nil, fmt.Errorf("target node %d out of range", *ch.Target.Node)
	}
	s := anim.Samplers[*ch.Sampler]

	times, err := readFloats(doc, s.Input)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	values, err := readFloats(doc, s.Output)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	if len(times) == 0 {
		return nil, errors.New("no keyframes")
	}

	// Cubic spline stores in-tangent, value, out-tangent per key.
	stride := 1
	if s.Interpolation == gltf.InterpolationCubicSpline {
		stride = 3
	}
	if len(values)%(len(times)*stride) != 0 {
		return nil, fmt.Errorf("%d outputs do not divide into %d keys", len(values), len(times))
	}
	n := len(values) / (len(times) * stride)

	c := &Channel{
		Animation: anim.Name,
		Target:    nodeName(doc, *ch.Target.Node),
		Keys:      make([]Key, len(times)),
	}
	for k, t := range times {
		base := (k*stride + stride/2) * n
		w := make([]float32, n)
		copy(w, values[base:base+n])
		c.Keys[k] = Key{Time: t * 1000, Weights: w}
	}
	return c, nil
}

func readFloats(doc *gltf.Document, idx uint32) ([]float32, error) {
	data, err := readAccessor(doc, idx, modeler.ReadAccessor)
	if err != nil {
		return nil, err
	}
	v, ok := data.([]float32)
	if !ok {
		return nil, fmt.Errorf("accessor %d is %T, want []float32", idx, data)
	}
	return v, nil
}

// readAccessor checks that accessor idx and every view it reads from exist
// before handing it to read. Inconsistent sparse data still makes modeler
// panic, so that is turned into an error as well.
func readAccessor[T any](doc *gltf.Document, idx uint32, read func(*gltf.Document, *gltf.Accessor, T) (T, error)) (out T, err error) {
	if int(idx) >= len(doc.Accessors) {
		return out, fmt.Errorf("accessor %d out of range", idx)
	}
	acr := doc.Accessors[idx]
	if acr.BufferView == nil && acr.Sparse == nil {
		return out, fmt.Errorf("accessor %d has no data", idx)
	}
	if acr.BufferView != nil {
		if err := checkView(doc, *acr.BufferView, acr.ByteOffset); err != nil {
			return out, fmt.Errorf("accessor %d: %w", idx, err)
		}
	}
	if sp := acr.Sparse; sp != nil {
		if err := checkView(doc, sp.Indices.BufferView, sp.Indices.ByteOffset); err != nil {
			return out, fmt.Errorf("accessor %d sparse indices: %w", idx, err)
		}
		if err := checkView(doc, sp.Values.BufferView, sp.Values.ByteOffset); err != nil {
			return out, fmt.Errorf("accessor %d sparse values: %w", idx, err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("accessor %d: malformed data: %v", idx, r)
		}
	}()
	var buf T
	return read(doc, acr, buf)
}

// checkView reports whether buffer view idx lies inside its buffer and
// offset falls within the view.
func checkView(doc *gltf.Document, idx, offset uint32) error {
	if int(idx) >= len(doc.BufferViews) {
		return fmt.Errorf("buffer view %d out of range", idx)
	}
	bv := doc.BufferViews[idx]
	if int(bv.Buffer) >= len(doc.Buffers) {
		return fmt.Errorf("buffer view %d references buffer %d", idx, bv.Buffer)
	}
	if uint64(bv.ByteOffset)+uint64(bv.ByteLength) > uint64(len(doc.Buffers[bv.Buffer].Data)) {
		return fmt.Errorf("buffer view %d runs past its buffer", idx)
	}
	if offset > bv.ByteLength {
		return fmt.Errorf("offset %d past the end of buffer view %d", offset, idx)
	}
	return nil
}
