// Package scene loads externally authored glTF scenes into flat mesh
// buffers ready to be rebuilt as PRIM submeshes.
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

// Scene loading errors.
var (
	ErrNoMeshes         = errors.New("scene contains no meshes")
	ErrMissingAttribute = errors.New("primitive is missing a required attribute")
	ErrUnsupportedMode  = errors.New("only triangle list primitives are supported")
	ErrIndexRange       = errors.New("index does not fit in 16 bits")
	ErrUnknownBone      = errors.New("joint does not name a skeleton bone")
)

// MaxVertices is the largest vertex count a submesh can address.
const MaxVertices = math.MaxUint16 + 1

// Mesh is one triangle list primitive of the scene.
type Mesh struct {
	Name      string
	Positions []float32 // xyz per vertex
	Normals   []float32 // xyz per vertex
	Indices   []uint16

	// Joints holds four skeleton bone indices per vertex. Nil when the
	// primitive is not skinned or no bone map was supplied.
	Joints []uint16
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions) / 3
}

// Asset is a loaded scene.
type Asset struct {
	Path   string
	Meshes []*Mesh
}

// Loader reads glTF and GLB files.
type Loader struct {
	log *zap.Logger
}

// NewLoader creates a scene loader.
func NewLoader(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{log: log}
}

// Load reads the scene at path. When bones is non-nil, skinned primitives
// have their joints remapped from glTF node names to bone indices.
func (l *Loader) Load(path string, bones map[string]int) (*Asset, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scene %s: %w", path, err)
	}

	skins := make(map[int]int) // mesh -> skin
	for _, n := range doc.Nodes {
		if n.Mesh != nil && n.Skin != nil {
			skins[int(*n.Mesh)] = int(*n.Skin)
		}
	}

	asset := &Asset{Path: path}
	for mi, gm := range doc.Meshes {
		var jointMap []uint16
		if si, ok := skins[mi]; ok && bones != nil {
			jointMap, err = skinBones(doc, doc.Skins[si], bones)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: %w", gm.Name, err)
			}
		}

		for pi, p := range gm.Primitives {
			name := gm.Name
			if len(gm.Primitives) > 1 {
				name = fmt.Sprintf("%s.%d", gm.Name, pi)
			}
			m, err := readPrimitive(doc, p, jointMap)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: %w", name, err)
			}
			m.Name = name
			asset.Meshes = append(asset.Meshes, m)
		}
	}
	if len(asset.Meshes) == 0 {
		return nil, ErrNoMeshes
	}

	l.log.Debug("scene loaded",
		zap.String("path", path),
		zap.Int("meshes", len(asset.Meshes)),
		zap.Bool("skinned", len(skins) > 0))
	return asset, nil
}

// skinBones maps a skin's joint slots to skeleton bone indices.
func skinBones(doc *gltf.Document, skin *gltf.Skin, bones map[string]int) ([]uint16, error) {
	out := make([]uint16, len(skin.Joints))
	for i, j := range skin.Joints {
		name := doc.Nodes[j].Name
		b, ok := bones[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBone, name)
		}
		out[i] = uint16(b)
	}
	return out, nil
}

func readPrimitive(doc *gltf.Document, p *gltf.Primitive, jointMap []uint16) (*Mesh, error) {
	if p.Mode != gltf.PrimitiveTriangles {
		return nil, ErrUnsupportedMode
	}

	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("%w: POSITION", ErrMissingAttribute)
	}
	normIdx, ok := p.Attributes[gltf.NORMAL]
	if !ok {
		return nil, fmt.Errorf("%w: NORMAL", ErrMissingAttribute)
	}

	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}
	if len(positions) > MaxVertices {
		return nil, fmt.Errorf("%w: %d vertices", ErrIndexRange, len(positions))
	}
	normals, err := modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("reading normals: %w", err)
	}
	if len(normals) != len(positions) {
		return nil, fmt.Errorf("%d normals for %d vertices", len(normals), len(positions))
	}

	m := &Mesh{
		Positions: flatten(positions),
		Normals:   flatten(normals),
	}

	if p.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
		m.Indices = make([]uint16, len(indices))
		for i, v := range indices {
			if v > math.MaxUint16 {
				return nil, fmt.Errorf("%w: %d", ErrIndexRange, v)
			}
			if int(v) >= len(positions) {
				return nil, fmt.Errorf("%w: %d with %d vertices", ErrIndexRange, v, len(positions))
			}
			m.Indices[i] = uint16(v)
		}
	} else {
		m.Indices = make([]uint16, len(positions))
		for i := range m.Indices {
			m.Indices[i] = uint16(i)
		}
	}

	if jointIdx, ok := p.Attributes[gltf.JOINTS_0]; ok && jointMap != nil {
		joints, err := modeler.ReadJoints(doc, doc.Accessors[jointIdx], nil)
		if err != nil {
			return nil, fmt.Errorf("reading joints: %w", err)
		}
		m.Joints = make([]uint16, 0, len(joints)*4)
		for _, j := range joints {
			for _, slot := range j {
				if int(slot) >= len(jointMap) {
					return nil, fmt.Errorf("joint slot %d out of range", slot)
				}
				m.Joints = append(m.Joints, jointMap[slot])
			}
		}
	}
	return m, nil
}

func flatten(v [][3]float32) []float32 {
	out := make([]float32, 0, len(v)*3)
	for _, e := range v {
		out = append(out, e[0], e[1], e[2])
	}
	return out
}
