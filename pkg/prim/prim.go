// Package prim provides the render primitive (PRIM) mesh resource model
// and its binary encoding.
package prim

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/primio/pkg/encoding"
)

// ResourceType is the four character type tag of mesh resources.
const ResourceType = "PRIM"

// PRIM format errors.
var (
	ErrInvalidMagic       = errors.New("invalid PRIM magic: expected 'PRIM'")
	ErrUnsupportedVersion = errors.New("unsupported PRIM version")
	ErrTruncatedData      = errors.New("truncated PRIM data")
	ErrInvalidCount       = errors.New("invalid PRIM element count")
	ErrBufferLength       = errors.New("buffer length is not a multiple of 3")
)

const (
	magic   = "PRIM"
	version = 1

	nameFieldSize = 64

	maxSubmeshes = 4096
	maxElements  = 1 << 24
)

// Submesh subtypes.
const (
	SubtypeStandard uint8 = 0
	SubtypeLinked   uint8 = 1
	SubtypeWeighted uint8 = 2
)

// LOD masks.
const (
	DefaultLODMask uint8 = 0x01
	MaxLODMask     uint8 = 0xFF
)

// DefaultColor is the color assigned to freshly built submeshes.
const DefaultColor uint32 = 0xFFFFFFFF

// Submesh is a named, independently tagged partition of a mesh resource.
type Submesh struct {
	Name      string
	Positions []float32 // xyz per vertex
	Normals   []float32 // xyz per vertex
	Indices   []uint16  // triangle list

	MaterialID    uint16
	LODMask       uint8
	PropertyFlags uint8
	Color         uint32
	Subtype       uint8

	BoneIndices []uint16 // optional
	BoneInfo    []byte   // optional
	Collision   []byte   // optional
}

// NewSubmesh creates a submesh with the default engine metadata.
func NewSubmesh(name string, positions, normals []float32, indices []uint16) *Submesh {
	return &Submesh{
		Name:      name,
		Positions: positions,
		Normals:   normals,
		Indices:   indices,
		LODMask:   DefaultLODMask,
		Color:     DefaultColor,
		Subtype:   SubtypeStandard,
	}
}

// VertexCount returns the number of vertices in the position buffer.
func (s *Submesh) VertexCount() int {
	return len(s.Positions) / 3
}

// Manifest holds resource-level fields.
type Manifest struct {
	RigIndex   int32 // -1 unrigged, 0 rigged
	Properties uint32
}

// Rig index values.
const (
	RigIndexNone   int32 = -1
	RigIndexRigged int32 = 0
)

// Mesh is a parsed PRIM resource.
type Mesh struct {
	Manifest  Manifest
	Submeshes []*Submesh
}

// Submesh returns the first submesh with the given name, or nil.
func (m *Mesh) Submesh(name string) *Submesh {
	for _, s := range m.Submeshes {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// TotalVertexCount returns the number of vertices across all submeshes.
func (m *Mesh) TotalVertexCount() int {
	total := 0
	for _, s := range m.Submeshes {
		total += s.VertexCount()
	}
	return total
}

type submeshHeader struct {
	MaterialID     uint16
	LODMask        uint8
	PropertyFlags  uint8
	Color          uint32
	Subtype        uint8
	_              [3]byte
	VertexCount    uint32
	IndexCount     uint32
	BoneIndexCount uint32
	BoneInfoSize   uint32
	CollisionSize  uint32
}

// Encode serializes the mesh to bytes.
func (m *Mesh) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(magic)

	hdr := struct {
		Version      uint32
		RigIndex     int32
		Properties   uint32
		SubmeshCount uint32
	}{version, m.Manifest.RigIndex, m.Manifest.Properties, uint32(len(m.Submeshes))}
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return nil, err
	}

	for i, s := range m.Submeshes {
		if err := encodeSubmesh(&buf, s); err != nil {
			return nil, fmt.Errorf("encoding submesh %d (%s): %w", i, s.Name, err)
		}
	}
	return buf.Bytes(), nil
}

func encodeSubmesh(w io.Writer, s *Submesh) error {
	if len(s.Positions)%3 != 0 || len(s.Normals)%3 != 0 {
		return ErrBufferLength
	}
	if len(s.Normals) != len(s.Positions) {
		return fmt.Errorf("%d normals for %d vertices", len(s.Normals)/3, s.VertexCount())
	}

	name, err := encoding.NameToFixed(s.Name, nameFieldSize)
	if err != nil {
		return err
	}
	if _, err := w.Write(name); err != nil {
		return err
	}

	hdr := submeshHeader{
		MaterialID:     s.MaterialID,
		LODMask:        s.LODMask,
		PropertyFlags:  s.PropertyFlags,
		Color:          s.Color,
		Subtype:        s.Subtype,
		VertexCount:    uint32(s.VertexCount()),
		IndexCount:     uint32(len(s.Indices)),
		BoneIndexCount: uint32(len(s.BoneIndices)),
		BoneInfoSize:   uint32(len(s.BoneInfo)),
		CollisionSize:  uint32(len(s.Collision)),
	}
	for _, v := range []any{hdr, s.Positions, s.Normals, s.Indices, s.BoneIndices, s.BoneInfo, s.Collision} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

// Parse parses PRIM data from a byte slice.
func Parse(data []byte) (*Mesh, error) {
	if len(data) < 20 {
		return nil, ErrTruncatedData
	}
	if string(data[:4]) != magic {
		return nil, ErrInvalidMagic
	}

	r := bytes.NewReader(data[4:])

	var hdr struct {
		Version      uint32
		RigIndex     int32
		Properties   uint32
		SubmeshCount uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, ErrTruncatedData
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr.Version)
	}
	if hdr.SubmeshCount > maxSubmeshes {
		return nil, fmt.Errorf("%w: %d submeshes", ErrInvalidCount, hdr.SubmeshCount)
	}

	mesh := &Mesh{
		Manifest:  Manifest{RigIndex: hdr.RigIndex, Properties: hdr.Properties},
		Submeshes: make([]*Submesh, 0, hdr.SubmeshCount),
	}
	for i := uint32(0); i < hdr.SubmeshCount; i++ {
		s, err := parseSubmesh(r)
		if err != nil {
			return nil, fmt.Errorf("parsing submesh %d: %w", i, err)
		}
		mesh.Submeshes = append(mesh.Submeshes, s)
	}
	return mesh, nil
}

func parseSubmesh(r *bytes.Reader) (*Submesh, error) {
	name := make([]byte, nameFieldSize)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, ErrTruncatedData
	}

	var hdr submeshHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, ErrTruncatedData
	}
	for _, n := range []uint32{hdr.VertexCount, hdr.IndexCount, hdr.BoneIndexCount, hdr.BoneInfoSize, hdr.CollisionSize} {
		if n > maxElements {
			return nil, fmt.Errorf("%w: %d", ErrInvalidCount, n)
		}
	}

	s := &Submesh{
		Name:          encoding.FixedToName(name),
		MaterialID:    hdr.MaterialID,
		LODMask:       hdr.LODMask,
		PropertyFlags: hdr.PropertyFlags,
		Color:         hdr.Color,
		Subtype:       hdr.Subtype,
		Positions:     make([]float32, hdr.VertexCount*3),
		Normals:       make([]float32, hdr.VertexCount*3),
		Indices:       make([]uint16, hdr.IndexCount),
	}
	if hdr.BoneIndexCount > 0 {
		s.BoneIndices = make([]uint16, hdr.BoneIndexCount)
	}
	if hdr.BoneInfoSize > 0 {
		s.BoneInfo = make([]byte, hdr.BoneInfoSize)
	}
	if hdr.CollisionSize > 0 {
		s.Collision = make([]byte, hdr.CollisionSize)
	}

	for _, v := range []any{s.Positions, s.Normals, s.Indices, s.BoneIndices, s.BoneInfo, s.Collision} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, ErrTruncatedData
		}
	}
	return s, nil
}
