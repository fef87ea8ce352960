package prim

import (
	"errors"
	"reflect"
	"testing"
)

func makeQuad(name string) *Submesh {
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		1, 1, 0,
	}
	normals := []float32{
		0, 0, 1,
		0, 0, 1,
		0, 0, 1,
		0, 0, 1,
	}
	return NewSubmesh(name, positions, normals, []uint16{0, 1, 2, 2, 1, 3})
}

func TestNewSubmeshDefaults(t *testing.T) {
	s := makeQuad("body")

	if s.LODMask != DefaultLODMask {
		t.Errorf("LODMask = %#x, want %#x", s.LODMask, DefaultLODMask)
	}
	if s.Color != DefaultColor {
		t.Errorf("Color = %#x, want %#x", s.Color, DefaultColor)
	}
	if s.Subtype != SubtypeStandard {
		t.Errorf("Subtype = %d, want %d", s.Subtype, SubtypeStandard)
	}
	if s.MaterialID != 0 || s.PropertyFlags != 0 {
		t.Errorf("expected zero material id and flags, got %d/%d", s.MaterialID, s.PropertyFlags)
	}
	if s.BoneIndices != nil || s.BoneInfo != nil || s.Collision != nil {
		t.Error("expected no optional buffers")
	}
	if s.VertexCount() != 4 {
		t.Errorf("VertexCount = %d, want 4", s.VertexCount())
	}
}

func TestEncodeParse(t *testing.T) {
	body := makeQuad("body")
	body.MaterialID = 3
	body.LODMask = 0x0F
	body.PropertyFlags = 0x24
	body.Color = 0x11223344
	body.Subtype = SubtypeWeighted
	body.BoneIndices = []uint16{1, 2, 3, 4}
	body.BoneInfo = []byte{9, 8, 7}
	body.Collision = []byte{1, 1, 2, 3, 5}

	mesh := &Mesh{
		Manifest:  Manifest{RigIndex: RigIndexRigged, Properties: 0xA0},
		Submeshes: []*Submesh{body, makeQuad("head")},
	}

	data, err := mesh.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got.Manifest != mesh.Manifest {
		t.Errorf("Manifest = %+v, want %+v", got.Manifest, mesh.Manifest)
	}
	if len(got.Submeshes) != 2 {
		t.Fatalf("got %d submeshes, want 2", len(got.Submeshes))
	}
	if !reflect.DeepEqual(got.Submeshes[0], body) {
		t.Errorf("submesh 0 mismatch:\n got %+v\nwant %+v", got.Submeshes[0], body)
	}
	if got.Submesh("head") == nil {
		t.Error("Submesh(head) = nil")
	}
	if got.TotalVertexCount() != 8 {
		t.Errorf("TotalVertexCount = %d, want 8", got.TotalVertexCount())
	}
}

func TestParseErrors(t *testing.T) {
	valid, err := (&Mesh{Submeshes: []*Submesh{makeQuad("a")}}).Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	badVersion := append([]byte(nil), valid...)
	badVersion[4] = 9

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrTruncatedData},
		{"bad magic", append([]byte("XXXX"), valid[4:]...), ErrInvalidMagic},
		{"bad version", badVersion, ErrUnsupportedVersion},
		{"truncated body", valid[:len(valid)-4], ErrTruncatedData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeRejectsMismatchedNormals(t *testing.T) {
	s := makeQuad("bad")
	s.Normals = s.Normals[:6]
	if _, err := (&Mesh{Submeshes: []*Submesh{s}}).Encode(); err == nil {
		t.Error("expected error for normal/vertex count mismatch")
	}
}
