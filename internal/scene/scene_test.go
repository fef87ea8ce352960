package scene

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

var quadPositions = []float32{
	0, 0, 0,
	1, 0, 0,
	0, 1, 0,
	1, 1, 0,
}

var quadNormals = []float32{
	0, 0, 1,
	0, 0, 1,
	0, 0, 1,
	0, 0, 1,
}

// sceneFile assembles a single-buffer glTF document.
type sceneFile struct {
	buf      bytes.Buffer
	views    []string
	accs     []string
	prims    []string
	extra    string // additional top-level members
	meshName string
}

func (s *sceneFile) add(data any, componentType int, typ string, count int) int {
	for s.buf.Len()%4 != 0 {
		s.buf.WriteByte(0)
	}
	offset := s.buf.Len()
	binary.Write(&s.buf, binary.LittleEndian, data)
	s.views = append(s.views, fmt.Sprintf(`{"buffer":0,"byteOffset":%d,"byteLength":%d}`, offset, s.buf.Len()-offset))
	s.accs = append(s.accs, fmt.Sprintf(`{"bufferView":%d,"componentType":%d,"type":%q,"count":%d}`,
		len(s.views)-1, componentType, typ, count))
	return len(s.accs) - 1
}

func (s *sceneFile) write(t *testing.T) string {
	t.Helper()
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(s.buf.Bytes())
	doc := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "buffers": [{"byteLength": %d, "uri": %q}],
  "bufferViews": [%s],
  "accessors": [%s],
  "meshes": [{"name": %q, "primitives": [%s]}]%s
}`, s.buf.Len(), uri, strings.Join(s.views, ","), strings.Join(s.accs, ","), s.meshName, strings.Join(s.prims, ","), s.extra)

	path := filepath.Join(t.TempDir(), "00d4a4a176a10980.gltf")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("writing scene: %v", err)
	}
	return path
}

const (
	componentUByte  = 5121
	componentUShort = 5123
	componentUInt   = 5125
	componentFloat  = 5126
)

func TestLoadQuad(t *testing.T) {
	s := &sceneFile{meshName: "body"}
	pos := s.add(quadPositions, componentFloat, "VEC3", 4)
	norm := s.add(quadNormals, componentFloat, "VEC3", 4)
	idx := s.add([]uint16{0, 1, 2, 2, 1, 3}, componentUShort, "SCALAR", 6)
	s.prims = append(s.prims, fmt.Sprintf(`{"attributes":{"POSITION":%d,"NORMAL":%d},"indices":%d}`, pos, norm, idx))
	path := s.write(t)

	asset, err := NewLoader(nil).Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(asset.Meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(asset.Meshes))
	}

	m := asset.Meshes[0]
	if m.Name != "body" {
		t.Errorf("Name = %q", m.Name)
	}
	if !reflect.DeepEqual(m.Positions, quadPositions) {
		t.Errorf("Positions = %v", m.Positions)
	}
	if !reflect.DeepEqual(m.Normals, quadNormals) {
		t.Errorf("Normals = %v", m.Normals)
	}
	if !reflect.DeepEqual(m.Indices, []uint16{0, 1, 2, 2, 1, 3}) {
		t.Errorf("Indices = %v", m.Indices)
	}
	if m.Joints != nil {
		t.Errorf("Joints = %v, want nil", m.Joints)
	}
}

func TestLoadMultiplePrimitivesUnindexed(t *testing.T) {
	s := &sceneFile{meshName: "hair"}
	pos := s.add(quadPositions[:9], componentFloat, "VEC3", 3)
	norm := s.add(quadNormals[:9], componentFloat, "VEC3", 3)
	prim := fmt.Sprintf(`{"attributes":{"POSITION":%d,"NORMAL":%d}}`, pos, norm)
	s.prims = append(s.prims, prim, prim)
	path := s.write(t)

	asset, err := NewLoader(nil).Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(asset.Meshes) != 2 {
		t.Fatalf("got %d meshes, want 2", len(asset.Meshes))
	}
	if asset.Meshes[0].Name != "hair.0" || asset.Meshes[1].Name != "hair.1" {
		t.Errorf("names = %q, %q", asset.Meshes[0].Name, asset.Meshes[1].Name)
	}
	if !reflect.DeepEqual(asset.Meshes[0].Indices, []uint16{0, 1, 2}) {
		t.Errorf("Indices = %v", asset.Meshes[0].Indices)
	}
}

func skinnedScene(t *testing.T) string {
	s := &sceneFile{meshName: "arm"}
	pos := s.add(quadPositions, componentFloat, "VEC3", 4)
	norm := s.add(quadNormals, componentFloat, "VEC3", 4)
	idx := s.add([]uint16{0, 1, 2, 2, 1, 3}, componentUShort, "SCALAR", 6)
	joints := s.add([]uint8{
		0, 1, 0, 0,
		1, 0, 0, 0,
		0, 0, 0, 0,
		1, 1, 0, 0,
	}, componentUByte, "VEC4", 4)
	s.prims = append(s.prims, fmt.Sprintf(`{"attributes":{"POSITION":%d,"NORMAL":%d,"JOINTS_0":%d},"indices":%d}`,
		pos, norm, joints, idx))
	s.extra = `,
  "nodes": [{"name":"arm","mesh":0,"skin":0},{"name":"Root"},{"name":"Spine"}],
  "skins": [{"joints":[1,2]}]`
	return s.write(t)
}

func TestLoadSkinned(t *testing.T) {
	path := skinnedScene(t)

	asset, err := NewLoader(nil).Load(path, map[string]int{"Root": 5, "Spine": 9})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []uint16{
		5, 9, 5, 5,
		9, 5, 5, 5,
		5, 5, 5, 5,
		9, 9, 5, 5,
	}
	if got := asset.Meshes[0].Joints; !reflect.DeepEqual(got, want) {
		t.Errorf("Joints = %v, want %v", got, want)
	}

	unskinned, err := NewLoader(nil).Load(path, nil)
	if err != nil {
		t.Fatalf("Load without bones: %v", err)
	}
	if unskinned.Meshes[0].Joints != nil {
		t.Error("expected no joints without a bone map")
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("unknown bone", func(t *testing.T) {
		_, err := NewLoader(nil).Load(skinnedScene(t), map[string]int{"Root": 0})
		if !errors.Is(err, ErrUnknownBone) {
			t.Errorf("error = %v, want ErrUnknownBone", err)
		}
	})

	t.Run("missing normals", func(t *testing.T) {
		s := &sceneFile{meshName: "m"}
		pos := s.add(quadPositions, componentFloat, "VEC3", 4)
		s.prims = append(s.prims, fmt.Sprintf(`{"attributes":{"POSITION":%d}}`, pos))
		_, err := NewLoader(nil).Load(s.write(t), nil)
		if !errors.Is(err, ErrMissingAttribute) {
			t.Errorf("error = %v, want ErrMissingAttribute", err)
		}
	})

	t.Run("wide index", func(t *testing.T) {
		s := &sceneFile{meshName: "m"}
		pos := s.add(quadPositions, componentFloat, "VEC3", 4)
		norm := s.add(quadNormals, componentFloat, "VEC3", 4)
		idx := s.add([]uint32{0, 1, 70000}, componentUInt, "SCALAR", 3)
		s.prims = append(s.prims, fmt.Sprintf(`{"attributes":{"POSITION":%d,"NORMAL":%d},"indices":%d}`, pos, norm, idx))
		_, err := NewLoader(nil).Load(s.write(t), nil)
		if !errors.Is(err, ErrIndexRange) {
			t.Errorf("error = %v, want ErrIndexRange", err)
		}
	})

	t.Run("index past last vertex", func(t *testing.T) {
		s := &sceneFile{meshName: "m"}
		pos := s.add(quadPositions, componentFloat, "VEC3", 4)
		norm := s.add(quadNormals, componentFloat, "VEC3", 4)
		idx := s.add([]uint16{0, 1, 9}, componentUShort, "SCALAR", 3)
		s.prims = append(s.prims, fmt.Sprintf(`{"attributes":{"POSITION":%d,"NORMAL":%d},"indices":%d}`, pos, norm, idx))
		_, err := NewLoader(nil).Load(s.write(t), nil)
		if !errors.Is(err, ErrIndexRange) {
			t.Errorf("error = %v, want ErrIndexRange", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := NewLoader(nil).Load(filepath.Join(t.TempDir(), "none.gltf"), nil); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.gltf")
		os.WriteFile(path, []byte("{not json"), 0644)
		if _, err := NewLoader(nil).Load(path, nil); err == nil {
			t.Error("expected error for malformed scene")
		}
	})
}
