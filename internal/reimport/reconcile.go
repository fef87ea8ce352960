package reimport

import (
	"slices"

	"github.com/Faultbox/primio/pkg/prim"
)

// SubmeshMetadata is the per-submesh engine data a scene file cannot carry.
type SubmeshMetadata struct {
	MaterialID    uint16
	LODMask       uint8
	PropertyFlags uint8
	Color         uint32
	Subtype       uint8

	BoneIndices []uint16
	BoneInfo    []byte
	Collision   []byte
}

// JoinTable maps submesh names of the replaced resource to their metadata.
type JoinTable map[string]SubmeshMetadata

// NewJoinTable indexes the original resource's submeshes by name. When
// names repeat, the last submesh with that name wins.
func NewJoinTable(original *prim.Mesh) JoinTable {
	jt := make(JoinTable, len(original.Submeshes))
	for _, s := range original.Submeshes {
		jt[s.Name] = SubmeshMetadata{
			MaterialID:    s.MaterialID,
			LODMask:       s.LODMask,
			PropertyFlags: s.PropertyFlags,
			Color:         s.Color,
			Subtype:       s.Subtype,
			BoneIndices:   s.BoneIndices,
			BoneInfo:      s.BoneInfo,
			Collision:     s.Collision,
		}
	}
	return jt
}

// Apply copies the metadata recorded under sm's name onto sm. Bone and
// collision buffers are copied only when withBoneInfo is set. It returns
// false, leaving sm untouched, when no original submesh has that name.
func (jt JoinTable) Apply(sm *prim.Submesh, withBoneInfo bool) bool {
	md, ok := jt[sm.Name]
	if !ok {
		return false
	}

	sm.MaterialID = md.MaterialID
	sm.LODMask = md.LODMask
	sm.PropertyFlags = md.PropertyFlags
	sm.Color = md.Color
	sm.Subtype = md.Subtype
	if withBoneInfo {
		sm.BoneIndices = slices.Clone(md.BoneIndices)
		sm.BoneInfo = slices.Clone(md.BoneInfo)
		sm.Collision = slices.Clone(md.Collision)
	}
	return true
}

// ApplyManifest sets the resource-level fields of a rebuilt mesh. The rig
// index follows whether the resource references a skeleton; properties are
// copied from the original.
func ApplyManifest(rebuilt, original *prim.Mesh, rigged bool) {
	rebuilt.Manifest.RigIndex = prim.RigIndexNone
	if rigged {
		rebuilt.Manifest.RigIndex = prim.RigIndexRigged
	}
	rebuilt.Manifest.Properties = original.Manifest.Properties
}
