package rpkg

// Resource type tags referenced by mesh resources.
const (
	TypeMesh             = "PRIM"
	TypeSkeleton         = "BORG"
	TypeMaterialInstance = "MATI"
	TypeMaterial         = "MATE"
	TypeTexture          = "TEXT"
	TypeRawTexture       = "TEXD"
)

// DependencyTypes are the types followed when listing a resource's
// dependency tree.
var DependencyTypes = []string{
	TypeSkeleton,
	TypeMaterialInstance,
	TypeMaterial,
	TypeRawTexture,
	TypeTexture,
	TypeMesh,
}
