package reimport

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/primio/pkg/prim"
)

// Normal realignment errors.
var (
	ErrDegenerateTransform = errors.New("voted axis transform is not a permutation")
	ErrBufferLength        = errors.New("vector buffer length is not a multiple of 3")
	ErrLengthMismatch      = errors.New("normal buffers differ in length")
	ErrIndexCount          = errors.New("index count is not a multiple of 3")
	ErrIndexRange          = errors.New("index out of range")
)

// AxisTransform is a signed permutation of the three axes. Output axis j
// takes input axis |t[j]|-1, negated when t[j] is negative.
type AxisTransform [3]int8

var (
	// Identity leaves vectors unchanged.
	Identity = AxisTransform{1, 2, 3}

	// LegacyRelabel maps (x, y, z) to (x, -z, y). Every import applies it
	// after the manual inversions.
	LegacyRelabel = AxisTransform{1, -3, 2}
)

// Valid reports whether t uses each axis exactly once.
func (t AxisTransform) Valid() bool {
	var seen [4]bool
	for _, a := range t {
		m := a
		if m < 0 {
			m = -m
		}
		if m < 1 || m > 3 || seen[m] {
			return false
		}
		seen[m] = true
	}
	return true
}

func (t AxisTransform) String() string {
	return fmt.Sprintf("[%+d %+d %+d]", t[0], t[1], t[2])
}

// Apply remaps every xyz group of normals in place.
func (t AxisTransform) Apply(normals []float32) {
	for i := 0; i+2 < len(normals); i += 3 {
		in := [3]float32{normals[i], normals[i+1], normals[i+2]}
		for j, a := range t {
			if a < 0 {
				normals[i+j] = -in[-a-1]
			} else {
				normals[i+j] = in[a-1]
			}
		}
	}
}

// InvertAxes negates the selected components of every normal.
func InvertAxes(normals []float32, x, y, z bool) {
	flip := [3]bool{x, y, z}
	for i := range normals {
		if flip[i%3] {
			normals[i] = -normals[i]
		}
	}
}

func vertex(buf []float32, i int) mgl32.Vec3 {
	return mgl32.Vec3{buf[3*i], buf[3*i+1], buf[3*i+2]}
}

// ReferenceNormals derives per-vertex normals from triangle topology. Each
// triangle's unnormalized face normal is summed into its three corners, so
// larger faces weigh more. Vertices no triangle touches stay zero.
func ReferenceNormals(positions []float32, indices []uint16) ([]float32, error) {
	if len(positions)%3 != 0 {
		return nil, ErrBufferLength
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrIndexCount, len(indices))
	}

	count := len(positions) / 3
	acc := make([]mgl32.Vec3, count)
	for t := 0; t < len(indices); t += 3 {
		i0, i1, i2 := int(indices[t]), int(indices[t+1]), int(indices[t+2])
		if i0 >= count || i1 >= count || i2 >= count {
			return nil, fmt.Errorf("%w: triangle %d references vertex beyond %d", ErrIndexRange, t/3, count)
		}
		v0 := vertex(positions, i0)
		face := vertex(positions, i1).Sub(v0).Cross(vertex(positions, i2).Sub(v0))
		acc[i0] = acc[i0].Add(face)
		acc[i1] = acc[i1].Add(face)
		acc[i2] = acc[i2].Add(face)
	}

	out := make([]float32, len(positions))
	for i, n := range acc {
		length := math32.Sqrt(n.Dot(n))
		if length == 0 {
			continue
		}
		n = n.Mul(1 / length)
		out[3*i], out[3*i+1], out[3*i+2] = n[0], n[1], n[2]
	}
	return out, nil
}

// candidate picks, for each reference component, the imported component
// nearest in magnitude (lowest axis on ties), signed by sign-bit agreement.
func candidate(imported, reference []float32) AxisTransform {
	var t AxisTransform
	for j, r := range reference {
		rm := math32.Abs(r)
		best := 0
		bestDiff := math32.Abs(math32.Abs(imported[0]) - rm)
		for k := 1; k < 3; k++ {
			if d := math32.Abs(math32.Abs(imported[k]) - rm); d < bestDiff {
				best, bestDiff = k, d
			}
		}
		axis := int8(best + 1)
		if math32.Signbit(r) != math32.Signbit(imported[best]) {
			axis = -axis
		}
		t[j] = axis
	}
	return t
}

// DiscoverTransform votes a per-vertex candidate transform across all
// vertices. The most frequent candidate wins; ties go to the candidate seen
// first. The result is not guaranteed to be Valid: near-zero or symmetric
// normals can vote for a mapping that reuses an axis.
func DiscoverTransform(imported, reference []float32) (AxisTransform, error) {
	if len(imported) != len(reference) {
		return AxisTransform{}, fmt.Errorf("%w: %d and %d", ErrLengthMismatch, len(imported), len(reference))
	}
	if len(imported)%3 != 0 {
		return AxisTransform{}, ErrBufferLength
	}
	if len(imported) == 0 {
		return Identity, nil
	}

	votes := make(map[AxisTransform]int)
	var order []AxisTransform
	for i := 0; i < len(imported); i += 3 {
		c := candidate(imported[i:i+3], reference[i:i+3])
		if votes[c] == 0 {
			order = append(order, c)
		}
		votes[c]++
	}

	best := order[0]
	for _, c := range order[1:] {
		if votes[c] > votes[best] {
			best = c
		}
	}
	return best, nil
}

// Realign rotates a submesh's normals into the frame its own topology
// implies. The reference is derived from positions and indices only, so
// realigning the same input twice yields the same result. A degenerate
// transform is rejected and the normals are left unchanged.
func Realign(sm *prim.Submesh) (AxisTransform, error) {
	reference, err := ReferenceNormals(sm.Positions, sm.Indices)
	if err != nil {
		return AxisTransform{}, err
	}
	t, err := DiscoverTransform(sm.Normals, reference)
	if err != nil {
		return AxisTransform{}, err
	}
	if !t.Valid() {
		return t, fmt.Errorf("%w: %s", ErrDegenerateTransform, t)
	}
	t.Apply(sm.Normals)
	return t, nil
}
