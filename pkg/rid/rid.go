// Package rid implements 64-bit runtime resource identifiers.
package rid

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Len is the number of hex characters in a printed ID.
const Len = 16

// ErrInvalidID is returned when a string is not a 16 character hex id.
var ErrInvalidID = errors.New("invalid runtime id")

// ID is an opaque content identifier for a resource.
type ID uint64

// String returns the id as 16 lowercase hex characters.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// Parse parses exactly 16 hex characters (either case).
func Parse(s string) (ID, error) {
	if len(s) != Len {
		return 0, fmt.Errorf("%w: %q has %d characters", ErrInvalidID, s, len(s))
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID(v), nil
}

// FromPath parses the id encoded in a file's base name, without extension.
// "data/00d4a4a176a10980.gltf" yields 0x00d4a4a176a10980.
func FromPath(path string) (ID, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return Parse(stem)
}
