package rpkg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Extension is the archive file extension.
const Extension = ".rpkg"

// ErrInvalidArchiveName is returned when an archive name does not contain
// exactly one dlc/chunk family token.
var ErrInvalidArchiveName = errors.New("invalid archive name")

var familyPattern = regexp.MustCompile(`(?:dlc|chunk)([0-9]+)`)

// ParseFamily extracts the archive family ("chunk3", "dlc12") from an
// archive name. The family number has one or two digits.
func ParseFamily(name string) (string, error) {
	base := filepath.Base(name)
	matches := familyPattern.FindAllStringSubmatch(base, -1)
	if len(matches) != 1 {
		return "", fmt.Errorf("%w: %q has %d family tokens", ErrInvalidArchiveName, base, len(matches))
	}
	if digits := matches[0][1]; len(digits) > 2 {
		return "", fmt.Errorf("%w: %q family number %s is too long", ErrInvalidArchiveName, base, digits)
	}
	return matches[0][0], nil
}

// PatchName returns the file name of patch index n in a family.
func PatchName(family string, n int) string {
	return fmt.Sprintf("%spatch%d%s", family, n, Extension)
}

// NextPatchName returns the first "<family>patch<N>.rpkg" name, N >= 1,
// that does not exist in dir. The check is not atomic: another process may
// claim the name before it is written.
func NextPatchName(dir, source string) (string, error) {
	family, err := ParseFamily(source)
	if err != nil {
		return "", err
	}

	for n := 1; ; n++ {
		name := PatchName(family, n)
		_, err := os.Stat(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", name, err)
		}
	}
}
