package repo

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

var archivePattern = regexp.MustCompile(`^(chunk|dlc)([0-9]+)(?:patch([0-9]+))?\.rpkg$`)

// loadKey orders archives: chunks before dlcs, by family number, base
// archive before its patches, patches ascending.
type loadKey struct {
	kind   int
	family int
	patch  int
}

func parseLoadKey(name string) (loadKey, bool) {
	m := archivePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return loadKey{}, false
	}
	var k loadKey
	if m[1] == "dlc" {
		k.kind = 1
	}
	k.family, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		k.patch, _ = strconv.Atoi(m[3])
	}
	return k, true
}

func (k loadKey) less(o loadKey) bool {
	if k.kind != o.kind {
		return k.kind < o.kind
	}
	if k.family != o.family {
		return k.family < o.family
	}
	return k.patch < o.patch
}

// SortArchives returns the recognised archive names of paths in load order.
// Names that are not chunk/dlc archives or patches are returned separately.
func SortArchives(paths []string) (ordered, skipped []string) {
	keys := make(map[string]loadKey, len(paths))
	for _, p := range paths {
		k, ok := parseLoadKey(p)
		if !ok {
			skipped = append(skipped, p)
			continue
		}
		keys[p] = k
		ordered = append(ordered, p)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return keys[ordered[i]].less(keys[ordered[j]])
	})
	return ordered, skipped
}
