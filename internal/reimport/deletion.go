package reimport

import (
	"regexp"

	"github.com/Faultbox/primio/pkg/rid"
)

var hexToken = regexp.MustCompile(`[0-9a-fA-F]{16}`)

// CompileDeletionList extracts every 16 character hex token from free-form
// text, left to right and non-overlapping. A longer hex run is consumed in
// 16 character steps, so "00d4a4a176a109801" yields 00d4a4a176a10980 and
// the trailing "1" is dropped. It never fails; text without tokens gives an
// empty list.
func CompileDeletionList(text string) []rid.ID {
	ids := []rid.ID{}
	for _, tok := range hexToken.FindAllString(text, -1) {
		if id, err := rid.Parse(tok); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
