package reimport

import (
	"reflect"
	"testing"

	"github.com/Faultbox/primio/pkg/rid"
)

func TestCompileDeletionList(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []rid.ID
	}{
		{"empty", "", []rid.ID{}},
		{"no tokens", "nothing to delete here", []rid.ID{}},
		{"short token ignored", "001481248949819, 00d4a4a176a10980", []rid.ID{0x00d4a4a176a10980}},
		{"single", "00d4a4a176a10980", []rid.ID{0x00d4a4a176a10980}},
		{"uppercase", "00D4A4A176A10980", []rid.ID{0x00d4a4a176a10980}},
		{"long run takes first sixteen", "00d4a4a176a109801", []rid.ID{0x00d4a4a176a10980}},
		{
			"concatenated ids",
			"00d4a4a176a109800011223344556677",
			[]rid.ID{0x00d4a4a176a10980, 0x0011223344556677},
		},
		{"hex prefix", "0x00d4a4a176a10980a", []rid.ID{0x00d4a4a176a10980}},
		{"trailing hex after label", "id:00d4a4a176a10980f", []rid.ID{0x00d4a4a176a10980}},
		{
			"mixed separators in order",
			"00000000000000ff\n00000000000000aa;a00000000000000bb",
			[]rid.ID{0xff, 0xaa, 0xa00000000000000b},
		},
		{"duplicates kept", "0000000000000001 0000000000000001", []rid.ID{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompileDeletionList(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CompileDeletionList(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
