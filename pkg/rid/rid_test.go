package rid

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    ID
		wantErr bool
	}{
		{"00d4a4a176a10980", 0x00d4a4a176a10980, false},
		{"00D4A4A176A10980", 0x00d4a4a176a10980, false},
		{"ffffffffffffffff", 0xffffffffffffffff, false},
		{"001481248949819", 0, true},
		{"00d4a4a176a109800", 0, true},
		{"00d4a4a176a1098g", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidID) {
					t.Fatalf("Parse(%q) error = %v, want ErrInvalidID", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %x, want %x", tt.in, uint64(got), uint64(tt.want))
			}
		})
	}
}

func TestString(t *testing.T) {
	if got := ID(0x1a).String(); got != "000000000000001a" {
		t.Errorf("String() = %q", got)
	}
}

func TestFromPath(t *testing.T) {
	id, err := FromPath("/tmp/import/00d4a4a176a10980.gltf")
	if err != nil {
		t.Fatalf("FromPath: %v", err)
	}
	if id != 0x00d4a4a176a10980 {
		t.Errorf("FromPath = %s", id)
	}

	if _, err := FromPath("/tmp/import/model.gltf"); err == nil {
		t.Error("expected error for non-id file name")
	}
}
