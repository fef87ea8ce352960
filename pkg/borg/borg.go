// Package borg provides the skeleton (BORG) resource model and encoding.
package borg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/primio/pkg/encoding"
)

// ResourceType is the four character type tag of skeleton resources.
const ResourceType = "BORG"

// BORG format errors.
var (
	ErrInvalidMagic = errors.New("invalid BORG magic: expected 'BORG'")
	ErrTruncated    = errors.New("truncated BORG data")
	ErrInvalidCount = errors.New("invalid BORG bone count")
)

const (
	magic         = "BORG"
	nameFieldSize = 34
	maxBones      = 1024
)

// Bone is a single skeleton joint.
type Bone struct {
	Name   string
	Parent int32 // -1 for roots
}

// Skeleton is a parsed BORG resource.
type Skeleton struct {
	Bones []Bone
}

// BoneIndexMap returns bone name to bone index.
// For duplicate names the first bone wins.
func (s *Skeleton) BoneIndexMap() map[string]int {
	m := make(map[string]int, len(s.Bones))
	for i, b := range s.Bones {
		if _, ok := m[b.Name]; !ok {
			m[b.Name] = i
		}
	}
	return m
}

// Encode serializes the skeleton.
func (s *Skeleton) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(magic)
	binary.Write(&buf, binary.LittleEndian, uint32(len(s.Bones)))

	for _, b := range s.Bones {
		name, err := encoding.NameToFixed(b.Name, nameFieldSize)
		if err != nil {
			return nil, fmt.Errorf("bone %q: %w", b.Name, err)
		}
		buf.Write(name)
		binary.Write(&buf, binary.LittleEndian, b.Parent)
	}
	return buf.Bytes(), nil
}

// Parse parses BORG data.
func Parse(data []byte) (*Skeleton, error) {
	if len(data) < 8 {
		return nil, ErrTruncated
	}
	if string(data[:4]) != magic {
		return nil, ErrInvalidMagic
	}

	count := binary.LittleEndian.Uint32(data[4:])
	if count > maxBones {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}

	r := bytes.NewReader(data[8:])
	skel := &Skeleton{Bones: make([]Bone, count)}
	name := make([]byte, nameFieldSize)
	for i := range skel.Bones {
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, ErrTruncated
		}
		skel.Bones[i].Name = encoding.FixedToName(name)
		if err := binary.Read(r, binary.LittleEndian, &skel.Bones[i].Parent); err != nil {
			return nil, ErrTruncated
		}
	}
	return skel, nil
}
