// Package rpkg reads and writes RPKG resource package archives.
//
// An archive holds zlib-compressed resource records keyed by runtime id,
// each tagged with a four character type and the list of resources it
// references, plus a deletion list of ids the package retires.
package rpkg

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/primio/pkg/rid"
)

const (
	rpkgMagic   = "GKPR"
	rpkgVersion = 1
	headerSize  = 32
)

// RPKG format errors.
var (
	ErrInvalidMagic       = errors.New("invalid RPKG magic")
	ErrUnsupportedVersion = errors.New("unsupported RPKG version")
	ErrInvalidType        = errors.New("resource type must be 4 characters")
	ErrNotFound           = errors.New("resource not found in archive")
	ErrCorrupt            = errors.New("corrupt RPKG archive")
)

// Header is the fixed archive header.
type Header struct {
	Magic         [4]byte
	Version       uint32
	FileCount     uint32
	DeletionCount uint32
	TableOffset   uint64
	TableSize     uint32 // compressed
	TableRawSize  uint32
}

// Reference is an outgoing dependency edge of a resource.
type Reference struct {
	ID   rid.ID
	Type string
}

// Record is a resource queued for writing.
type Record struct {
	ID         rid.ID
	Type       string
	Data       []byte
	References []Reference
}

// Archive is an in-memory patch archive being assembled for writing.
type Archive struct {
	records   []*Record
	index     map[rid.ID]int
	deletions []rid.ID
}

// New creates an empty archive.
func New() *Archive {
	return &Archive{index: make(map[rid.ID]int)}
}

// InsertFile adds a resource record. Inserting an id twice replaces the
// earlier record in place.
func (a *Archive) InsertFile(id rid.ID, typ string, data []byte, refs []Reference) error {
	if len(typ) != 4 {
		return fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
	for _, ref := range refs {
		if len(ref.Type) != 4 {
			return fmt.Errorf("%w: reference %s has type %q", ErrInvalidType, ref.ID, ref.Type)
		}
	}

	rec := &Record{ID: id, Type: typ, Data: data, References: append([]Reference(nil), refs...)}
	if i, ok := a.index[id]; ok {
		a.records[i] = rec
		return nil
	}
	a.index[id] = len(a.records)
	a.records = append(a.records, rec)
	return nil
}

// AddDeletions appends ids to the deletion list. Duplicates are kept.
func (a *Archive) AddDeletions(ids ...rid.ID) {
	a.deletions = append(a.deletions, ids...)
}

// Records returns the queued records in insertion order.
func (a *Archive) Records() []*Record {
	return a.records
}

// Deletions returns the deletion list.
func (a *Archive) Deletions() []rid.ID {
	return a.deletions
}

// Write writes the archive to path, creating or truncating the file.
// A failed write may leave a partial file behind.
func (a *Archive) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	if _, err := a.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing archive %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing archive %s: %w", path, err)
	}
	return nil
}

// WriteTo serializes the archive to w.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	blobs := make([][]byte, len(a.records))
	offset := uint64(headerSize)
	var table bytes.Buffer

	for _, id := range a.deletions {
		binary.Write(&table, binary.LittleEndian, uint64(id))
	}
	for i, rec := range a.records {
		blob, err := compress(rec.Data)
		if err != nil {
			return 0, fmt.Errorf("compressing %s: %w", rec.ID, err)
		}
		blobs[i] = blob

		writeEntry(&table, rec, offset, uint32(len(blob)))
		offset += uint64(len(blob))
	}

	compressedTable, err := compress(table.Bytes())
	if err != nil {
		return 0, fmt.Errorf("compressing file table: %w", err)
	}

	header := Header{
		Version:       rpkgVersion,
		FileCount:     uint32(len(a.records)),
		DeletionCount: uint32(len(a.deletions)),
		TableOffset:   offset,
		TableSize:     uint32(len(compressedTable)),
		TableRawSize:  uint32(table.Len()),
	}
	copy(header.Magic[:], rpkgMagic)

	cw := &countingWriter{w: w}
	if err := binary.Write(cw, binary.LittleEndian, header); err != nil {
		return cw.n, err
	}
	for _, blob := range blobs {
		if _, err := cw.Write(blob); err != nil {
			return cw.n, err
		}
	}
	_, err = cw.Write(compressedTable)
	return cw.n, err
}

func writeEntry(w *bytes.Buffer, rec *Record, offset uint64, compressedSize uint32) {
	binary.Write(w, binary.LittleEndian, uint64(rec.ID))
	w.WriteString(rec.Type)
	binary.Write(w, binary.LittleEndian, offset)
	binary.Write(w, binary.LittleEndian, compressedSize)
	binary.Write(w, binary.LittleEndian, uint32(len(rec.Data)))
	binary.Write(w, binary.LittleEndian, uint32(len(rec.References)))
	for _, ref := range rec.References {
		binary.Write(w, binary.LittleEndian, uint64(ref.ID))
		w.WriteString(ref.Type)
	}
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
