package rpkg

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/Faultbox/primio/pkg/rid"
)

const (
	// maxInflation bounds the deflate expansion ratio of any stored blob.
	maxInflation = 1032
	// entrySize is a table entry without its references.
	entrySize     = 28
	deletionSize  = 8
	referenceSize = 12
)

// Entry describes a resource stored in an opened archive.
type Entry struct {
	ID             rid.ID
	Type           string
	Offset         uint64
	CompressedSize uint32
	Size           uint32
	References     []Reference
}

// Reader is an opened RPKG archive.
type Reader struct {
	file      *os.File
	name      string
	size      uint64
	header    Header
	entries   map[rid.ID]*Entry
	deletions []rid.ID
}

// Open opens an RPKG archive for reading.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("opening file: %w", err)
	}

	r := &Reader{
		file:    file,
		name:    filepath.Base(path),
		size:    uint64(info.Size()),
		entries: make(map[rid.ID]*Entry),
	}

	if err := r.readHeader(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := r.readFileTable(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading file table: %w", err)
	}
	return r, nil
}

// Close closes the archive.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Name returns the archive's file name.
func (r *Reader) Name() string {
	return r.name
}

func (r *Reader) readHeader() error {
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if err := binary.Read(r.file, binary.LittleEndian, &r.header); err != nil {
		return err
	}
	if string(r.header.Magic[:]) != rpkgMagic {
		return ErrInvalidMagic
	}
	if r.header.Version != rpkgVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, r.header.Version)
	}
	return nil
}

// checkTable rejects header sizes the file cannot back, before anything is
// allocated from them.
func (r *Reader) checkTable() error {
	h := r.header
	if h.TableOffset < headerSize || h.TableOffset+uint64(h.TableSize) > r.size {
		return fmt.Errorf("%w: table at %d+%d exceeds file size %d", ErrCorrupt, h.TableOffset, h.TableSize, r.size)
	}
	if uint64(h.TableRawSize) > uint64(h.TableSize)*maxInflation {
		return fmt.Errorf("%w: table inflates from %d to %d bytes", ErrCorrupt, h.TableSize, h.TableRawSize)
	}
	if need := uint64(h.DeletionCount)*deletionSize + uint64(h.FileCount)*entrySize; need > uint64(h.TableRawSize) {
		return fmt.Errorf("%w: %d deletions and %d entries need %d table bytes, have %d",
			ErrCorrupt, h.DeletionCount, h.FileCount, need, h.TableRawSize)
	}
	return nil
}

func (r *Reader) readFileTable() error {
	if err := r.checkTable(); err != nil {
		return err
	}

	compressed := make([]byte, r.header.TableSize)
	if _, err := r.file.ReadAt(compressed, int64(r.header.TableOffset)); err != nil {
		return err
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return err
	}
	defer zr.Close()

	table := make([]byte, r.header.TableRawSize)
	if _, err := io.ReadFull(zr, table); err != nil {
		return err
	}

	tr := bytes.NewReader(table)
	r.deletions = make([]rid.ID, r.header.DeletionCount)
	for i := range r.deletions {
		var id uint64
		if err := binary.Read(tr, binary.LittleEndian, &id); err != nil {
			return fmt.Errorf("deletion %d: %w", i, err)
		}
		r.deletions[i] = rid.ID(id)
	}

	for i := uint32(0); i < r.header.FileCount; i++ {
		entry, err := readEntry(tr)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		r.entries[entry.ID] = entry
	}
	return nil
}

func readEntry(tr *bytes.Reader) (*Entry, error) {
	var raw struct {
		ID             uint64
		Type           [4]byte
		Offset         uint64
		CompressedSize uint32
		Size           uint32
		RefCount       uint32
	}
	if err := binary.Read(tr, binary.LittleEndian, &raw); err != nil {
		return nil, err
	}
	if int64(raw.RefCount)*referenceSize > int64(tr.Len()) {
		return nil, io.ErrUnexpectedEOF
	}

	entry := &Entry{
		ID:             rid.ID(raw.ID),
		Type:           string(raw.Type[:]),
		Offset:         raw.Offset,
		CompressedSize: raw.CompressedSize,
		Size:           raw.Size,
		References:     make([]Reference, raw.RefCount),
	}
	for j := range entry.References {
		var ref struct {
			ID   uint64
			Type [4]byte
		}
		if err := binary.Read(tr, binary.LittleEndian, &ref); err != nil {
			return nil, err
		}
		entry.References[j] = Reference{ID: rid.ID(ref.ID), Type: string(ref.Type[:])}
	}
	return entry, nil
}

// List returns all resource ids in the archive, sorted.
func (r *Reader) List() []rid.ID {
	result := make([]rid.ID, 0, len(r.entries))
	for id := range r.entries {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Contains checks if a resource exists in the archive.
func (r *Reader) Contains(id rid.ID) bool {
	_, ok := r.entries[id]
	return ok
}

// Entry returns the table entry for id.
func (r *Reader) Entry(id rid.ID) (*Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// Deletions returns the archive's deletion list.
func (r *Reader) Deletions() []rid.ID {
	return r.deletions
}

// Read reads and decompresses a resource.
func (r *Reader) Read(id rid.ID) ([]byte, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if entry.Offset+uint64(entry.CompressedSize) > r.size ||
		uint64(entry.Size) > uint64(entry.CompressedSize)*maxInflation {
		return nil, fmt.Errorf("%w: %s at %d+%d inflating to %d", ErrCorrupt, id, entry.Offset, entry.CompressedSize, entry.Size)
	}

	compressed := make([]byte, entry.CompressedSize)
	if _, err := r.file.ReadAt(compressed, int64(entry.Offset)); err != nil {
		return nil, fmt.Errorf("reading %s: %w", id, err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", id, err)
	}
	defer zr.Close()

	result := make([]byte, entry.Size)
	if _, err := io.ReadFull(zr, result); err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", id, err)
	}
	return result, nil
}
