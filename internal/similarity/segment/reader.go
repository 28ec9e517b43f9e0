// Package segment persists descriptor tables as .sdsc snapshot files: a
// fixed header, one JSON blob per descriptor, a sorted JSON dictionary and
// a footer carrying the dictionary checksum.
package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/descriptor"
	apperrors "github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/errors"
)

type Reader struct {
	file     *os.File
	filePath string
	header   SnapshotHeader
	dict     []DictEntry
	descBase int64
}

func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading snapshot header: %w", err)
	}
	magic := binary.LittleEndian.Uint32(headerBytes[0:4])
	if magic != MagicBytes {
		f.Close()
		return nil, fmt.Errorf("%w: bad magic bytes %x", apperrors.ErrSnapshotCorrupt, magic)
	}
	header := SnapshotHeader{
		Magic:      magic,
		Version:    binary.LittleEndian.Uint32(headerBytes[4:8]),
		WordCount:  binary.LittleEndian.Uint32(headerBytes[8:12]),
		EmptyCount: binary.LittleEndian.Uint32(headerBytes[12:16]),
		PairCount:  binary.LittleEndian.Uint64(headerBytes[16:24]),
		CreatedAt:  int64(binary.LittleEndian.Uint64(headerBytes[24:32])),
		DictOffset: int64(binary.LittleEndian.Uint64(headerBytes[32:40])),
		DictSize:   int64(binary.LittleEndian.Uint64(headerBytes[40:48])),
		DescOffset: int64(binary.LittleEndian.Uint64(headerBytes[48:56])),
		DescSize:   int64(binary.LittleEndian.Uint64(headerBytes[56:64])),
	}
	if header.Version != FormatVersion {
		f.Close()
		return nil, fmt.Errorf("%w: unsupported version %d", apperrors.ErrSnapshotCorrupt, header.Version)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat snapshot file: %w", err)
	}
	if err := checkLayout(header, info.Size()); err != nil {
		f.Close()
		return nil, err
	}

	dictBytes := make([]byte, header.DictSize)
	if _, err := f.ReadAt(dictBytes, header.DictOffset); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	footer := make([]byte, FooterSize)
	if _, err := f.ReadAt(footer, header.DictOffset+header.DictSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading footer: %w", err)
	}
	if sum := binary.LittleEndian.Uint32(footer[0:4]); sum != crc32.ChecksumIEEE(dictBytes) {
		f.Close()
		return nil, fmt.Errorf("%w: dictionary checksum mismatch", apperrors.ErrSnapshotCorrupt)
	}
	var dict []DictEntry
	if err := json.Unmarshal(dictBytes, &dict); err != nil {
		f.Close()
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}
	if !sortedDict(dict) {
		f.Close()
		return nil, fmt.Errorf("%w: dictionary not sorted", apperrors.ErrSnapshotCorrupt)
	}
	return &Reader{
		file:     f,
		filePath: path,
		header:   header,
		dict:     dict,
		descBase: header.DescOffset,
	}, nil
}

// Lookup reads the descriptor of a single word without loading the rest.
func (r *Reader) Lookup(word string) (descriptor.Descriptor, bool, error) {
	idx := sort.Search(len(r.dict), func(i int) bool {
		return r.dict[i].Word >= word
	})
	if idx >= len(r.dict) || r.dict[idx].Word != word {
		return nil, false, nil
	}
	d, err := r.readDescriptor(r.dict[idx])
	if err != nil {
		return nil, false, err
	}
	return d, true, nil
}

// Load reads the whole snapshot into a Table.
func (r *Reader) Load() (descriptor.Table, error) {
	table := make(descriptor.Table, len(r.dict))
	for _, entry := range r.dict {
		d, err := r.readDescriptor(entry)
		if err != nil {
			return nil, err
		}
		table[entry.Word] = d
	}
	return table, nil
}

// checkLayout rejects headers whose sections fall outside the file, before
// any of their sizes are used for allocation.
func checkLayout(h SnapshotHeader, fileSize int64) error {
	switch {
	case h.DescOffset != int64(HeaderSize):
		return fmt.Errorf("%w: descriptor section at %d", apperrors.ErrSnapshotCorrupt, h.DescOffset)
	case h.DescSize < 0 || h.DescSize > fileSize:
		return fmt.Errorf("%w: descriptor section size %d", apperrors.ErrSnapshotCorrupt, h.DescSize)
	case h.DictOffset != h.DescOffset+h.DescSize:
		return fmt.Errorf("%w: dictionary at %d", apperrors.ErrSnapshotCorrupt, h.DictOffset)
	case h.DictSize < 0 || h.DictSize > fileSize:
		return fmt.Errorf("%w: dictionary size %d", apperrors.ErrSnapshotCorrupt, h.DictSize)
	case h.DictOffset+h.DictSize+int64(FooterSize) > fileSize:
		return fmt.Errorf("%w: sections exceed file size %d", apperrors.ErrSnapshotCorrupt, fileSize)
	}
	return nil
}

func (r *Reader) readDescriptor(entry DictEntry) (descriptor.Descriptor, error) {
	if entry.DescOffset < 0 || entry.DescOffset > r.header.DescSize ||
		entry.DescLen < 0 || int64(entry.DescLen) > r.header.DescSize-entry.DescOffset ||
		entry.Partners < 0 || entry.Partners > entry.DescLen {
		return nil, fmt.Errorf("%w: descriptor for %q out of bounds", apperrors.ErrSnapshotCorrupt, entry.Word)
	}
	data := make([]byte, entry.DescLen)
	if _, err := r.file.ReadAt(data, r.descBase+entry.DescOffset); err != nil {
		return nil, fmt.Errorf("reading descriptor for %q: %w", entry.Word, err)
	}
	d := make(descriptor.Descriptor, entry.Partners)
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing descriptor for %q: %w", entry.Word, err)
	}
	return d, nil
}

func (r *Reader) Words() int {
	return len(r.dict)
}

func (r *Reader) Pairs() uint64 {
	return r.header.PairCount
}

func (r *Reader) CreatedAt() time.Time {
	return time.Unix(r.header.CreatedAt, 0)
}

func (r *Reader) Path() string {
	return r.filePath
}

func (r *Reader) Close() error {
	return r.file.Close()
}
