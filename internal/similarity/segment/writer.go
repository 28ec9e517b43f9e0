package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/descriptor"
)

// MagicBytes identifies a valid .sdsc descriptor snapshot.
const (
	MagicBytes    uint32 = 0x53445343
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	FooterSize    int    = 32
	FileExt              = ".sdsc"
)

// SnapshotHeader is the 64-byte header written at the start of every
// snapshot.
type SnapshotHeader struct {
	Magic      uint32
	Version    uint32
	WordCount  uint32
	EmptyCount uint32
	PairCount  uint64
	CreatedAt  int64
	DictOffset int64
	DictSize   int64
	DescOffset int64
	DescSize   int64
}

// DictEntry maps a word to the offset and length of its encoded
// descriptor, relative to the start of the descriptor section.
type DictEntry struct {
	Word       string `json:"w"`
	DescOffset int64  `json:"o"`
	DescLen    int    `json:"l"`
	Partners   int    `json:"p"`
}

// Writer serialises descriptor tables into snapshot files.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// Write atomically creates the snapshot at path. It writes to a .tmp file
// first and renames on success; the .tmp file never outlives a failed
// write. An empty table yields a valid snapshot with an empty dictionary.
func (w *Writer) Write(path string, table descriptor.Table) (err error) {
	tmpPath := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp snapshot file: %w", err)
	}
	closed := false
	defer func() {
		if !closed {
			f.Close()
		}
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	stats := table.Stats()
	headerBytes := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(headerBytes[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(headerBytes[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(headerBytes[8:12], uint32(stats.Words))
	binary.LittleEndian.PutUint32(headerBytes[12:16], uint32(stats.EmptyDescriptors))
	binary.LittleEndian.PutUint64(headerBytes[16:24], uint64(stats.Pairs))
	binary.LittleEndian.PutUint64(headerBytes[24:32], uint64(time.Now().Unix()))
	if _, err := f.Write(headerBytes); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	descStart := int64(HeaderSize)
	offset := int64(0)
	words := table.Vocabulary()
	dict := make([]DictEntry, 0, len(words))
	for _, word := range words {
		d := table[word]
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshaling descriptor for %q: %w", word, err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("writing descriptor for %q: %w", word, err)
		}
		dict = append(dict, DictEntry{
			Word:       word,
			DescOffset: offset,
			DescLen:    len(data),
			Partners:   len(d),
		})
		offset += int64(len(data))
	}
	descSize := offset
	dictStart := descStart + descSize

	dictData, err := json.Marshal(dict)
	if err != nil {
		return fmt.Errorf("marshaling dictionary: %w", err)
	}
	if _, err := f.Write(dictData); err != nil {
		return fmt.Errorf("writing dictionary: %w", err)
	}
	dictSize := int64(len(dictData))

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(dictData))
	binary.LittleEndian.PutUint32(footer[4:8], uint32(len(dict)))
	binary.LittleEndian.PutUint64(footer[8:16], uint64(dictStart))
	binary.LittleEndian.PutUint64(footer[16:24], uint64(dictSize))
	binary.LittleEndian.PutUint64(footer[24:32], uint64(descSize))
	if _, err := f.Write(footer); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}

	binary.LittleEndian.PutUint64(headerBytes[32:40], uint64(dictStart))
	binary.LittleEndian.PutUint64(headerBytes[40:48], uint64(dictSize))
	binary.LittleEndian.PutUint64(headerBytes[48:56], uint64(descStart))
	binary.LittleEndian.PutUint64(headerBytes[56:64], uint64(descSize))
	if _, err := f.WriteAt(headerBytes, 0); err != nil {
		return fmt.Errorf("updating header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing snapshot file: %w", err)
	}
	closed = true
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing snapshot file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming snapshot file: %w", err)
	}
	return nil
}

func sortedDict(dict []DictEntry) bool {
	return sort.SliceIsSorted(dict, func(i, j int) bool {
		return dict[i].Word < dict[j].Word
	})
}
