package segment

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"hash/crc32"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/descriptor"
	"github.com/Adithya-Monish-Kumar-K/semantic-similarity/internal/similarity/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/errors"
)

func writeSnapshot(t *testing.T, text string) (string, descriptor.Table) {
	t.Helper()
	table := descriptor.Build(tokenizer.TokenizeAll([]string{text}))
	path := filepath.Join(t.TempDir(), "nested", "corpus"+FileExt)
	if err := NewWriter().Write(path, table); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return path, table
}

func TestWriteAndLoad(t *testing.T) {
	path, table := writeSnapshot(t, "Good is for bad. Good is great. Alone. Good is definitely great.")

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file should be renamed away, stat err = %v", err)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	if r.Words() != len(table) {
		t.Errorf("Words() = %d, want %d", r.Words(), len(table))
	}
	if r.Pairs() != uint64(table.Stats().Pairs) {
		t.Errorf("Pairs() = %d, want %d", r.Pairs(), table.Stats().Pairs)
	}

	loaded, err := r.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded, table) {
		t.Errorf("loaded table differs:\n got %v\nwant %v", loaded, table)
	}
}

func TestLookup(t *testing.T) {
	path, table := writeSnapshot(t, "Good is for bad. Good is great.")
	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	d, ok, err := r.Lookup("good")
	if err != nil || !ok {
		t.Fatalf("Lookup(good) = %v, %v", ok, err)
	}
	if !reflect.DeepEqual(d, table["good"]) {
		t.Errorf("Lookup(good) = %v, want %v", d, table["good"])
	}
	if _, ok, err := r.Lookup("nice"); ok || err != nil {
		t.Errorf("Lookup(nice) = %v, %v; want miss", ok, err)
	}
}

func TestWriteEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty"+FileExt)
	if err := NewWriter().Write(path, descriptor.Table{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	if r.Words() != 0 || r.Pairs() != 0 {
		t.Errorf("Words() = %d, Pairs() = %d; want 0, 0", r.Words(), r.Pairs())
	}
	loaded, err := r.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("loaded %d words from empty snapshot", len(loaded))
	}
	if _, ok, err := r.Lookup("good"); ok || err != nil {
		t.Errorf("Lookup(good) = %v, %v; want miss", ok, err)
	}
}

func TestWriteFailureRemovesTempFile(t *testing.T) {
	dir := t.TempDir()
	// A directory in the way makes the final rename fail.
	path := filepath.Join(dir, "taken"+FileExt)
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, "keep"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	if err := NewWriter().Write(path, descriptor.Table{"good": {"great": 1}}); err == nil {
		t.Fatal("expected rename over a directory to fail")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind, stat err = %v", err)
	}
}

func TestOpenReaderRejectsCorruption(t *testing.T) {
	path, _ := writeSnapshot(t, "Good is great.")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	badMagic := append([]byte(nil), data...)
	badMagic[0] ^= 0xff
	badPath := filepath.Join(t.TempDir(), "bad-magic"+FileExt)
	if err := os.WriteFile(badPath, badMagic, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenReader(badPath); !errors.Is(err, apperrors.ErrSnapshotCorrupt) {
		t.Errorf("bad magic: expected ErrSnapshotCorrupt, got %v", err)
	}

	badDict := append([]byte(nil), data...)
	// The dictionary sits right before the 32-byte footer.
	badDict[len(badDict)-FooterSize-2] ^= 0x01
	badPath = filepath.Join(t.TempDir(), "bad-dict"+FileExt)
	if err := os.WriteFile(badPath, badDict, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenReader(badPath); !errors.Is(err, apperrors.ErrSnapshotCorrupt) {
		t.Errorf("bad checksum: expected ErrSnapshotCorrupt, got %v", err)
	}

	for _, tc := range []struct {
		name  string
		field int
	}{
		{"dict offset", 32},
		{"dict size", 40},
		{"desc offset", 48},
		{"desc size", 56},
	} {
		bad := append([]byte(nil), data...)
		binary.LittleEndian.PutUint64(bad[tc.field:tc.field+8], math.MaxUint64)
		badPath = filepath.Join(t.TempDir(), "bad-header"+FileExt)
		if err := os.WriteFile(badPath, bad, 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := OpenReader(badPath); !errors.Is(err, apperrors.ErrSnapshotCorrupt) {
			t.Errorf("%s: expected ErrSnapshotCorrupt, got %v", tc.name, err)
		}
	}

	truncated := filepath.Join(t.TempDir(), "truncated"+FileExt)
	if err := os.WriteFile(truncated, data[:len(data)-FooterSize/2], 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenReader(truncated); !errors.Is(err, apperrors.ErrSnapshotCorrupt) {
		t.Errorf("truncated: expected ErrSnapshotCorrupt, got %v", err)
	}
}

func TestLoadRejectsOutOfBoundsEntry(t *testing.T) {
	path, _ := writeSnapshot(t, "Good is great.")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	dictOffset := int64(binary.LittleEndian.Uint64(data[32:40]))
	dictSize := int64(binary.LittleEndian.Uint64(data[40:48]))

	var dict []DictEntry
	if err := json.Unmarshal(data[dictOffset:dictOffset+dictSize], &dict); err != nil {
		t.Fatal(err)
	}
	dict[0].DescLen = 1 << 40
	dictData, err := json.Marshal(dict)
	if err != nil {
		t.Fatal(err)
	}

	// Rebuild the file around the tampered dictionary with a valid checksum.
	out := append([]byte(nil), data[:dictOffset]...)
	out = append(out, dictData...)
	footer := append([]byte(nil), data[dictOffset+dictSize:]...)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(dictData))
	out = append(out, footer...)
	binary.LittleEndian.PutUint64(out[40:48], uint64(len(dictData)))

	badPath := filepath.Join(t.TempDir(), "bad-entry"+FileExt)
	if err := os.WriteFile(badPath, out, 0644); err != nil {
		t.Fatal(err)
	}
	r, err := OpenReader(badPath)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	if _, err := r.Load(); !errors.Is(err, apperrors.ErrSnapshotCorrupt) {
		t.Errorf("Load: expected ErrSnapshotCorrupt, got %v", err)
	}
	if _, _, err := r.Lookup(dict[0].Word); !errors.Is(err, apperrors.ErrSnapshotCorrupt) {
		t.Errorf("Lookup: expected ErrSnapshotCorrupt, got %v", err)
	}
}
