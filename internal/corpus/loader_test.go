package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/semantic-similarity/pkg/errors"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestReadSourcesInOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", []byte("Swann's way."))
	b := writeFile(t, dir, "b.txt", []byte("War and peace."))

	sources, err := ReadSources([]string{b, a})
	if err != nil {
		t.Fatalf("ReadSources: %v", err)
	}
	if !reflect.DeepEqual(Paths(sources), []string{b, a}) {
		t.Errorf("paths out of order: %v", Paths(sources))
	}
	if !reflect.DeepEqual(Texts(sources), []string{"War and peace.", "Swann's way."}) {
		t.Errorf("texts = %q", Texts(sources))
	}
}

func TestReadSourcesErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadSources(nil); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for no files, got %v", err)
	}
	if _, err := ReadSources([]string{filepath.Join(dir, "missing.txt")}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	bad := writeFile(t, dir, "bad.txt", []byte{0xff, 0xfe, 'a'})
	if _, err := ReadSources([]string{bad}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad UTF-8, got %v", err)
	}
}

func TestReadTestSet(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "test.txt", []byte("draw pull pull pour sell\nmerit deserve deserve need want\n"))
	cases, err := ReadTestSet(path)
	if err != nil {
		t.Fatalf("ReadTestSet: %v", err)
	}
	if len(cases) != 2 || cases[1].Target != "merit" || cases[1].Answer != "deserve" {
		t.Errorf("unexpected cases %+v", cases)
	}

	bad := writeFile(t, dir, "bad.txt", []byte("draw pull\n"))
	if _, err := ReadTestSet(bad); !errors.Is(err, apperrors.ErrMalformedTestCase) {
		t.Errorf("expected ErrMalformedTestCase, got %v", err)
	}
}
