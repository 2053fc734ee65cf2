package dataset

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

var testHeader = []string{"DateTime", "stationId", "value"}

func TestSaveCSVCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	rows := [][]string{
		{"2025-02-21T10:59:59", "S107", "28.1"},
		{"2025-02-21T11:59:59", "S107", "28.4"},
	}
	if err := SaveCSV(path, testHeader, rows, []int{0, 1}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := readCSV(path, testHeader)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	// Sorted latest first.
	if got[0][0] != "2025-02-21T11:59:59" {
		t.Errorf("expected newest row first, got %v", got[0])
	}
}

func TestSaveCSVIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	rows := [][]string{
		{"2025-02-21T10:59:59", "S107", "28.1"},
		{"2025-02-21T11:59:59", "S107", "28.4"},
	}

	if err := SaveCSV(path, testHeader, rows, []int{0, 1}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := SaveCSV(path, testHeader, rows, []int{0, 1}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Error("saving the same batch twice must leave the file unchanged")
	}
}

func TestSaveCSVKeepsFirstOccurrence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	if err := SaveCSV(path, testHeader, [][]string{
		{"2025-02-21T10:59:59", "S107", "28.1"},
	}, []int{0, 1}); err != nil {
		t.Fatal(err)
	}

	// Re-fetch produced a different value for the same key; the existing
	// row wins.
	if err := SaveCSV(path, testHeader, [][]string{
		{"2025-02-21T10:59:59", "S107", "99.9"},
		{"2025-02-21T09:59:59", "S107", "27.6"},
	}, []int{0, 1}); err != nil {
		t.Fatal(err)
	}

	got, err := readCSV(path, testHeader)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"2025-02-21T10:59:59", "S107", "28.1"},
		{"2025-02-21T09:59:59", "S107", "27.6"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSaveCSVRejectsHeaderMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := SaveCSV(path, testHeader, nil, []int{0})
	if err == nil {
		t.Fatal("expected error for mismatched header")
	}
}
