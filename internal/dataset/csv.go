package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// SaveCSV persists rows to path, merging with any existing file first.
// Existing rows are kept ahead of new ones, duplicates are dropped by the
// key columns keeping the first occurrence, and the full deduplicated set
// is rewritten sorted by the first column descending. Saving the same
// rows twice leaves the file unchanged.
func SaveCSV(path string, header []string, rows [][]string, keyCols []int) error {
	existing, err := readCSV(path, header)
	if err != nil {
		return err
	}

	combined := make([][]string, 0, len(existing)+len(rows))
	combined = append(combined, existing...)
	combined = append(combined, rows...)

	seen := make(map[string]struct{}, len(combined))
	deduped := combined[:0]
	for _, row := range combined {
		if len(row) != len(header) {
			return fmt.Errorf("row has %d columns, header has %d", len(row), len(header))
		}
		k := rowKey(row, keyCols)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		deduped = append(deduped, row)
	}

	// Latest first; full-row comparison as tie-break keeps output stable.
	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i][0] != deduped[j][0] {
			return deduped[i][0] > deduped[j][0]
		}
		return strings.Join(deduped[i], "\x1f") < strings.Join(deduped[j], "\x1f")
	})

	return writeCSV(path, header, deduped)
}

func rowKey(row []string, keyCols []int) string {
	if len(keyCols) == 0 {
		return strings.Join(row, "\x1f")
	}
	parts := make([]string, 0, len(keyCols))
	for _, c := range keyCols {
		parts = append(parts, row[c])
	}
	return strings.Join(parts, "\x1f")
}

func readCSV(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil
	}
	if len(all[0]) != len(header) {
		return nil, fmt.Errorf("%s: existing header %v does not match %v", path, all[0], header)
	}
	for i, col := range header {
		if all[0][i] != col {
			return nil, fmt.Errorf("%s: existing header %v does not match %v", path, all[0], header)
		}
	}
	return all[1:], nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
