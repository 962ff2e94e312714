package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Report lists disagreements between the image directory and the ledger.
type Report struct {
	Files            int      `json:"files"`
	Rows             int      `json:"rows"`
	FilesWithoutRows []string `json:"files_without_rows"`
	RowsWithoutFiles []string `json:"rows_without_files"`
	// PartialWrites are hidden temp files an interrupted write left behind.
	// They are never ledger candidates and do not make the report inconsistent.
	PartialWrites    []string `json:"partial_writes"`
}

// Consistent reports whether every file has a row and every row a file.
func (r *Report) Consistent() bool {
	return len(r.FilesWithoutRows) == 0 && len(r.RowsWithoutFiles) == 0
}

// Reconcile compares the .jpg files in imageDir with the ledger rows. It only
// reports; nothing is repaired.
func (s *Service) Reconcile(imageDir string) (*Report, error) {
	entries, err := os.ReadDir(imageDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	files := make(map[string]bool)
	var partial []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".jpg") {
			continue
		}
		if strings.HasPrefix(entry.Name(), ".") {
			partial = append(partial, entry.Name())
			continue
		}
		files[entry.Name()] = true
	}

	paths, err := s.GetAllPhotos()
	if err != nil {
		return nil, err
	}

	report := &Report{Files: len(files), Rows: len(paths), PartialWrites: partial}
	rows := make(map[string]bool, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		rows[name] = true
		if !files[name] {
			report.RowsWithoutFiles = append(report.RowsWithoutFiles, p)
		}
	}
	for name := range files {
		if !rows[name] {
			report.FilesWithoutRows = append(report.FilesWithoutRows, name)
		}
	}
	sort.Strings(report.FilesWithoutRows)

	if len(partial) > 0 {
		s.logger.Warning("Ledger reconcile: %d leftover partial write(s) in %s", len(partial), imageDir)
	}
	if !report.Consistent() {
		s.logger.Warning("Ledger reconcile: %d file(s) without row, %d row(s) without file",
			len(report.FilesWithoutRows), len(report.RowsWithoutFiles))
	}

	return report, nil
}
