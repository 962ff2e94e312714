package ledger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"phototriage/internal/apperror"
	"phototriage/internal/logger"
	"phototriage/internal/model"
	"phototriage/internal/repository/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "photos.db"), logger.Discard())
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(sqlite.NewPhotoRepository(db), logger.Discard())
}

func TestAddPhoto_ThenGetAllPhotos(t *testing.T) {
	s := newTestService(t)

	const name = "photo_no_face_2024_03_05__14_07_09.jpg"
	photo, err := s.AddPhoto(name)
	if err != nil {
		t.Fatalf("AddPhoto failed: %v", err)
	}
	if photo.ID <= 0 {
		t.Errorf("Expected assigned id, got %d", photo.ID)
	}

	paths, err := s.GetAllPhotos()
	if err != nil {
		t.Fatalf("GetAllPhotos failed: %v", err)
	}
	if len(paths) != 1 || paths[0] != name {
		t.Errorf("Expected [%s], got %v", name, paths)
	}
}

func TestAddPhoto_WallClockTimestamp(t *testing.T) {
	s := newTestService(t)
	s.now = func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local) }

	if _, err := s.AddPhoto("a.jpg"); err != nil {
		t.Fatalf("AddPhoto failed: %v", err)
	}

	photos, err := s.Photos()
	if err != nil {
		t.Fatalf("Photos failed: %v", err)
	}
	if len(photos) != 1 {
		t.Fatalf("Expected 1 photo, got %d", len(photos))
	}
	if photos[0].Timestamp != "2024-03-05 14:07:09" {
		t.Errorf("Unexpected timestamp %q", photos[0].Timestamp)
	}
	if photos[0].Uploaded {
		t.Error("uploaded should be false")
	}
}

func TestGetAllPhotos_InsertionOrder(t *testing.T) {
	s := newTestService(t)

	want := []string{"c.jpg", "a.jpg", "b.jpg"}
	for _, p := range want {
		if _, err := s.AddPhoto(p); err != nil {
			t.Fatalf("AddPhoto %s failed: %v", p, err)
		}
	}

	got, err := s.GetAllPhotos()
	if err != nil {
		t.Fatalf("GetAllPhotos failed: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Index %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

type failingRepo struct{}

func (failingRepo) Insert(*model.Photo) (int64, error) { return 0, errors.New("disk I/O error") }
func (failingRepo) GetAll() ([]model.Photo, error) { return nil, errors.New("disk I/O error") }
func (failingRepo) GetAllPaths() ([]string, error) { return nil, errors.New("disk I/O error") }
func (failingRepo) Count() (int, error) { return 0, errors.New("disk I/O error") }
func (failingRepo) ExistsByPath(string) (bool, error) { return false, errors.New("disk I/O error") }

func TestAddPhoto_PersistenceFailure(t *testing.T) {
	s := NewService(failingRepo{}, logger.Discard())

	photo, err := s.AddPhoto("a.jpg")
	if photo != nil {
		t.Error("Expected nil photo on failure")
	}
	if !apperror.IsType(err, apperror.TypePersistenceFailure) {
		t.Errorf("Expected persistence failure, got %v", err)
	}

	if _, err := s.GetAllPhotos(); !apperror.IsType(err, apperror.TypePersistenceFailure) {
		t.Errorf("Expected persistence failure from GetAllPhotos, got %v", err)
	}
}

func TestReconcile(t *testing.T) {
	s := newTestService(t)
	dir := t.TempDir()

	for _, name := range []string{"kept.jpg", "orphan.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	for _, p := range []string{"kept.jpg", "gone.jpg"} {
		if _, err := s.AddPhoto(p); err != nil {
			t.Fatalf("AddPhoto failed: %v", err)
		}
	}

	report, err := s.Reconcile(dir)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if report.Consistent() {
		t.Error("Expected inconsistencies")
	}
	if report.Files != 2 || report.Rows != 2 {
		t.Errorf("Expected 2 files and 2 rows, got %d and %d", report.Files, report.Rows)
	}
	if len(report.FilesWithoutRows) != 1 || report.FilesWithoutRows[0] != "orphan.jpg" {
		t.Errorf("Unexpected files without rows: %v", report.FilesWithoutRows)
	}
	if len(report.RowsWithoutFiles) != 1 || report.RowsWithoutFiles[0] != "gone.jpg" {
		t.Errorf("Unexpected rows without files: %v", report.RowsWithoutFiles)
	}
}

func TestReconcile_MissingDirectory(t *testing.T) {
	s := newTestService(t)

	report, err := s.Reconcile(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !report.Consistent() {
		t.Errorf("Expected empty report, got %+v", report)
	}
}

// blindRepo stores rows but cannot answer existence checks.
type blindRepo struct {
	failingRepo
	inserted int
}

func (r *blindRepo) Insert(*model.Photo) (int64, error) {
	r.inserted++
	return int64(r.inserted), nil
}

func TestAddPhoto_ExistenceCheckFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	repo := &blindRepo{}
	s := NewService(repo, logger.New(&buf))

	photo, err := s.AddPhoto("a.jpg")
	if err != nil {
		t.Fatalf("AddPhoto failed: %v", err)
	}
	if photo.ID != 1 || repo.inserted != 1 {
		t.Errorf("Expected the row to be recorded anyway, got id %d", photo.ID)
	}
	if out := buf.String(); !strings.Contains(out, "WARNING") || !strings.Contains(out, "disk I/O error") {
		t.Errorf("Expected a warning with the cause, got:\n%s", out)
	}
}

func TestReconcile_PartialWritesListedSeparately(t *testing.T) {
	s := newTestService(t)
	dir := t.TempDir()

	for _, name := range []string{"kept.jpg", ".writing-123456.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if _, err := s.AddPhoto("kept.jpg"); err != nil {
		t.Fatalf("AddPhoto failed: %v", err)
	}

	report, err := s.Reconcile(dir)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !report.Consistent() {
		t.Errorf("Expected temp file not to count as an orphan, got %+v", report)
	}
	if report.Files != 1 {
		t.Errorf("Expected 1 file, got %d", report.Files)
	}
	if len(report.PartialWrites) != 1 || report.PartialWrites[0] != ".writing-123456.jpg" {
		t.Errorf("Unexpected partial writes: %v", report.PartialWrites)
	}
}
