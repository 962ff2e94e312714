package ledger

import (
	"time"

	"phototriage/internal/apperror"
	"phototriage/internal/logger"
	"phototriage/internal/model"
	"phototriage/internal/repository"
)

// Service records saved images and lists them back.
type Service struct {
	repo   repository.PhotoRepository
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a ledger service over repo.
func NewService(repo repository.PhotoRepository, logger *logger.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// AddPhoto inserts a row for filePath stamped with the current wall-clock
// time. The stamp is independent of when the image was captured.
func (s *Service) AddPhoto(filePath string) (*model.Photo, error) {
	photo := &model.Photo{
		FilePath:  filePath,
		Timestamp: s.now().Format(model.TimestampLayout),
		Uploaded:  false,
	}

	exists, err := s.repo.ExistsByPath(filePath)
	switch {
	case err != nil:
		s.logger.Warning("Could not check ledger for an existing row for %s: %v", filePath, err)
	case exists:
		s.logger.Warning("Ledger already has a row for %s, adding another", filePath)
	}

	id, err := s.repo.Insert(photo)
	if err != nil {
		return nil, apperror.NewPersistenceFailure("failed to record "+filePath, err)
	}
	photo.ID = id

	return photo, nil
}

// GetAllPhotos returns the file path of every row in insertion order.
func (s *Service) GetAllPhotos() ([]string, error) {
	paths, err := s.repo.GetAllPaths()
	if err != nil {
		return nil, apperror.NewPersistenceFailure("failed to list photos", err)
	}
	return paths, nil
}

// Photos returns every row in insertion order.
func (s *Service) Photos() ([]model.Photo, error) {
	photos, err := s.repo.GetAll()
	if err != nil {
		return nil, apperror.NewPersistenceFailure("failed to list photos", err)
	}
	return photos, nil
}

// Count returns the number of rows.
func (s *Service) Count() (int, error) {
	count, err := s.repo.Count()
	if err != nil {
		return 0, apperror.NewPersistenceFailure("failed to count photos", err)
	}
	return count, nil
}
