package repository

import "phototriage/internal/model"

// PhotoRepository defines the interface for ledger row operations.
type PhotoRepository interface {
	// Create operations
	Insert(p *model.Photo) (int64, error)

	// Read operations
	GetAll() ([]model.Photo, error)
	GetAllPaths() ([]string, error)
	Count() (int, error)
	ExistsByPath(path string) (bool, error)
}
