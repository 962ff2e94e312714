package sqlite

import (
	"fmt"

	"phototriage/internal/model"
)

// PhotoRepository implements repository.PhotoRepository for SQLite.
type PhotoRepository struct {
	db *DB
}

// NewPhotoRepository creates a new SQLite photo repository.
func NewPhotoRepository(db *DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// Insert adds a new photo row and returns its id.
func (r *PhotoRepository) Insert(p *model.Photo) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	query, args, err := psql.Insert("photos").
		Columns("file_path", "timestamp", "uploaded").
		Values(p.FilePath, p.Timestamp, p.Uploaded).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert: %w", err)
	}

	result, err := r.db.Conn().Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert photo: %w", err)
	}

	return result.LastInsertId()
}

// GetAll returns every row in ascending id order.
func (r *PhotoRepository) GetAll() ([]model.Photo, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query, args, err := psql.Select("id", "file_path", "timestamp", "uploaded").
		From("photos").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	var photos []model.Photo
	for rows.Next() {
		var p model.Photo
		if err := rows.Scan(&p.ID, &p.FilePath, &p.Timestamp, &p.Uploaded); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, p)
	}

	return photos, rows.Err()
}

// GetAllPaths returns file_path of every row in ascending id order.
func (r *PhotoRepository) GetAllPaths() ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query, args, err := psql.Select("file_path").From("photos").OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query paths: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		paths = append(paths, path)
	}

	return paths, rows.Err()
}

// Count returns the number of rows.
func (r *PhotoRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query, args, err := psql.Select("COUNT(*)").From("photos").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return count, nil
}

// ExistsByPath checks whether a row already refers to path.
func (r *PhotoRepository) ExistsByPath(path string) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query, args, err := psql.Select("COUNT(*)").From("photos").Where("file_path = ?", path).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build exists: %w", err)
	}

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check photo existence: %w", err)
	}
	return count > 0, nil
}
