package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"menu-service/pkg/config"
)

// Directory names for the two asset categories under the upload root
const (
	ImagesDir = "images"
	ModelsDir = "models"
)

// ErrFileTooLarge is returned when an upload exceeds the configured size limit
var ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")

// Store writes and resolves uploaded assets on local durable storage.
// Assets are namespaced per restaurant: <root>/<category>/<restaurantID>/<name>.
type Store struct {
	Root        string
	MaxFileSize int64
}

var store *Store

// Initialize creates the upload directory tree and configures the package store
func Initialize(cfg *config.UploadConfig) error {
	s, err := NewStore(cfg.Path, cfg.MaxFileSize)
	if err != nil {
		return err
	}
	store = s
	return nil
}

// GetStore returns the configured store instance
func GetStore() *Store {
	return store
}

// NewStore creates a Store rooted at root, ensuring the category directories exist
func NewStore(root string, maxFileSize int64) (*Store, error) {
	for _, dir := range []string{root, filepath.Join(root, ImagesDir), filepath.Join(root, ModelsDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
		}
	}
	return &Store{Root: root, MaxFileSize: maxFileSize}, nil
}

// CheckSize rejects uploads over the configured limit before anything is written
func (s *Store) CheckSize(size int64) error {
	if s.MaxFileSize > 0 && size > s.MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

// SaveImage stores an image under the restaurant's image directory. The stored
// filename is prefixed with the upload timestamp to avoid collisions. Returns
// the stored filename.
func (s *Store) SaveImage(restaurantID uint, filename string, src io.Reader) (string, error) {
	name := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), filepath.Base(filename))
	if err := s.write(ImagesDir, restaurantID, name, src); err != nil {
		return "", err
	}
	return name, nil
}

// SaveModel stores a 3D model under the restaurant's model directory keeping
// the original filename, so re-uploading the same file overwrites it. Returns
// the stored filename.
func (s *Store) SaveModel(restaurantID uint, filename string, src io.Reader) (string, error) {
	name := filepath.Base(filename)
	if err := s.write(ModelsDir, restaurantID, name, src); err != nil {
		return "", err
	}
	return name, nil
}

// Resolve returns the on-disk path of a stored asset, or an error satisfying
// os.IsNotExist when the asset is not present. Both client-supplied segments
// must be plain names; anything else, including "." and "..", answers as not
// found so the path can never leave the category directory.
func (s *Store) Resolve(category string, restaurantID, name string) (string, error) {
	// Stored assets are always addressed by numeric restaurant id
	if _, err := strconv.ParseUint(restaurantID, 10, 64); err != nil {
		return "", os.ErrNotExist
	}
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return "", os.ErrNotExist
	}

	path := filepath.Join(s.Root, category, restaurantID, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// write copies src into the per-restaurant directory, creating it on demand.
// A failed copy leaves no partial file behind.
func (s *Store) write(category string, restaurantID uint, name string, src io.Reader) error {
	dir := filepath.Join(s.Root, category, strconv.FormatUint(uint64(restaurantID), 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return err
	}

	return dst.Close()
}
