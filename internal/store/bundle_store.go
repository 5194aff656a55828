package store

import (
	"path/filepath"
	"sync"

	"styx/internal/domain"
)

const bundleFilename = "bundle_cache.json"

// BundleFileStore caches the last prekey bundle we registered.
type BundleFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewBundleFileStore returns a BundleFileStore rooted at dir.
func NewBundleFileStore(dir string) *BundleFileStore {
	return &BundleFileStore{dir: dir}
}

// SaveBundle writes the bundle cache.
func (s *BundleFileStore) SaveBundle(b domain.PrekeyBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSON(filepath.Join(s.dir, bundleFilename), b, 0o600)
}

// LoadBundle returns the cached bundle if it belongs to username.
func (s *BundleFileStore) LoadBundle(username string) (domain.PrekeyBundle, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b domain.PrekeyBundle
	if err := readJSON(filepath.Join(s.dir, bundleFilename), &b); err != nil {
		return domain.PrekeyBundle{}, false, err
	}
	if b.Username != username {
		return domain.PrekeyBundle{}, false, nil
	}
	return b, true, nil
}

// Compile-time assertion that BundleFileStore implements domain.PrekeyBundleStore.
var _ domain.PrekeyBundleStore = (*BundleFileStore)(nil)
