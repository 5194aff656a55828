package store

import (
	"path/filepath"
	"sync"

	"styx/internal/domain"
)

const (
	spkPairsFile   = "spk_pairs.json"
	opkPairsFile   = "opk_pairs.json"
	prekeyMetaFile = "prekey_meta.json"
)

// PrekeyFileStore persists signed-prekey and one-time-prekey state to disk.
type PrekeyFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewPrekeyFileStore returns a PrekeyFileStore rooted at dir.
func NewPrekeyFileStore(dir string) *PrekeyFileStore {
	return &PrekeyFileStore{dir: dir}
}

type spkPair struct {
	Priv [32]byte `json:"priv"`
	Pub  [32]byte `json:"pub"`
	Sig  []byte   `json:"sig"`
}

type opkPair struct {
	Priv [32]byte `json:"priv"`
	Pub  [32]byte `json:"pub"`
}

type prekeyMeta struct {
	CurrentSPKID string `json:"current_spk_id"`
}

// SaveSignedPrekey stores a signed prekey pair by id.
func (s *PrekeyFileStore) SaveSignedPrekey(id string, priv domain.X25519Private, pub domain.X25519Public, sig []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, spkPairsFile)
	m := map[string]spkPair{}
	_ = readJSON(path, &m)
	m[id] = spkPair{Priv: priv, Pub: pub, Sig: append([]byte(nil), sig...)}
	return writeJSON(path, m, 0o600)
}

// LoadSignedPrekey retrieves a signed prekey pair by id.
func (s *PrekeyFileStore) LoadSignedPrekey(id string) (priv domain.X25519Private, pub domain.X25519Public, sig []byte, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, spkPairsFile)
	m := map[string]spkPair{}
	if err = readJSON(path, &m); err != nil {
		return priv, pub, nil, false, err
	}
	p, ok := m[id]
	if !ok {
		return priv, pub, nil, false, nil
	}
	return p.Priv, p.Pub, append([]byte(nil), p.Sig...), true, nil
}

// SaveOneTimePrekeys merges the provided one-time pairs into the store.
func (s *PrekeyFileStore) SaveOneTimePrekeys(pairs []domain.OneTimePair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, opkPairsFile)
	m := map[string]opkPair{}
	_ = readJSON(path, &m)
	for _, p := range pairs {
		m[p.ID] = opkPair{Priv: p.Priv, Pub: p.Pub}
	}
	return writeJSON(path, m, 0o600)
}

// LoadOneTimePrekey returns a one-time pair by id without removing it.
func (s *PrekeyFileStore) LoadOneTimePrekey(id string) (priv domain.X25519Private, pub domain.X25519Public, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, opkPairsFile)
	m := map[string]opkPair{}
	if err = readJSON(path, &m); err != nil {
		return priv, pub, false, err
	}
	p, ok := m[id]
	if !ok {
		return priv, pub, false, nil
	}
	return p.Priv, p.Pub, true, nil
}

// ConsumeOneTimePrekey removes and returns a one-time pair by id. A pair
// can only be consumed once; a second call reports ok=false, which is how
// handshake replays against the same one-time prekey get rejected.
func (s *PrekeyFileStore) ConsumeOneTimePrekey(id string) (priv domain.X25519Private, pub domain.X25519Public, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, opkPairsFile)
	m := map[string]opkPair{}
	if err = readJSON(path, &m); err != nil {
		return priv, pub, false, err
	}
	p, ok := m[id]
	if !ok {
		return priv, pub, false, nil
	}
	delete(m, id)
	if err = writeJSON(path, m, 0o600); err != nil {
		return priv, pub, false, err
	}
	return p.Priv, p.Pub, true, nil
}

// ListOneTimePublics exposes only the public halves for bundling.
func (s *PrekeyFileStore) ListOneTimePublics() ([]domain.OneTimePub, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, opkPairsFile)
	m := map[string]opkPair{}
	if err := readJSON(path, &m); err != nil {
		return nil, err
	}
	out := make([]domain.OneTimePub, 0, len(m))
	for id, p := range m {
		out = append(out, domain.OneTimePub{ID: id, Pub: p.Pub})
	}
	return out, nil
}

// SetCurrentSPKID marks the signed prekey that new bundles should carry.
func (s *PrekeyFileStore) SetCurrentSPKID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSON(filepath.Join(s.dir, prekeyMetaFile), prekeyMeta{CurrentSPKID: id}, 0o600)
}

// CurrentSPKID returns the marked signed prekey, if any.
func (s *PrekeyFileStore) CurrentSPKID() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var meta prekeyMeta
	if err := readJSON(filepath.Join(s.dir, prekeyMetaFile), &meta); err != nil {
		return "", false, err
	}
	if meta.CurrentSPKID == "" {
		return "", false, nil
	}
	return meta.CurrentSPKID, true, nil
}

// Compile-time assertion that PrekeyFileStore implements domain.PrekeyStore.
var _ domain.PrekeyStore = (*PrekeyFileStore)(nil)
