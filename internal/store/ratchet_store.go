package store

import (
	"fmt"
	"path/filepath"
	"sync"

	"styx/internal/domain"
	"styx/internal/protocol/ratchet"
)

const convFilename = "conversations.json"

// convRecord is the on-disk form of a conversation: the fixed-width state
// blob (base64 via encoding/json) plus the in-memory-only ephemeral
// private key the blob deliberately omits.
type convRecord struct {
	Peer    string   `json:"peer"`
	State   []byte   `json:"state"` // 212-byte ratchet.Marshal layout
	EphPriv [32]byte `json:"eph_priv"`
}

// RatchetFileStore persists per-peer Double-Ratchet state to disk using
// the portable 212-byte serialization.
type RatchetFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewRatchetFileStore returns a RatchetFileStore rooted at dir.
func NewRatchetFileStore(dir string) *RatchetFileStore {
	return &RatchetFileStore{dir: dir}
}

// SaveConversation writes the Conversation for peer.
func (s *RatchetFileStore) SaveConversation(peer string, conv domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, convFilename)
	m := map[string]convRecord{}
	_ = readJSON(path, &m)
	m[peer] = convRecord{
		Peer:    conv.Peer,
		State:   ratchet.Marshal(conv.State),
		EphPriv: conv.State.EphPriv,
	}
	return writeJSON(path, m, 0o600)
}

// LoadConversation retrieves the Conversation for peer.
func (s *RatchetFileStore) LoadConversation(peer string) (domain.Conversation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, convFilename)
	m := map[string]convRecord{}
	if err := readJSON(path, &m); err != nil {
		return domain.Conversation{}, false, err
	}
	rec, ok := m[peer]
	if !ok {
		return domain.Conversation{}, false, nil
	}
	st, err := ratchet.Unmarshal(rec.State)
	if err != nil {
		return domain.Conversation{}, false, fmt.Errorf("conversation %q: %w", peer, err)
	}
	st.EphPriv = rec.EphPriv
	return domain.Conversation{Peer: rec.Peer, State: st}, true, nil
}

// Compile-time assertion that RatchetFileStore implements domain.RatchetStore.
var _ domain.RatchetStore = (*RatchetFileStore)(nil)
