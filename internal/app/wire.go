package app

import (
	"styx/internal/domain"
	"styx/internal/relay"
	identitysvc "styx/internal/services/identity"
	messagesvc "styx/internal/services/message"
	prekeysvc "styx/internal/services/prekey"
	sessionsvc "styx/internal/services/session"
	"styx/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Identity domain.IdentityService
	Prekeys  domain.PrekeyService
	Sessions domain.SessionService
	Messages domain.MessageService
	Relay    domain.RelayClient
}

// NewWire constructs the dependency graph from cfg. Relay-backed services
// are wired only when a relay URL is configured.
func NewWire(cfg Config) *Wire {
	identityStore := store.NewIdentityFileStore(cfg.Home)
	prekeyStore := store.NewPrekeyFileStore(cfg.Home)
	bundleStore := store.NewBundleFileStore(cfg.Home)
	sessionStore := store.NewSessionFileStore(cfg.Home)
	ratchetStore := store.NewRatchetFileStore(cfg.Home)

	w := &Wire{
		Identity: identitysvc.New(identityStore),
		Prekeys:  prekeysvc.New(identityStore, prekeyStore, bundleStore),
	}

	if cfg.RelayURL != "" {
		rc := relay.New(cfg.RelayURL, cfg.HTTP)
		sessions := sessionsvc.New(identityStore, sessionStore, rc)
		w.Relay = rc
		w.Sessions = sessions
		w.Messages = messagesvc.New(identityStore, prekeyStore, ratchetStore, sessions, rc)
	}
	return w
}
