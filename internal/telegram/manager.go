package telegram

import (
	"context"
	"sync"

	"github.com/celestix/gotgproto"
	"gorm.io/gorm"

	"github.com/medwatch/telegram-warehouse/internal/config"
	"github.com/medwatch/telegram-warehouse/internal/logger"
)

// Status represents the Telegram client status.
type Status string

// Status constants define the possible states of the Telegram client.
const (
	StatusInitializing Status = "INITIALIZING"
	StatusReady        Status = "READY"
	StatusUnauthorized Status = "UNAUTHORIZED"
	StatusError        Status = "ERROR"
)

// ClientFactory is a function that creates a telegram client.
type ClientFactory func(ctx context.Context, cfg *config.Config, db *gorm.DB) (*gotgproto.Client, error)

// Manager handles Telegram client lifecycle.
// A session must either already exist in the database or arrive as the
// exported string from the tg-auth tool (TG_SESSION_STRING); the manager
// never starts an interactive login.
type Manager struct {
	client *gotgproto.Client
	db     *gorm.DB
	cfg    *config.Config
	log    *logger.Logger

	status Status
	mu     sync.RWMutex

	clientFactory ClientFactory
}

// NewManager creates a new Telegram Manager.
func NewManager(cfg *config.Config, db *gorm.DB) *Manager {
	return &Manager{
		db:            db,
		cfg:           cfg,
		log:           logger.Get(),
		status:        StatusInitializing,
		clientFactory: NewPersistentClient,
	}
}

// SetClientFactory allows overriding the client creation logic (e.g. for testing).
func (m *Manager) SetClientFactory(f ClientFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clientFactory = f
}

// GetStatus returns the current Telegram client status.
func (m *Manager) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// GetClient returns the underlying Telegram client, or nil when the
// manager is not ready.
func (m *Manager) GetClient() *gotgproto.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// Init tries to restore a stored session and connect, seeding the store
// from the exported session string when the database is still empty.
// No session anywhere leaves the manager unauthorized without error,
// so callers can report a useful diagnostic instead of crashing.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	m.status = StatusInitializing
	m.mu.Unlock()

	if storedSessionCount(m.db) == 0 && m.cfg.TGSessionStr == "" {
		m.log.Info().Msg("telegram: no stored session and no TG_SESSION_STRING, run tg-auth first")
		m.mu.Lock()
		m.status = StatusUnauthorized
		m.mu.Unlock()
		return nil
	}

	client, err := m.clientFactory(ctx, m.cfg, m.db)
	if err != nil {
		m.log.Warn().Err(err).Msg("telegram: failed to initialize persistent client")
		m.mu.Lock()
		m.status = StatusError
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.client = client
	m.status = StatusReady
	m.mu.Unlock()

	m.log.Info().Msg("telegram: client is ready")
	return nil
}

// Stop stops the Telegram client.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		m.client.Stop()
	}
}
