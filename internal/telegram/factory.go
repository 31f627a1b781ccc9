package telegram

import (
	"context"
	"fmt"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"gorm.io/gorm"

	"github.com/medwatch/telegram-warehouse/internal/config"
	"github.com/medwatch/telegram-warehouse/internal/logger"
)

// NewPersistentClient creates a telegram client that stores its session in
// the warehouse database, so auth key refreshes survive restarts. On a
// fresh database the session is seeded from TG_SESSION_STRING, the string
// the tg-auth tool exports.
func NewPersistentClient(ctx context.Context, cfg *config.Config, db *gorm.DB) (*gotgproto.Client, error) {
	session, seeded := newSessionConstructor(cfg, db)
	if seeded {
		logger.Get().Info().Msg("telegram: seeding session from TG_SESSION_STRING")
	}

	clientOpts := &gotgproto.ClientOpts{
		Session:          session,
		DisableCopyright: true,
		InMemory:         false,
	}

	client, err := gotgproto.NewClient(
		cfg.TGApiID,
		cfg.TGApiHash,
		gotgproto.ClientTypePhone(""), // empty = use stored session
		clientOpts,
	)
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}

	return client, nil
}

// newSessionConstructor picks where the client session comes from. A
// session already stored in the database wins; otherwise the exported
// session string seeds the first login. The bool reports whether the
// string seed was chosen.
func newSessionConstructor(cfg *config.Config, db *gorm.DB) (sessionMaker.SessionConstructor, bool) {
	if cfg.TGSessionStr != "" && storedSessionCount(db) == 0 {
		return sessionMaker.StringSession(cfg.TGSessionStr), true
	}
	return sessionMaker.SqlSession(db.Dialector), false
}

// storedSessionCount reports how many sessions the database holds. A
// missing or unreadable sessions table counts as zero.
func storedSessionCount(db *gorm.DB) int64 {
	var count int64
	if err := db.Table("sessions").Count(&count).Error; err != nil {
		logger.Get().Warn().Err(err).Msg("telegram: failed to check sessions table")
		return 0
	}
	return count
}
