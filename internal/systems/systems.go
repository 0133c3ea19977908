package systems

import (
	"github.com/haryoiro/vidstream/internal/database"
	"github.com/haryoiro/vidstream/internal/logger"
	"github.com/haryoiro/vidstream/internal/structures"
)

// Systems contains all the core systems of the application
type Systems struct {
	Config     *structures.Config
	Database   database.DB
	API        *APISystem
	Session    *SessionStore
	Collection *CollectionStore
}

// New creates a new Systems instance talking to the configured API
func New(cfg *structures.Config, db database.DB) (*Systems, error) {
	apiSystem, err := NewAPISystem(cfg)
	if err != nil {
		return nil, err
	}

	s := NewWithGateway(cfg, db, apiSystem)
	s.API = apiSystem
	return s, nil
}

// NewWithGateway wires the stores to an arbitrary gateway
func NewWithGateway(cfg *structures.Config, db database.DB, gateway Gateway) *Systems {
	session := NewSessionStore(gateway, db)
	return &Systems{
		Config:     cfg,
		Database:   db,
		Session:    session,
		Collection: NewCollectionStore(gateway, session),
	}
}

// Start restores the persisted session. A discarded record is logged and
// the client starts signed out.
func (s *Systems) Start() error {
	if err := s.Session.Restore(); err != nil {
		logger.Warn("Session restore: %v", err)
	}
	return nil
}

// Logout ends the session and forgets the previous user's videos
func (s *Systems) Logout() error {
	if err := s.Session.Logout(); err != nil {
		return err
	}
	s.Collection.ClearOwnedVideos()
	return nil
}

// Stop releases resources held by the systems
func (s *Systems) Stop() error {
	return s.Database.Close()
}
