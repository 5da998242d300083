package server

import (
	"errors"
	"fmt"

	"github.com/spirekeep/idlespire/internal/database"
	"github.com/spirekeep/idlespire/internal/logger"
	"github.com/spirekeep/idlespire/internal/player"
)

// loadSession restores a player's saved state, or creates a fresh character
// on first login.
func (s *Server) loadSession(account *database.Account) (*player.Session, error) {
	role := "player"
	if account.IsAdmin {
		role = "admin"
	}

	sess := player.New(account.Username, account.DisplayName, role, s.cfg.Economy.StartingGold)

	st, err := s.db.LoadPlayer(account.Username)
	if err != nil {
		if errors.Is(err, database.ErrPlayerNotFound) {
			sess.Recompute(s.catalog, s.cfg.Simulation.BossFloorInterval)
			return sess, nil
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	sess.ApplyState(st)
	sess.Recompute(s.catalog, s.cfg.Simulation.BossFloorInterval)
	return sess, nil
}

// saveSession exports and persists one session. Takes the session lock.
func (s *Server) saveSession(sess *player.Session) error {
	var st player.State
	sess.WithLock(func() {
		st = sess.ExportState()
	})
	return s.db.SavePlayer(sess.ID, sess.Name, st)
}

// autoSaveAll persists every connected player. Failures are logged and
// retried on the next sweep; in-memory state stays authoritative.
func (s *Server) autoSaveAll() {
	s.mu.RLock()
	sessions := make([]*player.Session, 0, len(s.clients))
	for _, cp := range s.clients {
		sessions = append(sessions, cp.sess)
	}
	s.mu.RUnlock()

	if len(sessions) == 0 {
		return
	}

	saved, failed := 0, 0
	for _, sess := range sessions {
		if err := s.saveSession(sess); err != nil {
			logger.Warning("Auto-save failed for player", "player", sess.ID, "error", err)
			failed++
		} else {
			saved++
		}
	}
	logger.Debug("Auto-save completed", "saved", saved, "errors", failed)
}
