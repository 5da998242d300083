package server

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/spirekeep/idlespire/internal/command"
	"github.com/spirekeep/idlespire/internal/logger"
	"github.com/spirekeep/idlespire/internal/player"
)

// handleClient owns one connection from authentication to disconnect.
func (s *Server) handleClient(client Client, ip string) {
	logger.Info("Client connected", "remote_addr", client.RemoteAddr())

	account, err := s.handleAuth(client, ip)
	if err != nil {
		logger.Info("Authentication failed", "remote_addr", client.RemoteAddr(), "error", err)
		return
	}

	sess, err := s.loadSession(account)
	if err != nil {
		logger.Error("Failed to load player", "player", account.Username, "error", err)
		client.WriteLine("Failed to load your character. Please try again.")
		return
	}

	cp := &connected{sess: sess, client: client}

	s.mu.Lock()
	if _, online := s.clients[sess.ID]; online {
		s.mu.Unlock()
		client.WriteLine("That character is already logged in.")
		return
	}
	s.clients[sess.ID] = cp
	s.mu.Unlock()

	defer func() {
		// Remove first so no new tick sweep picks the session up, then flag
		// it under its own lock: a sweep that snapshotted the client list
		// before the delete sees the flag and skips the step. An in-flight
		// step finishes before the flag (and the export) take the lock.
		s.mu.Lock()
		delete(s.clients, sess.ID)
		s.mu.Unlock()
		sess.WithLock(sess.MarkRemoved)

		if err := s.saveSession(sess); err != nil {
			logger.Error("Failed to save player on disconnect", "player", sess.ID, "error", err)
		}
		logger.Info("Client disconnected", "player", sess.ID)
	}()

	client.WriteLine(fmt.Sprintf("Welcome back, %s! You are on floor %d. Type 'help' for commands.",
		sess.Name, sess.Floor))
	s.pushState(cp)

	// Command handlers get a connection-local source so they never contend
	// with the tick goroutine's.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		line, err := client.ReadLine()
		if err != nil {
			return
		}
		if strings.EqualFold(strings.TrimSpace(line), "quit") {
			client.WriteLine("Your progress is saved. Farewell!")
			return
		}

		cmd := command.ParseCommand(line)
		var out string
		sess.WithLock(func() {
			out = cmd.Execute(sess, s.deps, rng)
		})
		if out != "" {
			client.WriteLine(out)
		}
		s.pushState(cp)
	}
}

// stateSnapshot is the compact JSON state pushed after every mutating
// operation and once per tick.
type stateSnapshot struct {
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	Gold     int     `json:"gold"`
	Floor    int     `json:"floor"`
	MaxFloor int     `json:"max_floor"`
	HP       float64 `json:"hp"`
	MaxHP    float64 `json:"max_hp"`
	Attack   float64 `json:"attack"`
	Defense  float64 `json:"defense"`
	Target   string  `json:"target"`
	Explore  bool    `json:"exploring"`

	// Current opponent, when one is engaged.
	MonsterHP    float64 `json:"monster_hp,omitempty"`
	MonsterMaxHP float64 `json:"monster_max_hp,omitempty"`
	MonsterBoss  bool    `json:"monster_boss,omitempty"`
	BossDamage   float64 `json:"boss_damage,omitempty"`
}

// pushState sends the player's current snapshot to their client.
func (s *Server) pushState(cp *connected) {
	var snap stateSnapshot
	cp.sess.WithLock(func() {
		target := "floor"
		if cp.sess.Target == player.TargetWorldBoss {
			target = "boss"
		}
		snap = stateSnapshot{
			Type:     "state",
			Name:     cp.sess.Name,
			Gold:     cp.sess.Gold,
			Floor:    cp.sess.Floor,
			MaxFloor: cp.sess.MaxFloor,
			HP:       cp.sess.HP,
			MaxHP:    cp.sess.Totals.MaxHP,
			Attack:   cp.sess.Totals.Attack,
			Defense:  cp.sess.Totals.Defense,
			Target:   target,
			Explore:  cp.sess.Exploring,
		}
		if cp.sess.Monster != nil {
			snap.MonsterHP = cp.sess.Monster.HP
			snap.MonsterMaxHP = cp.sess.Monster.MaxHP
			snap.MonsterBoss = cp.sess.Monster.Boss
		}
		if cp.sess.Target == player.TargetWorldBoss {
			snap.BossDamage = cp.sess.BossDamage
		}
	})

	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	cp.client.WriteLine(string(data))
}
