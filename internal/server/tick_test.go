package server

import (
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/spirekeep/idlespire/internal/catalog"
	"github.com/spirekeep/idlespire/internal/config"
	"github.com/spirekeep/idlespire/internal/loot"
	"github.com/spirekeep/idlespire/internal/player"
	"github.com/spirekeep/idlespire/internal/records"
)

type fakeClient struct {
	lines []string
}

func (c *fakeClient) ReadLine() (string, error) { return "", io.EOF }

func (c *fakeClient) WriteLine(msg string) error {
	c.lines = append(c.lines, msg)
	return nil
}

func (c *fakeClient) Close() error       { return nil }
func (c *fakeClient) RemoteAddr() string { return "test" }

type memRecordStore struct{}

func (memRecordStore) LoadRecords() ([]records.Record, error) { return nil, nil }
func (memRecordStore) SaveRecord(records.Record) error        { return nil }

func testTickServer(t *testing.T) *Server {
	t.Helper()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("failed to load default catalog: %v", err)
	}
	cfg := config.DefaultConfig()
	reg, err := records.NewRegistry(memRecordStore{})
	if err != nil {
		t.Fatalf("failed to create record registry: %v", err)
	}
	return &Server{
		cfg:     cfg,
		catalog: cat,
		records: reg,
		clients: make(map[string]*connected),
		loot: loot.NewEngine(cat, cfg.Simulation.BossFloorInterval,
			cfg.Economy.SkipChance, cfg.Economy.DropChance, cfg.Economy.BossDropChance),
		tickRng:  rand.New(rand.NewSource(1)),
		shutdown: make(chan struct{}),
	}
}

func TestStepRunsFloorCombatForLiveSession(t *testing.T) {
	s := testTickServer(t)
	sess := player.New("alice", "Alice", "player", 0)
	sess.Floor = 5 // the floor 5 monster outlives one round
	client := &fakeClient{}

	s.stepPlayer(&connected{sess: sess, client: client})

	if sess.Monster == nil {
		t.Fatal("a live session's step must engage the floor monster")
	}
	if len(client.lines) == 0 {
		t.Fatal("a stepped session receives a state push")
	}
	snapshot := client.lines[len(client.lines)-1]
	if !strings.Contains(snapshot, "monster_hp") {
		t.Errorf("state push must carry the opponent's hp, got %s", snapshot)
	}
}

func TestStepSkipsRemovedSession(t *testing.T) {
	s := testTickServer(t)
	sess := player.New("alice", "Alice", "player", 0)
	client := &fakeClient{}

	// Simulate a disconnect that raced a tick sweep: the sweep's snapshot
	// still holds the session, but the disconnect path flagged it.
	sess.WithLock(sess.MarkRemoved)
	hp := sess.HP
	s.stepPlayer(&connected{sess: sess, client: client})

	if sess.Monster != nil || sess.HP != hp || sess.Floor != 1 {
		t.Error("a removed session must not be stepped")
	}
	if len(client.lines) != 0 {
		t.Errorf("no output may reach a removed session's client, got %v", client.lines)
	}
}
