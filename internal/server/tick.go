package server

import (
	"fmt"
	"time"

	"github.com/spirekeep/idlespire/internal/catalog"
	"github.com/spirekeep/idlespire/internal/combat"
	"github.com/spirekeep/idlespire/internal/item"
	"github.com/spirekeep/idlespire/internal/logger"
	"github.com/spirekeep/idlespire/internal/player"
	"github.com/spirekeep/idlespire/internal/records"
	"github.com/spirekeep/idlespire/internal/worldboss"
)

// artifactUnlockFloors maps milestone boss floors to the artifact their
// first clear unlocks.
var artifactUnlockFloors = map[int]string{
	10: catalog.ArtifactGoldBonus,
	30: catalog.ArtifactFloorSkip,
	50: catalog.ArtifactBossDamage,
}

// startTickLoop drives one simulation step per connected player per interval.
func (s *Server) startTickLoop() {
	interval := time.Duration(s.cfg.Simulation.TickMillis) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.mu.RLock()
			connectedPlayers := make([]*connected, 0, len(s.clients))
			for _, cp := range s.clients {
				connectedPlayers = append(connectedPlayers, cp)
			}
			s.mu.RUnlock()

			for _, cp := range connectedPlayers {
				s.stepPlayer(cp)
			}
		}
	}
}

// stepPlayer runs one simulation step for one player: exploration loot,
// world boss damage, or a floor combat round.
func (s *Server) stepPlayer(cp *connected) {
	var events []string
	stepped := false

	cp.sess.WithLock(func() {
		// The sweep snapshotted the client list before this lock; a session
		// removed in between must not be stepped after its flush.
		if cp.sess.Removed() {
			return
		}
		stepped = true
		switch {
		case cp.sess.Exploring:
			events = s.stepExploration(cp.sess)
		case cp.sess.Target == player.TargetWorldBoss:
			events = s.stepWorldBoss(cp.sess)
		default:
			events = s.stepFloorCombat(cp.sess)
		}
	})
	if !stepped {
		return
	}

	for _, ev := range events {
		cp.client.WriteLine(ev)
	}
	s.pushState(cp)
}

// stepExploration rolls the exploration table once. Caller holds the lock.
func (s *Server) stepExploration(sess *player.Session) []string {
	found := s.loot.RollExploration(s.tickRng)
	if found == nil {
		return nil
	}
	sess.AddItem(found)
	sess.LogActivity(fmt.Sprintf("Found %s while exploring", found.Name))
	return []string{fmt.Sprintf("While exploring you find %s!", found.String())}
}

// stepWorldBoss applies one hit to the shared boss. Caller holds the lock.
func (s *Server) stepWorldBoss(sess *player.Session) []string {
	if !s.boss.Active() {
		sess.Target = player.TargetFloor
		return []string{"The world boss has fallen. You return to the tower."}
	}

	snap := s.boss.Snapshot()
	if sess.BossSpawnID != snap.SpawnID {
		sess.BossSpawnID = snap.SpawnID
		sess.BossDamage = 0
	}

	// The boss fight is one-directional: challengers are never struck back.
	pseudo := &combat.Monster{Defense: s.boss.Defense(), Boss: true}
	crit := s.tickRng.Float64() < sess.Totals.CritChance
	dmg := combat.PlayerDamage(sess.Totals, pseudo, crit)

	applied, _ := s.boss.AddDamage(sess.ID, dmg)
	sess.BossDamage += applied
	return nil
}

// stepFloorCombat runs one round against the current floor monster.
// Caller holds the lock.
func (s *Server) stepFloorCombat(sess *player.Session) []string {
	scaling := combat.Scaling{
		BossFloorInterval: s.cfg.Simulation.BossFloorInterval,
		BossAttackScale:   s.cfg.Simulation.BossAttackScale,
		BossDefenseScale:  s.cfg.Simulation.BossDefenseScale,
	}
	if sess.Monster == nil || sess.Monster.Floor != sess.Floor {
		m := combat.MonsterForFloor(sess.Floor, scaling)
		sess.Monster = &m
	}

	round := combat.Fight(s.tickRng, sess.Totals, sess.HP, sess.Monster)
	sess.HP -= round.DamageTaken
	if sess.HP < 0 {
		sess.HP = 0
	}

	if round.MonsterDefeated {
		return s.handleFloorClear(sess)
	}
	if round.PlayerDefeated {
		return s.handleDefeat(sess)
	}
	return nil
}

// handleFloorClear applies the clear transition: gold, records, drops,
// artifact unlocks, advance, skip roll. Caller holds the lock.
func (s *Server) handleFloorClear(sess *player.Session) []string {
	var events []string
	clearedFloor := sess.Floor
	goldArtifact := sess.Artifacts[catalog.ArtifactGoldBonus]

	gold := s.loot.ClearGold(clearedFloor, goldArtifact)
	sess.AddGold(gold)
	sess.ClearedCount++

	if combat.IsBossFloor(clearedFloor, s.cfg.Simulation.BossFloorInterval) {
		events = append(events, fmt.Sprintf("You slay the floor %d boss and loot %d gold!", clearedFloor, gold))
		sess.LogActivity(fmt.Sprintf("Defeated the floor %d boss", clearedFloor))

		if id, ok := artifactUnlockFloors[clearedFloor]; ok && !sess.Artifacts[id] {
			sess.Artifacts[id] = true
			if art, found := s.catalog.Artifact(id); found {
				events = append(events, fmt.Sprintf("*** Artifact unlocked: %s - %s ***", art.Name, art.Description))
				sess.LogActivity(fmt.Sprintf("Unlocked artifact: %s", art.Name))
			}
		}
	}

	if drop := s.loot.RollDrop(s.tickRng, clearedFloor); drop != nil {
		sess.AddItem(drop)
		sess.LogActivity(fmt.Sprintf("Looted %s on floor %d", drop.Name, clearedFloor))
		events = append(events, fmt.Sprintf("The monster drops %s!", drop.String()))
		if drop.Grade >= catalog.GradeRare {
			if _, err := s.records.Observe(records.LootKind(drop.Grade), sess.Name,
				int64(clearedFloor), drop.Name); err != nil {
				logger.Error("Failed to persist loot record", "player", sess.ID, "error", err)
			}
		}
	}

	sess.AdvanceFloor(1)

	var companionSkip float64
	if eff := sess.CompanionEffect(s.catalog); eff != nil {
		companionSkip = eff.SkipChance
	}
	skip := s.loot.RollSkip(s.tickRng, sess.ClearedCount, sess.Artifacts[catalog.ArtifactFloorSkip],
		companionSkip, sess.Floor, goldArtifact)
	if skip.Skipped {
		sess.AddGold(skip.Gold)
		skipped := sess.Floor
		sess.AdvanceFloor(1)
		events = append(events, fmt.Sprintf("A hidden stairway! You skip floor %d and pocket %d gold.", skipped, skip.Gold))
	}

	// Both sides recover; the new floor starts fresh.
	sess.HP = sess.Totals.MaxHP
	sess.Monster = nil
	sess.Recompute(s.catalog, s.cfg.Simulation.BossFloorInterval)

	improved, err := s.records.Observe(records.KindTopFloor, sess.Name, int64(sess.MaxFloor),
		fmt.Sprintf("floor %d", sess.MaxFloor))
	if err != nil {
		logger.Error("Failed to persist floor record", "player", sess.ID, "error", err)
	}
	if improved {
		s.BroadcastToAll(fmt.Sprintf("*** %s sets a new spire record: floor %d! ***", sess.Name, sess.MaxFloor))
	}
	if _, err := s.records.Observe(records.KindTopGold, sess.Name, int64(sess.Gold),
		fmt.Sprintf("%d gold", sess.Gold)); err != nil {
		logger.Error("Failed to persist gold record", "player", sess.ID, "error", err)
	}

	return events
}

// handleDefeat applies the death transition: companion revival when ready,
// otherwise back to floor one. Caller holds the lock.
func (s *Server) handleDefeat(sess *player.Session) []string {
	if sess.TryRevive(s.catalog, time.Now()) {
		sess.LogActivity("Revived by companion")
		return []string{fmt.Sprintf("%s blazes with light and pulls you back from death!", sess.EquippedPet.Name)}
	}

	floor := sess.Floor
	sess.ResetToFloorOne()
	sess.Recompute(s.catalog, s.cfg.Simulation.BossFloorInterval)
	sess.LogActivity(fmt.Sprintf("Defeated on floor %d", floor))
	return []string{fmt.Sprintf("You fall on floor %d and awaken at the spire's base. Your gold and items are safe.", floor)}
}

// startBossBroadcastLoop pushes the boss snapshot to everyone at a lower
// frequency than the tick. Read-only against the coordinator.
func (s *Server) startBossBroadcastLoop() {
	interval := time.Duration(s.cfg.Simulation.BossBroadcastMillis) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			snap := s.boss.Snapshot()
			if !snap.Active {
				continue
			}
			s.BroadcastToAll(fmt.Sprintf("[world boss] %.0f/%.0f HP (%.1f%%), %d challengers",
				snap.HP, snap.MaxHP, snap.HP/snap.MaxHP*100, snap.Participants))
		}
	}
}

// startAutoSaveLoop periodically flushes every connected player.
func (s *Server) startAutoSaveLoop() {
	seconds := s.cfg.Simulation.AutoSaveSeconds
	if seconds <= 0 {
		logger.Info("Auto-save disabled")
		return
	}

	ticker := time.NewTicker(time.Duration(seconds) * time.Second)
	defer ticker.Stop()
	logger.Info("Auto-save enabled", "interval_seconds", seconds)

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.autoSaveAll()
		}
	}
}

// distributeSettlement pays out a defeated boss's rewards. Online winners are
// credited in memory; offline ones through the durable store. Runs on its own
// goroutine, never under another session's lock.
func (s *Server) distributeSettlement(st worldboss.Settlement) {
	logger.Always("World boss defeated", "spawn_id", st.SpawnID,
		"total_damage", st.TotalDamage, "participants", len(st.Rewards))
	s.BroadcastToAll("*** The world boss has been slain! Rewards are being distributed. ***")

	for playerID, reward := range st.Rewards {
		s.mu.RLock()
		cp := s.clients[playerID]
		s.mu.RUnlock()

		if cp != nil {
			s.creditOnline(cp, reward)
			continue
		}
		s.creditOffline(playerID, reward)
	}
}

func (s *Server) creditOnline(cp *connected, reward worldboss.Reward) {
	var lines []string
	cp.sess.WithLock(func() {
		cp.sess.AddGold(reward.Gold)
		if cp.sess.BossSpawnID != "" {
			cp.sess.BossSpawnID = ""
			cp.sess.BossDamage = 0
		}
		lines = append(lines, fmt.Sprintf("Your share of the bounty: %d gold (%.1f%% of the damage).",
			reward.Gold, reward.Share*100))
		cp.sess.LogActivity(fmt.Sprintf("World boss reward: %d gold", reward.Gold))

		for i := 0; i < reward.Tickets; i++ {
			if tmpl, ok := s.catalog.Get(catalog.ItemProtectTicket); ok {
				cp.sess.AddItem(item.New(tmpl, 1))
				lines = append(lines, "You win a protection ticket draw!")
			}
		}
		if reward.ItemTemplate != "" {
			if tmpl, ok := s.catalog.Get(reward.ItemTemplate); ok {
				cp.sess.AddItem(item.New(tmpl, 1))
				lines = append(lines, fmt.Sprintf("The boss's hoard yields %s!", tmpl.Name))
				cp.sess.LogActivity(fmt.Sprintf("Won %s from the world boss", tmpl.Name))
			}
		}
	})
	for _, line := range lines {
		cp.client.WriteLine(line)
	}
}

func (s *Server) creditOffline(playerID string, reward worldboss.Reward) {
	if reward.Gold > 0 {
		if err := s.db.AddGoldOffline(playerID, reward.Gold); err != nil {
			logger.Error("Failed to credit offline boss reward", "player", playerID, "error", err)
		}
	}

	var items []*item.Instance
	if reward.Tickets > 0 {
		if tmpl, ok := s.catalog.Get(catalog.ItemProtectTicket); ok {
			items = append(items, item.New(tmpl, reward.Tickets))
		}
	}
	if reward.ItemTemplate != "" {
		if tmpl, ok := s.catalog.Get(reward.ItemTemplate); ok {
			items = append(items, item.New(tmpl, 1))
		}
	}
	if len(items) > 0 {
		if err := s.db.PushItemsOffline(playerID, items); err != nil {
			logger.Error("Failed to deliver offline boss items", "player", playerID, "error", err)
		}
	}
}
