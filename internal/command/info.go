package command

import (
	"fmt"
	"strings"

	"github.com/spirekeep/idlespire/internal/player"
)

func executeBossInfo(s *player.Session, d *Deps) string {
	snap := d.Boss.Snapshot()
	if !snap.Active {
		return "The world boss has not risen. Watch for the announcement."
	}

	var sb strings.Builder
	sb.WriteString("=== World Boss ===")
	fmt.Fprintf(&sb, "\nHP: %.0f/%.0f (%.1f%%)", snap.HP, snap.MaxHP, snap.HP/snap.MaxHP*100)
	fmt.Fprintf(&sb, "\nChallengers: %d", snap.Participants)
	if s.BossSpawnID == snap.SpawnID && s.BossDamage > 0 {
		fmt.Fprintf(&sb, "\nYour damage: %.0f", s.BossDamage)
	}
	return sb.String()
}

func executeRecords(d *Deps) string {
	all := d.Records.All()
	if len(all) == 0 {
		return "No records have been set yet."
	}

	var sb strings.Builder
	sb.WriteString("=== Server Records ===")
	for _, rec := range all {
		fmt.Fprintf(&sb, "\n  %-16s %s (%s)", rec.Kind, rec.Holder, rec.Detail)
	}
	return sb.String()
}

func executeLeaderboard(d *Deps) string {
	top, err := d.DB.TopPlayersByFloor(10)
	if err != nil {
		return "The leaderboard is unavailable right now."
	}
	if len(top) == 0 {
		return "Nobody has climbed the spire yet."
	}

	var sb strings.Builder
	sb.WriteString("=== Top Climbers ===")
	for i, row := range top {
		fmt.Fprintf(&sb, "\n  %2d. %s - floor %d", i+1, row.Name, row.MaxFloor)
	}
	return sb.String()
}
