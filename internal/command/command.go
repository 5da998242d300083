// Package command parses and executes player commands. One command is one
// state transition request against the issuing player's session; the server
// holds the session lock for the duration of Execute.
package command

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/spirekeep/idlespire/internal/auction"
	"github.com/spirekeep/idlespire/internal/catalog"
	"github.com/spirekeep/idlespire/internal/config"
	"github.com/spirekeep/idlespire/internal/database"
	"github.com/spirekeep/idlespire/internal/loot"
	"github.com/spirekeep/idlespire/internal/player"
	"github.com/spirekeep/idlespire/internal/records"
	"github.com/spirekeep/idlespire/internal/worldboss"
)

// Game is the slice of the server that command handlers need. Defined here
// to avoid a circular dependency on the server package.
type Game interface {
	BroadcastToAll(message string)
	OnlineNames() []string
	// GrantItem delivers an item to a player by id, online or offline.
	GrantItem(playerID string, templateID string, quantity int) error
}

// Deps carries the shared collaborators handlers run against.
type Deps struct {
	Catalog *catalog.Catalog
	Loot    *loot.Engine
	House   *auction.House
	Boss    *worldboss.Coordinator
	Records *records.Registry
	DB      *database.Database
	Config  *config.ServerConfig
	Game    Game
}

type Command struct {
	Name string
	Args []string
}

func ParseCommand(input string) *Command {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return &Command{Name: "", Args: []string{}}
	}
	return &Command{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
	}
}

// RequireArgs checks argument count and returns the usage line when short.
func (c *Command) RequireArgs(min int, usage string) error {
	if len(c.Args) < min {
		return errors.New(usage)
	}
	return nil
}

// Execute dispatches one parsed command. The caller holds s's lock; rng is
// the caller's own source and must not be shared across goroutines.
func (c *Command) Execute(s *player.Session, d *Deps, rng *rand.Rand) string {
	switch c.Name {
	case "", "help":
		return executeHelp(s)
	case "status", "st":
		return executeStatus(s, d)
	case "inventory", "inv", "i":
		return executeInventory(s)
	case "upgrade":
		return executeUpgrade(c, s, d)
	case "equip", "wear", "wield":
		return executeEquip(c, s, d)
	case "unequip", "remove":
		return executeUnequip(c, s, d)
	case "enhance":
		return executeEnhance(c, s, d, rng)
	case "sell":
		return executeSell(c, s, d)
	case "use":
		return executeUse(c, s, d, rng)
	case "auction", "ah":
		return executeAuction(c, s, d)
	case "target":
		return executeTarget(c, s, d)
	case "explore":
		return executeExplore(s)
	case "pet":
		return executePet(c, s, d)
	case "incubator", "incubate":
		return executeIncubator(c, s, d, rng)
	case "fusion", "fuse":
		return executeFusion(c, s, d, rng)
	case "boss":
		return executeBossInfo(s, d)
	case "records", "top":
		return executeRecords(d)
	case "leaderboard", "lb":
		return executeLeaderboard(d)
	case "who":
		return executeWho(d)
	case "activity", "log":
		return executeActivity(s)
	case "admin":
		return executeAdmin(c, s, d)
	default:
		return fmt.Sprintf("Unknown command: %s. Type 'help' for available commands.", c.Name)
	}
}

func executeHelp(s *player.Session) string {
	var sb strings.Builder
	sb.WriteString(`=== Commands ===
  status              - Your stats, floor, and gold
  inventory           - List carried items
  upgrade <stat> <n|max> - Spend gold on base hp/attack/defense
  equip <item>        - Equip a weapon or armor
  unequip <weapon|armor> - Unequip a slot
  enhance <item> [protect] [catalyst] - Attempt an enhancement
  sell <item> [all]   - Sell one unit or the whole stack
  use <item> [all]    - Use a consumable
  auction <list|buy|cancel|browse> ... - Auction house
  target <monster|boss> - Choose what your ticks attack
  explore             - Toggle exploration mode
  pet <equip|unequip> <name> - Manage your active companion
  incubator <place|start|remove|claim> ... - Hatch pet eggs
  fusion <slot|unslot|start|claim> ... - Fuse two pets
  boss                - World boss status
  records             - Server records
  leaderboard         - Top climbers
  who                 - Online players
  activity            - Your recent activity`)
	if s.IsAdmin() {
		sb.WriteString("\n  admin <spawn-boss|announce|grant> ... - Admin tools")
	}
	return sb.String()
}

func executeWho(d *Deps) string {
	names := d.Game.OnlineNames()
	if len(names) == 0 {
		return "No one is online."
	}
	return fmt.Sprintf("Online (%d): %s", len(names), strings.Join(names, ", "))
}

func executeActivity(s *player.Session) string {
	if len(s.Activity) == 0 {
		return "Nothing has happened yet."
	}
	var sb strings.Builder
	sb.WriteString("=== Recent Activity ===")
	for _, entry := range s.Activity {
		fmt.Fprintf(&sb, "\n  [%s] %s", entry.At.Format("15:04:05"), entry.Message)
	}
	return sb.String()
}
