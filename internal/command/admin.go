package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spirekeep/idlespire/internal/player"
)

func executeAdmin(c *Command, s *player.Session, d *Deps) string {
	if !s.IsAdmin() {
		return "You don't have permission to do that."
	}
	if len(c.Args) == 0 {
		return executeAdminHelp()
	}

	sub := strings.ToLower(c.Args[0])
	switch sub {
	case "spawn-boss":
		if d.Boss.Active() {
			return "The world boss is already active."
		}
		d.Boss.Spawn()
		return "The world boss has been summoned."
	case "announce":
		msg := strings.Join(c.Args[1:], " ")
		if msg == "" {
			return "Usage: admin announce <message>"
		}
		d.Game.BroadcastToAll("[SERVER] " + msg)
		return "Announcement sent."
	case "grant":
		return executeAdminGrant(c, s, d)
	case "help":
		return executeAdminHelp()
	default:
		return fmt.Sprintf("Unknown admin command: %s\n%s", sub, executeAdminHelp())
	}
}

func executeAdminHelp() string {
	return `=== Admin Commands ===
  admin spawn-boss                      - Summon the world boss now
  admin announce <message>              - Broadcast a server message
  admin grant <player> <template> [qty] - Grant items to a player`
}

func executeAdminGrant(c *Command, s *player.Session, d *Deps) string {
	if err := c.RequireArgs(3, "Usage: admin grant <player> <template-id> [qty]"); err != nil {
		return err.Error()
	}

	target := c.Args[1]
	templateID := c.Args[2]
	qty := 1
	if len(c.Args) > 3 {
		n, err := strconv.Atoi(c.Args[3])
		if err != nil || n < 1 {
			return "Quantity must be a positive number."
		}
		qty = n
	}

	tmpl, ok := d.Catalog.Get(templateID)
	if !ok {
		return fmt.Sprintf("Unknown item template: %s", templateID)
	}

	if err := d.Game.GrantItem(target, templateID, qty); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("Granted %s x%d to %s.", tmpl.Name, qty, target)
}
