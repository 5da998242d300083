package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spirekeep/idlespire/internal/auction"
	"github.com/spirekeep/idlespire/internal/item"
	"github.com/spirekeep/idlespire/internal/player"
)

func executeAuction(c *Command, s *player.Session, d *Deps) string {
	if len(c.Args) == 0 {
		return executeAuctionHelp()
	}

	sub := strings.ToLower(c.Args[0])
	rest := &Command{Name: sub, Args: c.Args[1:]}
	switch sub {
	case "browse":
		return executeAuctionBrowse(s, d)
	case "list":
		return executeAuctionList(rest, s, d)
	case "buy":
		return executeAuctionBuy(rest, s, d)
	case "cancel":
		return executeAuctionCancel(rest, s, d)
	case "help":
		return executeAuctionHelp()
	default:
		return fmt.Sprintf("Unknown auction command: %s\n%s", sub, executeAuctionHelp())
	}
}

func executeAuctionHelp() string {
	return `=== Auction House ===
  auction browse                      - View current listings
  auction list <item> <qty> <price>   - List items at a per-unit price
  auction buy <listing-id> <qty>      - Buy from a listing
  auction cancel <listing-id>         - Cancel your own listing
Listing ids may be abbreviated to a unique prefix.`
}

func executeAuctionBrowse(s *player.Session, d *Deps) string {
	listings, err := d.House.Browse()
	if err != nil {
		return "The auctioneer is unavailable right now."
	}
	if len(listings) == 0 {
		return "The auction house is empty."
	}

	var sb strings.Builder
	sb.WriteString("=== Auction House ===")
	for _, l := range listings {
		fmt.Fprintf(&sb, "\n  [%s] %s x%d @ %d gold each (seller: %s)",
			shortID(l.ID), l.Item.Name, l.Item.Quantity, l.UnitPrice, l.SellerName)
	}
	return sb.String()
}

func executeAuctionList(c *Command, s *player.Session, d *Deps) string {
	if err := c.RequireArgs(3, "Usage: auction list <item name> <qty> <unit price>"); err != nil {
		return err.Error()
	}

	qty, err1 := strconv.Atoi(c.Args[len(c.Args)-2])
	price, err2 := strconv.Atoi(c.Args[len(c.Args)-1])
	if err1 != nil || err2 != nil {
		return "Usage: auction list <item name> <qty> <unit price>"
	}
	name := strings.Join(c.Args[:len(c.Args)-2], " ")

	inst, ok := item.FindByName(s.Inventory, name)
	if !ok {
		return fmt.Sprintf("You don't have '%s'.", name)
	}

	listing, err := d.House.List(s, inst.InstanceID, qty, price)
	if err != nil {
		return err.Error()
	}

	s.LogActivity(fmt.Sprintf("Listed %s x%d at %d gold", listing.Item.Name, listing.Item.Quantity, price))
	return fmt.Sprintf("Listed %s x%d at %d gold each (listing %s).",
		listing.Item.Name, listing.Item.Quantity, price, shortID(listing.ID))
}

func executeAuctionBuy(c *Command, s *player.Session, d *Deps) string {
	if err := c.RequireArgs(2, "Usage: auction buy <listing-id> <qty>"); err != nil {
		return err.Error()
	}

	qty, err := strconv.Atoi(c.Args[1])
	if err != nil {
		return "Usage: auction buy <listing-id> <qty>"
	}

	id, msg := resolveListingID(d, c.Args[0])
	if msg != "" {
		return msg
	}

	listing, err := d.House.Purchase(s, id, qty)
	if err != nil {
		return err.Error()
	}

	total := listing.UnitPrice * qty
	s.LogActivity(fmt.Sprintf("Bought %s x%d for %d gold", listing.Item.Name, qty, total))
	return fmt.Sprintf("Bought %s x%d for %d gold.", listing.Item.Name, qty, total)
}

func executeAuctionCancel(c *Command, s *player.Session, d *Deps) string {
	if err := c.RequireArgs(1, "Usage: auction cancel <listing-id>"); err != nil {
		return err.Error()
	}

	id, msg := resolveListingID(d, c.Args[0])
	if msg != "" {
		return msg
	}

	if err := d.House.Cancel(s, id); err != nil {
		return err.Error()
	}
	return "Listing cancelled; the items are back in your bags."
}

// resolveListingID expands an id prefix to a full listing id. Returns a
// user-facing message when the prefix is unknown or ambiguous.
func resolveListingID(d *Deps, prefix string) (string, string) {
	listings, err := d.House.Browse()
	if err != nil {
		return "", "The auctioneer is unavailable right now."
	}

	var match string
	for _, l := range listings {
		if strings.HasPrefix(l.ID, prefix) {
			if match != "" {
				return "", fmt.Sprintf("'%s' matches more than one listing; use more characters.", prefix)
			}
			match = l.ID
		}
	}
	if match == "" {
		return "", auction.ErrListingGone.Error()
	}
	return match, ""
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
