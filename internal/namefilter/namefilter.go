// Package namefilter screens account and display names at registration:
// reserved names that would let a player impersonate the server, plus a
// configurable banned word list.
package namefilter

import (
	"strings"

	"github.com/spirekeep/idlespire/internal/config"
)

// reservedNames are rejected regardless of configuration. They cover the
// identities the server itself speaks as in broadcasts.
var reservedNames = []string{
	"admin",
	"administrator",
	"server",
	"system",
	"gm",
	"moderator",
}

// Filter validates names against the reserved and banned lists.
type Filter struct {
	enabled  bool
	banned   []string // lowercase, substring match
	reserved []string // lowercase, exact match
}

// New builds a filter from config. A disabled filter allows everything.
func New(cfg config.NameFilterConfig) *Filter {
	f := &Filter{
		enabled:  cfg.Enabled,
		reserved: append([]string(nil), reservedNames...),
	}
	for _, w := range cfg.BannedWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			f.banned = append(f.banned, w)
		}
	}
	for _, n := range cfg.ReservedNames {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			f.reserved = append(f.reserved, n)
		}
	}
	return f
}

// Check reports whether a name is acceptable, with a player-facing reason
// when it is not.
func (f *Filter) Check(name string) (bool, string) {
	if !f.enabled {
		return true, ""
	}

	lowered := strings.ToLower(strings.TrimSpace(name))
	for _, r := range f.reserved {
		if lowered == r {
			return false, "That name is reserved."
		}
	}
	for _, w := range f.banned {
		if strings.Contains(lowered, w) {
			return false, "That name contains a word that is not allowed."
		}
	}
	return true, ""
}
