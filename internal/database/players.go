package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spirekeep/idlespire/internal/item"
	"github.com/spirekeep/idlespire/internal/player"
)

// ErrPlayerNotFound is returned when a player document lookup fails.
var ErrPlayerNotFound = errors.New("player not found")

// LoadPlayer returns the last-saved state for a player id.
func (d *Database) LoadPlayer(id string) (player.State, error) {
	var raw string
	err := d.db.QueryRow(
		d.rebind("SELECT state FROM players WHERE id = ?"),
		id,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return player.State{}, ErrPlayerNotFound
		}
		return player.State{}, fmt.Errorf("failed to load player: %w", err)
	}

	st, err := player.UnmarshalState([]byte(raw))
	if err != nil {
		return player.State{}, fmt.Errorf("failed to parse player state: %w", err)
	}
	return st, nil
}

// SavePlayer upserts a player's durable state. Gold and max floor are
// denormalized into their own columns so offline updates and leaderboards
// don't parse the document.
func (d *Database) SavePlayer(id, name string, st player.State) error {
	raw, err := player.MarshalState(st)
	if err != nil {
		return fmt.Errorf("failed to marshal player state: %w", err)
	}

	_, err = d.db.Exec(
		d.rebind(`INSERT INTO players (id, name, gold, max_floor, state, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (id) DO UPDATE SET
		 name = excluded.name, gold = excluded.gold, max_floor = excluded.max_floor,
		 state = excluded.state, updated_at = CURRENT_TIMESTAMP`),
		id, name, st.Gold, st.MaxFloor, string(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}
	return nil
}

// AddGoldOffline credits gold to an offline player's saved state. A missing
// player is not an error; the credit is simply dropped (the caller already
// verified the player exists or accepts the loss on unknown ids).
func (d *Database) AddGoldOffline(id string, amount int) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRow(d.rebind("SELECT state FROM players WHERE id = ?"), id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to load player for gold update: %w", err)
	}

	st, err := player.UnmarshalState([]byte(raw))
	if err != nil {
		return fmt.Errorf("failed to parse player state: %w", err)
	}
	st.Gold += amount

	updated, err := player.MarshalState(st)
	if err != nil {
		return fmt.Errorf("failed to marshal player state: %w", err)
	}

	if _, err := tx.Exec(
		d.rebind("UPDATE players SET gold = ?, state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"),
		st.Gold, string(updated), id,
	); err != nil {
		return fmt.Errorf("failed to update player gold: %w", err)
	}

	return tx.Commit()
}

// PushItemsOffline inserts items into an offline player's saved inventory,
// honoring the stacking rules. A missing player drops the push.
func (d *Database) PushItemsOffline(id string, items []*item.Instance) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRow(d.rebind("SELECT state FROM players WHERE id = ?"), id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to load player for item push: %w", err)
	}

	st, err := player.UnmarshalState([]byte(raw))
	if err != nil {
		return fmt.Errorf("failed to parse player state: %w", err)
	}
	for _, inst := range items {
		item.Stack(&st.Inventory, inst)
	}

	updated, err := player.MarshalState(st)
	if err != nil {
		return fmt.Errorf("failed to marshal player state: %w", err)
	}

	if _, err := tx.Exec(
		d.rebind("UPDATE players SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"),
		string(updated), id,
	); err != nil {
		return fmt.Errorf("failed to update player inventory: %w", err)
	}

	return tx.Commit()
}

// TopPlayersByFloor returns up to limit (name, max floor) pairs for the
// leaderboard view.
func (d *Database) TopPlayersByFloor(limit int) ([]struct {
	Name     string
	MaxFloor int
}, error) {
	rows, err := d.db.Query(
		d.rebind("SELECT name, max_floor FROM players ORDER BY max_floor DESC LIMIT ?"),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []struct {
		Name     string
		MaxFloor int
	}
	for rows.Next() {
		var entry struct {
			Name     string
			MaxFloor int
		}
		if err := rows.Scan(&entry.Name, &entry.MaxFloor); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
