package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spirekeep/idlespire/internal/auction"
	"github.com/spirekeep/idlespire/internal/item"
)

// CreateListing inserts a new auction listing. The escrowed item is stored
// as a JSON document; quantity and price are denormalized for browsing.
func (d *Database) CreateListing(l auction.Listing) error {
	raw, err := json.Marshal(l.Item)
	if err != nil {
		return fmt.Errorf("failed to marshal listing item: %w", err)
	}

	_, err = d.db.Exec(
		d.rebind(`INSERT INTO listings (id, seller_id, seller_name, item, quantity, unit_price, listed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		l.ID, l.SellerID, l.SellerName, string(raw), l.Item.Quantity, l.UnitPrice, l.ListedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

// GetListing returns one listing by id, or nil when it no longer exists.
func (d *Database) GetListing(id string) (*auction.Listing, error) {
	row := d.db.QueryRow(
		d.rebind("SELECT id, seller_id, seller_name, item, unit_price, listed_at FROM listings WHERE id = ?"),
		id,
	)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

// Listings returns all current listings, oldest first.
func (d *Database) Listings() ([]auction.Listing, error) {
	rows, err := d.db.Query(
		"SELECT id, seller_id, seller_name, item, unit_price, listed_at FROM listings ORDER BY listed_at",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []auction.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

// UpdateListing rewrites a listing after a partial sale.
func (d *Database) UpdateListing(l auction.Listing) error {
	raw, err := json.Marshal(l.Item)
	if err != nil {
		return fmt.Errorf("failed to marshal listing item: %w", err)
	}

	_, err = d.db.Exec(
		d.rebind("UPDATE listings SET item = ?, quantity = ? WHERE id = ?"),
		string(raw), l.Item.Quantity, l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	return nil
}

// DeleteListing removes a listing once sold out or cancelled.
func (d *Database) DeleteListing(id string) error {
	_, err := d.db.Exec(d.rebind("DELETE FROM listings WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*auction.Listing, error) {
	var l auction.Listing
	var raw string
	err := row.Scan(&l.ID, &l.SellerID, &l.SellerName, &raw, &l.UnitPrice, &l.ListedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}

	var inst item.Instance
	if err := json.Unmarshal([]byte(raw), &inst); err != nil {
		return nil, fmt.Errorf("failed to parse listing item: %w", err)
	}
	l.Item = &inst
	return &l, nil
}
