// Package auction implements the centralized auction house: escrowed
// listings, purchases with gold settlement between two parties who may each
// be online or offline, and cancellation.
package auction

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spirekeep/idlespire/internal/item"
	"github.com/spirekeep/idlespire/internal/logger"
	"github.com/spirekeep/idlespire/internal/player"
)

var (
	ErrInvalidPrice    = errors.New("price must be a positive number")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrNotTradable     = errors.New("that item cannot be traded")
	ErrOwnListing      = errors.New("you cannot buy your own listing")
	ErrNotSeller       = errors.New("only the seller can cancel a listing")
	ErrInsufficientGold = errors.New("not enough gold")

	// ErrListingGone is the conflict error: the listing was sold or
	// cancelled before the operation committed.
	ErrListingGone = errors.New("that listing is no longer available")
)

// Listing is a durable auction record. The escrowed item leaves the seller's
// inventory at listing time; its quantity only ever decreases.
type Listing struct {
	ID         string
	SellerID   string
	SellerName string
	Item       *item.Instance
	UnitPrice  int
	ListedAt   time.Time
}

// Store is the durable listing storage plus the offline-seller credit path.
type Store interface {
	CreateListing(Listing) error
	GetListing(id string) (*Listing, error)
	Listings() ([]Listing, error)
	UpdateListing(Listing) error
	DeleteListing(id string) error
	AddGoldOffline(playerID string, amount int) error
}

// Sessions resolves online players so settlement can credit them in memory.
type Sessions interface {
	// Find returns the live session for a player id, nil when offline.
	Find(playerID string) *player.Session
}

// House wires the store and the online session registry together.
// mu serializes every read-validate-commit sequence against a listing so
// two concurrent buyers cannot both pass the quantity check.
type House struct {
	mu       sync.Mutex
	store    Store
	sessions Sessions
}

// NewHouse creates an auction house.
func NewHouse(store Store, sessions Sessions) *House {
	return &House{store: store, sessions: sessions}
}

// List escrows qty units of the seller's item into a new listing.
// The caller holds the seller's session lock.
func (h *House) List(seller *player.Session, instanceID string, qty, unitPrice int) (*Listing, error) {
	if unitPrice <= 0 {
		return nil, ErrInvalidPrice
	}
	inst, ok := item.FindByID(seller.Inventory, instanceID)
	if !ok {
		return nil, player.ErrItemNotFound
	}
	if !inst.Tradable || inst.Level > 0 {
		return nil, ErrNotTradable
	}
	if qty < 1 || qty > inst.Quantity {
		return nil, ErrInvalidQuantity
	}

	var escrowed *item.Instance
	if qty == inst.Quantity {
		item.Remove(&seller.Inventory, instanceID)
		escrowed = inst
	} else {
		split, err := inst.Split(qty)
		if err != nil {
			return nil, err
		}
		escrowed = split
	}

	listing := Listing{
		ID:         uuid.NewString(),
		SellerID:   seller.ID,
		SellerName: seller.Name,
		Item:       escrowed,
		UnitPrice:  unitPrice,
		ListedAt:   time.Now(),
	}

	if err := h.store.CreateListing(listing); err != nil {
		// Undo the escrow so the seller keeps their item.
		item.Stack(&seller.Inventory, escrowed)
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	return &listing, nil
}

// Purchase buys qty units from a listing. The durable listing is re-read
// immediately before commit; a vanished or shrunk listing degrades to
// ErrListingGone with no debit. The caller holds the buyer's session lock;
// the seller's session (when online) is locked here for the credit.
func (h *House) Purchase(buyer *player.Session, listingID string, qty int) (*Listing, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	listing, err := h.store.GetListing(listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}
	if listing == nil {
		return nil, ErrListingGone
	}
	if listing.SellerID == buyer.ID {
		return nil, ErrOwnListing
	}
	if qty < 1 || qty > listing.Item.Quantity {
		return nil, ErrInvalidQuantity
	}

	total := listing.UnitPrice * qty
	if buyer.Gold < total {
		return nil, ErrInsufficientGold
	}

	// Commit the listing side first: decrement or delete. Only after the
	// durable state reflects the sale do gold and items move, so a storage
	// failure never leaves a partial transfer.
	if qty == listing.Item.Quantity {
		if err := h.store.DeleteListing(listing.ID); err != nil {
			return nil, fmt.Errorf("failed to close listing: %w", err)
		}
	} else {
		listing.Item.Quantity -= qty
		if err := h.store.UpdateListing(*listing); err != nil {
			return nil, fmt.Errorf("failed to update listing: %w", err)
		}
	}

	buyer.Gold -= total

	purchased := *listing.Item
	purchased.InstanceID = uuid.NewString()
	purchased.Quantity = qty
	buyer.AddItem(&purchased)

	// Settle the seller off this goroutine: the caller holds the buyer's
	// session lock, and crediting an online seller takes theirs.
	go h.creditSeller(listing.SellerID, total)

	return listing, nil
}

// Cancel returns the escrowed item to the seller and deletes the listing.
// The caller holds the seller's session lock.
func (h *House) Cancel(seller *player.Session, listingID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	listing, err := h.store.GetListing(listingID)
	if err != nil {
		return fmt.Errorf("failed to read listing: %w", err)
	}
	if listing == nil {
		return ErrListingGone
	}
	if listing.SellerID != seller.ID {
		return ErrNotSeller
	}

	if err := h.store.DeleteListing(listing.ID); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	seller.AddItem(listing.Item)
	return nil
}

// Browse returns all current listings.
func (h *House) Browse() ([]Listing, error) {
	return h.store.Listings()
}

// creditSeller pays the seller: in memory when online, through the store
// when offline. Storage failures are swallowed here and retried by the
// periodic save; the sale itself already committed.
func (h *House) creditSeller(sellerID string, amount int) {
	if sess := h.sessions.Find(sellerID); sess != nil {
		sess.WithLock(func() {
			sess.AddGold(amount)
			sess.LogActivity(fmt.Sprintf("Auction sale settled for %d gold", amount))
		})
		return
	}
	if err := h.store.AddGoldOffline(sellerID, amount); err != nil {
		logger.Errorf("Failed to credit offline seller %s: %v", sellerID, err)
	}
}
