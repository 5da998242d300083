// Package records tracks server-wide best achievements: top floor, top gold,
// top enhancement per equipment type, and the best loot seen per grade.
// Records are monotonic, replaced only by a strictly better value.
package records

import (
	"fmt"
	"sync"

	"github.com/spirekeep/idlespire/internal/catalog"
)

// Kind identifies a record type.
type Kind string

const (
	KindTopFloor      Kind = "top_floor"
	KindTopGold       Kind = "top_gold"
	KindWeaponEnhance Kind = "weapon_enhance"
	KindArmorEnhance  Kind = "armor_enhance"
)

// LootKind returns the record kind for the best loot of a grade.
func LootKind(grade catalog.Grade) Kind {
	return Kind(fmt.Sprintf("loot_%s", grade))
}

// Record is the current best known holder for one record type.
type Record struct {
	Kind   Kind
	Holder string // player display name
	Value  int64
	Detail string // item name for loot/enhance records, empty otherwise
}

// Store defines the persistence interface for records.
type Store interface {
	LoadRecords() ([]Record, error)
	SaveRecord(Record) error
}

// Registry is the in-memory record cache backed by a store.
type Registry struct {
	store Store
	mu    sync.RWMutex
	best  map[Kind]Record
}

// NewRegistry creates a registry and loads current records from the store.
func NewRegistry(store Store) (*Registry, error) {
	r := &Registry{
		store: store,
		best:  make(map[Kind]Record),
	}
	loaded, err := store.LoadRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	for _, rec := range loaded {
		r.best[rec.Kind] = rec
	}
	return r, nil
}

// Get returns the current record for a kind.
func (r *Registry) Get(kind Kind) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.best[kind]
	return rec, ok
}

// All returns a snapshot of every record.
func (r *Registry) All() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.best))
	for _, rec := range r.best {
		out = append(out, rec)
	}
	return out
}

// Observe offers a candidate value. The record is replaced only when the
// value is strictly better than the current best. Returns true when the
// record changed; the save error is the caller's to log, the in-memory
// record is updated regardless.
func (r *Registry) Observe(kind Kind, holder string, value int64, detail string) (bool, error) {
	r.mu.Lock()
	current, ok := r.best[kind]
	if ok && value <= current.Value {
		r.mu.Unlock()
		return false, nil
	}
	rec := Record{Kind: kind, Holder: holder, Value: value, Detail: detail}
	r.best[kind] = rec
	r.mu.Unlock()

	if err := r.store.SaveRecord(rec); err != nil {
		return true, fmt.Errorf("failed to save record %s: %w", kind, err)
	}
	return true, nil
}
