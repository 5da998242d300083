package player

import (
	"encoding/json"
	"time"

	"github.com/spirekeep/idlespire/internal/item"
	"github.com/spirekeep/idlespire/internal/stats"
)

// State is the durable form of a session. Derived totals and the current
// monster are not persisted; they are recomputed on load.
type State struct {
	Gold         int              `json:"gold"`
	Base         stats.Base       `json:"base"`
	HP           float64          `json:"hp"`
	Floor        int              `json:"floor"`
	MaxFloor     int              `json:"max_floor"`
	ClearedCount int              `json:"cleared_count"`
	Weapon       *item.Instance   `json:"weapon,omitempty"`
	Armor        *item.Instance   `json:"armor,omitempty"`
	Inventory    []*item.Instance `json:"inventory"`
	Companions   []*item.Instance `json:"companions"`
	EquippedPet  string           `json:"equipped_pet,omitempty"` // instance id
	Artifacts    []string         `json:"artifacts,omitempty"`
	Incubator    *Incubation      `json:"incubator,omitempty"`
	Fusion       *FusionJob       `json:"fusion,omitempty"`
	Exploring    bool             `json:"exploring,omitempty"`
	ReviveReady  time.Time        `json:"revive_ready,omitempty"`
	Activity     []ActivityEntry  `json:"activity,omitempty"`
}

// ExportState snapshots the session into its durable form.
// Caller holds the lock.
func (s *Session) ExportState() State {
	st := State{
		Gold:         s.Gold,
		Base:         s.Base,
		HP:           s.HP,
		Floor:        s.Floor,
		MaxFloor:     s.MaxFloor,
		ClearedCount: s.ClearedCount,
		Weapon:       s.Weapon,
		Armor:        s.Armor,
		Inventory:    s.Inventory,
		Companions:   s.Companions,
		Incubator:    s.Incubator,
		Fusion:       s.Fusion,
		Exploring:    s.Exploring,
		ReviveReady:  s.ReviveReadyAt,
		Activity:     s.Activity,
	}
	if s.EquippedPet != nil {
		st.EquippedPet = s.EquippedPet.InstanceID
	}
	for id := range s.Artifacts {
		st.Artifacts = append(st.Artifacts, id)
	}
	return st
}

// ApplyState restores durable state into the session, defaulting missing
// fields. Totals are not touched; callers run Recompute afterwards.
// Caller holds the lock.
func (s *Session) ApplyState(st State) {
	s.Gold = st.Gold
	if st.Base.HP > 0 {
		s.Base = st.Base
	}
	s.HP = st.HP
	s.Floor = st.Floor
	if s.Floor < 1 {
		s.Floor = 1
	}
	s.MaxFloor = st.MaxFloor
	if s.MaxFloor < s.Floor {
		s.MaxFloor = s.Floor
	}
	s.ClearedCount = st.ClearedCount
	s.Weapon = st.Weapon
	s.Armor = st.Armor
	if st.Inventory != nil {
		s.Inventory = st.Inventory
	}
	if st.Companions != nil {
		s.Companions = st.Companions
	}
	s.Artifacts = make(map[string]bool)
	for _, id := range st.Artifacts {
		s.Artifacts[id] = true
	}
	if st.EquippedPet != "" {
		if pet, ok := item.FindByID(s.Companions, st.EquippedPet); ok {
			s.EquippedPet = pet
		}
	}
	s.Incubator = st.Incubator
	s.Fusion = st.Fusion
	s.Exploring = st.Exploring
	s.ReviveReadyAt = st.ReviveReady
	s.Activity = st.Activity
}

// MarshalState serializes durable state to JSON.
func MarshalState(st State) ([]byte, error) {
	return json.Marshal(st)
}

// UnmarshalState parses durable state from JSON.
func UnmarshalState(data []byte) (State, error) {
	var st State
	err := json.Unmarshal(data, &st)
	return st, err
}
