package db

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/deemkeen/deckhand/domain"
)

// ButtonsKey is the single record holding the serialized button list.
const ButtonsKey = "deck.buttons"

// KV is the slice of DB the button store needs.
type KV interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
}

// ButtonStore owns the ordered button list. It reads the record once and
// rewrites it in full on every create, update or delete.
type ButtonStore struct {
	mu      sync.RWMutex
	kv      KV
	buttons []domain.ButtonConfig
}

// LoadButtons reads the persisted list. A missing, unreadable or malformed
// record yields the default deck; that case is logged, never returned.
func LoadButtons(kv KV) *ButtonStore {
	s := &ButtonStore{kv: kv}
	s.buttons = readButtons(kv)
	return s
}

func readButtons(kv KV) []domain.ButtonConfig {
	raw, ok, err := kv.Get(ButtonsKey)
	if err != nil {
		log.Printf("[buttons] Failed to read stored buttons, using defaults: %v", err)
		return domain.DefaultButtons()
	}
	if !ok {
		return domain.DefaultButtons()
	}

	var buttons []domain.ButtonConfig
	if err := json.Unmarshal([]byte(raw), &buttons); err != nil {
		log.Printf("[buttons] Stored buttons are malformed, using defaults: %v", err)
		return domain.DefaultButtons()
	}
	if buttons == nil {
		return domain.DefaultButtons()
	}
	if err := checkButtons(buttons); err != nil {
		log.Printf("[buttons] Stored buttons are malformed, using defaults: %v", err)
		return domain.DefaultButtons()
	}
	return buttons
}

// checkButtons rejects a list with an invalid entry or a repeated id.
func checkButtons(buttons []domain.ButtonConfig) error {
	seen := make(map[string]bool, len(buttons))
	for i, b := range buttons {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("button %d: %w", i, err)
		}
		if seen[b.ID] {
			return fmt.Errorf("duplicate button id %q", b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}

// List returns a copy of the buttons in display order.
func (s *ButtonStore) List() []domain.ButtonConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ButtonConfig, len(s.buttons))
	copy(out, s.buttons)
	return out
}

func (s *ButtonStore) Find(id string) (domain.ButtonConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.FindButton(s.buttons, id)
}

// Create appends b, assigning a fresh id when b has none.
func (s *ButtonStore) Create(b domain.ButtonConfig) (domain.ButtonConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = domain.NewButtonID()
	}
	if err := b.Validate(); err != nil {
		return domain.ButtonConfig{}, err
	}
	if _, exists := domain.FindButton(s.buttons, b.ID); exists {
		return domain.ButtonConfig{}, fmt.Errorf("button %s already exists", b.ID)
	}

	next := append(s.clone(), b)
	if err := s.persist(next); err != nil {
		return domain.ButtonConfig{}, err
	}
	return b, nil
}

// Update replaces the button with b.ID in place.
func (s *ButtonStore) Update(b domain.ButtonConfig) (domain.ButtonConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := b.Validate(); err != nil {
		return domain.ButtonConfig{}, err
	}

	next := s.clone()
	idx := indexOf(next, b.ID)
	if idx < 0 {
		return domain.ButtonConfig{}, fmt.Errorf("%w: %s", domain.ErrButtonNotFound, b.ID)
	}
	next[idx] = b

	if err := s.persist(next); err != nil {
		return domain.ButtonConfig{}, err
	}
	return b, nil
}

// Save creates b when its id is new or empty, otherwise updates it.
func (s *ButtonStore) Save(b domain.ButtonConfig) (domain.ButtonConfig, error) {
	if b.ID != "" {
		if _, ok := s.Find(b.ID); ok {
			return s.Update(b)
		}
	}
	return s.Create(b)
}

func (s *ButtonStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.clone()
	idx := indexOf(next, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrButtonNotFound, id)
	}
	next = append(next[:idx], next[idx+1:]...)

	return s.persist(next)
}

// Reset restores and persists the default deck.
func (s *ButtonStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(domain.DefaultButtons())
}

// persist writes next and, only on success, makes it the current list.
func (s *ButtonStore) persist(next []domain.ButtonConfig) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal buttons: %w", err)
	}
	if err := s.kv.Put(ButtonsKey, string(data)); err != nil {
		return err
	}
	s.buttons = next
	return nil
}

func (s *ButtonStore) clone() []domain.ButtonConfig {
	out := make([]domain.ButtonConfig, len(s.buttons))
	copy(out, s.buttons)
	return out
}

func indexOf(buttons []domain.ButtonConfig, id string) int {
	for i, b := range buttons {
		if b.ID == id {
			return i
		}
	}
	return -1
}
