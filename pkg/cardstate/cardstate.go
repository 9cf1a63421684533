// Package cardstate is the in-process authority for card workflow state:
// which stage each card has reached, where its sheet row lives, and the
// per-user card sequence counters. It replaces two scan-then-write patterns
// (row lookup by full-table scan, sequence by row counting) with an indexed
// registry and real counters, and makes stage transitions enforceable
// server-side. The spreadsheet stays the durable record; this registry is a
// rebuildable index over it.
package cardstate

import (
	"errors"
	"fmt"
	"sync"

	"inci.cards/models"
)

// ErrStaleStage reports a mutation arriving before its prerequisite stage
// completed.
var ErrStaleStage = errors.New("card has not reached the required stage")

// ErrUnknownCard reports a card id the registry has never seen.
var ErrUnknownCard = errors.New("card not registered")

// Card is the registry's view of one card.
type Card struct {
	CardID         string
	UserID         string
	ProductName    string
	RowNumber      int
	Stage          models.CardStage
	CardFolderID   string
	PhotosFolderID string
}

// Registry holds all card state for this process.
type Registry struct {
	mu     sync.Mutex
	cards  map[string]Card
	seq    map[string]int
	seeded map[string]bool
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		cards:  make(map[string]Card),
		seq:    make(map[string]int),
		seeded: make(map[string]bool),
	}
}

// NextSequence reserves the next card sequence number for the user. The first
// call per user runs seed (normally a sheet scan counting existing cards) and
// continues from there; later calls increment the counter without touching
// the sheet. The counter is held under the registry lock, so concurrent
// creates for one user can no longer race to the same number.
func (r *Registry) NextSequence(userID string, seed func() (int, error)) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.seeded[userID] {
		count, err := seed()
		if err != nil {
			return 0, fmt.Errorf("seeding card counter for %s: %w", userID, err)
		}
		r.seq[userID] = count
		r.seeded[userID] = true
	}

	r.seq[userID]++
	return r.seq[userID], nil
}

// Register records a freshly created card at StageCreated.
func (r *Registry) Register(card Card) {
	card.Stage = models.StageCreated
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[card.CardID] = card
}

// Get returns the registered state of a card.
func (r *Registry) Get(cardID string) (Card, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cards[cardID]
	return c, ok
}

// Advance checks that the card reached prereq and then records target as the
// new stage if it is further along. Re-running a completed stage is allowed;
// the stage never moves backwards. A card short of prereq yields
// ErrStaleStage.
func (r *Registry) Advance(cardID string, prereq, target models.CardStage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cards[cardID]
	if !ok {
		return ErrUnknownCard
	}
	if c.Stage < prereq {
		return fmt.Errorf("%w: card %s is at %s, stage %s must complete first",
			ErrStaleStage, cardID, c.Stage, prereq)
	}
	if target > c.Stage {
		c.Stage = target
		r.cards[cardID] = c
	}
	return nil
}

// Restore registers a card recovered from the sheet (e.g. after a restart)
// at the given stage without transition checks.
func (r *Registry) Restore(card Card) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards[card.CardID] = card
}

// Rename updates the cached product name after a name change.
func (r *Registry) Rename(cardID, productName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.cards[cardID]; ok {
		c.ProductName = productName
		r.cards[cardID] = c
	}
}
