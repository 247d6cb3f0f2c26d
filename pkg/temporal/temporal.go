// Package temporal orchestrates the bitemporal chronicle store: recording a
// new fact closes whatever chronicle was current for the same
// (owner, entity, attribute) tuple, so at most one chronicle is ever current
// per tuple (spec §4.6). It composes the narrow CRUD/query primitives on
// core.Store rather than owning persistence itself, the same layering the
// ingest and retrieve orchestrators use above Store.
package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/synaptic-mem/engram/pkg/core"
)

// Engine records and queries chronicles.
type Engine struct {
	store core.Store
}

// New returns an Engine backed by store.
func New(store core.Store) *Engine {
	return &Engine{store: store}
}

// RecordFact closes the current chronicle for (ownerID, entity, attribute),
// if any, by setting its EffectiveUntil to effectiveFrom, then inserts a new
// current chronicle for value. effectiveFrom defaults to now if zero. If the
// current chronicle already holds value, nothing is written and that
// chronicle is returned.
func (e *Engine) RecordFact(ctx context.Context, ownerID, entity, attribute, value string, certainty float64, effectiveFrom time.Time, metadata map[string]any) (*core.Chronicle, error) {
	if ownerID == "" || entity == "" || attribute == "" {
		return nil, core.Validationf("ownerID, entity and attribute are required")
	}
	if effectiveFrom.IsZero() {
		effectiveFrom = time.Now().UTC()
	}

	current, err := e.store.GetCurrentFact(ctx, ownerID, entity, attribute)
	if err != nil && err != core.ErrNotFound {
		return nil, fmt.Errorf("lookup current fact: %w", err)
	}
	if current != nil && current.Value == value {
		return current, nil
	}
	if current != nil {
		until := effectiveFrom
		current.EffectiveUntil = &until
		if err := e.store.UpdateChronicle(ctx, current); err != nil {
			return nil, fmt.Errorf("close superseded chronicle: %w", err)
		}
	}

	next := &core.Chronicle{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Entity:        entity,
		Attribute:     attribute,
		Value:         value,
		Certainty:     certainty,
		EffectiveFrom: effectiveFrom,
		RecordedAt:    time.Now().UTC(),
		Metadata:      metadata,
	}
	if err := e.store.CreateChronicle(ctx, next); err != nil {
		return nil, fmt.Errorf("create chronicle: %w", err)
	}
	return next, nil
}

// Expire closes chronicle id if it is currently open (spec §4.6: deleting a
// chronicle is a soft operation that sets EffectiveUntil to now). It is a
// no-op if the chronicle is already closed, and returns core.ErrNotFound if
// id does not exist for ownerID.
func (e *Engine) Expire(ctx context.Context, ownerID, id string) error {
	if err := e.store.DeleteChronicle(ctx, ownerID, id); err != nil {
		return fmt.Errorf("expire chronicle: %w", err)
	}
	return nil
}

// Query resolves a general chronicle query (spec §4.6: any subset of
// entity, attribute, a point-in-time instant "as of", or a [from, to)
// range), returned newest-effective-first.
func (e *Engine) Query(ctx context.Context, ownerID string, q core.ChronicleQuery) ([]core.Chronicle, error) {
	return e.store.QueryChronicles(ctx, ownerID, q)
}

// AsOf returns every chronicle current for ownerID at instant t.
func (e *Engine) AsOf(ctx context.Context, ownerID string, t time.Time) ([]core.Chronicle, error) {
	return e.store.QueryChronicles(ctx, ownerID, core.ChronicleQuery{At: &t})
}

// Timeline returns every chronicle ever recorded for entity, oldest first.
func (e *Engine) Timeline(ctx context.Context, ownerID, entity string) ([]core.Chronicle, error) {
	return e.store.GetTimeline(ctx, ownerID, entity)
}

// Link creates a nexus bond between two chronicles.
func (e *Engine) Link(ctx context.Context, ownerID, originID, linkedID, bondType string, strength float64) (*core.Nexus, error) {
	n := &core.Nexus{
		ID:            uuid.NewString(),
		OriginID:      originID,
		LinkedID:      linkedID,
		BondType:      bondType,
		Strength:      strength,
		EffectiveFrom: time.Now().UTC(),
	}
	if err := e.store.CreateNexus(ctx, n); err != nil {
		return nil, fmt.Errorf("create nexus: %w", err)
	}
	return n, nil
}

// Related returns the chronicles linked to chronicleID via a nexus.
func (e *Engine) Related(ctx context.Context, ownerID, chronicleID string) ([]core.Chronicle, error) {
	return e.store.GetRelatedChronicles(ctx, ownerID, chronicleID)
}
