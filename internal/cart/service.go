package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
	"github.com/mariellesantos/floracart-backend/pkg/redis"
	"github.com/mariellesantos/floracart-backend/pkg/signal"
)

// Line is one cart entry. Name, image and unit price snapshot the catalog at
// the moment of adding, so the cart renders without a catalog round trip.
// Custom items carry no product reference and are keyed by name; ID stays
// stable either way so later mutations can address the line.
type Line struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"productId"`
	Name           string    `json:"name"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	UnitPriceCents int       `json:"unitPriceCents"`
	Qty            int       `json:"qty"`
}

// matches reports whether the line answers to the given identifier, by line
// id or by product id.
func (l Line) matches(itemID uuid.UUID) bool {
	return l.ID == itemID || (l.ProductID != uuid.Nil && l.ProductID == itemID)
}

// Service defines the session cart operations.
type Service interface {
	Load(ctx context.Context, ownerID uuid.UUID) ([]Line, error)
	Add(ctx context.Context, ownerID uuid.UUID, line Line) ([]Line, error)
	UpdateQty(ctx context.Context, ownerID, itemID uuid.UUID, qty int) ([]Line, error)
	Remove(ctx context.Context, ownerID, itemID uuid.UUID) ([]Line, error)
	Count(ctx context.Context, ownerID uuid.UUID) (int, error)
	Prune(ctx context.Context, ownerID uuid.UUID, itemIDs []uuid.UUID) ([]Line, error)
	Clear(ctx context.Context, ownerID uuid.UUID) error
}

// Backend is the durable KV surface the cart persists through.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(ownerID string) string
}

type service struct {
	store Backend
	hub   signal.Publisher
	logg  *logger.Logger
}

// NewService wires cart dependencies.
func NewService(store Backend, hub signal.Publisher, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart backend required")
	}
	if hub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "signal hub required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{store: store, hub: hub, logg: logg}, nil
}

// Load returns the saved cart. A missing key or an unparseable value both
// resolve to an empty cart; corruption is logged, never surfaced.
func (s *service) Load(ctx context.Context, ownerID uuid.UUID) ([]Line, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	return s.load(ctx, ownerID)
}

// Add merges into an existing line, by product id when the item references
// the catalog, by name otherwise. New lines get a stable id: the product id,
// or a generated one for custom items.
func (s *service) Add(ctx context.Context, ownerID uuid.UUID, line Line) ([]Line, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if line.ProductID == uuid.Nil && line.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id or name required")
	}
	if line.Qty <= 0 {
		line.Qty = 1
	}

	lines, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range lines {
		if sameItem(lines[i], line) {
			lines[i].Qty += line.Qty
			merged = true
			break
		}
	}
	if !merged {
		if line.ID == uuid.Nil {
			line.ID = line.ProductID
		}
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		lines = append(lines, line)
	}

	if err := s.save(ctx, ownerID, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// sameItem applies the cart's uniqueness key: product id when present, name
// otherwise.
func sameItem(existing, incoming Line) bool {
	if incoming.ProductID != uuid.Nil {
		return existing.ProductID == incoming.ProductID
	}
	return existing.ProductID == uuid.Nil && existing.Name == incoming.Name
}

// UpdateQty sets the quantity for one line, matched by line id or product id.
// Quantities below one are rejected; lines leave the cart only through Remove.
func (s *service) UpdateQty(ctx context.Context, ownerID, itemID uuid.UUID, qty int) ([]Line, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	lines, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range lines {
		if lines[i].matches(itemID) {
			lines[i].Qty = qty
			found = true
			break
		}
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	if err := s.save(ctx, ownerID, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Remove drops the line matching itemID by line id or product id. Removing a
// line that is already gone is a no-op.
func (s *service) Remove(ctx context.Context, ownerID, itemID uuid.UUID) ([]Line, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	lines, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	kept := lines[:0]
	for _, line := range lines {
		if !line.matches(itemID) {
			kept = append(kept, line)
		}
	}

	if err := s.save(ctx, ownerID, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// Count sums quantities across lines, for the cart badge.
func (s *service) Count(ctx context.Context, ownerID uuid.UUID) (int, error) {
	if ownerID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}

	lines, err := s.load(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, line := range lines {
		total += line.Qty
	}
	return total, nil
}

// Prune drops the listed line or product ids from the cart. Checkout calls it
// with the purchased identifiers so unbought lines survive a partial checkout.
func (s *service) Prune(ctx context.Context, ownerID uuid.UUID, itemIDs []uuid.UUID) ([]Line, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if len(itemIDs) == 0 {
		return s.load(ctx, ownerID)
	}

	drop := make(map[uuid.UUID]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if id == uuid.Nil {
			continue
		}
		drop[id] = struct{}{}
	}

	lines, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	kept := lines[:0]
	for _, line := range lines {
		_, byID := drop[line.ID]
		_, byProduct := drop[line.ProductID]
		if !byID && !byProduct {
			kept = append(kept, line)
		}
	}

	if err := s.save(ctx, ownerID, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

func (s *service) Clear(ctx context.Context, ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if err := s.store.Del(ctx, s.store.CartKey(ownerID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	s.hub.Publish(signal.Event{Topic: signal.TopicCart, OwnerID: ownerID.String()})
	return nil
}

func (s *service) load(ctx context.Context, ownerID uuid.UUID) ([]Line, error) {
	raw, err := s.store.Get(ctx, s.store.CartKey(ownerID.String()))
	if err != nil {
		if redis.IsNil(err) {
			return []Line{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		logCtx := s.logg.WithUserID(ctx, ownerID.String())
		s.logg.Warn(logCtx, "cart payload unparseable, treating as empty")
		return []Line{}, nil
	}
	if lines == nil {
		lines = []Line{}
	}
	return lines, nil
}

func (s *service) save(ctx context.Context, ownerID uuid.UUID, lines []Line) error {
	payload, err := json.Marshal(lines)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.store.Set(ctx, s.store.CartKey(ownerID.String()), string(payload), 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	s.hub.Publish(signal.Event{Topic: signal.TopicCart, OwnerID: ownerID.String()})
	return nil
}
