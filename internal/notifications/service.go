package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mariellesantos/floracart-backend/pkg/db/models"
	"github.com/mariellesantos/floracart-backend/pkg/enums"
	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
	"github.com/mariellesantos/floracart-backend/pkg/redis"
	"github.com/mariellesantos/floracart-backend/pkg/signal"
)

// DefaultFeedCap bounds the per-user feed length when config does not set one.
const DefaultFeedCap = 100

// Entry is one feed record as the storefront renders it.
type Entry struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Link      string                 `json:"link,omitempty"`
	Icon      string                 `json:"icon,omitempty"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"createdAt"`
}

// Service defines the notification feed operations.
type Service interface {
	Append(ctx context.Context, userID uuid.UUID, entry Entry) ([]Entry, error)
	List(ctx context.Context, userID uuid.UUID) ([]Entry, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, userID, entryID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, userID, entryID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// Backend is the durable KV surface the feed persists through.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	NotificationsKey(ownerID string) string
}

type service struct {
	store  Backend
	mirror Repository
	hub    signal.Publisher
	logg   *logger.Logger
	cap    int
}

// NewService wires the feed. The mirror repository is optional; when present
// it receives best-effort copies of every mutation.
func NewService(store Backend, mirror Repository, hub signal.Publisher, logg *logger.Logger, feedCap int) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications backend required")
	}
	if hub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "signal hub required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if feedCap <= 0 {
		feedCap = DefaultFeedCap
	}
	return &service{store: store, mirror: mirror, hub: hub, logg: logg, cap: feedCap}, nil
}

// Append prepends the entry, then deduplicates by id keeping the first
// occurrence, so re-delivery of the same event never grows the feed.
func (s *service) Append(ctx context.Context, userID uuid.UUID, entry Entry) ([]Entry, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if !entry.Type.IsValid() {
		entry.Type = enums.NotificationTypeDefault
	}

	entries, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries = append([]Entry{entry}, entries...)
	entries = dedupeByID(entries)
	if len(entries) > s.cap {
		entries = entries[:s.cap]
	}

	if err := s.save(ctx, userID, entries); err != nil {
		return nil, err
	}

	s.mirrorWrite(ctx, userID, "mirror notification insert", func(repo Repository) error {
		return repo.Create(ctx, entryToModel(userID, entry))
	})

	return entries, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.load(ctx, userID)
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if !entry.Read {
			count++
		}
	}
	return count, nil
}

// MarkRead flips the read flag locally first; the mirror write is
// best-effort and never rolls the local update back.
func (s *service) MarkRead(ctx context.Context, userID, entryID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if entryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	entries, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	found := false
	for i := range entries {
		if entries[i].ID == entryID {
			entries[i].Read = true
			found = true
			break
		}
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}

	if err := s.save(ctx, userID, entries); err != nil {
		return err
	}

	s.mirrorWrite(ctx, userID, "mirror notification read", func(repo Repository) error {
		return repo.MarkRead(ctx, userID, entryID, time.Now().UTC())
	})
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	entries, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	for i := range entries {
		entries[i].Read = true
	}

	if err := s.save(ctx, userID, entries); err != nil {
		return err
	}

	s.mirrorWrite(ctx, userID, "mirror notifications read", func(repo Repository) error {
		_, err := repo.MarkAllRead(ctx, userID, time.Now().UTC())
		return err
	})
	return nil
}

func (s *service) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if entryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	entries, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, entry := range entries {
		if entry.ID != entryID {
			kept = append(kept, entry)
		}
	}

	if err := s.save(ctx, userID, kept); err != nil {
		return err
	}

	s.mirrorWrite(ctx, userID, "mirror notification delete", func(repo Repository) error {
		return repo.Delete(ctx, userID, entryID)
	})
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	if err := s.store.Del(ctx, s.store.NotificationsKey(userID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear notifications")
	}
	s.hub.Publish(signal.Event{Topic: signal.TopicNotifications, OwnerID: userID.String()})

	s.mirrorWrite(ctx, userID, "mirror notifications clear", func(repo Repository) error {
		return repo.Clear(ctx, userID)
	})
	return nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	raw, err := s.store.Get(ctx, s.store.NotificationsKey(userID.String()))
	if err != nil {
		if redis.IsNil(err) {
			return []Entry{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notifications")
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		logCtx := s.logg.WithUserID(ctx, userID.String())
		s.logg.Warn(logCtx, "notification feed unparseable, treating as empty")
		return []Entry{}, nil
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func (s *service) save(ctx context.Context, userID uuid.UUID, entries []Entry) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode notifications")
	}
	if err := s.store.Set(ctx, s.store.NotificationsKey(userID.String()), string(payload), 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save notifications")
	}
	s.hub.Publish(signal.Event{Topic: signal.TopicNotifications, OwnerID: userID.String()})
	return nil
}

func (s *service) mirrorWrite(ctx context.Context, userID uuid.UUID, action string, write func(Repository) error) {
	if s.mirror == nil {
		return
	}
	if err := write(s.mirror); err != nil {
		logCtx := s.logg.WithUserID(ctx, userID.String())
		logCtx = s.logg.WithField(logCtx, "action", action)
		logCtx = s.logg.WithField(logCtx, "error", err.Error())
		s.logg.Warn(logCtx, "notification mirror write failed")
	}
}

func dedupeByID(entries []Entry) []Entry {
	seen := make(map[uuid.UUID]struct{}, len(entries))
	out := entries[:0]
	for _, entry := range entries {
		if _, dup := seen[entry.ID]; dup {
			continue
		}
		seen[entry.ID] = struct{}{}
		out = append(out, entry)
	}
	return out
}

func entryToModel(userID uuid.UUID, entry Entry) *models.Notification {
	model := &models.Notification{
		ID:        entry.ID,
		UserID:    userID,
		Type:      entry.Type,
		Title:     entry.Title,
		Message:   entry.Message,
		CreatedAt: entry.CreatedAt,
	}
	if entry.Link != "" {
		model.Link = &entry.Link
	}
	if entry.Icon != "" {
		model.Icon = &entry.Icon
	}
	return model
}
