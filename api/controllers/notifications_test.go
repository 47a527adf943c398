package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	notifsvc "github.com/mariellesantos/floracart-backend/internal/notifications"
	"github.com/mariellesantos/floracart-backend/pkg/enums"
	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
)

type stubNotificationsService struct {
	entries    []notifsvc.Entry
	markedRead []uuid.UUID
	err        error
}

func (s *stubNotificationsService) Append(ctx context.Context, userID uuid.UUID, entry notifsvc.Entry) ([]notifsvc.Entry, error) {
	return s.entries, s.err
}

func (s *stubNotificationsService) List(ctx context.Context, userID uuid.UUID) ([]notifsvc.Entry, error) {
	return s.entries, s.err
}

func (s *stubNotificationsService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count := 0
	for _, entry := range s.entries {
		if !entry.Read {
			count++
		}
	}
	return count, s.err
}

func (s *stubNotificationsService) MarkRead(ctx context.Context, userID, entryID uuid.UUID) error {
	s.markedRead = append(s.markedRead, entryID)
	return s.err
}

func (s *stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.err
}

func (s *stubNotificationsService) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	return s.err
}

func (s *stubNotificationsService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.err
}

func TestListNotificationsSuccess(t *testing.T) {
	entries := []notifsvc.Entry{
		{ID: uuid.New(), Type: enums.NotificationTypeOrder, Title: "Order on the way", CreatedAt: time.Now().UTC()},
		{ID: uuid.New(), Type: enums.NotificationTypeDefault, Title: "Mother's Day sale", Read: true, CreatedAt: time.Now().UTC()},
	}
	handler := ListNotifications(&stubNotificationsService{entries: entries}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/notifications", nil, uuid.New()))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Items []notifsvc.Entry `json:"items"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 2 {
		t.Fatalf("expected 2 entries got %d", len(envelope.Data.Items))
	}
}

func TestMarkNotificationRead(t *testing.T) {
	svc := &stubNotificationsService{}
	handler := MarkNotificationRead(svc, nil)
	entryID := uuid.New()

	req := authedRequest(http.MethodPost, "/api/v1/notifications/"+entryID.String()+"/read", nil, uuid.New())
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", entryID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(svc.markedRead) != 1 || svc.markedRead[0] != entryID {
		t.Fatalf("expected entry %s marked read, got %v", entryID, svc.markedRead)
	}
}

func TestMarkNotificationReadRejectsBadID(t *testing.T) {
	handler := MarkNotificationRead(&stubNotificationsService{}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/notifications/nope/read", nil, uuid.New())
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", "nope")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUnreadCountSurfacesBackendFailure(t *testing.T) {
	svc := &stubNotificationsService{err: pkgerrors.New(pkgerrors.CodeDependency, "redis down")}
	handler := NotificationUnreadCount(svc, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/notifications/unread-count", nil, uuid.New()))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
