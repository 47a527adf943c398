package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	addresssvc "github.com/mariellesantos/floracart-backend/internal/address"
	authsvc "github.com/mariellesantos/floracart-backend/internal/auth"
	cartsvc "github.com/mariellesantos/floracart-backend/internal/cart"
	checkoutsvc "github.com/mariellesantos/floracart-backend/internal/checkout"
	"github.com/mariellesantos/floracart-backend/internal/deliveryfees"
	"github.com/mariellesantos/floracart-backend/internal/media"
	"github.com/mariellesantos/floracart-backend/internal/notifications"
	"github.com/mariellesantos/floracart-backend/internal/orders"
	"github.com/mariellesantos/floracart-backend/internal/products"
	"github.com/mariellesantos/floracart-backend/internal/requests"
	"github.com/mariellesantos/floracart-backend/internal/tracking"
	pkgauth "github.com/mariellesantos/floracart-backend/pkg/auth"
	"github.com/mariellesantos/floracart-backend/pkg/auth/session"
	"github.com/mariellesantos/floracart-backend/pkg/config"
	"github.com/mariellesantos/floracart-backend/pkg/db/models"
	"github.com/mariellesantos/floracart-backend/pkg/enums"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
	"github.com/mariellesantos/floracart-backend/pkg/pagination"
	"github.com/mariellesantos/floracart-backend/pkg/signal"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req authsvc.RegisterRequest) (*authsvc.LoginResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) AdminLogin(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Refresh(ctx context.Context, req authsvc.RefreshRequest) (*authsvc.LoginResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	panic("unimplemented")
}

type stubProductsService struct{}

func (stubProductsService) List(ctx context.Context, filter products.ListFilter, params pagination.Params) ([]models.Product, string, error) {
	return []models.Product{}, "", nil
}

func (stubProductsService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductsService) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductsService) Categories(ctx context.Context) ([]models.Category, error) {
	panic("unimplemented")
}

func (stubProductsService) Create(ctx context.Context, input products.CreateInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductsService) Update(ctx context.Context, id uuid.UUID, input products.UpdateInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubProductsService) Archive(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (stubProductsService) CreateCategory(ctx context.Context, input products.CategoryInput) (*models.Category, error) {
	panic("unimplemented")
}

type stubCartService struct{}

func (stubCartService) Load(ctx context.Context, ownerID uuid.UUID) ([]cartsvc.Line, error) {
	return []cartsvc.Line{}, nil
}

func (stubCartService) Add(ctx context.Context, ownerID uuid.UUID, line cartsvc.Line) ([]cartsvc.Line, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateQty(ctx context.Context, ownerID, productID uuid.UUID, qty int) ([]cartsvc.Line, error) {
	panic("unimplemented")
}

func (stubCartService) Remove(ctx context.Context, ownerID, productID uuid.UUID) ([]cartsvc.Line, error) {
	panic("unimplemented")
}

func (stubCartService) Count(ctx context.Context, ownerID uuid.UUID) (int, error) {
	panic("unimplemented")
}

func (stubCartService) Prune(ctx context.Context, ownerID uuid.UUID, productIDs []uuid.UUID) ([]cartsvc.Line, error) {
	panic("unimplemented")
}

func (stubCartService) Clear(ctx context.Context, ownerID uuid.UUID) error {
	panic("unimplemented")
}

type stubCheckoutService struct{}

func (stubCheckoutService) Checkout(ctx context.Context, userID uuid.UUID, input checkoutsvc.Input) (*models.Order, error) {
	panic("unimplemented")
}

type stubOrdersService struct{}

func (stubOrdersService) List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return []models.Order{}, "", nil
}

func (stubOrdersService) ListAll(ctx context.Context, filter orders.ListFilter, params pagination.Params) ([]models.Order, string, error) {
	return []models.Order{}, "", nil
}

func (stubOrdersService) Get(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) GetAny(ctx context.Context, orderNumber string) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Track(ctx context.Context, userID uuid.UUID, orderNumber string) (*tracking.Timeline, error) {
	panic("unimplemented")
}

func (stubOrdersService) Cancel(ctx context.Context, userID uuid.UUID, orderNumber string, reason string) error {
	panic("unimplemented")
}

func (stubOrdersService) ConfirmReceipt(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) UpdateStatus(ctx context.Context, input orders.StatusUpdateInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) ConfirmPayment(ctx context.Context, orderNumber string, actorID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

type stubRequestsService struct{}

func (stubRequestsService) Submit(ctx context.Context, userID uuid.UUID, input requests.SubmitInput) (*models.Request, error) {
	panic("unimplemented")
}

func (stubRequestsService) List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Request, string, error) {
	panic("unimplemented")
}

func (stubRequestsService) ListAll(ctx context.Context, filter requests.ListFilter, params pagination.Params) ([]models.Request, string, error) {
	panic("unimplemented")
}

func (stubRequestsService) Get(ctx context.Context, userID uuid.UUID, requestNumber string) (*models.Request, error) {
	panic("unimplemented")
}

func (stubRequestsService) GetAny(ctx context.Context, requestNumber string) (*models.Request, error) {
	panic("unimplemented")
}

func (stubRequestsService) Track(ctx context.Context, userID uuid.UUID, requestNumber string) (*tracking.Timeline, error) {
	panic("unimplemented")
}

func (stubRequestsService) Cancel(ctx context.Context, userID uuid.UUID, requestNumber string) error {
	panic("unimplemented")
}

func (stubRequestsService) AcceptQuote(ctx context.Context, userID uuid.UUID, requestNumber string) (*models.Request, error) {
	panic("unimplemented")
}

func (stubRequestsService) Quote(ctx context.Context, requestNumber string, priceCents int, actorID uuid.UUID) (*models.Request, error) {
	panic("unimplemented")
}

func (stubRequestsService) Decline(ctx context.Context, requestNumber string, reason string, actorID uuid.UUID) (*models.Request, error) {
	panic("unimplemented")
}

func (stubRequestsService) UpdateStatus(ctx context.Context, input requests.StatusUpdateInput) (*models.Request, error) {
	panic("unimplemented")
}

type stubNotificationsService struct{}

func (stubNotificationsService) Append(ctx context.Context, userID uuid.UUID, entry notifications.Entry) ([]notifications.Entry, error) {
	panic("unimplemented")
}

func (stubNotificationsService) List(ctx context.Context, userID uuid.UUID) ([]notifications.Entry, error) {
	return []notifications.Entry{}, nil
}

func (stubNotificationsService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	panic("unimplemented")
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, entryID uuid.UUID) error {
	panic("unimplemented")
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	panic("unimplemented")
}

func (stubNotificationsService) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	panic("unimplemented")
}

func (stubNotificationsService) Clear(ctx context.Context, userID uuid.UUID) error {
	panic("unimplemented")
}

type stubAddressService struct{}

func (stubAddressService) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	panic("unimplemented")
}

func (stubAddressService) Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	panic("unimplemented")
}

func (stubAddressService) Create(ctx context.Context, userID uuid.UUID, input addresssvc.Input) (*models.Address, error) {
	panic("unimplemented")
}

func (stubAddressService) Update(ctx context.Context, userID, addressID uuid.UUID, input addresssvc.Input) (*models.Address, error) {
	panic("unimplemented")
}

func (stubAddressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	panic("unimplemented")
}

func (stubAddressService) SetDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	panic("unimplemented")
}

type stubContentService struct{}

func (stubContentService) Get(ctx context.Context, key string) (*models.ContentEntry, error) {
	panic("unimplemented")
}

func (stubContentService) List(ctx context.Context) ([]models.ContentEntry, error) {
	panic("unimplemented")
}

func (stubContentService) Upsert(ctx context.Context, key string, value json.RawMessage) (*models.ContentEntry, error) {
	panic("unimplemented")
}

func (stubContentService) Delete(ctx context.Context, key string) error {
	panic("unimplemented")
}

type stubDeliveryFeesService struct{}

func (stubDeliveryFeesService) Quote(ctx context.Context, city, barangay string) (int, error) {
	panic("unimplemented")
}

func (stubDeliveryFeesService) List(ctx context.Context) ([]models.DeliveryFee, error) {
	panic("unimplemented")
}

func (stubDeliveryFeesService) Upsert(ctx context.Context, input deliveryfees.Input) (*models.DeliveryFee, error) {
	panic("unimplemented")
}

func (stubDeliveryFeesService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

type stubMediaService struct{}

func (stubMediaService) PresignUpload(ctx context.Context, userID uuid.UUID, isAdmin bool, input media.PresignInput) (*media.PresignOutput, error) {
	panic("unimplemented")
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:        cfg,
		Logger:        logg,
		DBPinger:      stubPinger{},
		RedisP:        stubPinger{},
		GCSPinger:     stubPinger{},
		Sessions:      stubSessionChecker{},
		Hub:           signal.NewHub(),
		Auth:          stubAuthService{},
		Products:      stubProductsService{},
		Cart:          stubCartService{},
		Checkout:      stubCheckoutService{},
		Orders:        stubOrdersService{},
		Requests:      stubRequestsService{},
		Notifications: stubNotificationsService{},
		Addresses:     stubAddressService{},
		Content:       stubContentService{},
		DeliveryFees:  stubDeliveryFeesService{},
		Media:         stubMediaService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthEndpointsAreOpen(t *testing.T) {
	router := newTestRouter(testConfig())

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestStorefrontCatalogIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public catalog got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAuthedCartEndpointAcceptsCustomer(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for cart got %d", resp.Code)
	}
}

func TestAuthedOrdersListAcceptsCustomer(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for orders list got %d", resp.Code)
	}
}
