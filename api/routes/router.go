package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mariellesantos/floracart-backend/api/controllers"
	"github.com/mariellesantos/floracart-backend/api/middleware"
	"github.com/mariellesantos/floracart-backend/internal/address"
	"github.com/mariellesantos/floracart-backend/internal/auth"
	"github.com/mariellesantos/floracart-backend/internal/cart"
	checkoutsvc "github.com/mariellesantos/floracart-backend/internal/checkout"
	"github.com/mariellesantos/floracart-backend/internal/content"
	"github.com/mariellesantos/floracart-backend/internal/deliveryfees"
	"github.com/mariellesantos/floracart-backend/internal/media"
	"github.com/mariellesantos/floracart-backend/internal/notifications"
	"github.com/mariellesantos/floracart-backend/internal/orders"
	"github.com/mariellesantos/floracart-backend/internal/products"
	"github.com/mariellesantos/floracart-backend/internal/requests"
	"github.com/mariellesantos/floracart-backend/pkg/auth/session"
	"github.com/mariellesantos/floracart-backend/pkg/config"
	"github.com/mariellesantos/floracart-backend/pkg/db"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
	"github.com/mariellesantos/floracart-backend/pkg/metrics"
	"github.com/mariellesantos/floracart-backend/pkg/redis"
	"github.com/mariellesantos/floracart-backend/pkg/signal"
	"github.com/mariellesantos/floracart-backend/pkg/storage/gcs"
)

// Deps bundles everything the router wires into handlers. The list is long
// on purpose; main assembles it once and nothing else touches globals.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.HTTPMetrics

	DBPinger  db.Pinger
	RedisP    redis.Pinger
	GCSPinger gcs.Pinger

	IdempotencyStore redis.IdempotencyStore
	Sessions         session.AccessSessionChecker
	Hub              *signal.Hub

	Auth          auth.Service
	Products      products.Service
	Cart          cart.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Requests      requests.Service
	Notifications notifications.Service
	Addresses     address.Service
	Content       content.Service
	DeliveryFees  deliveryfees.Service
	Media         media.Service
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins...),
		middleware.Logging(logg, d.Metrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DBPinger, d.RedisP, d.GCSPinger))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	// Storefront pages that render before login.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(d.Products, logg))
		r.Get("/{slug}", controllers.GetProduct(d.Products, logg))
	})
	r.Get("/api/v1/categories", controllers.ListCategories(d.Products, logg))
	r.Get("/api/v1/content/{key}", controllers.GetContent(d.Content, logg))
	r.Get("/api/v1/delivery-fees", controllers.QuoteDeliveryFee(d.DeliveryFees, logg))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(d.Auth, logg))
		r.Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(d.Auth, cfg.JWT, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AdminAuthLogin(d.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.Idempotency(d.IdempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(d.Cart, logg))
			r.Get("/count", controllers.CartCount(d.Cart, logg))
			r.Post("/items", controllers.AddCartItem(d.Cart, logg))
			r.Patch("/items/{itemID}", controllers.UpdateCartQty(d.Cart, logg))
			r.Delete("/items/{itemID}", controllers.RemoveCartItem(d.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(d.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(d.Orders, logg))
			r.Get("/{orderNumber}", controllers.GetOrder(d.Orders, logg))
			r.Get("/{orderNumber}/track", controllers.TrackOrder(d.Orders, logg))
			r.Post("/{orderNumber}/cancel", controllers.CancelOrder(d.Orders, logg))
			r.Post("/{orderNumber}/confirm-receipt", controllers.ConfirmOrderReceipt(d.Orders, logg))
		})

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", controllers.SubmitRequest(d.Requests, logg))
			r.Get("/", controllers.ListRequests(d.Requests, logg))
			r.Get("/{requestNumber}", controllers.GetRequest(d.Requests, logg))
			r.Get("/{requestNumber}/track", controllers.TrackRequest(d.Requests, logg))
			r.Post("/{requestNumber}/cancel", controllers.CancelRequest(d.Requests, logg))
			r.Post("/{requestNumber}/accept-quote", controllers.AcceptRequestQuote(d.Requests, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(d.Notifications, logg))
			r.Get("/unread-count", controllers.NotificationUnreadCount(d.Notifications, logg))
			r.Get("/stream", controllers.StreamNotifications(d.Hub, logg))
			r.Post("/{id}/read", controllers.MarkNotificationRead(d.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(d.Notifications, logg))
			r.Delete("/{id}", controllers.DeleteNotification(d.Notifications, logg))
			r.Delete("/", controllers.ClearNotifications(d.Notifications, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(d.Addresses, logg))
			r.Post("/", controllers.CreateAddress(d.Addresses, logg))
			r.Get("/{id}", controllers.GetAddress(d.Addresses, logg))
			r.Put("/{id}", controllers.UpdateAddress(d.Addresses, logg))
			r.Delete("/{id}", controllers.DeleteAddress(d.Addresses, logg))
			r.Post("/{id}/default", controllers.SetDefaultAddress(d.Addresses, logg))
		})

		r.Post("/media/presign", controllers.MediaPresign(d.Media, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.Sessions, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(d.IdempotencyStore, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(d.Products, logg))
			r.Patch("/{id}", controllers.AdminUpdateProduct(d.Products, logg))
			r.Delete("/{id}", controllers.AdminArchiveProduct(d.Products, logg))
		})
		r.Post("/categories", controllers.AdminCreateCategory(d.Products, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(d.Orders, logg))
			r.Get("/{orderNumber}", controllers.AdminGetOrder(d.Orders, logg))
			r.Patch("/{orderNumber}/status", controllers.AdminUpdateOrderStatus(d.Orders, logg))
			r.Post("/{orderNumber}/confirm-payment", controllers.AdminConfirmOrderPayment(d.Orders, logg))
		})

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", controllers.AdminListRequests(d.Requests, logg))
			r.Get("/{requestNumber}", controllers.AdminGetRequest(d.Requests, logg))
			r.Post("/{requestNumber}/quote", controllers.AdminQuoteRequest(d.Requests, logg))
			r.Post("/{requestNumber}/decline", controllers.AdminDeclineRequest(d.Requests, logg))
			r.Patch("/{requestNumber}/status", controllers.AdminUpdateRequestStatus(d.Requests, logg))
		})

		r.Route("/delivery-fees", func(r chi.Router) {
			r.Get("/", controllers.AdminListDeliveryFees(d.DeliveryFees, logg))
			r.Put("/", controllers.AdminUpsertDeliveryFee(d.DeliveryFees, logg))
			r.Delete("/{id}", controllers.AdminDeleteDeliveryFee(d.DeliveryFees, logg))
		})

		r.Route("/content", func(r chi.Router) {
			r.Get("/", controllers.AdminListContent(d.Content, logg))
			r.Put("/{key}", controllers.AdminUpsertContent(d.Content, logg))
			r.Delete("/{key}", controllers.AdminDeleteContent(d.Content, logg))
		})
	})

	return r
}
