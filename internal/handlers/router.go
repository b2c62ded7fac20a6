package handlers

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"shoe-market-backend/internal/middleware"
	"shoe-market-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Services bundles what the HTTP layer calls into
type Services struct {
	Auth       *services.AuthService
	Users      *services.UserService
	Shoes      *services.ShoeService
	Records    *services.RecordService
	Images     *services.ImageService
	Hub        *services.WSHub
	Bookkeeper *services.Bookkeeper
}

// RouterOptions tunes the middleware stack
type RouterOptions struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
	StartedAt      time.Time
	// RequestLogging enables chi's request logger
	RequestLogging bool
}

// NewRouter wires every route onto a chi router
func NewRouter(svc Services, opts RouterOptions) http.Handler {
	userHandler := NewUserHandler(svc.Auth, svc.Users, svc.Records)
	shoeHandler := NewShoeHandler(svc.Shoes)
	recordHandler := NewRecordHandler(svc.Records)
	imageHandler := NewImageHandler(svc.Images)
	healthHandler := NewHealthHandler(opts.StartedAt, svc.Bookkeeper)
	wsHandler := NewWebSocketHandler(svc.Hub, svc.Auth, svc.Shoes)

	auth := middleware.AuthMiddleware(svc.Auth)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if opts.RequestLogging {
		r.Use(chiMiddleware.Logger)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware(opts.CORSOrigins))

	r.Get("/health", healthHandler.Health)

	// Long-lived, so outside the request timeout
	r.Get("/ws", wsHandler.HandleWebSocket)

	r.Group(func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
		}

		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", userHandler.Signup)
			r.Post("/login", userHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.With(middleware.RequireAdmin).Get("/", userHandler.ListUsers)
				r.Get("/{id}", userHandler.GetUser)
				r.Put("/{id}", userHandler.UpdateUser)
				r.Delete("/{id}", userHandler.DeleteUser)
				r.Get("/{id}/records", userHandler.ListUserRecords)
			})
		})

		r.Route("/shoes", func(r chi.Router) {
			r.Get("/", shoeHandler.ListShoes)
			r.Get("/category/{category}", shoeHandler.ListByCategory)
			r.Get("/category/{category}/{subCategory}", shoeHandler.ListByCategory)
			r.Get("/{id}", shoeHandler.GetShoe)

			r.Group(func(r chi.Router) {
				r.Use(auth, middleware.RequireAdmin)
				r.Post("/", shoeHandler.CreateShoe)
				r.Post("/images", imageHandler.GetUploadURL)
				r.Put("/{id}", shoeHandler.UpdateShoe)
				r.Delete("/{id}", shoeHandler.DeleteShoe)
				r.Get("/{id}/records", recordHandler.ListByShoe)
			})
		})

		r.Route("/records", func(r chi.Router) {
			r.Use(auth)
			r.With(middleware.RequireAdmin).Get("/", recordHandler.ListRecords)
			r.Get("/user/{userId}", recordHandler.ListByUser)
			r.Get("/{id}", recordHandler.GetRecord)
			r.Post("/", recordHandler.CreateRecord)
			r.Put("/{id}", recordHandler.UpdateRecord)
			r.With(middleware.RequireAdmin).Delete("/{id}", recordHandler.DeleteRecord)
		})
	})

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowAll := len(origins) == 0 || slices.Contains(origins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(origins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", strings.Join([]string{
				http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
			}, ", "))
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
