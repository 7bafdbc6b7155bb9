package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quanviet-pos/api/internal/audit"
	"github.com/quanviet-pos/api/internal/config"
	"github.com/quanviet-pos/api/internal/database"
	"github.com/quanviet-pos/api/internal/enum"
	"github.com/quanviet-pos/api/internal/handler"
	mw "github.com/quanviet-pos/api/internal/middleware"
	"github.com/quanviet-pos/api/internal/service"
	"github.com/quanviet-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // SvelteKit dev server
			"https://pos.quanviet.vn",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Staff management is admin/manager territory
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleManager))

			userHandler := handler.NewUserHandler(queries)
			r.Route("/users", userHandler.RegisterRoutes)

			ingredientHandler := handler.NewIngredientHandler(queries)
			r.Route("/ingredients", ingredientHandler.RegisterRoutes)

			auditLogHandler := handler.NewAuditLogHandler(queries)
			r.Route("/audit-logs", auditLogHandler.RegisterRoutes)
		})

		menuItemHandler := handler.NewMenuItemHandler(queries)
		r.Route("/menu-items", menuItemHandler.RegisterRoutes)

		tableHandler := handler.NewTableHandler(queries)
		r.Route("/tables", tableHandler.RegisterRoutes)

		customerHandler := handler.NewCustomerHandler(queries)
		r.Route("/customers", customerHandler.RegisterRoutes)

		// Orders
		orderService := service.NewOrderService(
			pool,
			queries,
			func(db database.DBTX) service.OrderStore {
				return database.New(db)
			},
			service.NewTotalsCalculator(cfg.TaxRate),
			audit.NewRecorder(queries),
			ws.NewBroadcaster(hub),
		)
		orderHandler := handler.NewOrderHandler(orderService, queries)
		r.Route("/orders", orderHandler.RegisterRoutes)
	})

	return r
}
