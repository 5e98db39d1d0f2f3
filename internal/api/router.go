package api

import (
	"net/http"
	"time"

	"github.com/athebyme/shopsync-service/internal/api/handlers"
	"github.com/athebyme/shopsync-service/internal/api/middleware"
	"github.com/athebyme/shopsync-service/internal/domain/services"
	"github.com/athebyme/shopsync-service/internal/security"
	"github.com/athebyme/shopsync-service/pkg/interfaces"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter настраивает маршрутизатор
func SetupRouter(
	syncService services.SyncServiceInterface,
	logger interfaces.LoggerPort,
	corsAllowedOrigins []string,
	jwtManager *security.JWTManager,
) *chi.Mux {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.CORS(corsAllowedOrigins))
	r.Use(middleware.Tracing)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RateLimiter(1000, time.Minute))

	r.Method(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	r.Method(http.MethodHead, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.JWTAuth(jwtManager, logger))
		r.Use(middleware.Tenant)

		pushHandler := handlers.NewPushHandler(syncService, logger)

		r.Route("/products", func(r chi.Router) {
			// Список товаров, ожидающих выгрузки
			r.With(middleware.RequirePermission(jwtManager, "sync:read")).Get("/pending", pushHandler.ListPending)

			// Пакетная выгрузка всех ожидающих товаров
			r.With(middleware.RequirePermission(jwtManager, "sync:push")).Post("/push-pending", pushHandler.PushBatch)

			r.Route("/{id}", func(r chi.Router) {
				// Выгрузка одного товара
				r.With(middleware.RequirePermission(jwtManager, "sync:push")).Post("/push", pushHandler.PushProduct)

				// Статус последней выгрузки
				r.With(middleware.RequirePermission(jwtManager, "sync:read")).Get("/push", pushHandler.GetPushStatus)
			})
		})
	})

	return r
}
