package serve

import (
	"net/http"

	"github.com/chainlaunch/asset-gateway/cmd/common"
	assetshttp "github.com/chainlaunch/asset-gateway/pkg/assets/http"
	apihttp "github.com/chainlaunch/asset-gateway/pkg/http"
	"github.com/chainlaunch/asset-gateway/pkg/http/ratelimit"
	"github.com/chainlaunch/asset-gateway/pkg/http/response"
	identityhttp "github.com/chainlaunch/asset-gateway/pkg/identity/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

const banner = "Backend API for Hyperledger Fabric Test Network"

// NewRouter mounts the gateway API under /api next to the health, banner
// and metrics endpoints.
func NewRouter(app *common.App) *chi.Mux {
	wrapper := response.NewWrapper(app.Logger.Named("http"), app.Metrics)
	identityHandler := identityhttp.NewHandler(app.Config, app.Authority, wrapper)
	assetHandler := assetshttp.NewHandler(app.Assets, wrapper)
	limiter := ratelimit.New(app.Config.Server.RateLimit)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "OK")
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, banner)
	})
	r.Handle("/metrics", app.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Middleware)

		r.Group(func(r chi.Router) {
			r.Use(apihttp.ResourceMiddleware("identity"))
			identityHandler.RegisterRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(apihttp.ResourceMiddleware("asset"))
			assetHandler.RegisterRoutes(r)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = response.WriteJSON(w, http.StatusNotFound, response.ErrorResponse{Error: "Not found"})
	})

	return r
}
