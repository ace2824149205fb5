package rest

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/pixmix/pixmix-backend/pkg/identity"
	"github.com/pixmix/pixmix-backend/pkg/pipeline"
	"github.com/pixmix/pixmix-backend/pkg/rest/handlers"
	custommw "github.com/pixmix/pixmix-backend/pkg/rest/middleware"
	"github.com/pixmix/pixmix-backend/pkg/tokenregistry"
)

// RouterConfig carries the dependencies of the HTTP surface.
type RouterConfig struct {
	Logger         *slog.Logger
	Verifier       identity.Verifier
	Pipeline       pipeline.Service
	Registry       tokenregistry.Registry
	UploadsDir     string
	AllowedOrigins []string
}

// NewRouter wires the echo router: health is open, generate and
// register-token sit behind bearer authentication.
func NewRouter(config RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit("50M"))
	e.Use(custommw.CORS(config.AllowedOrigins))

	healthHandler := handlers.NewHealthHandler()
	generateHandler := handlers.NewGenerateHandler(config.Pipeline, config.Registry, config.UploadsDir, config.Logger)
	tokenHandler := handlers.NewTokenHandler(config.Registry, config.Logger)

	authMiddleware := custommw.NewAuthMiddleware(config.Verifier, config.Logger)
	requireAuth := authMiddleware.RequireAuth()

	e.GET("/health", healthHandler.Handle)
	e.POST("/generate", generateHandler.Handle, requireAuth)
	e.POST("/register-token", tokenHandler.Handle, requireAuth)

	return e
}
