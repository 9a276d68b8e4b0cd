package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/bigstone-community/internal/catalog"
	"github.com/localnerve/bigstone-community/internal/config"
	"github.com/localnerve/bigstone-community/internal/middleware"
	"github.com/localnerve/bigstone-community/internal/services"
	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/localnerve/bigstone-community/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the collaborators the API routes need. Sessions enables the local account routes;
// Authz switches identity resolution to the Authorizer cookie.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Catalog  *catalog.Catalog
	Sessions *session.Store
	Authz    *services.Authorizer
	Store    storage.Store
	Log      *zap.Logger
	Now      func() time.Time
}

func (d Deps) resolver() middleware.Resolver {
	switch {
	case d.Authz != nil:
		return middleware.AuthorizerResolver(d.Authz.Resolve)
	case d.Sessions != nil:
		return middleware.LocalResolver(d.Sessions)
	}
	return nil
}

// Register mounts the API under /api and the trailing 404 handler. Global middleware must be
// added to app before calling it.
func Register(app *fiber.App, d Deps) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Config == nil {
		d.Config = &config.Config{}
	}

	api := app.Group("/api", middleware.VersionMiddleware(), middleware.Identify(d.resolver(), d.Log))
	auth := middleware.RequireAuth()

	catalogHandler := &CatalogHandler{Catalog: d.Catalog}
	healthHandler := &HealthHandler{Config: d.Config, DB: d.DB, Sessions: d.Sessions, Authz: d.Authz, Log: d.Log}
	portHandler := &PortHandler{DB: d.DB, Catalog: d.Catalog}
	standardHandler := &StandardHandler{DB: d.DB, Catalog: d.Catalog, Now: d.Now}
	projectHandler := &ProjectHandler{DB: d.DB, Store: d.Store, Log: d.Log}

	api.Get("/catalog", catalogHandler.GetCatalog)
	api.Get("/health", healthHandler.Health)

	// Port library, anonymous creation is allowed
	api.Get("/ports", portHandler.ListPorts)
	api.Post("/ports", portHandler.CreatePort)
	api.Post("/ports/preview", portHandler.PreviewPort)
	api.Get("/ports/:id", portHandler.GetPort)
	api.Delete("/ports/:id", auth, portHandler.DeletePort)
	api.Get("/grid/combined", portHandler.CombinedGrid)

	// Standards and wiki
	api.Get("/standards", standardHandler.ListStandards)
	api.Post("/standards", auth, standardHandler.ProposeStandard)
	api.Get("/standards/:id", standardHandler.GetStandard)
	api.Post("/standards/:id/votes", auth, standardHandler.CastVote)
	api.Post("/standards/:id/resolve", standardHandler.ResolveStandard)
	api.Post("/standards/:id/merge", auth, standardHandler.MergeStandard)
	api.Delete("/standards/:id", auth, standardHandler.DeleteStandard)
	api.Get("/wiki", standardHandler.ListWiki)

	// Projects
	api.Get("/projects", projectHandler.ListProjects)
	api.Post("/projects", auth, projectHandler.CreateProject)
	api.Get("/projects/:id", projectHandler.GetProject)
	api.Delete("/projects/:id", auth, projectHandler.DeleteProject)
	api.Post("/projects/:id/messages", auth, projectHandler.PostChatMessage)
	api.Post("/projects/:id/announcements", auth, projectHandler.CreateAnnouncement)
	api.Post("/projects/:id/schematics", auth, projectHandler.UploadSchematic)

	// Accounts
	api.Get("/auth/me", Me)
	if d.Sessions != nil && d.Authz == nil {
		authHandler := &AuthHandler{DB: d.DB, Sessions: d.Sessions, SecureCookie: d.Config.SecureCookies}
		api.Post("/auth/signup", authHandler.SignUp)
		api.Post("/auth/signin", authHandler.SignIn)
		api.Post("/auth/signout", authHandler.SignOut)
		api.Post("/auth/reset/request", authHandler.RequestPasswordReset)
		api.Post("/auth/reset", authHandler.ResetPassword)
	}

	app.Use(NotFound)
}
