package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/calyxlabs/curator/internal/api/handlers"
	"github.com/calyxlabs/curator/internal/api/middleware"
	"github.com/calyxlabs/curator/internal/services"
)

type Deps struct {
	ProfileSvc services.ProfileService

	Document *handlers.DocumentHandler
	Chunk    *handlers.ChunkHandler
	Admin    *handlers.AdminHandler
	Profile  *handlers.ProfileHandler
	Search   *handlers.SearchHandler
	Auth     *handlers.AuthHandler
	WS       *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/api/auth/signout", d.Auth.Signout)

	// Protected routes (JWT + profile row)
	api := r.Group("/api")
	api.Use(middleware.JWTAuth(), middleware.LoadProfile(d.ProfileSvc))

	api.GET("/profile/me", d.Profile.Me)
	api.PUT("/profile/update", d.Profile.Update)

	api.POST("/search", d.Search.Search)

	api.GET("/documents", d.Document.List)
	api.GET("/documents/:id", d.Document.Get)
	api.GET("/documents/:id/chunks", d.Document.Chunks)
	api.GET("/documents/:id/progress", d.Document.Progress)

	curator := api.Group("/")
	curator.Use(middleware.RequireCurator())
	curator.POST("/documents/upload", d.Document.Upload)
	curator.POST("/documents/:id/process", d.Document.Process)
	curator.POST("/chunks/:id/review", d.Chunk.Review)
	curator.PUT("/chunks/:id/metadata", d.Chunk.Metadata)

	// settings reads are open to any authenticated caller; writes are not
	api.GET("/admin/settings", d.Admin.GetSettings)

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.POST("/settings", d.Admin.UpdateSettings)
	admin.GET("/users", d.Admin.ListUsers)
	admin.PUT("/users/:id/role", d.Admin.UpdateUserRole)
	admin.PUT("/users/:id/active", d.Admin.SetUserActive)
	admin.DELETE("/documents/:id/vectors", d.Admin.PurgeDocumentVectors)
	admin.DELETE("/chunks/:id/vector", d.Admin.PurgeChunkVector)

	// WebSocket
	ws := r.Group("/ws")
	ws.Use(middleware.JWTAuth(), middleware.LoadProfile(d.ProfileSvc))
	ws.GET("/documents/:id/progress", d.WS.DocumentProgressWS)
}
