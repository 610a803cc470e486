package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blockvault/blockvault/ports"
	"github.com/blockvault/blockvault/service"
)

// Services bundles everything the router needs.
type Services struct {
	Auth   *service.AuthService
	Users  *service.UserService
	Files  *service.FileService
	Share  *service.ShareService
	Pinner ports.Pinner
}

// SetupRouter sets up the Gin router.
func SetupRouter(svc Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	authHandlers := NewAuthHandlers(svc.Auth)
	userHandlers := NewUserHandlers(svc.Users)
	fileHandlers := NewFileHandlers(svc.Files, svc.Pinner)
	shareHandlers := NewShareHandlers(svc.Share, svc.Pinner)

	router.GET("/livez", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/get_nonce", authHandlers.GetNonce)
		auth.POST("/login", authHandlers.Login)
		auth.GET("/me", AuthMiddleware(svc.Auth), authHandlers.Me)
	}

	// Profile and sharing-key routes
	users := router.Group("/users")
	users.Use(AuthMiddleware(svc.Auth))
	{
		users.GET("/profile", userHandlers.Profile)
		users.POST("/public_key", userHandlers.SetPublicKey)
		users.DELETE("/public_key", userHandlers.DeletePublicKey)
	}

	// Encrypted file and share routes
	files := router.Group("/files")
	files.Use(AuthMiddleware(svc.Auth))
	{
		files.POST("", fileHandlers.Upload)
		files.GET("", fileHandlers.List)
		files.GET("/folders", fileHandlers.Folders)
		files.GET("/shared", shareHandlers.Incoming)
		files.GET("/shares/outgoing", shareHandlers.Outgoing)
		files.DELETE("/shares/:id", shareHandlers.Revoke)
		files.GET("/:id", fileHandlers.Download)
		files.PATCH("/:id", fileHandlers.Update)
		files.DELETE("/:id", fileHandlers.Delete)
		files.GET("/:id/verify", fileHandlers.Verify)
		files.POST("/:id/share", shareHandlers.Create)
	}

	return router
}
