package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/document-workspace/internal/auth"
	"github.com/frahmantamala/document-workspace/internal/department"
	"github.com/frahmantamala/document-workspace/internal/folder"
	"github.com/frahmantamala/document-workspace/internal/transport/middleware"
	"github.com/frahmantamala/document-workspace/internal/transport/swagger"
	"github.com/frahmantamala/document-workspace/internal/user"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, redisClient *redis.Client, allowedOrigins string, authHandler *auth.Handler, authService *auth.Service, userHandler *user.Handler, folderHandler *folder.Handler, departmentHandler *department.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, redisClient)

	rbac := authService.RBACAuthorization()

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/register", authHandler.Register)
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
				sr.Post("/forgot-password", authHandler.ForgotPassword)
				sr.Post("/reset-password", authHandler.ResetPassword)
			})
		}

		if authHandler != nil {
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				pr.Post("/auth/change-password", authHandler.ChangePassword)

				if userHandler != nil {
					pr.Get("/users/me", userHandler.GetCurrentUser)
				}

				if folderHandler != nil {
					pr.Route("/folders", func(fr chi.Router) {
						fr.Post("/", folderHandler.CreateFolder)
						fr.Get("/", folderHandler.ListFolders)
						fr.Get("/{id}", folderHandler.GetFolder)
						fr.Patch("/{id}", folderHandler.UpdateFolder)
						fr.Delete("/{id}", folderHandler.DeleteFolder)
						fr.Put("/{id}/move", folderHandler.MoveFolder)
						fr.Get("/{id}/breadcrumb", folderHandler.GetBreadcrumb)

						fr.Route("/{id}/permissions", func(pmr chi.Router) {
							pmr.Get("/", folderHandler.ListPermissions)
							pmr.Post("/", folderHandler.GrantPermission)
							pmr.Delete("/", folderHandler.RevokePermission)
						})
					})
				}

				if departmentHandler != nil {
					pr.Route("/departments", func(dr chi.Router) {
						dr.Get("/", departmentHandler.ListDepartments)
						dr.Get("/{id}", departmentHandler.GetDepartment)

						dr.Group(func(mr chi.Router) {
							mr.Use(rbac.RequireManageDepartments())
							mr.Post("/", departmentHandler.CreateDepartment)
							mr.Patch("/{id}", departmentHandler.UpdateDepartment)
							mr.Delete("/{id}", departmentHandler.DeleteDepartment)
						})
					})
				}
			})
		}
	})
}
