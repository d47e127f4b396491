package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/samandr77/microservices/onboarding/docs" // swagger docs
)

func NewRouter(h *Handler, mw *Middleware) http.Handler {
	mux := chi.NewRouter()
	mux.Use(mw.WithIP, mw.Log, mw.Recover, mw.Cors)

	mux.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/swagger/*", httpSwagger.WrapHandler)

		r.Route("/v1", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/register", h.Register)
				r.Post("/login", h.Login)
				r.Post("/verify-email", h.VerifyEmail)
				r.Post("/verify-email/code", h.VerifyEmailCode)
				r.Post("/resend-code", h.ResendCode)
				r.Post("/forgot-password", h.ForgotPassword)
				r.Post("/reset-password", h.ResetPassword)

				r.With(mw.BearerAuth).Get("/session", h.Session)
			})

			r.Route("/entity", func(r chi.Router) {
				r.Use(mw.BearerAuth)
				r.Get("/", h.ListEntities)
				r.Get("/me", h.MyEntity)
				r.Post("/assign", h.AssignEntity)
				r.Get("/{id}/onboarding", h.Onboarding)
				r.Patch("/{id}/onboarding", h.UpdateOnboarding)
				r.Put("/{id}/profile", h.UpdateProfile)
				r.Post("/{id}/image", h.UploadImage)
			})
		})
	})

	return mux
}
