package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/polkassembly/govauth"
	"github.com/polkassembly/govauth/middleware"
)

type Options struct {
	Logger *slog.Logger
	// TrustForwarded takes the client IP from X-Forwarded-For.
	TrustForwarded bool
}

type handler struct {
	engine *govauth.Engine
	logger *slog.Logger
}

// NewRouter mounts every action under /auth/actions.
func NewRouter(engine *govauth.Engine, opts Options) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{engine: engine, logger: logger.With(slog.String("component", "httpapi"))}

	r := chi.NewRouter()
	r.Use(middleware.ClientIP(opts.TrustForwarded))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth/actions", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/2fa/login", h.tfaLogin)
		r.Post("/signup", h.signUp)
		r.Post("/addressLoginStart", h.addressLoginStart)
		r.Post("/addressLogin", h.addressLoginConfirm)
		r.Post("/addressSignupStart", h.addressSignupStart)
		r.Post("/addressSignupConfirm", h.addressSignupConfirm)
		r.Post("/verifyEmail", h.verifyEmail)
		r.Post("/undoEmailChange", h.undoEmailChange)
		r.Post("/requestResetPassword", h.requestResetPassword)
		r.Post("/resetPassword", h.resetPassword)
		r.Post("/setCredentialsStart", h.setCredentialsStart)
		r.Post("/setCredentialsConfirm", h.setCredentialsConfirm)
		r.Post("/createPostStart", h.createPostStart)
		r.Post("/createPostConfirm", h.createPostConfirm)
		r.Post("/editPostStart", h.editPostStart)
		r.Post("/editPostConfirm", h.editPostConfirm)
		r.Post("/multisigLinkStart", h.multisigLinkStart)

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalGuard(engine))
			r.Post("/multisigLinkConfirm", h.multisigLinkConfirm)
			r.Post("/linkProxyAddress", h.proxyLinkConfirm)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Guard(engine))
			r.Post("/addressLinkStart", h.addressLinkStart)
			r.Post("/addressLinkConfirm", h.addressLinkConfirm)
			r.Post("/setDefaultAddress", h.setDefaultAddress)
			r.Post("/addressUnlink", h.addressUnlink)
			r.Post("/changeUsername", h.changeUsername)
			r.Post("/changeEmail", h.changeEmail)
			r.Post("/changePassword", h.changePassword)
			r.Post("/resendVerifyEmailToken", h.resendVerifyEmail)
			r.Post("/2fa/generate", h.generateTFASecret)
			r.Post("/2fa/verifyAndEnable", h.verifyAndEnableTFA)
			r.Post("/2fa/disable", h.disableTFA)
			r.Post("/refreshToken", h.refreshToken)
		})
	})

	return r
}

// userID returns the authenticated user, or zero on public routes.
func userID(r *http.Request) int64 {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return 0
	}
	return claims.UserID()
}
