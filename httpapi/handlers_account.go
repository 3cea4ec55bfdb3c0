package httpapi

import (
	"context"
	"net/http"

	"github.com/polkassembly/govauth"
)

func (h *handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.engine.VerifyEmail(r.Context(), req.Token); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Email verified"})
}

func (h *handler) resendVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req networkRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.engine.ResendVerifyEmail(r.Context(), userID(r), req.Network); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Verification email sent"})
}

func (h *handler) undoEmailChange(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := h.engine.UndoEmailChange(r.Context(), req.Token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// requestResetPassword answers the same way whether or not the email exists.
func (h *handler) requestResetPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.engine.RequestPasswordReset(r.Context(), req.Email, req.Network); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Check your email for the password reset link"})
}

func (h *handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.engine.ResetPassword(r.Context(), req.UserID, req.Token, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password updated"})
}

func (h *handler) setCredentialsStart(w http.ResponseWriter, r *http.Request) {
	h.challenge(func(r *http.Request, address string) (string, error) {
		return h.engine.SetCredentialsStart(r.Context(), address)
	})(w, r)
}

func (h *handler) setCredentialsConfirm(w http.ResponseWriter, r *http.Request) {
	var req setCredentialsRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := h.engine.SetCredentialsConfirm(r.Context(), govauth.SetCredentialsRequest{
		SignedRequest: req.signedRequest.engine(),
		Username:      req.Username,
		Email:         req.Email,
		Password:      req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *handler) changeUsername(w http.ResponseWriter, r *http.Request) {
	var req usernameRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := h.engine.ChangeUsername(r.Context(), userID(r), req.Username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *handler) changeEmail(w http.ResponseWriter, r *http.Request) {
	var req changeEmailRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := h.engine.ChangeEmail(r.Context(), userID(r), req.Email, req.Password, req.Network)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.engine.ChangePassword(r.Context(), userID(r), req.OldPassword, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password changed"})
}

func (h *handler) generateTFASecret(w http.ResponseWriter, r *http.Request) {
	setup, err := h.engine.GenerateTFASecret(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tfaSetupResponse{Secret: setup.Secret, URI: setup.URI})
}

func (h *handler) verifyAndEnableTFA(w http.ResponseWriter, r *http.Request) {
	h.tfaCode(w, r, h.engine.VerifyAndEnableTFA)
}

func (h *handler) disableTFA(w http.ResponseWriter, r *http.Request) {
	h.tfaCode(w, r, h.engine.DisableTFA)
}

func (h *handler) tfaCode(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID int64, code string) (string, error)) {
	var req codeRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := op(r.Context(), userID(r), req.AuthCode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}
