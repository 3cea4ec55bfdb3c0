package httpapi

import (
	"net/http"

	"github.com/polkassembly/govauth"
)

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.engine.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoginResponse(res))
}

func (h *handler) tfaLogin(w http.ResponseWriter, r *http.Request) {
	var req tfaLoginRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.engine.ConfirmTFALogin(r.Context(), req.UserID, req.TFAToken, req.AuthCode, req.LoginAddress, req.LoginWallet)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoginResponse(res))
}

func (h *handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.engine.SignUp(r.Context(), govauth.SignUpRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Network:  req.Network,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoginResponse(res))
}

// challenge decodes an address and hands it to start.
func (h *handler) challenge(start func(r *http.Request, address string) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addressRequest
		if err := decode(w, r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
		msg, err := start(r, req.Address)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, challengeResponse{SignMessage: msg})
	}
}

// signedLogin decodes a signed request and hands it to confirm.
func (h *handler) signedLogin(confirm func(r *http.Request, req govauth.SignedRequest) (*govauth.LoginResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signedRequest
		if err := decode(w, r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
		res, err := confirm(r, req.engine())
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newLoginResponse(res))
	}
}

func (h *handler) addressLoginStart(w http.ResponseWriter, r *http.Request) {
	h.challenge(func(r *http.Request, address string) (string, error) {
		return h.engine.AddressLoginStart(r.Context(), address)
	})(w, r)
}

func (h *handler) addressLoginConfirm(w http.ResponseWriter, r *http.Request) {
	h.signedLogin(func(r *http.Request, req govauth.SignedRequest) (*govauth.LoginResult, error) {
		return h.engine.AddressLoginConfirm(r.Context(), req)
	})(w, r)
}

func (h *handler) addressSignupStart(w http.ResponseWriter, r *http.Request) {
	h.challenge(func(r *http.Request, address string) (string, error) {
		return h.engine.AddressSignupStart(r.Context(), address)
	})(w, r)
}

func (h *handler) addressSignupConfirm(w http.ResponseWriter, r *http.Request) {
	h.signedLogin(func(r *http.Request, req govauth.SignedRequest) (*govauth.LoginResult, error) {
		return h.engine.AddressSignupConfirm(r.Context(), req)
	})(w, r)
}

func (h *handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.engine.IssueToken(r.Context(), userID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}
