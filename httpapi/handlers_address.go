package httpapi

import (
	"net/http"

	"github.com/polkassembly/govauth"
)

func (h *handler) addressLinkStart(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	msg, err := h.engine.AddressLinkStart(r.Context(), userID(r), req.Address, req.Network)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, challengeResponse{SignMessage: msg})
}

func (h *handler) addressLinkConfirm(w http.ResponseWriter, r *http.Request) {
	var req signedRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := h.engine.AddressLinkConfirm(r.Context(), userID(r), req.engine())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *handler) setDefaultAddress(w http.ResponseWriter, r *http.Request) {
	h.addressToken(w, r, h.engine.SetDefaultAddress)
}

func (h *handler) addressUnlink(w http.ResponseWriter, r *http.Request) {
	h.addressToken(w, r, h.engine.AddressUnlink)
}

func (h *handler) addressToken(w http.ResponseWriter, r *http.Request, op addressOp) {
	var req addressRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := op(r.Context(), userID(r), req.Address)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *handler) multisigLinkStart(w http.ResponseWriter, r *http.Request) {
	h.challenge(func(r *http.Request, address string) (string, error) {
		return h.engine.MultisigLinkStart(r.Context(), address)
	})(w, r)
}

func (h *handler) multisigLinkConfirm(w http.ResponseWriter, r *http.Request) {
	var req multisigRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.engine.MultisigLinkConfirm(r.Context(), govauth.MultisigLinkRequest{
		UserID:      userID(r),
		Address:     req.Address,
		Signatories: req.Signatories,
		Threshold:   req.Threshold,
		Signatory:   req.Signatory,
		Signature:   req.Signature,
		Wallet:      req.Wallet,
		Network:     req.Network,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoginResponse(res))
}

func (h *handler) proxyLinkConfirm(w http.ResponseWriter, r *http.Request) {
	var req proxyRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.engine.ProxyLinkConfirm(r.Context(), govauth.ProxyLinkRequest{
		UserID:         userID(r),
		ProxyAddress:   req.ProxyAddress,
		ProxiedAddress: req.ProxiedAddress,
		Message:        req.Message,
		Signature:      req.Signature,
		Wallet:         req.Wallet,
		Network:        req.Network,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newLoginResponse(res))
}
