package httpapi

import (
	"context"
	"net/http"

	"github.com/polkassembly/govauth"
)

type addressOp func(ctx context.Context, userID int64, address string) (string, error)

func (h *handler) createPostStart(w http.ResponseWriter, r *http.Request) {
	h.challenge(func(r *http.Request, address string) (string, error) {
		return h.engine.CreatePostStart(r.Context(), address)
	})(w, r)
}

func (h *handler) editPostStart(w http.ResponseWriter, r *http.Request) {
	h.challenge(func(r *http.Request, address string) (string, error) {
		return h.engine.EditPostStart(r.Context(), address)
	})(w, r)
}

func (h *handler) createPostConfirm(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, h.engine.CreatePostConfirm)
}

func (h *handler) editPostConfirm(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, h.engine.EditPostConfirm)
}

func (h *handler) post(w http.ResponseWriter, r *http.Request, op func(context.Context, govauth.PostRequest) (*govauth.PostResult, error)) {
	var req postRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := op(r.Context(), govauth.PostRequest{
		SignedRequest: req.signedRequest.engine(),
		Title:         req.Title,
		Content:       req.Content,
		PostID:        req.PostID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, postResponse{
		UserID:  res.UserID,
		Address: res.Address,
		PostID:  res.PostID,
		Created: res.Created,
	})
}
