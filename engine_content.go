package govauth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// CreatePostStart issues a content challenge. The client signs the composed
// message built from it, not the challenge alone.
func (e *Engine) CreatePostStart(ctx context.Context, address string) (string, error) {
	return e.contentStart(ctx, prefixCreatePost, address)
}

// CreatePostConfirm verifies a signed post. An address with no account gets
// a wallet-only account on first use.
func (e *Engine) CreatePostConfirm(ctx context.Context, req PostRequest) (*PostResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	defer e.observeConfirm(time.Now())

	if err := e.attestContent(ctx, prefixCreatePost, req); err != nil {
		return nil, err
	}

	addr, created, err := e.addressOwner(ctx, req.SignedRequest)
	if err != nil {
		return nil, err
	}

	postID := req.PostID
	if e.publisher != nil {
		postID, err = e.publisher.PublishPost(ctx, e.post(req, addr.UserID, postID))
		if err != nil {
			return nil, storeErr("publish post", err)
		}
	}

	e.metricInc(MetricContentAttested)
	return &PostResult{UserID: addr.UserID, Address: addr.Address, PostID: postID, Created: created}, nil
}

func (e *Engine) EditPostStart(ctx context.Context, address string) (string, error) {
	return e.contentStart(ctx, prefixEditPost, address)
}

// EditPostConfirm verifies a signed edit. Like CreatePostConfirm it creates a
// wallet-only account for an address seen for the first time.
func (e *Engine) EditPostConfirm(ctx context.Context, req PostRequest) (*PostResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if req.PostID == "" {
		return nil, invalidParams("post id is required")
	}
	defer e.observeConfirm(time.Now())

	if err := e.attestContent(ctx, prefixEditPost, req); err != nil {
		return nil, err
	}

	addr, created, err := e.addressOwner(ctx, req.SignedRequest)
	if err != nil {
		return nil, err
	}

	if e.publisher != nil {
		if err := e.publisher.UpdatePost(ctx, e.post(req, addr.UserID, req.PostID)); err != nil {
			return nil, storeErr("update post", err)
		}
	}

	e.metricInc(MetricContentAttested)
	return &PostResult{UserID: addr.UserID, Address: addr.Address, PostID: req.PostID, Created: created}, nil
}

func (e *Engine) contentStart(ctx context.Context, prefix, address string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	if strings.TrimSpace(address) == "" {
		return "", invalidParams("address is required")
	}
	return e.startContentChallenge(ctx, prefix, address)
}

func (e *Engine) attestContent(ctx context.Context, prefix string, req PostRequest) error {
	if req.Address == "" || req.Signature == "" {
		return invalidParams("address and signature are required")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return invalidParams("title and content are required")
	}
	network := e.networkOrDefault(req.Network)

	_, err := e.consumeChallenge(ctx, prefix, req.Address, func(challenge string) error {
		message := contentMessage(network, req.Address, req.Title, req.Content, challenge)
		if !verifySignature(message, req.Address, req.Signature, req.Wallet) {
			return ErrSignatureInvalid
		}
		return nil
	})
	return err
}

// addressOwner returns the address record, creating a user and default
// address for it when none exists.
func (e *Engine) addressOwner(ctx context.Context, req SignedRequest) (*Address, bool, error) {
	addr, err := e.identity.GetAddress(ctx, NormalizeAddress(req.Address))
	if err == nil {
		return addr, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, storeErr("load address", err)
	}

	record := e.newAddress(0, req.Address, req.Network, req.Wallet)
	record.Default = true
	if _, err := e.createWeb3Account(ctx, &record); err != nil {
		if errors.Is(err, ErrAddressLinked) {
			// Created by a concurrent request.
			existing, gerr := e.identity.GetAddress(ctx, record.Address)
			if gerr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return &record, true, nil
}

func (e *Engine) post(req PostRequest, userID int64, postID string) Post {
	return Post{
		PostID:    postID,
		UserID:    userID,
		Network:   e.networkOrDefault(req.Network),
		Address:   NormalizeAddress(req.Address),
		Title:     req.Title,
		Content:   req.Content,
		Signature: req.Signature,
	}
}
