package govauth_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/polkassembly/govauth"
)

type recordingPublisher struct {
	mu      sync.Mutex
	created []govauth.Post
	updated []govauth.Post
}

func (p *recordingPublisher) PublishPost(_ context.Context, post govauth.Post) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, post)
	return fmt.Sprintf("post-%d", len(p.created)), nil
}

func (p *recordingPublisher) UpdatePost(_ context.Context, post govauth.Post) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, post)
	return nil
}

func contentMessage(network, address, title, content, challenge string) string {
	return fmt.Sprintf("network:%s::address:%s::title:%s::content:%s::challenge:%s",
		network, address, title, content, challenge)
}

func TestCreatePostCreatesAccountOnFirstUse(t *testing.T) {
	pub := &recordingPublisher{}
	env := newTestEnv(t, func(_ *govauth.Config, b *govauth.Builder) {
		b.WithContentPublisher(pub)
	})
	ctx := t.Context()
	w := newWallet(t)

	challenge, err := env.engine.CreatePostStart(ctx, w.address)
	if err != nil {
		t.Fatalf("CreatePostStart: %v", err)
	}

	req := govauth.PostRequest{
		SignedRequest: govauth.SignedRequest{Address: w.address, Wallet: "talisman", Network: "kusama"},
		Title:         "Treasury proposal",
		Content:       "Fund the thing",
	}

	wrong := req
	wrong.Signature = w.sign(t, challenge)
	if _, err := env.engine.CreatePostConfirm(ctx, wrong); !errors.Is(err, govauth.ErrInvalidSignature) {
		t.Fatalf("signing the bare challenge must fail, got %v", err)
	}

	req.Signature = w.sign(t, contentMessage("kusama", w.address, req.Title, req.Content, challenge))
	res, err := env.engine.CreatePostConfirm(ctx, req)
	if err != nil {
		t.Fatalf("CreatePostConfirm: %v", err)
	}
	if !res.Created || res.PostID != "post-1" || res.UserID == 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(pub.created) != 1 || pub.created[0].Network != "kusama" || pub.created[0].Title != req.Title {
		t.Fatalf("unexpected published posts: %+v", pub.created)
	}

	addr, err := env.store.GetAddress(ctx, w.address)
	if err != nil || !addr.Default || addr.UserID != res.UserID {
		t.Fatalf("expected default address for new account: %v %+v", err, addr)
	}

	if _, err := env.engine.CreatePostConfirm(ctx, req); !errors.Is(err, govauth.ErrExpired) {
		t.Fatalf("expected consumed challenge, got %v", err)
	}
}

func TestEditPostResolvesLinkedAddress(t *testing.T) {
	pub := &recordingPublisher{}
	env := newTestEnv(t, func(_ *govauth.Config, b *govauth.Builder) {
		b.WithContentPublisher(pub)
	})
	ctx := t.Context()
	w := newWallet(t)
	id := env.signupWallet(t, w)

	challenge, err := env.engine.EditPostStart(ctx, w.address)
	if err != nil {
		t.Fatalf("EditPostStart: %v", err)
	}
	req := govauth.PostRequest{
		SignedRequest: govauth.SignedRequest{Address: w.address, Wallet: "polkadot-js"},
		Title:         "Edited",
		Content:       "New body",
		PostID:        "42",
	}

	if _, err := env.engine.EditPostConfirm(ctx, govauth.PostRequest{SignedRequest: req.SignedRequest, Title: "x", Content: "y"}); !errors.Is(err, govauth.ErrInvalidParams) {
		t.Fatalf("expected invalid params without post id, got %v", err)
	}

	req.Signature = w.sign(t, contentMessage("polkadot", w.address, req.Title, req.Content, challenge))
	res, err := env.engine.EditPostConfirm(ctx, req)
	if err != nil {
		t.Fatalf("EditPostConfirm: %v", err)
	}
	if res.Created || res.UserID != id || res.PostID != "42" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(pub.updated) != 1 || pub.updated[0].PostID != "42" {
		t.Fatalf("unexpected updates: %+v", pub.updated)
	}

	// Create and edit challenges are independent.
	if _, err := env.engine.CreatePostConfirm(ctx, req); !errors.Is(err, govauth.ErrChallengeExpired) {
		t.Fatalf("expected no create challenge, got %v", err)
	}
}

func TestEditPostCreatesAccountOnFirstUse(t *testing.T) {
	pub := &recordingPublisher{}
	env := newTestEnv(t, func(_ *govauth.Config, b *govauth.Builder) {
		b.WithContentPublisher(pub)
	})
	ctx := t.Context()
	w := newWallet(t)

	challenge, err := env.engine.EditPostStart(ctx, w.address)
	if err != nil {
		t.Fatalf("EditPostStart: %v", err)
	}
	req := govauth.PostRequest{
		SignedRequest: govauth.SignedRequest{Address: w.address, Wallet: "polkadot-js"},
		Title:         "Edited",
		Content:       "Body",
		PostID:        "7",
	}
	req.Signature = w.sign(t, contentMessage("polkadot", w.address, req.Title, req.Content, challenge))

	res, err := env.engine.EditPostConfirm(ctx, req)
	if err != nil {
		t.Fatalf("EditPostConfirm: %v", err)
	}
	if !res.Created || res.UserID == 0 || res.PostID != "7" {
		t.Fatalf("unexpected result: %+v", res)
	}
	addr, err := env.store.GetAddress(ctx, govauth.NormalizeAddress(w.address))
	if err != nil || addr.UserID != res.UserID || !addr.Default || !addr.Verified {
		t.Fatalf("expected default address for new account: %v %+v", err, addr)
	}
	user, err := env.store.GetUserByID(ctx, res.UserID)
	if err != nil || !user.Web3Signup {
		t.Fatalf("expected wallet-only account: %v %+v", err, user)
	}
	if len(pub.updated) != 1 || pub.updated[0].UserID != res.UserID {
		t.Fatalf("unexpected updates: %+v", pub.updated)
	}
}
