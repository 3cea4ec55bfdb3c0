package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/polkassembly/govauth"
)

const undoColumns = `user_id, email, token, valid, created_at`

func (s *Store) getUndo(ctx context.Context, query string, arg any) (*govauth.UndoEmailChangeToken, error) {
	var t govauth.UndoEmailChangeToken
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&t.UserID, &t.Email, &t.Token, &t.Valid, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("undo token")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &t, nil
}

func (s *Store) GetLatestUndoEmailChangeToken(ctx context.Context, userID int64) (*govauth.UndoEmailChangeToken, error) {
	return s.getUndo(ctx,
		`SELECT `+undoColumns+` FROM undo_email_change_tokens WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`,
		userID)
}

func (s *Store) GetUndoEmailChangeToken(ctx context.Context, token string) (*govauth.UndoEmailChangeToken, error) {
	return s.getUndo(ctx,
		`SELECT `+undoColumns+` FROM undo_email_change_tokens WHERE token = $1`,
		token)
}

func (s *Store) CreateUndoEmailChangeToken(ctx context.Context, t *govauth.UndoEmailChangeToken) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO undo_email_change_tokens (user_id, email, token, valid, created_at) VALUES ($1, $2, $3, $4, $5)`,
		t.UserID, t.Email, t.Token, t.Valid, t.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	return nil
}

func (s *Store) UpdateUndoEmailChangeToken(ctx context.Context, t *govauth.UndoEmailChangeToken) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE undo_email_change_tokens SET valid = $2 WHERE token = $1`,
		t.Token, t.Valid)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res, "undo token")
}
