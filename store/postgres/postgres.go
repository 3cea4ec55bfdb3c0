// Package postgres is the PostgreSQL IdentityStore. The schema ships as
// embedded goose migrations applied by Migrate.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/polkassembly/govauth"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const uniqueViolation = "23505"

// DBTX is implemented by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

var _ govauth.IdentityStore = (*Store)(nil)

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects through the pgx stdlib driver and applies migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return s, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, "migrations")
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx DBTX) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("db error: %w", cerr)
		}
	}()
	return fn(tx)
}

func notFound(what string) error {
	return &govauth.Error{Kind: govauth.KindNotFound, Msg: what + " not found"}
}

// mapErr turns unique violations into the matching Conflict error.
func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "users_username_key":
			return govauth.ErrUsernameTaken
		case "users_email_key":
			return govauth.ErrEmailTaken
		case "addresses_pkey":
			return govauth.ErrAddressLinked
		}
		return &govauth.Error{Kind: govauth.KindConflict, Msg: "duplicate record", Err: err}
	}
	return fmt.Errorf("db error: %w", err)
}

/*
====================================
USERS
====================================
*/

const userColumns = `id, email, email_verified, password, salt, username, web3signup,
       tfa_enabled, tfa_verified, tfa_secret, profile, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*govauth.User, error) {
	var (
		u       govauth.User
		profile []byte
	)
	err := row.Scan(&u.ID, &u.Email, &u.EmailVerified, &u.Password, &u.Salt, &u.Username, &u.Web3Signup,
		&u.TwoFactor.Enabled, &u.TwoFactor.Verified, &u.TwoFactor.Secret, &profile, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &u.Profile); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
	}
	return &u, nil
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*govauth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	u, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*govauth.User, error) {
	return s.getUser(ctx, `id = $1`, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*govauth.User, error) {
	return s.getUser(ctx, `lower(username) = lower($1)`, username)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*govauth.User, error) {
	if email == "" {
		return nil, notFound("user")
	}
	return s.getUser(ctx, `lower(email) = lower($1)`, email)
}

func (s *Store) CreateUser(ctx context.Context, u *govauth.User) error {
	return createUser(ctx, s.db, u)
}

// CreateUserWithAddress inserts the user and its first address in one transaction.
func (s *Store) CreateUserWithAddress(ctx context.Context, u *govauth.User, a *govauth.Address) error {
	var id int64
	err := s.withTx(ctx, func(tx DBTX) error {
		created := *u
		if err := createUser(ctx, tx, &created); err != nil {
			return err
		}
		addr := *a
		addr.UserID = created.ID
		if err := createAddress(ctx, tx, &addr); err != nil {
			return err
		}
		id = created.ID
		return nil
	})
	if err != nil {
		return err
	}
	u.ID = id
	a.UserID = id
	return nil
}

func createUser(ctx context.Context, db DBTX, u *govauth.User) error {
	profile, err := json.Marshal(u.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	query :=
		`INSERT INTO users (email, email_verified, password, salt, username, web3signup,
		                    tfa_enabled, tfa_verified, tfa_secret, profile, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`

	err = db.QueryRowContext(ctx, query,
		u.Email, u.EmailVerified, u.Password, u.Salt, u.Username, u.Web3Signup,
		u.TwoFactor.Enabled, u.TwoFactor.Verified, u.TwoFactor.Secret, profile, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		return mapErr(err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u *govauth.User) error {
	profile, err := json.Marshal(u.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	query :=
		`UPDATE users
		 SET email = $2, email_verified = $3, password = $4, salt = $5, username = $6, web3signup = $7,
		     tfa_enabled = $8, tfa_verified = $9, tfa_secret = $10, profile = $11
		 WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query,
		u.ID, u.Email, u.EmailVerified, u.Password, u.Salt, u.Username, u.Web3Signup,
		u.TwoFactor.Enabled, u.TwoFactor.Verified, u.TwoFactor.Secret, profile,
	)
	if err != nil {
		return mapErr(err)
	}
	return expectOne(res, "user")
}

func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return notFound(what)
	}
	return nil
}
