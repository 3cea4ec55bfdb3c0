package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/polkassembly/govauth"
)

const addressColumns = `address, user_id, is_default, verified, network, wallet, is_erc20, is_multisig,
       public_key, sign_message, created_at`

func scanAddress(row scanner) (*govauth.Address, error) {
	var a govauth.Address
	err := row.Scan(&a.Address, &a.UserID, &a.Default, &a.Verified, &a.Network, &a.Wallet, &a.IsERC20,
		&a.IsMultisig, &a.PublicKey, &a.SignMessage, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetAddress(ctx context.Context, address string) (*govauth.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE address = $1`
	a, err := scanAddress(s.db.QueryRowContext(ctx, query, address))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("address")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (s *Store) GetAddressesByUser(ctx context.Context, userID int64, verifiedOnly bool) ([]govauth.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses
		 WHERE user_id = $1 AND (verified OR NOT $2)
		 ORDER BY created_at, address`

	rows, err := s.db.QueryContext(ctx, query, userID, verifiedOnly)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]govauth.Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (s *Store) GetDefaultAddress(ctx context.Context, userID int64) (*govauth.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = $1 AND is_default`
	a, err := scanAddress(s.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("default address")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (s *Store) CreateAddress(ctx context.Context, a *govauth.Address) error {
	return createAddress(ctx, s.db, a)
}

func createAddress(ctx context.Context, db DBTX, a *govauth.Address) error {
	query :=
		`INSERT INTO addresses (address, user_id, is_default, verified, network, wallet, is_erc20, is_multisig,
		                        public_key, sign_message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := db.ExecContext(ctx, query,
		a.Address, a.UserID, a.Default, a.Verified, a.Network, a.Wallet, a.IsERC20, a.IsMultisig,
		a.PublicKey, a.SignMessage, a.CreatedAt)
	if err != nil {
		return mapErr(err)
	}
	return nil
}

const updateAddressQuery = `UPDATE addresses
		 SET is_default = $3, verified = $4, network = $5, wallet = $6, is_erc20 = $7, is_multisig = $8,
		     public_key = $9, sign_message = $10
		 WHERE address = $1 AND user_id = $2`

func updateAddress(ctx context.Context, db DBTX, a govauth.Address) error {
	res, err := db.ExecContext(ctx, updateAddressQuery,
		a.Address, a.UserID, a.Default, a.Verified, a.Network, a.Wallet, a.IsERC20, a.IsMultisig,
		a.PublicKey, a.SignMessage)
	if err != nil {
		return mapErr(err)
	}
	return expectOne(res, "address")
}

func (s *Store) UpdateAddress(ctx context.Context, a *govauth.Address) error {
	return updateAddress(ctx, s.db, *a)
}

func (s *Store) DeleteAddress(ctx context.Context, address string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM addresses WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res, "address")
}

// UpdateAddresses writes the batch in one transaction. Rows losing the default
// flag are written first so the one-default index holds at every statement.
func (s *Store) UpdateAddresses(ctx context.Context, userID int64, addresses []govauth.Address) error {
	batch := make([]govauth.Address, len(addresses))
	copy(batch, addresses)
	sort.SliceStable(batch, func(i, j int) bool { return !batch[i].Default && batch[j].Default })

	return s.withTx(ctx, func(tx DBTX) error {
		for _, a := range batch {
			if a.UserID != userID {
				return govauth.ErrAddressNotOwned
			}
			if err := updateAddress(ctx, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
}
