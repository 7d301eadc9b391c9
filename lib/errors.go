package lib

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Database errors
var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
)

// Input errors: rejected synchronously, no state change.
var (
	ErrUnknownProduct     = errors.New("unknown product")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidSplit       = errors.New("invalid split person count")
	ErrInvalidSplitAmount = errors.New("split amount rounds to zero")
	ErrInvalidTableNumber = errors.New("invalid table number")
)

// State-conflict errors: the request was well-formed but the ledger is not in
// a state that allows it. Distinguishable from input errors so clients can
// decide whether to retry.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotPayable      = errors.New("order not payable")
	ErrNothingToPay         = errors.New("nothing to pay")
	ErrSessionAlreadyExists = errors.New("checkout session already exists")
	ErrSessionAlreadyOpen   = errors.New("table session already open")
	ErrTableNotFound        = errors.New("table not found")
)

// Auth errors
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("expired token")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func MapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code { // SQLSTATE
		case "23505": // unique_violation
			return ErrConflict
		case "P0002": // no_data_found
			return ErrNotFound
		}
	}
	return err
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
