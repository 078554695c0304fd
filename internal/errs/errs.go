package errs

import (
	"errors"
	"net/http"
)

// Error kinds shared across the ledgers. Operations wrap these with
// fmt.Errorf("%w: ...") so callers can match with errors.Is while the
// boundary still gets a human-readable reason.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrInvalidDeadline   = errors.New("deadline must be in the future")
	ErrDuplicateBid      = errors.New("provider already placed a bid")
	ErrPaymentMismatch   = errors.New("amount sent doesn't match the bid price")
	ErrNoFunds           = errors.New("no funds found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// HTTPStatus maps an error kind to the response code used by the handlers.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidDeadline),
		errors.Is(err, ErrDuplicateBid),
		errors.Is(err, ErrPaymentMismatch),
		errors.Is(err, ErrNoFunds),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
