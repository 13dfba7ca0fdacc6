// server/internal/ledger/errors.go
package ledger

import "errors"

var (
	// ErrQuantityExceeded indicates a delivery or disposition would push a
	// quantity past its ceiling (ordered for PO lines, received for GRN lines).
	ErrQuantityExceeded = errors.New("quantity exceeded")
	// ErrInvalidQuantity indicates a negative or zero quantity where a
	// positive one is required.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrItemNotInOrder indicates a GRN line references a part the purchase
	// order does not contain.
	ErrItemNotInOrder = errors.New("item not in order")
)
