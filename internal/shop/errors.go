package shop

import (
	"errors"
	"fmt"
)

// ErrEmptyCart is returned by FinishList when there is nothing to check out.
var ErrEmptyCart = errors.New("cart is empty")

// ValidationError reports bad input to a mutation. The store enforces
// validation itself so it stays safe against any client, even ones that
// pre-filter their forms.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
