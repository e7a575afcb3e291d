package authstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
)

// Error codes surfaced by the hosted store's REST layer. PolicyRecursion
// is the self-referential row-level-policy defect: once a read fails
// with it, the normal path for that resource will keep failing the same
// way, so callers must switch to the bypass functions instead of
// retrying.
const (
	CodePolicyRecursion = "42P17"
	CodeNoRows          = "PGRST116"
)

// Error is a typed failure from the hosted store.
type Error struct {
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("authstore: %s (code %s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("authstore: %s (status %d)", e.Message, e.Status)
}

// IsNotFound reports whether err is the store's "no rows" condition.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeNoRows
}

// IsPolicyRecursion reports whether err is the row-level-policy
// recursion defect.
func IsPolicyRecursion(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodePolicyRecursion
}

// IsTransient reports whether err is a 5xx-class store failure worth
// retrying.
func IsTransient(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Status >= 500
}

// IsUniqueViolation reports whether err is a uniqueness conflict on
// insert or upsert.
func IsUniqueViolation(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == pgerrcode.UniqueViolation
}

// IsCanceled reports whether err stems from context cancellation or a
// deadline. Cancellation is a silent no-op throughout the session core.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
