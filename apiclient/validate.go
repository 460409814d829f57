package apiclient

import (
	"context"
	"fmt"

	"github.com/andyle182810/orchestrator-dashboard/validator"
)

type Validator interface {
	Validate(i any) error
}

var _ Validator = (*validator.Validator)(nil)

// RequestValidated behaves like Request and then checks the decoded value with
// v, or with the default struct-tag validator when v is nil. A value that fails
// validation is reported as ErrValidation, not as a *ClientError.
func RequestValidated[T any](
	ctx context.Context,
	c *Client,
	v Validator,
	path string,
	opts ...RequestOption,
) (T, error) {
	result, err := Request[T](ctx, c, path, opts...)
	if err != nil {
		return result, err
	}

	if v == nil {
		v = validator.DefaultRestValidator()
	}

	if err := v.Validate(result); err != nil {
		return result, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return result, nil
}
