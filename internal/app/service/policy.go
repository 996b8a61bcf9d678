package service

import (
	"context"

	"companion_hub/internal/common"
	"companion_hub/internal/domain/model"
)

var (
	ErrForbidden    = common.NewError(common.ErrForbidden, "Forbidden")
	ErrAuthRequired = common.NewError(common.ErrUnauthorized, "No token provided")
)

// AccessPolicy switches on the delete checks the API does not perform by
// default. With both off, deletes are unconditional.
type AccessPolicy struct {
	RequireAuthForPostDelete bool
	EnforceOwnership         bool
}

// PostDeleteNeedsAuth reports whether DELETE /posts/{id} must be authenticated.
func (p AccessPolicy) PostDeleteNeedsAuth() bool {
	return p.RequireAuthForPostDelete || p.EnforceOwnership
}

// deleteUnderPolicy runs del and applies ownership rules. A missing row is
// never an error.
func deleteUnderPolicy(
	ctx context.Context,
	policy AccessPolicy,
	caller *model.Identity,
	del func(ctx context.Context, ownerID *int64) (bool, error),
	exists func(ctx context.Context) (bool, error),
) error {
	if !policy.EnforceOwnership {
		_, err := del(ctx, nil)
		return err
	}
	if caller == nil {
		return ErrAuthRequired
	}

	owner := caller.UserID
	deleted, err := del(ctx, &owner)
	if err != nil || deleted {
		return err
	}

	found, err := exists(ctx)
	if err != nil {
		return err
	}
	if found {
		return ErrForbidden
	}
	return nil
}
