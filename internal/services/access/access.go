// Package access holds the authorization checks placed in front of every pool and session operation.
package access

import "github.com/mcoot/dinkup/internal/model"

// RequireMember fails unless the caller is an active member of the pool
func RequireMember(pool *model.Pool, caller model.PlayerID) error {
	if !pool.IsActiveMember(caller) {
		return model.ErrNotPoolMember
	}
	return nil
}

// RequireOwner fails unless the caller owns the pool
func RequireOwner(pool *model.Pool, caller model.PlayerID) error {
	if !pool.IsOwner(caller) {
		return model.ErrForbidden
	}
	return nil
}

// RequireSelfOrOwner allows a caller to act on their own behalf, or the owner on anyone's
func RequireSelfOrOwner(pool *model.Pool, caller, target model.PlayerID) error {
	if caller == target || pool.IsOwner(caller) {
		return nil
	}
	return model.ErrForbidden
}

// RequireActive fails if the pool has been deactivated
func RequireActive(pool *model.Pool) error {
	if !pool.Active {
		return model.ErrPoolInactive
	}
	return nil
}
