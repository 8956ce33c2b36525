package scope

import (
	"github.com/spazaafy/platform/internal/shared/auth"
	"github.com/spazaafy/platform/internal/shared/metrics"
	"github.com/spazaafy/platform/internal/shared/types"
)

// Scope names the breadth of data a caller may see.
type Scope string

const (
	// ScopeAll grants unrestricted visibility. Global admins only.
	ScopeAll Scope = "all"
	// ScopeProvince restricts visibility to one province.
	ScopeProvince Scope = "province"
	// ScopeOwner restricts visibility to records the caller owns.
	ScopeOwner Scope = "owner"
	// ScopeNone grants nothing. The default for anything unclassified.
	ScopeNone Scope = "none"
)

// Decision is the resolved visibility for one caller. Province is set only
// for ScopeProvince, OwnerID only for ScopeOwner.
type Decision struct {
	Scope    Scope
	Province string
	OwnerID  types.ID
}

// Resolve classifies a caller into exactly one scope. Classification is
// ordered and first-match: global admin, then province admin, then owner.
// Anything that matches none of those, including a nil user, resolves to
// ScopeNone.
func Resolve(user *auth.User) Decision {
	dec := resolve(user)
	metrics.RecordScopeDecision(string(dec.Scope))
	return dec
}

func resolve(user *auth.User) Decision {
	if user == nil {
		return Decision{Scope: ScopeNone}
	}
	if user.IsGlobalAdmin() {
		return Decision{Scope: ScopeAll}
	}
	if user.IsProvinceAdmin() {
		return Decision{Scope: ScopeProvince, Province: user.Province}
	}
	if user.Role == auth.RoleOwner {
		return Decision{Scope: ScopeOwner, OwnerID: user.ID}
	}
	return Decision{Scope: ScopeNone}
}

// Descriptor declares how one resource type exposes its scoping
// dimensions. A nil accessor means the resource has no such dimension and
// the corresponding scope denies access to it.
type Descriptor[T any] struct {
	// Province returns the province a record belongs to, directly or
	// through its shop.
	Province func(T) string
	// Owner returns the owning account.
	Owner func(T) types.ID
}

// Allows reports whether the decision permits access to one record.
func (d Descriptor[T]) Allows(dec Decision, item T) bool {
	switch dec.Scope {
	case ScopeAll:
		return true
	case ScopeProvince:
		return d.Province != nil && d.Province(item) == dec.Province
	case ScopeOwner:
		return d.Owner != nil && d.Owner(item) == dec.OwnerID
	default:
		return false
	}
}

// Filter returns the records the decision permits, preserving order.
func Filter[T any](dec Decision, items []T, d Descriptor[T]) []T {
	if dec.Scope == ScopeNone {
		return nil
	}
	if dec.Scope == ScopeAll {
		return items
	}
	var out []T
	for _, item := range items {
		if d.Allows(dec, item) {
			out = append(out, item)
		}
	}
	return out
}
