package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingHomeBranch is returned when a branch-scoped caller has no home branch.
var ErrMissingHomeBranch = errors.New("branch user has no home branch")

// Role is the closed set of caller roles: Central or Branch.
type Role interface {
	isRole()
	String() string
}

// Central callers see every branch and may pick any branch filter.
type Central struct{}

// Branch callers are confined to their home branch.
type Branch struct {
	Home string
}

func (Central) isRole() {}
func (Branch) isRole()  {}

func (Central) String() string { return "CENTRAL" }
func (Branch) String() string  { return "BRANCH" }

// ParseRole maps the identity provider's role name onto a Role.
func ParseRole(name, homeBranch string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "CENTRAL":
		return Central{}, nil
	case "BRANCH":
		return Branch{Home: strings.TrimSpace(homeBranch)}, nil
	default:
		return nil, fmt.Errorf("unknown role %q", name)
	}
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID   string
	Role Role
}

// EffectiveBranch resolves the branch filter a caller is allowed to use.
// Branch callers are always forced onto their home branch; Central callers get
// the requested branch as-is, and "" means global.
func EffectiveBranch(role Role, requested string) (string, error) {
	switch r := role.(type) {
	case Branch:
		if r.Home == "" {
			return "", ErrMissingHomeBranch
		}
		return r.Home, nil
	case Central:
		return strings.TrimSpace(requested), nil
	default:
		return "", fmt.Errorf("unsupported role %T", role)
	}
}
