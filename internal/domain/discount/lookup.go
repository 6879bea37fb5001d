package discount

import (
	"context"

	"github.com/go-faster/errors"
)

// Lookup resolves user-entered codes against a Repository.
type Lookup struct {
	repo Repository
}

// NewLookup creates a Lookup backed by repo.
func NewLookup(repo Repository) *Lookup {
	return &Lookup{repo: repo}
}

// Apply looks up code and returns it when it exists and is active.
// Unknown and inactive codes both yield ErrInvalidCode. Whether the code
// actually reduces anything depends on the subtotal, see Amount.
func (l *Lookup) Apply(ctx context.Context, code string) (*Code, error) {
	normalized := Normalize(code)
	if normalized == "" {
		return nil, ErrInvalidCode
	}

	c, err := l.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return nil, ErrInvalidCode
		}
		return nil, errors.Wrap(err, "lookup discount code")
	}
	if !c.Active {
		return nil, ErrInvalidCode
	}
	return c, nil
}
