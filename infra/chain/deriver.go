package chain

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"junction/domain/swap"
)

// Deriver produces the deposit address an owner should send funds to on a
// given chain. Real derivation lives with the custody service; Simulated
// stands in for it.
type Deriver interface {
	Derive(owner swap.Identity, c swap.Chain) (string, error)
}

type Simulated struct{}

func (Simulated) Derive(owner swap.Identity, c swap.Chain) (string, error) {
	if !c.Valid() {
		return "", errors.Wrapf(swap.ErrInvalidInput, "unsupported chain %s", c)
	}
	return fmt.Sprintf("sim_%s_addr_for_%s", strings.ToLower(c.String()), owner), nil
}
