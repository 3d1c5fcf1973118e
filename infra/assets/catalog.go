// Package assets is the catalog of tradable symbols: which chain each one
// lives on and how many decimals its smallest unit has.
package assets

import (
	"math/big"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"junction/domain/swap"
	"junction/infra/config"
)

type Asset struct {
	Symbol   string
	Chain    swap.Chain
	Decimals int32
	Name     string
}

// Catalog is read-only after construction. An empty catalog accepts every
// symbol on every chain.
type Catalog struct {
	bySymbol map[string]Asset
}

func New(list []Asset) *Catalog {
	c := &Catalog{bySymbol: make(map[string]Asset, len(list))}
	for _, a := range list {
		c.bySymbol[a.Symbol] = a
	}
	return c
}

// FromConfig builds the catalog from the assets section.
func FromConfig(entries []config.Asset) (*Catalog, error) {
	list := make([]Asset, 0, len(entries))
	for _, e := range entries {
		ch, err := swap.ParseChain(e.Chain)
		if err != nil {
			return nil, errors.Wrapf(err, "asset %s", e.Symbol)
		}
		list = append(list, Asset{Symbol: e.Symbol, Chain: ch, Decimals: e.Decimals, Name: e.Name})
	}
	return New(list), nil
}

func (c *Catalog) Lookup(symbol string) (Asset, bool) {
	a, ok := c.bySymbol[symbol]
	return a, ok
}

func (c *Catalog) List() []Asset {
	out := make([]Asset, 0, len(c.bySymbol))
	for _, a := range c.bySymbol {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (c *Catalog) Empty() bool { return len(c.bySymbol) == 0 }

// Check resolves the chain of symbol. When the caller names a chain it
// must agree with the catalog; when it names none (ChainUnknown) the
// catalog's chain is returned.
func (c *Catalog) Check(symbol string, ch swap.Chain) (swap.Chain, error) {
	if c.Empty() {
		return ch, nil
	}
	a, ok := c.bySymbol[symbol]
	if !ok {
		return ch, errors.Wrapf(swap.ErrInvalidInput, "unknown symbol %s", symbol)
	}
	if ch != swap.ChainUnknown && ch != a.Chain {
		return ch, errors.Wrapf(swap.ErrInvalidInput, "%s lives on %s, not %s", symbol, a.Chain, ch)
	}
	return a.Chain, nil
}

// Format renders an amount of smallest units in whole-token notation.
func (c *Catalog) Format(symbol string, amount uint64) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
	if a, ok := c.bySymbol[symbol]; ok {
		d = d.Shift(-a.Decimals)
	}
	return d.String()
}

// Parse converts whole-token notation to smallest units. Amounts with
// more precision than the symbol allows, negative amounts and amounts that
// do not fit a uint64 are rejected.
func (c *Catalog) Parse(symbol, s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(swap.ErrInvalidInput, "amount %q: %v", s, err)
	}
	var decimals int32
	if a, ok := c.bySymbol[symbol]; ok {
		decimals = a.Decimals
	}
	units := d.Shift(decimals)
	if !units.IsInteger() {
		return 0, errors.Wrapf(swap.ErrInvalidInput, "%s has at most %d decimals", symbol, decimals)
	}
	if units.IsNegative() {
		return 0, errors.Wrapf(swap.ErrInvalidInput, "amount %s is negative", s)
	}
	bi := units.BigInt()
	if !bi.IsUint64() {
		return 0, errors.Wrapf(swap.ErrOverflow, "amount %s does not fit", s)
	}
	return bi.Uint64(), nil
}
