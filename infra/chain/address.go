// Package chain checks withdrawal addresses and hands out deposit
// addresses for the supported chains. Nothing here signs or broadcasts.
package chain

import (
	"encoding/base32"
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"junction/domain/swap"
)

// Validator accepts or rejects a withdrawal target.
type Validator struct {
	btc *chaincfg.Params
}

// NewValidator binds Bitcoin validation to a network name: mainnet,
// testnet3, regtest or signet.
func NewValidator(bitcoinNetwork string) (*Validator, error) {
	params, err := networkParams(bitcoinNetwork)
	if err != nil {
		return nil, err
	}
	return &Validator{btc: params}, nil
}

func networkParams(name string) (*chaincfg.Params, error) {
	switch strings.ToLower(name) {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	default:
		return nil, errors.Newf("unknown bitcoin network %q", name)
	}
}

// Validate returns a wrapped swap.ErrInvalidInput for a malformed address.
func (v *Validator) Validate(c swap.Chain, addr string) error {
	if addr == "" {
		return errors.Wrap(swap.ErrInvalidInput, "empty address")
	}

	switch c {
	case swap.ChainEthereum:
		if !common.IsHexAddress(addr) {
			return errors.Wrapf(swap.ErrInvalidInput, "%q is not an Ethereum address", addr)
		}
	case swap.ChainBitcoin:
		decoded, err := btcutil.DecodeAddress(addr, v.btc)
		if err != nil {
			return errors.Wrapf(swap.ErrInvalidInput, "%q is not a Bitcoin address: %v", addr, err)
		}
		if !decoded.IsForNet(v.btc) {
			return errors.Wrapf(swap.ErrInvalidInput, "%q is not a %s address", addr, v.btc.Name)
		}
	case swap.ChainICP:
		if !IsAccountIdentifier(addr) && !IsPrincipal(addr) {
			return errors.Wrapf(swap.ErrInvalidInput, "%q is neither a principal nor an account identifier", addr)
		}
	default:
		return errors.Wrapf(swap.ErrInvalidInput, "unsupported chain %s", c)
	}
	return nil
}

// IsAccountIdentifier checks the 32-byte hex ledger account form, whose
// first four bytes are the CRC32 of the remaining 28.
func IsAccountIdentifier(s string) bool {
	if len(s) != 64 {
		return false
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return false
	}
	return binary.BigEndian.Uint32(b[:4]) == crc32.ChecksumIEEE(b[4:])
}

var principalEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// IsPrincipal checks the textual principal form: lower-case base32 of
// CRC32 || bytes, grouped by five with dashes.
func IsPrincipal(s string) bool {
	if s == "" || strings.ToLower(s) != s {
		return false
	}
	groups := strings.Split(s, "-")
	for i, g := range groups {
		if len(g) == 0 || len(g) > 5 || (i < len(groups)-1 && len(g) != 5) {
			return false
		}
	}
	raw, err := principalEncoding.DecodeString(strings.ToUpper(strings.Join(groups, "")))
	if err != nil || len(raw) < 4 || len(raw) > 4+29 {
		return false
	}
	return binary.BigEndian.Uint32(raw[:4]) == crc32.ChecksumIEEE(raw[4:])
}
