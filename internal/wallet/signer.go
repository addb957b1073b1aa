package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs transactions with one wallet's key. The key is read once
// when the signer is built.
type Signer struct {
	name string
	addr common.Address
	key  *ecdsa.PrivateKey
}

// LoadSigner retrieves the key of w from ks. The key must match the
// wallet's recorded address.
func LoadSigner(w *Wallet, ks KeyStore) (*Signer, error) {
	if !w.CanSign() {
		return nil, fmt.Errorf("%w: %s", ErrWatchOnly, w.Name)
	}
	hexKey, err := ks.Retrieve(w.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	if !strings.EqualFold(addr.Hex(), w.Address) {
		return nil, fmt.Errorf("stored key for %q belongs to %s, not %s", w.Name, addr.Hex(), w.Address)
	}
	return &Signer{name: w.Name, addr: addr, key: key}, nil
}

// Name returns the wallet name.
func (s *Signer) Name() string { return s.name }

// Address returns the signing account.
func (s *Signer) Address() common.Address { return s.addr }

// SignTx signs tx for chainID with the London signer.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.NewLondonSigner(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}
