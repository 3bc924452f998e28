package adapters

import (
	"fmt"

	"github.com/canopy-network/canopy/lib/schnorrkel"
)

// ChainType represents different blockchain types
type ChainType string

// ChainTypeSubstrate represents Substrate based chains
const ChainTypeSubstrate ChainType = "substrate"

// SubstrateAdapter signs and verifies for accounts addressed by SS58
type SubstrateAdapter struct {
	scheme *schnorrkel.Schnorrkel
	prefix uint16
}

// NewSubstrateAdapter creates a new Substrate adapter for one network
func NewSubstrateAdapter(scheme *schnorrkel.Schnorrkel, prefix uint16) (*SubstrateAdapter, error) {
	if scheme == nil {
		scheme = schnorrkel.Default()
	}
	if _, err := encodePrefix(prefix); err != nil {
		return nil, err
	}
	return &SubstrateAdapter{scheme: scheme, prefix: prefix}, nil
}

// GetChainType returns the chain family
func (sa *SubstrateAdapter) GetChainType() ChainType {
	return ChainTypeSubstrate
}

// Prefix returns the SS58 network prefix
func (sa *SubstrateAdapter) Prefix() uint16 {
	return sa.prefix
}

// Address returns the SS58 address of pk on this network
func (sa *SubstrateAdapter) Address(pk schnorrkel.PublicKey) (string, error) {
	return EncodeAddress(pk, sa.prefix)
}

// PublicKey resolves an address of this network back to its key
func (sa *SubstrateAdapter) PublicKey(address string) (schnorrkel.PublicKey, error) {
	pk, prefix, err := DecodeAddress(address)
	if err != nil {
		return schnorrkel.PublicKey{}, err
	}
	if prefix != sa.prefix {
		return schnorrkel.PublicKey{}, fmt.Errorf("address is for network %d, adapter expects %d", prefix, sa.prefix)
	}
	return pk, nil
}

// SignMessage signs message with kp under the adapter's signing context
func (sa *SubstrateAdapter) SignMessage(message []byte, kp schnorrkel.KeyPair) (schnorrkel.Signature, error) {
	sig, err := sa.scheme.Sign(message, kp)
	if err != nil {
		return schnorrkel.Signature{}, fmt.Errorf("sr25519 signing failed: %w", err)
	}
	return sig, nil
}

// VerifySignature checks a signature against an SS58 address
func (sa *SubstrateAdapter) VerifySignature(
	signature schnorrkel.Signature,
	message []byte,
	address string,
) (bool, error) {
	pk, err := sa.PublicKey(address)
	if err != nil {
		return false, err
	}
	return sa.scheme.Verify(signature, message, pk)
}
