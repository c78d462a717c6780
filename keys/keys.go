// Package keys derives the Ed25519 keys used for locally generated proofs and capability
// invocations.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/multiformats/go-multibase"
)

const didKeyPrefix = "did:key:"

// multicodec prefix for ed25519-pub, as a varint.
var ed25519PubMulticodec = []byte{0xed, 0x01}

// ErrInvalidSeed is returned when a seed does not decode to 32 bytes.
var ErrInvalidSeed = errors.New("key seed must be a multibase-encoded 32-byte value")

// KeyPair is an Ed25519 key pair identified by a did:key.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// FromSeed derives a key pair from a multibase-encoded seed. The seed may be either the raw 32
// bytes or an identity multihash of them (0x00 0x20 followed by the 32 bytes), which is the
// format used by most VC tooling.
func FromSeed(seed string) (KeyPair, error) {
	_, data, err := multibase.Decode(seed)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if len(data) == ed25519.SeedSize+2 && data[0] == 0x00 && data[1] == ed25519.SeedSize {
		data = data[2:]
	}
	if len(data) != ed25519.SeedSize {
		return KeyPair{}, fmt.Errorf("%w: got %d bytes", ErrInvalidSeed, len(data))
	}
	priv := ed25519.NewKeyFromSeed(data)
	return KeyPair{Public: priv.Public().(ed25519.PublicKey), Private: priv}, nil
}

// Generate creates a random key pair.
func Generate() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Public: pub, Private: priv}, nil
}

// FromSeedOrGenerate uses the seed if it is non-empty, and otherwise generates a random key.
func FromSeedOrGenerate(seed string) (KeyPair, error) {
	if seed == "" {
		return Generate()
	}
	return FromSeed(seed)
}

// Fingerprint is the multibase (base58btc) encoding of the multicodec-prefixed public key.
func (k KeyPair) Fingerprint() string {
	fp, _ := multibase.Encode(multibase.Base58BTC, append(append([]byte(nil), ed25519PubMulticodec...), k.Public...))
	return fp
}

// DID returns the did:key identifier of the public key.
func (k KeyPair) DID() string {
	return didKeyPrefix + k.Fingerprint()
}

// VerificationMethod returns the id of the key's verification method within its DID document.
func (k KeyPair) VerificationMethod() string {
	return k.DID() + "#" + k.Fingerprint()
}

// PublicKeyFromDIDKey extracts an Ed25519 public key from a did:key identifier or verification
// method id.
func PublicKeyFromDIDKey(id string) (ed25519.PublicKey, error) {
	if len(id) <= len(didKeyPrefix) || id[:len(didKeyPrefix)] != didKeyPrefix {
		return nil, fmt.Errorf("not a did:key: %q", id)
	}
	fp := id[len(didKeyPrefix):]
	for i, c := range fp {
		if c == '#' {
			fp = fp[:i]
			break
		}
	}
	_, data, err := multibase.Decode(fp)
	if err != nil {
		return nil, fmt.Errorf("malformed did:key: %w", err)
	}
	if len(data) != len(ed25519PubMulticodec)+ed25519.PublicKeySize ||
		data[0] != ed25519PubMulticodec[0] || data[1] != ed25519PubMulticodec[1] {
		return nil, fmt.Errorf("did:key %q is not an Ed25519 key", id)
	}
	return ed25519.PublicKey(data[2:]), nil
}
