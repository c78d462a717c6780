// Package prover secures credentials and presentations locally, without calling an
// implementation, using an Ed25519 key identified as a did:key.
package prover

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vc-test-suites/vc-conformance-tests/document"
	"github.com/vc-test-suites/vc-conformance-tests/envelope"
	"github.com/vc-test-suites/vc-conformance-tests/keys"
	"github.com/vc-test-suites/vc-conformance-tests/registry"
	"github.com/vc-test-suites/vc-conformance-tests/servicedef"

	"github.com/go-jose/go-jose/v3"
)

// ProofType is the type of the proofs created by a Prover.
const ProofType = "JsonWebSignature2020"

// Proof purposes.
const (
	PurposeAssertion      = "assertionMethod"
	PurposeAuthentication = "authentication"
)

const (
	proofJWS                = "jws"
	proofType               = "type"
	proofCreated            = "created"
	proofVerificationMethod = "verificationMethod"
	proofPurpose            = "proofPurpose"
	proofChallenge          = "challenge"
	proofDomain             = "domain"
)

var (
	// ErrNoProof is returned by VerifyProofs for a document without any proof.
	ErrNoProof = errors.New("document has no proof")

	// ErrInvalidProof is returned by VerifyProofs when a proof does not verify.
	ErrInvalidProof = errors.New("invalid proof")
)

// ProofOptions are the optional values bound into a proof.
type ProofOptions struct {
	Purpose   string
	Challenge string
	Domain    string
}

// Prover signs documents with a single key.
type Prover struct {
	key keys.KeyPair
	now func() time.Time
}

// New creates a Prover for a key pair.
func New(key keys.KeyPair) *Prover {
	return &Prover{key: key, now: time.Now}
}

// FromConfig creates a Prover whose key is derived from the configured seed, or is random if no
// seed is configured.
func FromConfig(config registry.Config) (*Prover, error) {
	key, err := keys.FromSeedOrGenerate(config.KeySeed)
	if err != nil {
		return nil, fmt.Errorf("cannot create prover key: %w", err)
	}
	return New(key), nil
}

// DID returns the identifier of the prover's key.
func (p *Prover) DID() string {
	return p.key.DID()
}

// AddProof returns a copy of the document with a new proof appended to any existing ones.
func (p *Prover) AddProof(d document.Document, opts ProofOptions) (document.Document, error) {
	purpose := opts.Purpose
	if purpose == "" {
		purpose = PurposeAssertion
	}
	proof := map[string]interface{}{
		proofType:               ProofType,
		proofCreated:            p.now().UTC().Format(time.RFC3339),
		proofVerificationMethod: p.key.VerificationMethod(),
		proofPurpose:            purpose,
	}
	if opts.Challenge != "" {
		proof[proofChallenge] = opts.Challenge
	}
	if opts.Domain != "" {
		proof[proofDomain] = opts.Domain
	}

	input, err := signingInput(d, proof)
	if err != nil {
		return nil, err
	}
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: p.key.Private}, nil)
	if err != nil {
		return nil, err
	}
	obj, err := signer.Sign(input)
	if err != nil {
		return nil, err
	}
	jws, err := obj.DetachedCompactSerialize()
	if err != nil {
		return nil, err
	}
	proof[proofJWS] = jws

	out := d.Clone()
	out.AppendProof(proof)
	return out, nil
}

// Issue secures a credential with an assertion proof. If the credential has no issuer, the
// prover's DID is used.
func (p *Prover) Issue(credential document.Document) (document.Document, error) {
	c := credential.Clone()
	if !c.Has(document.PropertyIssuer) {
		c[document.PropertyIssuer] = p.DID()
	}
	return p.AddProof(c, ProofOptions{Purpose: PurposeAssertion})
}

// Prove secures a presentation for its holder, setting the holder to the prover's DID if the
// presentation has none. With Enveloped set, the result is an EnvelopedVerifiablePresentation
// whose id is a data: URL of a compact JWS over the presentation; otherwise an authentication
// proof is appended.
func (p *Prover) Prove(presentation document.Document, options servicedef.ProveOptions) (document.Document, error) {
	vp := presentation.Clone()
	if !vp.Has(document.PropertyHolder) {
		vp[document.PropertyHolder] = p.DID()
	}
	if options.Enveloped {
		return p.envelop(vp, options)
	}
	return p.AddProof(vp, ProofOptions{
		Purpose:   PurposeAuthentication,
		Challenge: options.Challenge.OrElse(""),
		Domain:    options.Domain.OrElse(""),
	})
}

func (p *Prover) envelop(vp document.Document, options servicedef.ProveOptions) (document.Document, error) {
	payload := vp.Clone()
	if c, ok := options.Challenge.Get(); ok {
		payload["nonce"] = c
	}
	if d, ok := options.Domain.Get(); ok {
		payload["aud"] = d
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	signerOpts := (&jose.SignerOptions{}).
		WithType(jose.ContentType("vp+jwt")).
		WithHeader("kid", p.key.VerificationMethod())
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: p.key.Private}, signerOpts)
	if err != nil {
		return nil, err
	}
	obj, err := signer.Sign(data)
	if err != nil {
		return nil, err
	}
	compact, err := obj.CompactSerialize()
	if err != nil {
		return nil, err
	}
	return envelope.Envelope(document.TypeEnvelopedPresentation, envelope.MediaTypeVPJWT, compact), nil
}

// VerifyProofs checks every proof of the document that was created by a Prover, resolving
// the public key from its did:key verification method. Proofs of other types are not checked,
// but a document must have at least one proof.
func VerifyProofs(d document.Document) error {
	proofs := d.Proofs()
	if len(proofs) == 0 {
		return ErrNoProof
	}
	for i, proof := range proofs {
		if proof == nil {
			return fmt.Errorf("%w: proof %d is not an object", ErrInvalidProof, i)
		}
		if proof[proofType] != ProofType {
			continue
		}
		if err := verifyProof(d, proof); err != nil {
			return fmt.Errorf("%w: proof %d: %v", ErrInvalidProof, i, err)
		}
	}
	return nil
}

func verifyProof(d document.Document, proof map[string]interface{}) error {
	jws, ok := proof[proofJWS].(string)
	if !ok {
		return errors.New("missing jws")
	}
	vm, _ := proof[proofVerificationMethod].(string)
	pub, err := keys.PublicKeyFromDIDKey(vm)
	if err != nil {
		return err
	}
	options := make(map[string]interface{}, len(proof))
	for k, v := range proof {
		if k != proofJWS {
			options[k] = v
		}
	}
	input, err := signingInput(d, options)
	if err != nil {
		return err
	}
	obj, err := jose.ParseSigned(jws)
	if err != nil {
		return err
	}
	return obj.DetachedVerify(input, pub)
}

// signingInput is the JSON encoding of the document without its proofs together with the
// proof options. Map keys are encoded in sorted order, so the encoding is stable.
func signingInput(d document.Document, proofOptions map[string]interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"document": map[string]interface{}(d.WithoutProof()),
		"proof":    proofOptions,
	})
}
