package transport

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vc-test-suites/vc-conformance-tests/keys"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
)

const (
	rootCapabilityPrefix = "urn:zcap:root:"
	zcapAction           = "write"
	signatureLifetime    = 10 * time.Minute
)

// Headers covered by a capability invocation signature, in signing order.
var zcapCoveredHeaders = []string{
	"(key-id)", "(created)", "(expires)", "(request-target)",
	"host", "capability-invocation", "content-type", "digest",
}

// ZcapInvoker signs requests as invocations of an authorization capability, using an HTTP
// signature made with the invoker's Ed25519 key.
type ZcapInvoker struct {
	key keys.KeyPair
	now func() time.Time
}

// NewZcapInvoker creates an invoker whose key is derived from a multibase seed.
func NewZcapInvoker(seed string) (*ZcapInvoker, error) {
	key, err := keys.FromSeed(seed)
	if err != nil {
		return nil, err
	}
	return &ZcapInvoker{key: key, now: time.Now}, nil
}

// KeyID returns the verification method the signature refers to.
func (z *ZcapInvoker) KeyID() string {
	return z.key.VerificationMethod()
}

// RootCapability returns the id of the root capability for a target URL.
func RootCapability(target string) string {
	return rootCapabilityPrefix + url.QueryEscape(target)
}

// Sign adds the capability-invocation, digest and authorization headers to the request. If
// capability is empty, the root capability of the request URL is invoked.
func (z *ZcapInvoker) Sign(req *http.Request, body []byte, capability string) error {
	if capability == "" {
		capability = RootCapability(req.URL.String())
	}
	digest, err := bodyDigest(body)
	if err != nil {
		return err
	}
	req.Header.Set("Capability-Invocation", fmt.Sprintf(`zcap id="%s",action="%s"`, capability, zcapAction))
	req.Header.Set("Digest", "mh="+digest)

	created := z.now().Unix()
	expires := created + int64(signatureLifetime/time.Second)
	keyID := z.KeyID()

	input := signingInput(req, keyID, created, expires)
	sig := ed25519.Sign(z.key.Private, []byte(input))

	req.Header.Set("Authorization", fmt.Sprintf(
		`Signature keyId="%s",headers="%s",signature="%s",created="%d",expires="%d"`,
		keyID,
		strings.Join(zcapCoveredHeaders, " "),
		base64.StdEncoding.EncodeToString(sig),
		created,
		expires,
	))
	return nil
}

func signingInput(req *http.Request, keyID string, created, expires int64) string {
	host := req.Host
	if host == "" {
		host = req.URL.Host
	}
	lines := make([]string, 0, len(zcapCoveredHeaders))
	for _, h := range zcapCoveredHeaders {
		var value string
		switch h {
		case "(key-id)":
			value = keyID
		case "(created)":
			value = strconv.FormatInt(created, 10)
		case "(expires)":
			value = strconv.FormatInt(expires, 10)
		case "(request-target)":
			value = strings.ToLower(req.Method) + " " + req.URL.RequestURI()
		case "host":
			value = host
		default:
			value = req.Header.Get(h)
		}
		lines = append(lines, h+": "+value)
	}
	return strings.Join(lines, "\n")
}

// bodyDigest is the multibase base64url encoding of the sha2-256 multihash of the body.
func bodyDigest(body []byte) (string, error) {
	mh, err := multihash.Sum(body, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return multibase.Encode(multibase.Base64url, mh)
}
