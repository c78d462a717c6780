// Package envelope unwraps enveloped credentials and presentations, whose secured form is
// carried opaquely inside a data: URL instead of as a visible proof.
//
// Decoding is keyed by the media type of the data: URL, so that securing mechanisms other than
// JOSE compact serialization can be plugged in with Register.
package envelope

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vc-test-suites/vc-conformance-tests/document"
)

const dataURLScheme = "data:"

// Media types understood by the default registry.
const (
	MediaTypeVCJWT   = "application/vc+jwt"
	MediaTypeVPJWT   = "application/vp+jwt"
	MediaTypeJWT     = "application/jwt"
	MediaTypeVCSDJWT = "application/vc+sd-jwt"
	MediaTypeVPSDJWT = "application/vp+sd-jwt"
	MediaTypeDCSDJWT = "application/dc+sd-jwt"
)

var (
	// ErrNotDataURL is returned when an envelope id is not a data: URL.
	ErrNotDataURL = errors.New("envelope id is not a data: URL")

	// ErrUnsupportedMediaType is returned when no decoder is registered for a media type.
	ErrUnsupportedMediaType = errors.New("unsupported envelope media type")

	// ErrMalformed is returned when an envelope payload cannot be decoded.
	ErrMalformed = errors.New("malformed envelope payload")
)

// Decoder turns the payload of a data: URL into the secured document it carries.
type Decoder interface {
	Decode(payload string) (document.Document, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(payload string) (document.Document, error)

func (f DecoderFunc) Decode(payload string) (document.Document, error) { return f(payload) }

// Registry maps media types to decoders.
type Registry struct {
	decoders map[string]Decoder
	lock     sync.RWMutex
}

// NewRegistry returns a registry with decoders for JOSE compact serialization and SD-JWT.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[string]Decoder)}
	for _, mt := range []string{MediaTypeVCJWT, MediaTypeVPJWT, MediaTypeJWT} {
		r.Register(mt, DecoderFunc(DecodeCompactJWS))
	}
	for _, mt := range []string{MediaTypeVCSDJWT, MediaTypeVPSDJWT, MediaTypeDCSDJWT} {
		r.Register(mt, DecoderFunc(DecodeSDJWT))
	}
	return r
}

// Register adds or replaces the decoder for a media type.
func (r *Registry) Register(mediaType string, d Decoder) {
	r.lock.Lock()
	r.decoders[strings.ToLower(mediaType)] = d
	r.lock.Unlock()
}

func (r *Registry) decoder(mediaType string) Decoder {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.decoders[strings.ToLower(mediaType)]
}

// DecodeDataURL decodes the secured document carried in a data: URL.
func (r *Registry) DecodeDataURL(dataURL string) (document.Document, error) {
	mediaType, payload, err := ParseDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	d := r.decoder(mediaType)
	if d == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mediaType)
	}
	return d.Decode(payload)
}

// ExtractIfEnveloped returns the secured document inside an enveloped credential or
// presentation. The type may be a string or an array. The claim named "vc" (or "vp") of the
// decoded payload is returned if present, otherwise the whole payload. Documents of any other
// type are returned unchanged, so applying this to an already-unwrapped document is a no-op.
func (r *Registry) ExtractIfEnveloped(d document.Document) (document.Document, error) {
	var claim string
	switch {
	case d.HasType(document.TypeEnvelopedCredential):
		claim = "vc"
	case d.HasType(document.TypeEnvelopedPresentation):
		claim = "vp"
	default:
		return d, nil
	}
	id, ok := d.ID()
	if !ok {
		return nil, fmt.Errorf("%w: enveloped document has no string id", ErrNotDataURL)
	}
	payload, err := r.DecodeDataURL(id)
	if err != nil {
		return nil, err
	}
	if inner, ok := document.FromValue(payload[claim]); ok {
		return inner, nil
	}
	return payload, nil
}

// IsEnveloped returns true if the document's type includes an enveloping term.
func IsEnveloped(d document.Document) bool {
	return d.HasType(document.TypeEnvelopedCredential) || d.HasType(document.TypeEnvelopedPresentation)
}

// ParseDataURL splits a data: URL into its media type (without parameters) and payload.
func ParseDataURL(s string) (mediaType, payload string, err error) {
	if !strings.HasPrefix(strings.ToLower(s), dataURLScheme) {
		return "", "", ErrNotDataURL
	}
	rest := s[len(dataURLScheme):]
	comma := strings.Index(rest, ",")
	if comma < 0 {
		return "", "", fmt.Errorf("%w: missing ','", ErrNotDataURL)
	}
	mediaType = rest[:comma]
	if semi := strings.Index(mediaType, ";"); semi >= 0 {
		mediaType = mediaType[:semi]
	}
	return strings.TrimSpace(mediaType), rest[comma+1:], nil
}

// DataURL builds the data: URL for an enveloped document.
func DataURL(mediaType, payload string) string {
	return dataURLScheme + mediaType + "," + payload
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry used by the package-level functions.
func DefaultRegistry() *Registry { return defaultRegistry }

// ExtractIfEnveloped calls Registry.ExtractIfEnveloped on the default registry.
func ExtractIfEnveloped(d document.Document) (document.Document, error) {
	return defaultRegistry.ExtractIfEnveloped(d)
}

// Envelope wraps a compact-serialized secured document as an enveloped credential or
// presentation.
func Envelope(envelopeType, mediaType, compact string) document.Document {
	return document.Document{
		document.PropertyContext: []interface{}{document.BaseContextURL},
		document.PropertyType:    envelopeType,
		document.PropertyID:      DataURL(mediaType, compact),
	}
}
