package envelope

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vc-test-suites/vc-conformance-tests/document"
)

const (
	sdDigestsKey    = "_sd"
	sdAlgKey        = "_sd_alg"
	sdArrayEntryKey = "..."
)

// DecodeCompactJWS decodes the payload segment of a JOSE compact serialization
// (header.payload.signature) without verifying the signature.
func DecodeCompactJWS(compact string) (document.Document, error) {
	parts := strings.Split(strings.TrimSpace(compact), ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: expected at least 2 '.'-separated segments, got %d", ErrMalformed, len(parts))
	}
	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload segment: %v", ErrMalformed, err)
	}
	d, err := document.Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return d, nil
}

// DecodeSDJWT decodes an SD-JWT (issuer-jwt~disclosure~...~[kb-jwt]). Disclosures that match a
// digest in the payload are restored into the returned document.
func DecodeSDJWT(compact string) (document.Document, error) {
	segments := strings.Split(strings.TrimSpace(compact), "~")
	d, err := DecodeCompactJWS(segments[0])
	if err != nil {
		return nil, err
	}
	disclosures := make(map[string][]interface{})
	for _, s := range segments[1:] {
		if s == "" || strings.Count(s, ".") == 2 {
			// trailing separator, or a key binding JWT
			continue
		}
		raw, err := decodeSegment(s)
		if err != nil {
			return nil, fmt.Errorf("%w: disclosure: %v", ErrMalformed, err)
		}
		var disclosure []interface{}
		if err := json.Unmarshal(raw, &disclosure); err != nil {
			return nil, fmt.Errorf("%w: disclosure is not a JSON array: %v", ErrMalformed, err)
		}
		digest := sha256.Sum256([]byte(s))
		disclosures[base64.RawURLEncoding.EncodeToString(digest[:])] = disclosure
	}
	restored, _ := restoreDisclosures(map[string]interface{}(d), disclosures).(map[string]interface{})
	delete(restored, sdAlgKey)
	return document.Document(restored), nil
}

func restoreDisclosures(v interface{}, disclosures map[string][]interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		ret := make(map[string]interface{}, len(t))
		for k, item := range t {
			if k == sdDigestsKey {
				continue
			}
			ret[k] = restoreDisclosures(item, disclosures)
		}
		digests, _ := t[sdDigestsKey].([]interface{})
		for _, dg := range digests {
			s, _ := dg.(string)
			if disclosure, ok := disclosures[s]; ok && len(disclosure) == 3 {
				if name, ok := disclosure[1].(string); ok {
					ret[name] = restoreDisclosures(disclosure[2], disclosures)
				}
			}
		}
		return ret
	case []interface{}:
		ret := make([]interface{}, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]interface{}); ok && len(m) == 1 {
				if dg, ok := m[sdArrayEntryKey].(string); ok {
					if disclosure, ok := disclosures[dg]; ok && len(disclosure) == 2 {
						ret = append(ret, restoreDisclosures(disclosure[1], disclosures))
					}
					continue
				}
			}
			ret = append(ret, restoreDisclosures(item, disclosures))
		}
		return ret
	default:
		return v
	}
}

// decodeSegment accepts both the unpadded URL-safe alphabet mandated for JOSE and the padded or
// standard alphabets that some implementations emit.
func decodeSegment(s string) ([]byte, error) {
	var lastErr error
	for _, enc := range []*base64.Encoding{
		base64.RawURLEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.StdEncoding,
	} {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
