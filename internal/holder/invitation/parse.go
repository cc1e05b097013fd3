// Package invitation decodes connection invitation URLs.
package invitation

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
)

// Kind names the query parameter an invitation was carried in.
type Kind string

const (
	KindLegacy    Kind = "c_i"
	KindOutOfBand Kind = "oob"
)

// Payload is a decoded invitation.
type Payload struct {
	Kind   Kind
	Object map[string]any
}

// ParseURL extracts the invitation from the c_i or oob query parameter of
// raw. Exactly one of them must be present. Errors match common.ErrParse.
func ParseURL(raw string) (*Payload, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url: %v", common.ErrParse, err)
	}

	q := u.Query()
	legacy, hasLegacy := q[string(KindLegacy)]
	oob, hasOOB := q[string(KindOutOfBand)]

	var (
		kind    Kind
		encoded string
	)
	switch {
	case hasLegacy && hasOOB:
		return nil, fmt.Errorf("%w: both c_i and oob parameters present", common.ErrParse)
	case hasLegacy:
		kind, encoded = KindLegacy, legacy[0]
	case hasOOB:
		kind, encoded = KindOutOfBand, oob[0]
	default:
		return nil, fmt.Errorf("%w: no c_i or oob parameter", common.ErrParse)
	}

	data, err := decodeB64(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not valid base64: %v", common.ErrParse, kind, err)
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %s is not a JSON object: %v", common.ErrParse, kind, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: %s is not a JSON object", common.ErrParse, kind)
	}

	return &Payload{Kind: kind, Object: obj}, nil
}

// decodeB64 accepts standard and URL-safe alphabets, padded or not. Query
// decoding may have turned '+' into ' ', which is undone first.
func decodeB64(s string) ([]byte, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "+")
	if s == "" {
		return nil, fmt.Errorf("empty value")
	}

	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
