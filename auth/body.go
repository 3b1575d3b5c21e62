package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
)

const (
	NonceField     = "nonce"
	SignatureField = "signature"
)

// Body is a decoded JSON request object. Numbers are kept as json.Number so
// that integers of any size survive canonicalization unchanged.
type Body map[string]any

// DecodeBody decodes a JSON object from r.
func DecodeBody(r io.Reader) (Body, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var body Body
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding body: %w", err)
	}
	if body == nil {
		return nil, errors.New("decoding body: expected a JSON object")
	}
	if dec.More() {
		return nil, errors.New("decoding body: trailing data after object")
	}
	return body, nil
}

// ParseBody decodes a JSON object from bytes.
func ParseBody(data []byte) (Body, error) {
	return DecodeBody(bytes.NewReader(data))
}

// Lookup resolves a dot-separated path such as "metadata.validator_uid".
func (b Body) Lookup(path string) (any, bool) {
	var current any = map[string]any(b)
	for _, key := range strings.Split(path, ".") {
		obj, ok := asObject(current)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Has reports whether the body carries key at the top level.
func (b Body) Has(key string) bool {
	_, ok := b[key]
	return ok
}

// Without returns a shallow copy of b with keys removed.
func (b Body) Without(keys ...string) Body {
	out := make(Body, len(b))
	for k, v := range b {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case Body:
		return obj, true
	}
	return nil, false
}

// parseInteger accepts JSON integers and decimal strings. Floats, booleans and
// anything out of int64 range are rejected.
func parseInteger(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		return strconv.ParseInt(n.String(), 10, 64)
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("unsupported integer type %T", v)
}

// literal renders a scalar the way it was signed: strings verbatim, integers
// in normalized decimal form.
func literal(v any) (string, error) {
	switch n := v.(type) {
	case string:
		return n, nil
	case json.Number:
		i, ok := new(big.Int).SetString(n.String(), 10)
		if !ok {
			return "", fmt.Errorf("%s is not an integer", n)
		}
		return i.String(), nil
	case int:
		return strconv.Itoa(n), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	}
	return "", fmt.Errorf("unsupported literal type %T", v)
}
