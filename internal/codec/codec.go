// Package codec encodes structured payloads into hex tokens safe to embed
// in a single-line privileged command invocation, and decodes command
// output back into typed values. The canonical text form is JSON; every
// byte maps to one lowercase hexadecimal pair, so tokens never need shell
// quoting.
package codec

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Error reports a malformed token or payload.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("codec: %s: %v", e.Reason, e.Err)
	}
	return "codec: " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// Encode serializes v to JSON and hex-encodes the result. The returned
// token contains only the characters [0-9a-f].
func Encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", &Error{Reason: "payload not serializable", Err: err}
	}
	return hex.EncodeToString(data), nil
}

// Decode is the inverse of Encode: it hex-decodes token and unmarshals the
// resulting JSON into v. It fails with *Error on odd-length tokens,
// non-hex characters, or malformed JSON.
func Decode(token string, v any) error {
	data, err := DecodeBytes(token)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &Error{Reason: "decoded payload is not well-formed", Err: err}
	}
	return nil
}

// DecodeBytes hex-decodes token without interpreting the payload.
func DecodeBytes(token string) ([]byte, error) {
	if len(token)%2 != 0 {
		return nil, &Error{Reason: "odd-length token"}
	}
	data, err := hex.DecodeString(token)
	if err != nil {
		return nil, &Error{Reason: "non-hex character in token", Err: err}
	}
	return data, nil
}
