// Package globalid encodes internal row keys as opaque external identifiers,
// a base64 "Type:key" pair in the relay style. The core never sees encoded
// ids; handlers decode at the boundary.
package globalid

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformed = errors.New("malformed global id")

func Encode(typ, key string) string {
	return base64.StdEncoding.EncodeToString([]byte(typ + ":" + key))
}

func Decode(id string) (typ, key string, err error) {
	raw, err := base64.StdEncoding.DecodeString(id)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	typ, key, ok := strings.Cut(string(raw), ":")
	if !ok || typ == "" || key == "" {
		return "", "", ErrMalformed
	}
	return typ, key, nil
}

// DecodeTyped decodes an id and rejects it unless it names the wanted type.
func DecodeTyped(id, want string) (string, error) {
	typ, key, err := Decode(id)
	if err != nil {
		return "", err
	}
	if typ != want {
		return "", fmt.Errorf("%w: got %s, want %s", ErrMalformed, typ, want)
	}
	return key, nil
}
