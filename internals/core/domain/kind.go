package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags a catalog entry as a government currency or a crypto asset.
type Kind uint8

const (
	KindUnknown Kind = iota
	Fiat
	Crypto
)

// String implements the stringer interface.
func (k Kind) String() string {
	switch k {
	case Fiat:
		return "fiat"
	case Crypto:
		return "crypto"
	default:
		return "unknown"
	}
}

// ParseKind converts a textual kind into a Kind value.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fiat":
		return Fiat, nil
	case "crypto":
		return Crypto, nil
	default:
		return KindUnknown, fmt.Errorf("unknown currency kind %q", s)
	}
}

// MarshalJSON conforms Kind to the marshaller interface.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON conforms Kind to the unmarshaller interface.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
