// internal/pkg/hashid/hashid.go
package hashid

import (
	"fmt"
	"strings"

	"github.com/speps/go-hashids/v2"
)

const (
	alphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	minLength = 10
)

// Encoder turns sequential database ids into public reference numbers
type Encoder struct {
	prefix string
	h      *hashids.HashID
}

// New creates an encoder; numbers are rendered as prefix + hash
func New(salt, prefix string) (*Encoder, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = minLength
	hd.Alphabet = alphabet

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("failed to create hashid encoder: %w", err)
	}
	return &Encoder{prefix: prefix, h: h}, nil
}

// Encode returns the public number for id
func (e *Encoder) Encode(id uint) (string, error) {
	s, err := e.h.EncodeInt64([]int64{int64(id)})
	if err != nil {
		return "", fmt.Errorf("failed to encode id %d: %w", id, err)
	}
	return e.prefix + s, nil
}

// Decode returns the id behind a public number
func (e *Encoder) Decode(number string) (uint, error) {
	raw := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(number)), strings.ToUpper(e.prefix))
	ids, err := e.h.DecodeInt64WithError(raw)
	if err != nil || len(ids) != 1 || ids[0] <= 0 {
		return 0, fmt.Errorf("invalid reference number %q", number)
	}
	return uint(ids[0]), nil
}
