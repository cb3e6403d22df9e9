// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package globalid translates client-facing opaque identifiers into storage keys.
package globalid

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
)

// Type names carried inside relay style identifiers
const (
	TypePost = "PostNode"
	TypeUser = "UserNode"
)

// Supported encodings, selected by ID_ENCODING
const (
	EncodingRelay = "relay"
	EncodingUUID  = "uuid"
)

// ErrMalformed is returned when an opaque identifier cannot be decoded
var ErrMalformed = errors.New("malformed identifier")

// Codec encodes storage keys for clients and decodes them back.
// Decode is pure: it never consults storage, so a well formed id of a missing row still decodes.
type Codec interface {
	Encode(typeName string, id uuid.UUID) string
	Decode(typeName, opaque string) (uuid.UUID, error)
}

// NewCodec returns the codec for an encoding name
func NewCodec(encoding string) (Codec, error) {
	switch encoding {
	case EncodingRelay, "":
		return RelayCodec{}, nil
	case EncodingUUID:
		return UUIDCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported id encoding: %q", encoding)
	}
}

// RelayCodec implements base64("<TypeName>:<uuid>") global ids
type RelayCodec struct{}

func (RelayCodec) Encode(typeName string, id uuid.UUID) string {
	return base64.StdEncoding.EncodeToString([]byte(typeName + ":" + id.String()))
}

func (RelayCodec) Decode(typeName, opaque string) (uuid.UUID, error) {
	raw, err := decodeBase64(strings.TrimSpace(opaque))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: not base64", ErrMalformed)
	}

	tag, key, found := strings.Cut(string(raw), ":")
	if !found {
		return uuid.Nil, fmt.Errorf("%w: missing type separator", ErrMalformed)
	}
	if tag != typeName {
		return uuid.Nil, fmt.Errorf("%w: expected type %s, got %q", ErrMalformed, typeName, tag)
	}
	return parseKey(key)
}

// decodeBase64 accepts the standard and URL-safe alphabets, padded or not
func decodeBase64(s string) ([]byte, error) {
	trimmed := strings.TrimRight(s, "=")
	var err error
	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.RawURLEncoding} {
		var raw []byte
		if raw, err = enc.DecodeString(trimmed); err == nil {
			return raw, nil
		}
	}
	return nil, err
}

// UUIDCodec exposes storage keys as plain UUID strings
type UUIDCodec struct{}

func (UUIDCodec) Encode(_ string, id uuid.UUID) string {
	return id.String()
}

func (UUIDCodec) Decode(_ string, opaque string) (uuid.UUID, error) {
	return parseKey(strings.TrimSpace(opaque))
}

func parseKey(key string) (uuid.UUID, error) {
	id, err := uuid.FromString(key)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid key", ErrMalformed)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: nil key", ErrMalformed)
	}
	return id, nil
}
