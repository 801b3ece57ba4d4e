/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package seal turns a session into a tamper-evident token a client can
// carry between requests, and back.
//
// A token is two base64url segments joined by a dot: the JSON encoding of
// the session, and an HMAC-SHA256 over that encoding keyed with a server
// secret. The payload is signed, not encrypted.
package seal

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/impostor/internal/game"
	"github.com/golang-jwt/jwt/v5"
)

// Separator joins the payload and MAC segments.
const Separator = "."

// MinSecretLength is the shortest accepted signing secret, in bytes.
const MinSecretLength = 16

var (
	ErrMalformed = errors.New("malformed state token")
	ErrSignature = errors.New("state token signature mismatch")
	ErrExpired   = errors.New("state token expired")
)

var (
	encoding = base64.RawURLEncoding
	method   = jwt.SigningMethodHS256
)

// Codec signs and verifies session tokens. The secret is copied at
// construction and never modified afterwards.
type Codec struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewCodec returns a codec keyed with secret. Tokens whose session was last
// updated more than maxAge ago are rejected; zero disables the check.
func NewCodec(secret []byte, maxAge time.Duration, now func() time.Time) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", MinSecretLength)
	}
	if maxAge < 0 {
		return nil, fmt.Errorf("invalid max age: %s", maxAge)
	}
	if now == nil {
		now = time.Now
	}
	return &Codec{
		secret: append([]byte(nil), secret...),
		maxAge: maxAge,
		now:    now,
	}, nil
}

// MaxAge returns the configured expiry window.
func (c *Codec) MaxAge() time.Duration {
	return c.maxAge
}

// Encode serializes and signs s.
func (c *Codec) Encode(s *game.Session) (string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	sig, err := method.Sign(string(payload), c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}

	return encoding.EncodeToString(payload) + Separator + encoding.EncodeToString(sig), nil
}

// Decode verifies token and returns the session it carries. The MAC is
// checked in constant time before the payload is parsed.
func (c *Codec) Decode(token string) (*game.Session, error) {
	payloadPart, sigPart, ok := strings.Cut(strings.TrimSpace(token), Separator)
	if !ok || payloadPart == "" || sigPart == "" || strings.Contains(sigPart, Separator) {
		return nil, ErrMalformed
	}

	payload, err := encoding.DecodeString(payloadPart)
	if err != nil {
		return nil, ErrMalformed
	}
	sig, err := encoding.DecodeString(sigPart)
	if err != nil {
		return nil, ErrMalformed
	}

	if err := method.Verify(string(payload), sig, c.secret); err != nil {
		return nil, ErrSignature
	}

	var s game.Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, ErrMalformed
	}
	if s.ID == "" {
		return nil, ErrMalformed
	}

	if c.maxAge > 0 && c.now().Sub(s.UpdatedAt) > c.maxAge {
		return nil, ErrExpired
	}

	if s.Scores == nil {
		s.Scores = make(map[string]int)
	}
	if s.Players == nil {
		s.Players = []game.Player{}
	}

	return &s, nil
}
