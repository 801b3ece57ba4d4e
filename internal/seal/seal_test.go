package seal

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/impostor/internal/game"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func testSession(now time.Time) *game.Session {
	hint := "tapas"
	s := game.NewSession("XMAS", game.ModeElimination, now)
	s.Version = 3
	s.Status = game.StatusRound
	s.RoundNumber = 2
	s.Word = "spain"
	s.Hint = &hint
	s.ImpostorID = "p2"
	s.AdminPlayerID = "p1"
	s.Players = []game.Player{
		{ID: "p1", Name: "Alice", TokenDigest: game.DigestToken("t1"), Alive: true, JoinedAt: now, LastSeenAt: now},
		{ID: "p2", Name: "Bob", TokenDigest: game.DigestToken("t2"), Alive: true, JoinedAt: now, LastSeenAt: now},
	}
	s.Scores = map[string]int{"p1": 1, "p2": 3}
	return s
}

func newTestCodec(t *testing.T, now *time.Time, maxAge time.Duration) *Codec {
	t.Helper()

	c, err := NewCodec(testSecret, maxAge, func() time.Time { return *now })
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

func TestNewCodecValidation(t *testing.T) {
	if _, err := NewCodec([]byte("short"), time.Hour, nil); err == nil {
		t.Fatal("expected error for short secret")
	}
	if _, err := NewCodec(testSecret, -time.Second, nil); err == nil {
		t.Fatal("expected error for negative max age")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	now := time.Date(2025, 12, 24, 18, 0, 0, 0, time.UTC)
	c := newTestCodec(t, &now, time.Hour)

	token, err := c.Encode(testSession(now))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.Count(token, Separator) != 1 {
		t.Fatalf("expected two segments, got %q", token)
	}

	got, err := c.Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "XMAS" || got.Version != 3 || got.RoundNumber != 2 || got.ImpostorID != "p2" {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.Hint == nil || *got.Hint != "tapas" {
		t.Fatalf("expected hint tapas, got %v", got.Hint)
	}
	if p := got.Authenticate("t1"); p == nil || p.ID != "p1" {
		t.Fatal("expected token digests to survive the round trip")
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("expected updatedAt %s, got %s", now, got.UpdatedAt)
	}
}

func TestCodecRejectsBitFlips(t *testing.T) {
	now := time.Date(2025, 12, 24, 18, 0, 0, 0, time.UTC)
	c := newTestCodec(t, &now, time.Hour)

	token, err := c.Encode(testSession(now))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	payloadPart, sigPart, _ := strings.Cut(token, Separator)
	payload, _ := base64.RawURLEncoding.DecodeString(payloadPart)
	sig, _ := base64.RawURLEncoding.DecodeString(sigPart)

	for i := range payload {
		for _, bit := range []byte{0x01, 0x80} {
			flipped := append([]byte(nil), payload...)
			flipped[i] ^= bit
			forged := base64.RawURLEncoding.EncodeToString(flipped) + Separator + sigPart
			if _, err := c.Decode(forged); err == nil {
				t.Fatalf("payload byte %d bit %#x: expected verification failure", i, bit)
			}
		}
	}

	for i := range sig {
		flipped := append([]byte(nil), sig...)
		flipped[i] ^= 0x01
		forged := payloadPart + Separator + base64.RawURLEncoding.EncodeToString(flipped)
		if _, err := c.Decode(forged); !errors.Is(err, ErrSignature) {
			t.Fatalf("mac byte %d: expected ErrSignature, got %v", i, err)
		}
	}
}

func TestCodecRejectsOtherSecret(t *testing.T) {
	now := time.Date(2025, 12, 24, 18, 0, 0, 0, time.UTC)
	c := newTestCodec(t, &now, time.Hour)
	other, err := NewCodec([]byte("another-secret-of-32-bytes-long!"), time.Hour, func() time.Time { return now })
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	token, err := other.Encode(testSession(now))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := c.Decode(token); !errors.Is(err, ErrSignature) {
		t.Fatalf("expected ErrSignature, got %v", err)
	}
}

func TestCodecExpiry(t *testing.T) {
	issued := time.Date(2025, 12, 24, 18, 0, 0, 0, time.UTC)
	now := issued
	c := newTestCodec(t, &now, 2*time.Hour)

	token, err := c.Encode(testSession(issued))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	now = issued.Add(2 * time.Hour)
	if _, err := c.Decode(token); err != nil {
		t.Fatalf("expected token valid at the edge of the window, got %v", err)
	}

	now = issued.Add(2*time.Hour + time.Second)
	if _, err := c.Decode(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestCodecMalformed(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, &now, time.Hour)

	for _, token := range []string{
		"",
		"nodot",
		".onlysig",
		"onlypayload.",
		"a.b.c",
		"!!!.???",
	} {
		if _, err := c.Decode(token); err == nil {
			t.Fatalf("expected %q to fail", token)
		}
	}
}
