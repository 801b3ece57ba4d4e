package protocol

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/impostor/internal/game"
)

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest(strings.NewReader(`{"op":"join","sessionId":"abcd","name":"Alice","showHints":true}`), 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Op != "join" || req.SessionID != "abcd" || req.Name != "Alice" || !req.ShowHints {
		t.Fatalf("unexpected request: %+v", req)
	}

	req, err = DecodeRequest(strings.NewReader("  \n"), 0)
	if err != nil || req.Op != "" {
		t.Fatalf("expected empty envelope from empty body, got %+v, %v", req, err)
	}
}

func TestDecodeRequestRejects(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		limit int64
		want  error
	}{
		{"not json", `op=join`, 0, ErrInvalidBody},
		{"wrong type", `{"op":7}`, 0, ErrInvalidBody},
		{"truncated", `{"op":"join"`, 0, ErrInvalidBody},
		{"oversized", `{"op":"join","name":"` + strings.Repeat("a", 64) + `"}`, 32, ErrBodyTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeRequest(strings.NewReader(tc.body), tc.limit)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if StatusFor(err) != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", StatusFor(err))
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{game.ErrNameRequired, http.StatusBadRequest},
		{game.ErrAlreadyStarted, http.StatusBadRequest},
		{game.ErrUnknownToken, http.StatusForbidden},
		{game.ErrForbidden, http.StatusForbidden},
		{game.ErrSessionNotFound, http.StatusNotFound},
		{ErrMethodNotAllowed, http.StatusMethodNotAllowed},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Fatalf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestFailureHidesInternalErrors(t *testing.T) {
	resp, status := Failure(errors.New("secret detail"), time.Now())
	if status != http.StatusInternalServerError || resp.OK {
		t.Fatalf("unexpected failure response: %d %+v", status, resp)
	}
	if resp.Error != "Internal error" {
		t.Fatalf("expected generic message, got %q", resp.Error)
	}
}

func TestFailureMethodNotAllowed(t *testing.T) {
	resp, status := Failure(ErrMethodNotAllowed, time.Now())
	if status != http.StatusMethodNotAllowed || resp.OK {
		t.Fatalf("unexpected failure response: %d %+v", status, resp)
	}
	if resp.Error != "Method not allowed" {
		t.Fatalf("expected client message, got %q", resp.Error)
	}
	if ErrMethodNotAllowed.Error() != "method not allowed" {
		t.Fatalf("unexpected error string %q", ErrMethodNotAllowed.Error())
	}
}

func TestPublicViewHidesSecretsUntilReveal(t *testing.T) {
	hint := "tapas"
	s := game.NewSession("ABCD", game.ModeTurns, time.Now())
	s.Players = []game.Player{{ID: "a", Name: "A", Alive: true}, {ID: "b", Name: "B", Alive: true}}
	s.AdminPlayerID = "a"
	s.Status = game.StatusVote
	s.Word = "spain"
	s.Hint = &hint
	s.ImpostorID = "b"

	if v := NewPublicView(s); v.Reveal != nil {
		t.Fatal("expected no reveal while voting")
	}

	s.Status = game.StatusReveal
	s.Selection = "b"
	s.ImpostorCaught = true
	v := NewPublicView(s)
	if v.Reveal == nil || v.Reveal.ImpostorID != "b" || v.Reveal.Word != "spain" {
		t.Fatalf("unexpected reveal: %+v", v.Reveal)
	}

	if me := NewPrivateView(s, "a"); me.Round != nil {
		t.Fatal("expected no private round view after the reveal")
	}
	if me := NewPrivateView(s, "nobody"); me != nil {
		t.Fatal("expected nil view for a non-member")
	}
}
