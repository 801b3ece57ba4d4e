/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package protocol implements the multiplayer request/response envelope:
// decoding, dispatch to the round engine, and the views returned to each
// player.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Seednode/impostor/internal/game"
)

// DefaultMaxBody is the largest accepted request body, in bytes.
const DefaultMaxBody int64 = 1_000_000

// Op names a request operation.
type Op string

const (
	OpJoin      Op = "join"
	OpState     Op = "state"
	OpRename    Op = "rename"
	OpStart     Op = "start"
	OpKill      Op = "kill"
	OpNextRound Op = "nextRound"
	OpReset     Op = "reset"
	OpAdvance   Op = "advance"
	OpVote      Op = "vote"
)

// Known reports whether o is a supported operation.
func (o Op) Known() bool {
	switch o {
	case OpJoin, OpState, OpRename, OpStart, OpKill, OpNextRound, OpReset, OpAdvance, OpVote:
		return true
	}
	return false
}

// AdminOnly reports whether o may only be performed by the session admin.
func (o Op) AdminOnly() bool {
	switch o {
	case OpStart, OpKill, OpNextRound, OpReset, OpAdvance, OpVote:
		return true
	}
	return false
}

func (o Op) needsName() bool {
	return o == OpJoin || o == OpRename
}

var (
	ErrMissingOp        = game.Validation("Missing op")
	ErrUnknownOperation = game.Validation("Unknown op")
	ErrInvalidBody      = game.Validation("Invalid JSON body")
	ErrBodyTooLarge     = game.Validation("Body too large")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// Client-facing text for failures that are not a *game.Error.
const (
	msgMethodNotAllowed = "Method not allowed"
	msgInternal         = "Internal error"
)

// Request is one operation envelope.
type Request struct {
	Op             string `json:"op"`
	SessionID      string `json:"sessionId,omitempty"`
	SessionBlob    string `json:"sessionBlob,omitempty"`
	PlayerToken    string `json:"playerToken,omitempty"`
	Name           string `json:"name,omitempty"`
	TargetPlayerID string `json:"targetPlayerId,omitempty"`
	ShowHints      bool   `json:"showHints,omitempty"`
}

// Response is returned for every request, successful or not.
type Response struct {
	OK          bool         `json:"ok"`
	Error       string       `json:"error,omitempty"`
	SessionID   string       `json:"sessionId,omitempty"`
	PlayerID    string       `json:"playerId,omitempty"`
	PlayerToken string       `json:"playerToken,omitempty"`
	Session     *PublicView  `json:"session,omitempty"`
	Me          *PrivateView `json:"me,omitempty"`
	SessionBlob string       `json:"sessionBlob,omitempty"`
	ServerTime  time.Time    `json:"serverTime"`
}

// DecodeRequest reads a single envelope from r. Bodies longer than limit
// bytes are rejected; an empty body decodes to an empty envelope.
func DecodeRequest(r io.Reader, limit int64) (Request, error) {
	if limit <= 0 {
		limit = DefaultMaxBody
	}

	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Request{}, ErrInvalidBody
	}
	if int64(len(raw)) > limit {
		return Request{}, ErrBodyTooLarge
	}

	return ParseRequest(raw)
}

// ParseRequest decodes an envelope already held in memory.
func ParseRequest(raw []byte) (Request, error) {
	var req Request
	if len(bytes.TrimSpace(raw)) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, ErrInvalidBody
	}
	return req, nil
}

// StatusFor maps an error to the HTTP status reported to the client.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrMethodNotAllowed) {
		return http.StatusMethodNotAllowed
	}

	switch game.KindOf(err) {
	case game.KindValidation, game.KindState:
		return http.StatusBadRequest
	case game.KindAuth, game.KindForbidden:
		return http.StatusForbidden
	case game.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Failure builds the response for err.
func Failure(err error, now time.Time) (Response, int) {
	status := StatusFor(err)

	var msg string
	switch status {
	case http.StatusMethodNotAllowed:
		msg = msgMethodNotAllowed
	case http.StatusInternalServerError:
		msg = msgInternal
	default:
		msg = err.Error()
	}
	return Response{OK: false, Error: msg, ServerTime: now}, status
}
