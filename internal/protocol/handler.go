/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package protocol

import (
	"context"
	"strings"

	"github.com/Seednode/impostor/internal/game"
	"github.com/Seednode/impostor/internal/store"
)

// Handler executes envelopes against a store.
type Handler struct {
	store  store.Store
	engine *game.Engine
	logf   store.Logf
}

// NewHandler returns a handler mutating sessions held by st with engine.
func NewHandler(st store.Store, engine *game.Engine, logf store.Logf) *Handler {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Handler{store: st, engine: engine, logf: logf}
}

// Handle runs req and returns the response along with its HTTP status.
// Envelope problems are reported before any session is looked up.
func (h *Handler) Handle(ctx context.Context, req Request) (Response, int) {
	op := Op(strings.TrimSpace(req.Op))
	if op == "" {
		return Failure(ErrMissingOp, h.engine.Now())
	}
	if !op.Known() {
		return Failure(ErrUnknownOperation, h.engine.Now())
	}

	ref := store.Ref{Blob: strings.TrimSpace(req.SessionBlob)}
	if req.SessionID != "" || ref.Blob == "" {
		code, ok := game.NormalizeCode(req.SessionID)
		if !ok {
			return Failure(game.ErrInvalidCode, h.engine.Now())
		}
		ref.Code = code
	}

	token := strings.TrimSpace(req.PlayerToken)
	if op != OpJoin && token == "" {
		return Failure(game.ErrMissingToken, h.engine.Now())
	}
	if op.needsName() {
		if _, ok := game.SanitizeName(req.Name); !ok {
			return Failure(game.ErrNameRequired, h.engine.Now())
		}
	}

	var resp Response
	create := op == OpJoin && ref.Blob == ""

	next, err := h.store.Update(ctx, ref, create, func(s *game.Session) error {
		var me string

		if op == OpJoin {
			p, secret, err := h.engine.Join(s, req.Name)
			if err != nil {
				return err
			}
			me = p.ID
			resp.PlayerID = p.ID
			resp.PlayerToken = secret
			h.logf("GAMES: Player %q joined %s as %s", p.Name, s.ID, p.ID)
		} else {
			p := s.Authenticate(token)
			if p == nil {
				return game.ErrUnknownToken
			}
			if op.AdminOnly() && !s.IsAdmin(p.ID) {
				return game.ErrForbidden
			}
			me = p.ID

			h.engine.Touch(s, p)
			if err := h.apply(s, p, op, req); err != nil {
				return err
			}
		}

		resp.SessionID = s.ID
		resp.Session = NewPublicView(s)
		resp.Me = NewPrivateView(s, me)
		return nil
	})
	if err != nil {
		if game.KindOf(err) == 0 {
			h.logf("ERROR: %s on %s: %v", op, ref.Code, err)
		}
		return Failure(err, h.engine.Now())
	}

	resp.OK = true
	resp.SessionBlob = next.Blob
	resp.ServerTime = h.engine.Now()
	return resp, StatusFor(nil)
}

func (h *Handler) apply(s *game.Session, p *game.Player, op Op, req Request) error {
	opts := game.RoundOptions{ShowHints: req.ShowHints}

	switch op {
	case OpState:
		return nil
	case OpRename:
		return h.engine.Rename(s, p, req.Name)
	case OpStart:
		if err := h.engine.StartRound(s, opts); err != nil {
			return err
		}
		h.logRound(s)
		return nil
	case OpNextRound:
		if err := h.engine.NextRound(s, opts); err != nil {
			return err
		}
		h.logRound(s)
		return nil
	case OpAdvance:
		round := s.RoundNumber
		if err := h.engine.Advance(s, opts); err != nil {
			return err
		}
		if s.RoundNumber != round || s.Status == game.StatusEnded {
			h.logRound(s)
		}
		return nil
	case OpKill:
		target := strings.TrimSpace(req.TargetPlayerID)
		if err := h.engine.Eliminate(s, target); err != nil {
			return err
		}
		h.logf("GAMES: Player %s eliminated in %s", target, s.ID)
		if s.Status == game.StatusEnded {
			h.logf("GAMES: Game %s ended", s.ID)
		}
		return nil
	case OpVote:
		if err := h.engine.RecordVote(s, strings.TrimSpace(req.TargetPlayerID)); err != nil {
			return err
		}
		h.logf("GAMES: Vote closed in %s (impostor caught: %t)", s.ID, s.ImpostorCaught)
		return nil
	case OpReset:
		h.engine.Reset(s)
		h.logf("GAMES: Game %s reset", s.ID)
		return nil
	}

	return ErrUnknownOperation
}

func (h *Handler) logRound(s *game.Session) {
	if s.Status == game.StatusEnded {
		h.logf("GAMES: Game %s ended with %d eligible players", s.ID, len(h.engine.Eligible(s)))
		return
	}
	h.logf("GAMES: Round %d started in %s", s.RoundNumber, s.ID)
}
