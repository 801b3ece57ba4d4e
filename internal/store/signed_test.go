package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/impostor/internal/game"
	"github.com/Seednode/impostor/internal/seal"
)

func newTestSigned(t *testing.T, f *testFactory, strict bool) *Signed {
	t.Helper()

	codec, err := seal.NewCodec([]byte("0123456789abcdef0123456789abcdef"), 2*time.Hour, f.Now)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return NewSigned(codec, f, strict, nil)
}

func TestSignedCreateAndResolve(t *testing.T) {
	f := newTestFactory()
	s := newTestSigned(t, f, false)
	ctx := context.Background()

	ref, err := s.Update(ctx, Ref{Code: "ABCD"}, true, addPlayer(f, "p1"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if ref.Blob == "" || ref.Code != "ABCD" {
		t.Fatalf("expected signed ref, got %+v", ref)
	}

	sess, err := s.Resolve(ref)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sess.Player("p1") == nil || sess.Version != 1 {
		t.Fatalf("unexpected session: %+v", sess)
	}

	next, err := s.Update(ctx, ref, false, addPlayer(f, "p2"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if next.Blob == ref.Blob {
		t.Fatal("expected a new token after mutation")
	}
	sess, _ = s.Resolve(next)
	if len(sess.Players) != 2 || sess.Version != 2 {
		t.Fatalf("expected 2 players at version 2, got %d at %d", len(sess.Players), sess.Version)
	}
}

func TestSignedFailsClosed(t *testing.T) {
	f := newTestFactory()
	s := newTestSigned(t, f, false)
	ctx := context.Background()

	ref, err := s.Update(ctx, Ref{Code: "ABCD"}, true, addPlayer(f, "p1"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	tampered := ref
	tampered.Blob = strings.Replace(ref.Blob, ref.Blob[:1], string(ref.Blob[0]^0x01), 1)

	for name, r := range map[string]Ref{
		"missing":  {Code: "ABCD"},
		"garbage":  {Code: "ABCD", Blob: "not-a-token"},
		"tampered": tampered,
		"mismatch": {Code: "WXYZ", Blob: ref.Blob},
	} {
		_, err := s.Update(ctx, r, false, func(*game.Session) error { return nil })
		if !errors.Is(err, game.ErrSessionNotFound) {
			t.Fatalf("%s: expected ErrSessionNotFound, got %v", name, err)
		}
	}
}

func TestSignedExpiry(t *testing.T) {
	f := newTestFactory()
	s := newTestSigned(t, f, false)

	ref, err := s.Update(context.Background(), Ref{Code: "ABCD"}, true, addPlayer(f, "p1"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	f.advance(2*time.Hour + time.Minute)
	if _, err := s.Resolve(ref); !errors.Is(err, game.ErrSessionNotFound) {
		t.Fatalf("expected expired token to resolve as not found, got %v", err)
	}
}

func TestSignedFailedUpdateReturnsNoToken(t *testing.T) {
	f := newTestFactory()
	s := newTestSigned(t, f, false)
	boom := errors.New("boom")

	ref, err := s.Update(context.Background(), Ref{Code: "ABCD"}, true, func(*game.Session) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if ref.Blob != "" {
		t.Fatal("expected no token after failed mutation")
	}
}

func TestSignedLastWriterWins(t *testing.T) {
	f := newTestFactory()
	s := newTestSigned(t, f, false)
	ctx := context.Background()

	base, err := s.Update(ctx, Ref{Code: "ABCD"}, true, addPlayer(f, "p1"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := s.Update(ctx, base, false, addPlayer(f, "left")); err != nil {
		t.Fatalf("update: %v", err)
	}
	right, err := s.Update(ctx, base, false, addPlayer(f, "right"))
	if err != nil {
		t.Fatalf("expected stale token accepted without strict mode, got %v", err)
	}

	sess, _ := s.Resolve(right)
	if sess.Player("left") != nil || sess.Player("right") == nil {
		t.Fatal("expected the second writer's view to diverge from the first")
	}
}

func TestSignedStrictRejectsStaleTokens(t *testing.T) {
	f := newTestFactory()
	s := newTestSigned(t, f, true)
	ctx := context.Background()

	base, err := s.Update(ctx, Ref{Code: "ABCD"}, true, addPlayer(f, "p1"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := s.Update(ctx, base, false, addPlayer(f, "left")); err != nil {
		t.Fatalf("update: %v", err)
	}

	_, err = s.Update(ctx, base, false, addPlayer(f, "right"))
	if !errors.Is(err, game.ErrSessionNotFound) {
		t.Fatalf("expected stale token rejected, got %v", err)
	}
}

func TestSignedStrictReusedCodeStartsOwnCount(t *testing.T) {
	f := newTestFactory()
	s := newTestSigned(t, f, true)
	ctx := context.Background()

	old, err := s.Update(ctx, Ref{Code: "ABCD"}, true, addPlayer(f, "p1"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	for i := 0; i < 3; i++ {
		if old, err = s.Update(ctx, old, false, func(*game.Session) error { return nil }); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	fresh, err := s.Update(ctx, Ref{Code: "ABCD"}, true, addPlayer(f, "q1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if fresh, err = s.Update(ctx, fresh, false, addPlayer(f, "q2")); err != nil {
		t.Fatalf("expected the new lobby's own token accepted, got %v", err)
	}

	sess, err := s.Resolve(fresh)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sess.Player("q2") == nil || sess.Player("p1") != nil {
		t.Fatalf("expected the new lobby, got players %+v", sess.Players)
	}
}

func TestSignedStrictGamesOnSameCodeAreIndependent(t *testing.T) {
	f := newTestFactory()
	s := newTestSigned(t, f, true)
	ctx := context.Background()

	old, err := s.Update(ctx, Ref{Code: "ABCD"}, true, addPlayer(f, "p1"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	for i := 0; i < 3; i++ {
		if old, err = s.Update(ctx, old, false, func(*game.Session) error { return nil }); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	f.advance(time.Minute)
	fresh, err := s.Update(ctx, Ref{Code: "ABCD"}, true, addPlayer(f, "q1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if old, err = s.Update(ctx, old, false, func(*game.Session) error { return nil }); err != nil {
		t.Fatalf("expected the earlier game to keep working, got %v", err)
	}
	if _, err = s.Update(ctx, fresh, false, addPlayer(f, "q2")); err != nil {
		t.Fatalf("expected the new lobby to keep working, got %v", err)
	}
}
