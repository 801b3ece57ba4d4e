/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Seednode/impostor/internal/game"
	"github.com/Seednode/impostor/internal/protocol"
	"github.com/Seednode/impostor/internal/seal"
	"github.com/Seednode/impostor/internal/store"
	"github.com/Seednode/impostor/internal/words"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	apiPath   = "/api/multiplayer"
	qrSize    = 320
	writeWait = 10 * time.Second
)

// Multiplayer wires the engine, the configured store and the protocol
// handler together.
type Multiplayer struct {
	engine  *game.Engine
	handler *protocol.Handler

	// memory is nil when sessions travel in signed tokens.
	memory *store.Memory
}

func newMultiplayer(cfg *Config) (*Multiplayer, error) {
	logFn := logger(cfg)
	engine := game.NewEngine(cfg.rules, words.NewPicker(words.Default(), nil))

	mp := &Multiplayer{engine: engine}

	var st store.Store
	switch cfg.storeKind {
	case store.KindSigned:
		secret := []byte(cfg.secret)
		if len(secret) == 0 {
			secret = make([]byte, 32)
			if _, err := rand.Read(secret); err != nil {
				return nil, fmt.Errorf("generate signing secret: %w", err)
			}
			logf(cfg, "TOKEN: No signing secret configured, tokens will not survive a restart")
		}

		codec, err := seal.NewCodec(secret, cfg.maxAge, engine.Now)
		if err != nil {
			return nil, err
		}
		st = store.NewSigned(codec, engine, cfg.strictVersions, logFn)
	default:
		mp.memory = store.NewMemory(engine, cfg.sessionTimeout, cfg.playerTimeout, logFn)
		st = mp.memory
	}

	mp.handler = protocol.NewHandler(st, engine, logFn)

	return mp, nil
}

// run keeps the memory store's janitor going until ctx is done.
func (mp *Multiplayer) run(ctx context.Context) {
	if mp.memory != nil {
		mp.memory.Run(ctx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	return w.Write(append(data, '\n'))
}

func corsHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func serveMultiplayer(cfg *Config, mp *Multiplayer, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		securityHeaders(cfg, w)
		corsHeaders(w)

		var (
			resp   protocol.Response
			status int
			op     string
		)

		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusNoContent)

			return
		case http.MethodPost:
			req, err := protocol.DecodeRequest(r.Body, cfg.maxBody)
			if err != nil {
				resp, status = protocol.Failure(err, mp.engine.Now())
				break
			}
			op = req.Op
			resp, status = mp.handler.Handle(r.Context(), req)
		default:
			w.Header().Set("Allow", "POST, OPTIONS")
			resp, status = protocol.Failure(protocol.ErrMethodNotAllowed, mp.engine.Now())
		}

		written, err := writeJSON(w, status, resp)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: %s %q (%d, %s) for %s in %s",
			r.Method,
			op,
			status,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsReply is a response frame. Status carries what the HTTP endpoint
// would have answered.
type wsReply struct {
	Status int `json:"status"`
	protocol.Response
}

type wsClient struct {
	conn      *websocket.Conn
	send      chan wsReply
	writeWait time.Duration
}

func serveMultiplayerWS(cfg *Config, mp *Multiplayer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Websocket upgrade for %s: %v", realIP(r), err)
			return
		}

		logf(cfg, "SERVE: Websocket opened by %s", realIP(r))

		c := &wsClient{
			conn:      conn,
			send:      make(chan wsReply, 8),
			writeWait: writeWait,
		}

		go c.writePump()
		c.readPump(r.Context(), cfg, mp)

		logf(cfg, "SERVE: Websocket closed by %s", realIP(r))
	}
}

// readPump answers each text frame with exactly one reply. A client that
// stays silent for longer than the player timeout is disconnected.
func (c *wsClient) readPump(ctx context.Context, cfg *Config, mp *Multiplayer) {
	defer close(c.send)

	c.conn.SetReadLimit(cfg.maxBody)

	for {
		if cfg.playerTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(cfg.playerTimeout))
		}

		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				logf(cfg, "SERVE: Websocket frame over %d bytes, closing", cfg.maxBody)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		var (
			resp   protocol.Response
			status int
		)
		req, err := protocol.ParseRequest(data)
		if err != nil {
			resp, status = protocol.Failure(err, mp.engine.Now())
		} else {
			resp, status = mp.handler.Handle(ctx, req)
		}

		c.send <- wsReply{Status: status, Response: resp}
	}
}

// writePump sends replies until the reader stops. A failed or stalled write
// closes the connection, which also ends the reader.
func (c *wsClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			_ = c.conn.Close()
			break
		}
	}

	for range c.send {
	}
}

// serveJoinQR renders a PNG QR code pointing at the join link for :code.
func serveJoinQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code, ok := game.NormalizeCode(ps.ByName("code"))
		if !ok {
			http.Error(w, game.ErrInvalidCode.Error(), http.StatusBadRequest)
			return
		}

		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + "/?code=" + code

		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Join code for %s to %s", code, realIP(r))
	}
}

func registerMultiplayer(cfg *Config, mp *Multiplayer, mux *httprouter.Router, errs chan<- error) {
	api := serveMultiplayer(cfg, mp, errs)
	mux.POST(cfg.prefix+apiPath, api)
	mux.OPTIONS(cfg.prefix+apiPath, api)

	// Every other verb on the API path gets the JSON envelope.
	mux.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == cfg.prefix+apiPath {
			api(w, r, nil)
			return
		}
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	mux.GET(cfg.prefix+apiPath+"/ws", serveMultiplayerWS(cfg, mp))

	mux.GET(cfg.prefix+"/join/:code/qr", serveJoinQR(cfg, errs))
}
