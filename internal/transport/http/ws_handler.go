package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"slices"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/vovakirdan/wirechat-relay/internal/auth"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
	"github.com/vovakirdan/wirechat-relay/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to a core.Session.
type WSHandler struct {
	hub        *core.Hub
	identities *auth.Service
	cfg        *config.Config
	overflow   core.OverflowPolicy
	log        *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, identities *auth.Service, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	overflow, err := core.ParseOverflowPolicy(cfg.OverflowPolicy)
	if err != nil {
		overflow = core.DropOldest
	}
	return &WSHandler{
		hub:        hub,
		identities: identities,
		cfg:        cfg,
		overflow:   overflow,
		log:        logger,
	}
}

func (h *WSHandler) acceptOptions() *websocket.AcceptOptions {
	if len(h.cfg.AllowedOrigins) == 0 {
		return nil
	}
	if slices.Contains(h.cfg.AllowedOrigins, "*") {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return &websocket.AcceptOptions{OriginPatterns: h.cfg.AllowedOrigins}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	h.log.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("remote", r.RemoteAddr).
		Msg("ws upgrade request")

	conn, err := websocket.Accept(w, r, h.acceptOptions())
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	username, err := h.handshake(ctx, conn)
	if err != nil {
		h.refuse(ctx, conn, err)
		return
	}

	session := core.NewSession(utils.NewID(), username, h.cfg.OutboxSize, h.overflow)
	logger := h.log.With().Str("session_id", session.ID).Str("username", username).Logger()

	if err := h.hub.Connect(ctx, session); err != nil {
		logger.Info().Err(err).Msg("connect refused")
		h.refuse(ctx, conn, err)
		return
	}
	defer func() {
		if err := h.hub.Disconnect(context.Background(), session); err != nil {
			session.Close(err)
		}
		logger.Info().Msg("session closed")
	}()
	logger.Debug().Msg("ws session started")

	var limiter *rate.Limiter
	if h.cfg.RateLimitPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.cfg.RateLimitPerSecond), h.cfg.RateLimitBurst)
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session)
	}()

	err = <-errCh
	status, reason := closeStatus(err)
	if status == websocket.StatusInternalError {
		logger.Warn().Err(err).Msg("ws connection closed with error")
	} else {
		logger.Debug().Err(err).Str("reason", reason).Msg("ws connection closing")
	}

	// Close before cancelling so the peer sees our status, not a read timeout.
	conn.Close(status, reason)
	cancel()
	<-errCh
}

// handshake waits for the hello frame and resolves the username it asks for.
func (h *WSHandler) handshake(ctx context.Context, conn *websocket.Conn) (string, error) {
	if h.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.HandshakeTimeout)
		defer cancel()
	}

	inbound, err := readInbound(ctx, conn)
	if err != nil {
		return "", err
	}
	if inbound.Type != proto.InboundTypeHello {
		return "", core.NewError(core.ErrCodeBadRequest, "expected hello")
	}

	var hello proto.HelloData
	if err := decodeData(inbound.Data, &hello); err != nil {
		return "", err
	}
	if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
		return "", core.NewError(core.ErrCodeUnsupportedVersion,
			fmt.Sprintf("protocol version %d is not supported", hello.Protocol))
	}

	username, err := h.identities.Identify(hello.User, hello.Token)
	switch {
	case err == nil:
		return username, nil
	case errors.Is(err, auth.ErrInvalidUsername):
		return "", core.NewError(core.ErrCodeInvalidUsername, "username must be 1-32 characters without spaces")
	case errors.Is(err, auth.ErrTokenRequired), errors.Is(err, auth.ErrInvalidToken):
		h.log.Debug().Err(err).Msg("handshake unauthorized")
		return "", core.NewError(core.ErrCodeUnauthorized, "unauthorized")
	default:
		return "", err
	}
}

// refuse reports a handshake failure to the client and closes the connection.
func (h *WSHandler) refuse(ctx context.Context, conn *websocket.Conn, err error) {
	var ce *core.CoreError
	if !errors.As(err, &ce) {
		status, reason := closeStatus(err)
		conn.Close(status, reason)
		return
	}

	wctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	out := proto.Outbound{
		Type: proto.OutboundTypeStatus,
		Data: statusFromCore(&core.Status{
			Text:      ce.Message,
			Type:      core.StatusError,
			Code:      ce.Code,
			CreatedAt: time.Now(),
		}),
	}
	if writeErr := wsjson.Write(wctx, conn, out); writeErr != nil {
		h.log.Debug().Err(writeErr).Msg("write handshake error")
	}
	conn.Close(websocket.StatusPolicyViolation, ce.Code)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session, limiter *rate.Limiter) error {
	for {
		inbound, err := readInbound(ctx, conn)
		var ce *core.CoreError
		if err != nil && !errors.As(err, &ce) {
			return err
		}

		// Every frame counts against the limit, malformed ones included.
		if limiter != nil && !limiter.Allow() {
			h.hub.Reject(session, errRateLimited)
			continue
		}
		if ce != nil {
			h.hub.Reject(session, ce)
			continue
		}

		cmd, err := inboundToCommand(inbound)
		if err != nil {
			h.hub.Reject(session, err)
			continue
		}
		if err := h.hub.Submit(ctx, session, cmd); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	var ping <-chan time.Time
	if h.cfg.PingInterval > 0 {
		ticker := time.NewTicker(h.cfg.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-session.Outbox.Ready():
			for _, event := range session.Outbox.Drain() {
				if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
					return err
				}
			}
		case <-session.Outbox.Done():
			return session.Outbox.Err()
		case <-ping:
			if err := h.ping(ctx, conn); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) ping(ctx context.Context, conn *websocket.Conn) error {
	if h.cfg.PingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.PingTimeout)
		defer cancel()
	}
	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// readInbound reads one frame. Malformed JSON yields a *core.CoreError so the
// caller can report it without dropping the connection.
func readInbound(ctx context.Context, conn *websocket.Conn) (proto.Inbound, error) {
	typ, data, err := conn.Read(ctx)
	if err != nil {
		return proto.Inbound{}, err
	}
	if typ != websocket.MessageText {
		return proto.Inbound{}, errInvalidFrame
	}
	return decodeInbound(data)
}

func closeStatus(err error) (websocket.StatusCode, string) {
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		return websocket.StatusNormalClosure, "closing"
	case errors.Is(err, core.ErrSuperseded):
		return websocket.StatusPolicyViolation, "superseded by a newer connection"
	case errors.Is(err, core.ErrSlowConsumer):
		return websocket.StatusTryAgainLater, "slow consumer"
	case errors.Is(err, core.ErrHubClosed):
		return websocket.StatusGoingAway, "server shutting down"
	case errors.Is(err, context.DeadlineExceeded):
		return websocket.StatusPolicyViolation, "timeout"
	}

	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return websocket.StatusNormalClosure, "closing"
	case websocket.StatusMessageTooBig:
		return websocket.StatusMessageTooBig, "message too big"
	}
	return websocket.StatusInternalError, "internal error"
}
