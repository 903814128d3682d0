package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/hub"
	"github.com/weiawesome/wes-io-chat/pkg/log"
)

var ErrInvalidPayload = errors.New("invalid payload")

// Messages sent with socket_error. They are advisory only.
const (
	msgInvalidFormat    = "invalid message format"
	msgNotAuthenticated = "not authenticated"
	msgAuthFailed       = "authentication failed"
	msgInternal         = "internal error"
)

// SessionAuthenticator resolves a raw token to an identity.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}

type handlerFunc func(ctx context.Context, client *hub.Client, data json.RawMessage) error

// identityHandlerFunc is a handler that runs only for authenticated
// connections.
type identityHandlerFunc func(ctx context.Context, client *hub.Client, me *domain.Identity, data json.RawMessage) error

// Router dispatches inbound websocket events. Each connection's frames are
// handled one at a time by its read pump, so per-connection order is kept.
type Router struct {
	registry hub.ConnectionRegistry
	auth     SessionAuthenticator
	handlers map[string]handlerFunc
}

func NewRouter(registry hub.ConnectionRegistry, auth SessionAuthenticator) *Router {
	r := &Router{
		registry: registry,
		auth:     auth,
	}

	r.handlers = map[string]handlerFunc{
		domain.EventAuthenticate: r.handleAuthenticate,
		domain.EventPing:         r.handlePing,
		domain.EventDisconnect:   r.handleDisconnect,
		domain.EventJoinChat:     r.handleJoinChat,
		domain.EventTyping:       r.withIdentity(r.typingHandler(domain.EventTyping)),
		domain.EventStopTyping:   r.withIdentity(r.typingHandler(domain.EventStopTyping)),

		domain.EventStartVideoCall:   r.withIdentity(r.startCallHandler(domain.EventStartVideoCall)),
		domain.EventStartAudioCall:   r.withIdentity(r.startCallHandler(domain.EventStartAudioCall)),
		domain.EventCallOffer:        r.withIdentity(r.handleCallOffer),
		domain.EventCallAnswer:       r.withIdentity(r.handleCallAnswer),
		domain.EventCallICECandidate: r.withIdentity(r.handleCallICECandidate),
		domain.EventRejectCall:       r.withIdentity(r.handleRejectCall),
		domain.EventEndCall:          r.withIdentity(r.handleEndCall),
	}

	return r
}

// Connect authenticates a freshly upgraded connection with the token found
// on the handshake. On failure the connection stays open and may still send
// an authenticate event.
func (r *Router) Connect(ctx context.Context, client *hub.Client, token string) {
	l := log.Ctx(ctx)

	if err := r.authenticate(ctx, client, token); err != nil {
		l.Info().Err(err).Str(log.FieldConnID, client.ID).Msg("handshake authentication failed")
		client.Emit(domain.EventSocketError, msgAuthFailed)
	}
}

// HandleMessage is the read pump callback for one inbound frame.
func (r *Router) HandleMessage(client *hub.Client, raw []byte) {
	ctx := r.connContext(client)

	var env domain.InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		client.Emit(domain.EventSocketError, msgInvalidFormat)
		return
	}

	r.dispatch(ctx, client, env)
}

func (r *Router) dispatch(ctx context.Context, client *hub.Client, env domain.InboundEnvelope) {
	l := log.Ctx(ctx).With().Str(log.FieldEvent, env.Event).Logger()

	defer func() {
		if rec := recover(); rec != nil {
			l.Error().Interface("panic", rec).Msg("event handler panicked")
			client.Emit(domain.EventSocketError, msgInternal)
		}
	}()

	handler, ok := r.handlers[env.Event]
	if !ok {
		client.Emit(domain.EventSocketError, fmt.Sprintf("unknown event: %s", env.Event))
		return
	}

	if err := handler(log.WithLogger(ctx, l), client, env.Data); err != nil {
		switch {
		case errors.Is(err, hub.ErrNotAuthenticated):
			l.Warn().Msg("event from unauthenticated connection")
			client.Emit(domain.EventSocketError, msgNotAuthenticated)
		case errors.Is(err, ErrInvalidPayload):
			l.Debug().Err(err).Msg("rejected event payload")
			client.Emit(domain.EventSocketError, err.Error())
		default:
			l.Error().Err(err).Msg("event handler failed")
			client.Emit(domain.EventSocketError, msgInternal)
		}
	}
}

func (r *Router) withIdentity(fn identityHandlerFunc) handlerFunc {
	return func(ctx context.Context, client *hub.Client, data json.RawMessage) error {
		me, ok := r.registry.Identity(client.ID)
		if !ok {
			return hub.ErrNotAuthenticated
		}
		return fn(ctx, client, me, data)
	}
}

func (r *Router) authenticate(ctx context.Context, client *hub.Client, token string) error {
	identity, err := r.auth.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	if err := r.registry.Attach(client, identity); err != nil {
		return err
	}
	return client.Emit(domain.EventConnected, nil)
}

func (r *Router) handleAuthenticate(ctx context.Context, client *hub.Client, data json.RawMessage) error {
	var req domain.AuthenticateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("%w: token is required", ErrInvalidPayload)
	}

	if err := r.authenticate(ctx, client, req.Token); err != nil {
		l := log.Ctx(ctx)
		l.Info().Err(err).Msg("in-band authentication failed")
		client.Emit(domain.EventSocketError, msgAuthFailed)
	}
	return nil
}

func (r *Router) handlePing(_ context.Context, client *hub.Client, _ json.RawMessage) error {
	return client.Emit(domain.EventPong, nil)
}

func (r *Router) handleDisconnect(ctx context.Context, client *hub.Client, _ json.RawMessage) error {
	l := log.Ctx(ctx)
	l.Info().Msg("client requested disconnect")

	r.registry.LeaveAll(client)
	r.registry.Unregister(client)
	return nil
}

// handleJoinChat ignores requests from unauthenticated connections rather
// than failing them.
func (r *Router) handleJoinChat(ctx context.Context, client *hub.Client, data json.RawMessage) error {
	l := log.Ctx(ctx)

	chatID, err := parseChatID(data)
	if err != nil {
		return err
	}

	if err := r.registry.Join(client, chatID); err != nil {
		if errors.Is(err, hub.ErrNotAuthenticated) || errors.Is(err, hub.ErrConnectionClosed) {
			l.Warn().Err(err).Str(log.FieldChatID, chatID).Msg("join_chat ignored")
			return nil
		}
		return err
	}
	return nil
}

func (r *Router) typingHandler(event string) identityHandlerFunc {
	return func(_ context.Context, client *hub.Client, me *domain.Identity, data json.RawMessage) error {
		chatID, err := parseChatID(data)
		if err != nil {
			return err
		}
		return r.registry.Broadcast(chatID, event, domain.TypingPayload{ChatID: chatID, UserID: me.UserID}, client.ID)
	}
}

// connContext builds the per-frame context carrying a logger tagged with the
// connection and, once known, the user.
func (r *Router) connContext(client *hub.Client) context.Context {
	lc := log.L().With().Str(log.FieldConnID, client.ID)
	if me, ok := r.registry.Identity(client.ID); ok {
		lc = lc.Str(log.FieldUserID, me.UserID)
	}
	return log.WithLogger(context.Background(), lc.Logger())
}

// parseChatID accepts either a bare JSON string or {"chatId": "..."}.
func parseChatID(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil && id != "" {
		return id, nil
	}

	var ref domain.ChatRef
	if err := json.Unmarshal(data, &ref); err == nil && ref.ChatID != "" {
		return ref.ChatID, nil
	}

	return "", fmt.Errorf("%w: chatId is required", ErrInvalidPayload)
}
