package domain

import (
	"encoding/json"
	"time"
)

// Connection lifecycle events.
const (
	EventConnected    = "connected"
	EventSocketError  = "socket_error"
	EventAuthenticate = "authenticate"
	EventDisconnect   = "disconnect"
	EventPing         = "ping"
	EventPong         = "pong"
)

// Room and presence events.
const (
	EventJoinChat   = "join_chat"
	EventTyping     = "typing"
	EventStopTyping = "stop_typing"
)

// Chat lifecycle events, pushed after the store has been updated.
const (
	EventNewChat         = "new_chat"
	EventMessageReceived = "message_received"
	EventMessageRead     = "message_read"
	EventChatDelete      = "chat_delete"
	EventMessageDelete   = "message_delete"
)

// Call signaling events.
const (
	EventStartVideoCall   = "start_video_call"
	EventStartAudioCall   = "start_audio_call"
	EventCallOffer        = "call_offer"
	EventCallAnswer       = "call_answer"
	EventCallICECandidate = "call_ice_candidate"
	EventRejectCall       = "reject_call"
	EventEndCall          = "end_call"
)

// InboundEnvelope is a frame received from a client.
type InboundEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutboundEnvelope is a frame sent to a client.
type OutboundEnvelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type AuthenticateRequest struct {
	Token string `json:"token"`
}

// ChatRef is the object form of a chat-scoped request; clients may also send
// the bare chat id string.
type ChatRef struct {
	ChatID string `json:"chatId"`
}

type TypingPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type MessageReadPayload struct {
	MessageID string `json:"messageId"`
}

type MessageDeletePayload struct {
	MessageID string `json:"messageId"`
}

type ChatDeletePayload struct {
	ChatID string `json:"chatId"`
}

// Signaling requests as sent by clients. Identity fields other than the
// routing target are ignored; the gateway stamps the sender itself.

type StartCallRequest struct {
	ChatID       string `json:"chatId"`
	TargetUserID string `json:"targetUserId"`
}

type CallOfferRequest struct {
	Offer        json.RawMessage `json:"offer"`
	TargetUserID string          `json:"targetUserId"`
}

type CallAnswerRequest struct {
	Answer   json.RawMessage `json:"answer"`
	CallerID string          `json:"callerId"`
}

type CallICECandidateRequest struct {
	Candidate    json.RawMessage `json:"candidate"`
	TargetUserID string          `json:"targetUserId"`
}

type RejectCallRequest struct {
	CallerID string `json:"callerId"`
}

type EndCallRequest struct {
	ChatID       string `json:"chatId"`
	TargetUserID string `json:"targetUserId"`
}

// Signaling payloads as relayed by the gateway.

type CallPartiesPayload struct {
	CallerID     string `json:"callerId"`
	TargetUserID string `json:"targetUserId"`
}

type CallOfferPayload struct {
	Offer    json.RawMessage `json:"offer"`
	CallerID string          `json:"callerId"`
}

type CallAnswerPayload struct {
	Answer       json.RawMessage `json:"answer"`
	TargetUserID string          `json:"targetUserId"`
}

type CallICECandidatePayload struct {
	Candidate json.RawMessage `json:"candidate"`
	CallerID  string          `json:"callerId"`
}

type RejectCallPayload struct {
	ReceiverID string `json:"receiverId"`
}

// ChatEvent is the record produced to the chat event stream for every
// lifecycle broadcast.
type ChatEvent struct {
	Type      string      `json:"type"`
	ChatID    string      `json:"chatId"`
	ActorID   string      `json:"actorId"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}
