package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/hub"
)

// Call signaling is a stateless relay. Every relayed payload names the
// sender by its authenticated user id; identity fields sent by the client
// are only ever used as routing targets.

func (r *Router) startCallHandler(event string) identityHandlerFunc {
	return func(_ context.Context, client *hub.Client, me *domain.Identity, data json.RawMessage) error {
		var req domain.StartCallRequest
		if err := decode(data, &req); err != nil {
			return err
		}
		if req.ChatID == "" || req.TargetUserID == "" {
			return fmt.Errorf("%w: chatId and targetUserId are required", ErrInvalidPayload)
		}

		return r.registry.Broadcast(req.ChatID, event, domain.CallPartiesPayload{
			CallerID:     me.UserID,
			TargetUserID: req.TargetUserID,
		}, client.ID)
	}
}

func (r *Router) handleCallOffer(_ context.Context, _ *hub.Client, me *domain.Identity, data json.RawMessage) error {
	var req domain.CallOfferRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.TargetUserID == "" || isEmptyJSON(req.Offer) {
		return fmt.Errorf("%w: offer and targetUserId are required", ErrInvalidPayload)
	}

	return r.registry.SendTo(req.TargetUserID, domain.EventCallOffer, domain.CallOfferPayload{
		Offer:    req.Offer,
		CallerID: me.UserID,
	})
}

func (r *Router) handleCallAnswer(_ context.Context, _ *hub.Client, me *domain.Identity, data json.RawMessage) error {
	var req domain.CallAnswerRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.CallerID == "" || isEmptyJSON(req.Answer) {
		return fmt.Errorf("%w: answer and callerId are required", ErrInvalidPayload)
	}

	return r.registry.SendTo(req.CallerID, domain.EventCallAnswer, domain.CallAnswerPayload{
		Answer:       req.Answer,
		TargetUserID: me.UserID,
	})
}

func (r *Router) handleCallICECandidate(_ context.Context, _ *hub.Client, me *domain.Identity, data json.RawMessage) error {
	var req domain.CallICECandidateRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.TargetUserID == "" || isEmptyJSON(req.Candidate) {
		return fmt.Errorf("%w: candidate and targetUserId are required", ErrInvalidPayload)
	}

	return r.registry.SendTo(req.TargetUserID, domain.EventCallICECandidate, domain.CallICECandidatePayload{
		Candidate: req.Candidate,
		CallerID:  me.UserID,
	})
}

func (r *Router) handleRejectCall(_ context.Context, _ *hub.Client, me *domain.Identity, data json.RawMessage) error {
	var req domain.RejectCallRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.CallerID == "" {
		return fmt.Errorf("%w: callerId is required", ErrInvalidPayload)
	}

	return r.registry.SendTo(req.CallerID, domain.EventRejectCall, domain.RejectCallPayload{
		ReceiverID: me.UserID,
	})
}

func (r *Router) handleEndCall(_ context.Context, client *hub.Client, me *domain.Identity, data json.RawMessage) error {
	var req domain.EndCallRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.ChatID == "" {
		return fmt.Errorf("%w: chatId is required", ErrInvalidPayload)
	}

	return r.registry.Broadcast(req.ChatID, domain.EventEndCall, domain.CallPartiesPayload{
		CallerID:     me.UserID,
		TargetUserID: req.TargetUserID,
	}, client.ID)
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrInvalidPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
