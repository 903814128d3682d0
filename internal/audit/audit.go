package audit

import (
	"context"

	"github.com/weiawesome/wes-io-chat/pkg/log"
)

// Audit actions for the chat lifecycle.
const (
	ActionCreateChat    = "chat.create"
	ActionDeleteChat    = "chat.delete"
	ActionSendMessage   = "message.send"
	ActionReadMessage   = "message.read"
	ActionDeleteMessage = "message.delete"
)

const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, userID, chatID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldChatID, chatID).
		Msg(msg)
}

// LogWithDetail emits an audit log with an extra detail field.
func LogWithDetail(ctx context.Context, action, userID, chatID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldChatID, chatID).
		Str(FieldDetail, detail).
		Msg(msg)
}
