package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware keys)
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Realtime gateway
	FieldConnID    = "conn_id"
	FieldEvent     = "event"
	FieldRoomID    = "room_id"
	FieldChatID    = "chat_id"
	FieldMessageID = "message_id"

	// Service
	FieldService = "service"
	FieldHost    = "host"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
