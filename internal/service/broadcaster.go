package service

// Message types pushed to clients
const (
	MsgSessionUpdated      = "session_updated"
	MsgAssessmentSubmitted = "assessment_submitted"
	MsgSessionEnded        = "session_ended"
)

// Broadcaster pushes session updates to connected clients (avoids import cycle)
type Broadcaster interface {
	BroadcastToClient(clientID string, msgType string, payload interface{})
	DisconnectClient(clientID string)
}
