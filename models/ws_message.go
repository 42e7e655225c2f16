package models

// Tipi di evento inviati sul feed WebSocket
const (
	EventDedicationCreated = "dedication_created"
	EventDedicationDeleted = "dedication_deleted"
)

// WSMessage rappresenta un messaggio WebSocket
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// DeletedPayload identifica la dedica rimossa. Vale ID oppure Index, a
// seconda del backend.
type DeletedPayload struct {
	ID    string `json:"id,omitempty"`
	Index *int   `json:"index,omitempty"`
}
