package protocol

// Event names carried on the hub and on every streaming transport.
const (
	EventTick      = "tick"
	EventAlert     = "alert"
	EventHeartbeat = "heartbeat"
)

// WSMessage is the envelope written to websocket subscribers.
type WSMessage struct {
	Type string      `json:"type"` // "tick", "alert"
	Data interface{} `json:"data,omitempty"`
}

// PauseResponse is returned by the pause toggle.
type PauseResponse struct {
	MarketOpen bool `json:"marketOpen"`
	Paused     bool `json:"paused"`
}

type ResetResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Path  string `json:"path,omitempty"`
}
