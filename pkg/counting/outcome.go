package counting

// Status classifies the result of processing one passenger event.
type Status string

const (
	// StatusOK - event accepted and persisted
	StatusOK Status = "OK"
	// StatusDiscarded - event rejected as a sensor spike, audited only
	StatusDiscarded Status = "DISCARDED"
	// StatusNotFound - vehicle is unknown to the ledger
	StatusNotFound Status = "NOT_FOUND"
	// StatusInvalid - event was missing or malformed
	StatusInvalid Status = "INVALID"
	// StatusError - infrastructure failure, safe to retry
	StatusError Status = "ERROR"
	// StatusReceived - event accepted for asynchronous processing, only ever
	// emitted by the HTTP async path
	StatusReceived Status = "RECEIVED"
)

// Terminal reports whether redelivering the same event could change the
// result. Terminal outcomes must be acknowledged by queue consumers,
// everything else is eligible for redelivery.
func (s Status) Terminal() bool {
	switch s {
	case StatusOK, StatusDiscarded, StatusNotFound, StatusInvalid:
		return true
	default:
		return false
	}
}

// Outcome is the result of processing one passenger event. Event echoes the
// processed input and is nil only for invalid events that never decoded.
type Outcome struct {
	Status  Status          `json:"status"`
	Message string          `json:"message"`
	Event   *PassengerEvent `json:"data"`
}
