package school

import (
	"errors"
	"net/http"
	"time"
)

// EventStatusCheckCreated is the event type emitted after a status check is stored.
const EventStatusCheckCreated = "status_check.created"

// ErrClientNameRequired is returned when a create request omits client_name.
var ErrClientNameRequired = errors.New("client_name is required")

// StatusCheck is a heartbeat record created by a client. It is never updated.
type StatusCheck struct {
	ID         string    `json:"id" bson:"id" firestore:"id"`
	ClientName string    `json:"client_name" bson:"client_name" firestore:"client_name"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp" firestore:"timestamp"`
}

// NewStatusCheck builds a StatusCheck from values chosen by the caller.
func NewStatusCheck(id, clientName string, ts time.Time) StatusCheck {
	return StatusCheck{
		ID:         id,
		ClientName: clientName,
		Timestamp:  ts,
	}
}

// StatusCheckCreate is the body accepted by POST /status.
type StatusCheckCreate struct {
	ClientName string `json:"client_name"`
}

// Validate rejects requests without a client name.
func (r StatusCheckCreate) Validate() error {
	if r.ClientName == "" {
		return ErrClientNameRequired
	}
	return nil
}

// StatusCheckEvent is published once a status check has been persisted.
type StatusCheckEvent struct {
	Type        string      `json:"type"`
	StatusCheck StatusCheck `json:"status_check"`
}

// Notice is a school announcement. Date is free-form text from the sheet.
type Notice struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// FetchRequest captures everything needed to fetch a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}
