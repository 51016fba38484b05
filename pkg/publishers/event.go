package publishers

import (
	"time"

	"github.com/google/uuid"
)

// Flow lifecycle actions carried by Event.Action.
const (
	ActionCreated       = "flow.created"
	ActionAssetUploaded = "flow.asset_uploaded"
	ActionAssetUpdated  = "flow.asset_updated"
	ActionPublished     = "flow.published"
	ActionDeprecated    = "flow.deprecated"
	ActionRenamed       = "flow.renamed"
	ActionDeleted       = "flow.deleted"
	ActionSent          = "flow.sent"
)

// Event represents the payload published downstream after a flow operation.
type Event struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	AccountID  string    `json:"account_id,omitempty"`
	FlowID     string    `json:"flow_id,omitempty"`
	FlowToken  string    `json:"flow_token,omitempty"`
	Recipient  string    `json:"recipient,omitempty"`
	Mode       string    `json:"mode,omitempty"`
	StatusCode int       `json:"status_code"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent constructs an Event for the given action and flow.
func NewEvent(action, flowID string, statusCode int) Event {
	return Event{
		ID:         uuid.NewString(),
		Action:     action,
		FlowID:     flowID,
		StatusCode: statusCode,
		OccurredAt: time.Now().UTC(),
	}
}

// attributes are the routing attributes attached by queue/topic sinks.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{"action": e.Action}
	if e.FlowID != "" {
		attrs["flow_id"] = e.FlowID
	}
	return attrs
}
