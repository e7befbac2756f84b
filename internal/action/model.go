package action

import (
	"context"
	"errors"
	"time"
)

// QueryParam is one configured key/value pair; values may contain placeholder
// tokens. Order is preserved when the query string is rendered.
type QueryParam struct {
	Key   string
	Value string
}

// Action is a stored button definition: where to call, how, and with what
// template. Exactly one of BodyTemplate / QueryParams is active, selected by
// Method (GET uses query params, everything else the body template).
type Action struct {
	ID           string
	Label        string
	TargetURL    string
	Method       string
	BodyTemplate string
	QueryParams  []QueryParam
}

// Webhook is a stored standalone outbound call definition.
type Webhook struct {
	ID           string
	Name         string
	URL          string
	Method       string
	BodyTemplate string
}

// Summary is the public listing row served to the embedded card UI: the
// button definition plus the title of the card it belongs to.
type Summary struct {
	ID           string    `json:"id"`
	CardID       string    `json:"card_id,omitempty"`
	CardTitle    string    `json:"card_title,omitempty"`
	Label        string    `json:"label"`
	TargetURL    string    `json:"api_url"`
	Method       string    `json:"api_method"`
	BodyTemplate string    `json:"api_body_template,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

var ErrNotFound = errors.New("action not found")

type Store interface {
	GetAction(ctx context.Context, id string) (Action, error)
	GetWebhook(ctx context.Context, id string) (Webhook, error)
	// ListActions returns every button definition, newest first.
	ListActions(ctx context.Context) ([]Summary, error)
}
