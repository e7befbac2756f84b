// internal/action/engine.go
package action

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"hsmini/internal/hubspot"
	"hsmini/pkg/apierr"
)

// ExecContext identifies what an action runs against: an optional CRM object
// plus the portal whose token authorizes HubSpot-bound calls. Built fresh per
// request and discarded afterwards.
type ExecContext struct {
	ObjectID     string
	ObjectTypeID string
	HubID        string
	ActionID     string
	AccessToken  string
}

// Engine resolves an action definition into a concrete URL and body.
type Engine struct {
	hub *hubspot.Client
	log *zap.SugaredLogger
}

func NewEngine(hub *hubspot.Client, log *zap.SugaredLogger) *Engine {
	return &Engine{hub: hub, log: log}
}

// Render produces the final URL and request body for the action. A fetch
// failure for a supported object type aborts; an unsupported type id only
// empties the substitution set.
func (e *Engine) Render(ctx context.Context, a Action, ec ExecContext) (string, string, error) {
	subst := NewContext(ec.ObjectID, ec.ObjectTypeID, ec.HubID, ec.ActionID)

	if ec.ObjectID != "" && ec.ObjectTypeID != "" {
		if objectType, ok := ObjectTypeName(ec.ObjectTypeID); !ok {
			e.log.Warnw("unsupported object type id, proceeding without attributes", "object_type_id", ec.ObjectTypeID)
		} else {
			obj, err := e.hub.FetchObject(ctx, ec.AccessToken, objectType, ec.ObjectID)
			if err != nil {
				return "", "", apierr.Wrap(apierr.ObjectFetchFailed, "failed to fetch "+objectType+" "+ec.ObjectID, err)
			}
			subst.AddObject(obj)
		}
	}

	finalURL, unresolved := Render(a.TargetURL, subst)
	method := strings.ToUpper(a.Method)
	body := ""
	if method == http.MethodGet {
		if qs := renderQuery(a.QueryParams, subst, &unresolved); qs != "" {
			sep := "?"
			if strings.Contains(finalURL, "?") {
				sep = "&"
			}
			finalURL = finalURL + sep + qs
		}
	} else if a.BodyTemplate != "" {
		var u []string
		body, u = Render(a.BodyTemplate, subst)
		unresolved = append(unresolved, u...)
	}
	if len(unresolved) > 0 {
		e.log.Warnw("unresolved template placeholders", "action", a.ID, "tokens", unresolved)
	}
	return finalURL, body, nil
}

// renderQuery renders parameter values in configured order and drops entries
// whose key or rendered value is empty.
func renderQuery(params []QueryParam, subst Context, unresolved *[]string) string {
	var parts []string
	for _, p := range params {
		v, u := Render(p.Value, subst)
		*unresolved = append(*unresolved, u...)
		if p.Key == "" || v == "" {
			continue
		}
		parts = append(parts, url.QueryEscape(p.Key)+"="+url.QueryEscape(v))
	}
	return strings.Join(parts, "&")
}

// RenderWebhook renders a stored webhook body against caller-supplied
// dynamic data; placeholders are bare {{key}} names.
func RenderWebhook(wh Webhook, dynamic map[string]string) (string, []string) {
	if wh.BodyTemplate == "" {
		return "", nil
	}
	ctx := Context{}
	for k, v := range dynamic {
		ctx[k] = v
	}
	return Render(wh.BodyTemplate, ctx)
}
