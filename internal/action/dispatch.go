// internal/action/dispatch.go
package action

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"hsmini/pkg/apierr"
)

// Dispatcher performs the rendered outbound call. The portal's bearer token is
// attached only when the target host is the HubSpot API host; arbitrary
// third-party webhooks never see it.
type Dispatcher struct {
	apiHost string
	client  *http.Client
	log     *zap.SugaredLogger
}

func NewDispatcher(apiHost string, timeout time.Duration, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		apiHost: apiHost,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

func methodCarriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// Dispatch sends the request and returns the parsed JSON response. Non-2xx is
// fatal and propagated with the downstream status and raw body; there are no
// retries.
func (d *Dispatcher) Dispatch(ctx context.Context, method, target, body, accessToken string) (any, error) {
	method = strings.ToUpper(method)
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return nil, apierr.Newf(apierr.BadRequest, "invalid target URL %q", target)
	}

	var reader io.Reader
	if body != "" && methodCarriesBody(method) {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, apierr.Wrap(apierr.BadRequest, "build outbound request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" && u.Host == d.apiHost {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, apierr.Wrap(apierr.DownstreamCallFailed, "external API unreachable", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.log.Warnw("downstream call failed", "status", resp.StatusCode, "host", u.Host)
		return nil, apierr.Downstream(resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// Non-JSON 2xx bodies are passed along as text.
		return string(raw), nil
	}
	return parsed, nil
}
