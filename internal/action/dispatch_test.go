package action

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hsmini/pkg/apierr"
)

type captured struct {
	method string
	auth   string
	body   string
	ctype  string
}

func captureServer(t *testing.T, status int, respBody string) (*httptest.Server, *captured) {
	cap := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		cap.method = r.Method
		cap.auth = r.Header.Get("Authorization")
		cap.body = string(b)
		cap.ctype = r.Header.Get("Content-Type")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)
	return srv, cap
}

func hostOf(t *testing.T, rawurl string) string {
	u, err := url.Parse(rawurl)
	require.NoError(t, err)
	return u.Host
}

func TestDispatchBearerOnlyForAPIHost(t *testing.T) {
	srv, cap := captureServer(t, http.StatusOK, `{"ok":true}`)

	// Target host matches the configured API host: token attached.
	d := NewDispatcher(hostOf(t, srv.URL), 5*time.Second, zap.NewNop().Sugar())
	_, err := d.Dispatch(context.Background(), "GET", srv.URL+"/x", "", "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", cap.auth)

	// Foreign host: never.
	d = NewDispatcher("api.hubapi.test", 5*time.Second, zap.NewNop().Sugar())
	_, err = d.Dispatch(context.Background(), "GET", srv.URL+"/x", "", "tok-123")
	require.NoError(t, err)
	assert.Empty(t, cap.auth)
}

func TestDispatchBodyOnlyForWriteMethods(t *testing.T) {
	srv, cap := captureServer(t, http.StatusOK, `{}`)
	d := NewDispatcher("", 5*time.Second, zap.NewNop().Sugar())

	_, err := d.Dispatch(context.Background(), "post", srv.URL, `{"a":1}`, "")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, cap.method)
	assert.Equal(t, `{"a":1}`, cap.body)
	assert.Equal(t, "application/json", cap.ctype)

	// GET drops the body even when one was rendered.
	_, err = d.Dispatch(context.Background(), "GET", srv.URL, `{"a":1}`, "")
	require.NoError(t, err)
	assert.Empty(t, cap.body)
}

func TestDispatchParsesJSONResponse(t *testing.T) {
	srv, _ := captureServer(t, http.StatusOK, `{"result":"done"}`)
	d := NewDispatcher("", 5*time.Second, zap.NewNop().Sugar())

	resp, err := d.Dispatch(context.Background(), "GET", srv.URL, "", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"result": "done"}, resp)
}

func TestDispatchNonJSONBodyPassthrough(t *testing.T) {
	srv, _ := captureServer(t, http.StatusOK, "plain ok")
	d := NewDispatcher("", 5*time.Second, zap.NewNop().Sugar())

	resp, err := d.Dispatch(context.Background(), "GET", srv.URL, "", "")
	require.NoError(t, err)
	assert.Equal(t, "plain ok", resp)
}

func TestDispatchNon2xxIsDownstreamFailure(t *testing.T) {
	srv, _ := captureServer(t, http.StatusForbidden, "denied")
	d := NewDispatcher("", 5*time.Second, zap.NewNop().Sugar())

	_, err := d.Dispatch(context.Background(), "POST", srv.URL, "{}", "")
	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.DownstreamCallFailed))

	var ae *apierr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusForbidden, ae.DownstreamStatus)
	assert.Contains(t, ae.Message, "denied")
}

func TestDispatchInvalidURL(t *testing.T) {
	d := NewDispatcher("", 5*time.Second, zap.NewNop().Sugar())
	_, err := d.Dispatch(context.Background(), "GET", "not a url", "", "")
	assert.True(t, apierr.IsKind(err, apierr.BadRequest))
}

func TestDispatchUnreachableHost(t *testing.T) {
	srv, _ := captureServer(t, http.StatusOK, "")
	target := srv.URL
	srv.Close()

	d := NewDispatcher("", time.Second, zap.NewNop().Sugar())
	_, err := d.Dispatch(context.Background(), "GET", target, "", "")
	assert.True(t, apierr.IsKind(err, apierr.DownstreamCallFailed))
}
