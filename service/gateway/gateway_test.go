package gateway

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	responses []*Response
	errs      []error
	calls     int
}

func (s *fakeSession) Do(ctx context.Context, rawURL string, opts RequestOptions) (*Response, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return s.responses[len(s.responses)-1], nil
}

func (s *fakeSession) Close() error { return nil }

type fakeEngine struct {
	session  *fakeSession
	contexts int
}

func (e *fakeEngine) NewContext(useProxy bool) (SessionContext, error) {
	e.contexts++
	return e.session, nil
}

func (e *fakeEngine) Restart() error { return nil }
func (e *fakeEngine) Close() error   { return nil }

func testConfig() Config {
	return Config{
		MinIntervalMs:    1,
		RetryDelayMs:     1,
		AttemptTimeoutMs: 1000,
		MaxAttempts:      3,
	}
}

func startGateway(t *testing.T, engine Engine) (*Gateway, context.Context) {
	t.Helper()
	g := New(testConfig(), engine)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	g.Start(ctx)
	return g, ctx
}

func jsonResponse(body string) *Response {
	return &Response{StatusCode: http.StatusOK, ContentType: "application/json", Body: []byte(body)}
}

func TestSubmitRetriesThenSucceeds(t *testing.T) {
	engine := &fakeEngine{session: &fakeSession{
		errs:      []error{NewTransient("connection reset"), NewTransient("connection reset")},
		responses: []*Response{nil, nil, jsonResponse(`{"ok":true}`)},
	}}
	g, ctx := startGateway(t, engine)

	payload, err := g.Submit(ctx, Task{Method: http.MethodGet, URL: "https://x/y"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(payload))
	// One fresh context per attempt.
	assert.Equal(t, 3, engine.contexts)
}

func TestSubmitClassifiesProxyError(t *testing.T) {
	engine := &fakeEngine{session: &fakeSession{
		responses: []*Response{{StatusCode: http.StatusProxyAuthRequired, ContentType: "text/html", Body: []byte("denied")}},
	}}
	g, ctx := startGateway(t, engine)

	_, err := g.Submit(ctx, Task{Method: http.MethodGet, URL: "https://x/y"})
	require.Error(t, err)
	assert.Equal(t, KindProxy, KindOf(err))
	assert.Contains(t, err.Error(), "proxy error")
}

func TestSubmitDoesNotRetryAuthFailure(t *testing.T) {
	engine := &fakeEngine{session: &fakeSession{
		responses: []*Response{{StatusCode: http.StatusForbidden, ContentType: "text/html", Body: []byte("blocked")}},
	}}
	g, ctx := startGateway(t, engine)

	_, err := g.Submit(ctx, Task{Method: http.MethodGet, URL: "https://x/y"})
	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))
	assert.Equal(t, 1, engine.session.calls)
}

func TestSubmitExtractsPreWrappedJSON(t *testing.T) {
	html := `<html><body><pre style="word-wrap: break-word;">{"value":42}</pre></body></html>`
	engine := &fakeEngine{session: &fakeSession{
		responses: []*Response{{StatusCode: http.StatusOK, ContentType: "text/html", Body: []byte(html)}},
	}}
	g, ctx := startGateway(t, engine)

	payload, err := g.Submit(ctx, Task{Method: http.MethodGet, URL: "https://x/y"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":42}`, string(payload))
}

func TestSubmitRejectsUnextractableBody(t *testing.T) {
	engine := &fakeEngine{session: &fakeSession{
		responses: []*Response{{StatusCode: http.StatusOK, ContentType: "text/html", Body: []byte("<html>captcha</html>")}},
	}}
	g, ctx := startGateway(t, engine)

	_, err := g.Submit(ctx, Task{Method: http.MethodGet, URL: "https://x/y"})
	require.Error(t, err)
	assert.Equal(t, KindMalformed, KindOf(err))
}

func TestErrorMessagesAreBounded(t *testing.T) {
	err := NewTransient("%s", strings.Repeat("x", 1000))
	assert.LessOrEqual(t, len(err.Error()), maxErrMsgLen)
}

func TestSubmitAbortsWhenCallerGivesUp(t *testing.T) {
	engine := &fakeEngine{session: &fakeSession{
		responses: []*Response{jsonResponse(`{}`)},
	}}
	g := New(testConfig(), engine)
	// Consumer never started; the queue wait must respect the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// Fill the queue so the submit blocks.
	g.tasks = make(chan *taskEnvelope)

	_, err := g.Submit(ctx, Task{Method: http.MethodGet, URL: "https://x/y"})
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
}
