package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/threading"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ProjectsTask/EasySwapAgent/logger/xzap"
	"github.com/ProjectsTask/EasySwapAgent/pkg/retry"
)

const (
	defaultMinInterval    = 2000 * time.Millisecond
	defaultRetryDelay     = 5000 * time.Millisecond
	defaultAttemptTimeout = 10 * time.Second
	defaultMaxAttempts    = 3
	defaultProxyAttempts  = 10
	defaultQueueSize      = 64

	// Trailing excerpt size quoted from a non-JSON document.
	excerptLen = 200
)

// preRe locates a JSON payload the marketplace wraps in a rendered
// document instead of serving with a JSON content type.
var preRe = regexp.MustCompile(`(?s)<pre.*?>(.*?)</pre>`)

// Config tunes the gateway's pacing and retry behavior.
type Config struct {
	MinIntervalMs    int64 `toml:"min_interval_ms" mapstructure:"min_interval_ms" json:"min_interval_ms"`
	RetryDelayMs     int64 `toml:"retry_delay_ms" mapstructure:"retry_delay_ms" json:"retry_delay_ms"`
	AttemptTimeoutMs int64 `toml:"attempt_timeout_ms" mapstructure:"attempt_timeout_ms" json:"attempt_timeout_ms"`
	MaxAttempts      int   `toml:"max_attempts" mapstructure:"max_attempts" json:"max_attempts"`
	ProxyAttempts    int   `toml:"proxy_attempts" mapstructure:"proxy_attempts" json:"proxy_attempts"`
	QueueSize        int   `toml:"queue_size" mapstructure:"queue_size" json:"queue_size"`
}

func (c Config) minInterval() time.Duration {
	if c.MinIntervalMs <= 0 {
		return defaultMinInterval
	}
	return time.Duration(c.MinIntervalMs) * time.Millisecond
}

func (c Config) retryDelay() time.Duration {
	if c.RetryDelayMs <= 0 {
		return defaultRetryDelay
	}
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

func (c Config) attemptTimeout() time.Duration {
	if c.AttemptTimeoutMs <= 0 {
		return defaultAttemptTimeout
	}
	return time.Duration(c.AttemptTimeoutMs) * time.Millisecond
}

func (c Config) maxAttempts(useProxy bool) int {
	if useProxy {
		if c.ProxyAttempts > 0 {
			return c.ProxyAttempts
		}
		return defaultProxyAttempts
	}
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return defaultMaxAttempts
}

// Task is one unit of outbound work.
type Task struct {
	Method   string
	URL      string
	Headers  map[string]string
	Body     []byte
	UseProxy bool
	Cookies  []Cookie
}

type taskEnvelope struct {
	id     string
	ctx    context.Context
	task   Task
	result chan taskResult
}

type taskResult struct {
	payload json.RawMessage
	err     error
}

// Gateway serializes all marketplace traffic through a single consumer
// with a pacing floor between dispatches. The transport identity must
// not be parallelized, so outbound concurrency is exactly one.
type Gateway struct {
	cfg     Config
	engine  Engine
	limiter *rate.Limiter
	tasks   chan *taskEnvelope
	done    chan struct{}
}

func New(cfg Config, engine Engine) *Gateway {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Gateway{
		cfg:     cfg,
		engine:  engine,
		limiter: rate.NewLimiter(rate.Every(cfg.minInterval()), 1),
		tasks:   make(chan *taskEnvelope, queueSize),
		done:    make(chan struct{}),
	}
}

// Start launches the consumer loop.
func (g *Gateway) Start(ctx context.Context) {
	threading.GoSafe(func() {
		g.consume(ctx)
	})
}

func (g *Gateway) consume(ctx context.Context) {
	defer close(g.done)
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-g.tasks:
			if err := g.limiter.Wait(env.ctx); err != nil {
				env.result <- taskResult{err: NewTransient("pacing wait aborted: %v", err)}
				continue
			}
			payload, err := g.execute(env)
			env.result <- taskResult{payload: payload, err: err}
		}
	}
}

// Submit queues a task and blocks until its result is available. Retries
// happen inside the gateway; the caller sees either the JSON payload or
// the classified error left after the budget is spent.
func (g *Gateway) Submit(ctx context.Context, task Task) (json.RawMessage, error) {
	env := &taskEnvelope{
		id:     uuid.New().String(),
		ctx:    ctx,
		task:   task,
		result: make(chan taskResult, 1),
	}

	select {
	case g.tasks <- env:
	case <-ctx.Done():
		return nil, NewTransient("gateway queue wait aborted: %v", ctx.Err())
	case <-g.done:
		return nil, NewFatal("gateway is stopped")
	}

	select {
	case res := <-env.result:
		return res.payload, res.err
	case <-ctx.Done():
		return nil, NewTransient("gateway result wait aborted: %v", ctx.Err())
	}
}

func (g *Gateway) execute(env *taskEnvelope) (json.RawMessage, error) {
	attempts := g.cfg.maxAttempts(env.task.UseProxy)
	policy := retry.Policy{Attempts: attempts, Delay: g.cfg.retryDelay()}

	var payload json.RawMessage
	err := policy.Do(env.ctx, "gateway task "+env.id, func() error {
		res, attemptErr := g.attempt(env.ctx, env.task)
		if attemptErr != nil {
			xzap.WithContext(env.ctx).Warn("gateway attempt failed",
				zap.String("task_id", env.id),
				zap.String("url", env.task.URL),
				zap.Error(attemptErr))
			return attemptErr
		}
		payload = res
		return nil
	}, Retryable)
	if err != nil {
		return nil, newError(KindOf(err), "%s", err.Error())
	}
	return payload, nil
}

// attempt acquires a fresh automation context, issues the call, and
// classifies the response. The context is released on every path.
func (g *Gateway) attempt(ctx context.Context, task Task) (json.RawMessage, error) {
	sess, err := g.engine.NewContext(task.UseProxy)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.attemptTimeout())
	defer cancel()

	resp, err := sess.Do(attemptCtx, task.URL, RequestOptions{
		Method:   task.Method,
		Headers:  task.Headers,
		Body:     task.Body,
		UseProxy: task.UseProxy,
		Cookies:  task.Cookies,
	})
	if err != nil {
		return nil, err
	}

	return classify(resp)
}

func classify(resp *Response) (json.RawMessage, error) {
	if resp.StatusCode == http.StatusProxyAuthRequired {
		return nil, NewProxy("proxy error (HTTP 407) content: %s", tailExcerpt(resp.Body))
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, NewAuth("authentication rejected (HTTP %d): %s", resp.StatusCode, tailExcerpt(resp.Body))
	}

	if isJSONContentType(resp.ContentType) {
		if !json.Valid(resp.Body) {
			return nil, NewMalformed("received content is not valid JSON: %s", tailExcerpt(resp.Body))
		}
		return json.RawMessage(resp.Body), nil
	}

	// The marketplace sometimes serves the payload inside a rendered
	// document; dig the JSON out of the pre block.
	match := preRe.FindSubmatch(resp.Body)
	if match == nil || len(match[1]) == 0 {
		return nil, NewMalformed("unable to extract body from the content, excerpt: %q", tailExcerpt(resp.Body))
	}
	if !json.Valid(match[1]) {
		return nil, NewMalformed("received content is not valid JSON: %s", Truncate(string(match[1]), excerptLen))
	}
	return json.RawMessage(match[1]), nil
}

func isJSONContentType(ct string) bool {
	return strings.Contains(ct, "application/json")
}

func tailExcerpt(body []byte) string {
	if len(body) > excerptLen {
		body = body[len(body)-excerptLen:]
	}
	return string(body)
}
