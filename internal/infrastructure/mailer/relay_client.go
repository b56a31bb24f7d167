// Package mailer delivers transactional email through the platform's HTTP
// mail relay.
package mailer

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ausmasters/carnivalhub/internal/platform/resilience"
)

var errRelayTransient = crerr.New("mail relay transient failure")

type RelayClientConfig struct {
	BaseURL          string
	Token            string
	Timeout          time.Duration
	FailureThreshold int
	OpenTimeout      time.Duration
}

// RelayClient posts messages to the mail relay. A circuit breaker sheds
// traffic while the relay is struggling so notification fan-out does not
// pile up timed-out requests.
type RelayClient struct {
	client  *http.Client
	baseURL string
	token   string
	logger  *slog.Logger
	breaker *resilience.CircuitBreaker
}

func NewRelayClient(cfg RelayClientConfig, logger *slog.Logger) *RelayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RelayClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:   strings.TrimSpace(cfg.Token),
		logger:  logger,
		breaker: resilience.NewCircuitBreaker(cfg.FailureThreshold, cfg.OpenTimeout),
	}
}

type relayMessage struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	EmailType string `json:"emailType"`
}

func (c *RelayClient) Send(ctx context.Context, to, subject, body, emailType string) error {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "mail relay circuit breaker rejected send",
			"state", c.breaker.State(), "emailType", emailType)
		return fmt.Errorf("mail relay is temporarily unavailable: %w", err)
	}

	if c.baseURL == "" {
		return crerr.New("mail relay base URL is required")
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return crerr.New("recipient is required")
	}

	payload, err := sonic.Marshal(relayMessage{
		To:        to,
		Subject:   subject,
		Body:      body,
		EmailType: emailType,
	})
	if err != nil {
		return crerr.Wrap(err, "marshal relay message")
	}

	sendURL := c.baseURL + "/v1/messages"
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("mailer.send_url", sendURL),
			attribute.String("mailer.email_type", emailType),
			attribute.String("mailer.subject", subject),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, strings.NewReader(string(payload)))
	if err != nil {
		return crerr.Wrap(err, "create relay request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		callErr := fmt.Errorf("%w: send mail url=%s: %v", errRelayTransient, sendURL, err)
		c.recordCircuitResult(callErr)
		return callErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := relayFailureDetail(resp.StatusCode, emailType, strings.TrimSpace(string(raw)))
		if isRetryableStatus(resp.StatusCode) {
			callErr := fmt.Errorf("%w: %s", errRelayTransient, detail)
			c.recordCircuitResult(callErr)
			return callErr
		}
		callErr := crerr.New(detail)
		c.recordCircuitResult(callErr)
		return callErr
	}

	c.logger.InfoContext(ctx, "mail relay accepted message", "emailType", emailType)
	c.recordCircuitResult(nil)
	return nil
}

func relayFailureDetail(statusCode int, emailType, body string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("send mail status=")
	_, _ = fmt.Fprintf(buf, "%d", statusCode)
	_, _ = buf.WriteString(" email_type=")
	_, _ = buf.WriteString(emailType)
	if body != "" {
		_, _ = buf.WriteString(" body=")
		_, _ = buf.WriteString(body)
	}

	return buf.String()
}

func (c *RelayClient) recordCircuitResult(err error) {
	if err == nil {
		c.breaker.RecordSuccess()
		return
	}
	if stderrors.Is(err, errRelayTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
