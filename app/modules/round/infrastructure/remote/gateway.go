package roundremote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	"github.com/Black-And-White-Club/scorecard/pkg/attr"
	"golang.org/x/time/rate"
)

// Gateway is the remote round store.
type Gateway interface {
	UpdateHoleScore(ctx context.Context, roundID string, update HoleScoreUpdate) error
	UpdateAllHoleScores(ctx context.Context, roundID string, round *roundtypes.Round) error
	CreateRound(ctx context.Context, round *roundtypes.Round) (*roundtypes.Round, error)
	UpdateRound(ctx context.Context, roundID string, round *roundtypes.Round) error
	DeleteRound(ctx context.Context, roundID string) error
	GetRoundDetail(ctx context.Context, roundID string) (*roundtypes.Round, error)
	GetRoundsSummary(ctx context.Context, golfLinkNo string) ([]RoundSummary, error)
	SubmitScores(ctx context.Context, payload SubmissionPayload) error
}

// Config holds client settings.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

// Client is the HTTP JSON implementation of Gateway.
type Client struct {
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	limiter  *rate.Limiter
	sessions SessionProvider
	logger   *slog.Logger
}

var _ Gateway = (*Client)(nil)

// NewClient builds a client. A zero RateLimit disables throttling.
func NewClient(cfg Config, sessions SessionProvider, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid remote base url: %w", err)
	}
	if sessions == nil {
		return nil, fmt.Errorf("session provider is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		timeout:  cfg.Timeout,
		http:     httpClient,
		limiter:  limiter,
		sessions: sessions,
		logger:   logger,
	}, nil
}

func (c *Client) UpdateHoleScore(ctx context.Context, roundID string, update HoleScoreUpdate) error {
	path := fmt.Sprintf("/rounds/%s/holes/%d", url.PathEscape(roundID), update.HoleNumber)
	return c.do(ctx, "UpdateHoleScore", http.MethodPatch, path, update, nil)
}

func (c *Client) UpdateAllHoleScores(ctx context.Context, roundID string, round *roundtypes.Round) error {
	path := fmt.Sprintf("/rounds/%s/holes", url.PathEscape(roundID))
	return c.do(ctx, "UpdateAllHoleScores", http.MethodPut, path, round, nil)
}

func (c *Client) CreateRound(ctx context.Context, round *roundtypes.Round) (*roundtypes.Round, error) {
	created := new(roundtypes.Round)
	if err := c.do(ctx, "CreateRound", http.MethodPost, "/rounds", round, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Client) UpdateRound(ctx context.Context, roundID string, round *roundtypes.Round) error {
	return c.do(ctx, "UpdateRound", http.MethodPut, "/rounds/"+url.PathEscape(roundID), round, nil)
}

func (c *Client) DeleteRound(ctx context.Context, roundID string) error {
	return c.do(ctx, "DeleteRound", http.MethodDelete, "/rounds/"+url.PathEscape(roundID), nil, nil)
}

func (c *Client) GetRoundDetail(ctx context.Context, roundID string) (*roundtypes.Round, error) {
	detail := new(roundtypes.Round)
	if err := c.do(ctx, "GetRoundDetail", http.MethodGet, "/rounds/"+url.PathEscape(roundID), nil, detail); err != nil {
		return nil, err
	}
	return detail, nil
}

func (c *Client) GetRoundsSummary(ctx context.Context, golfLinkNo string) ([]RoundSummary, error) {
	var summaries []RoundSummary
	path := fmt.Sprintf("/golfers/%s/rounds", url.PathEscape(golfLinkNo))
	if err := c.do(ctx, "GetRoundsSummary", http.MethodGet, path, nil, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (c *Client) SubmitScores(ctx context.Context, payload SubmissionPayload) error {
	return c.do(ctx, "SubmitScores", http.MethodPost, "/scores", payload, nil)
}

// do performs one club scoped JSON call. Every failure comes back as *Error.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	session, err := c.sessions.Session(ctx)
	if err != nil {
		return &Error{Kind: KindUnknown, Operation: op, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Kind: KindTimeout, Operation: op, Err: err}
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindUnknown, Operation: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(buf)
	}

	endpoint := c.baseURL + "/clubs/" + url.PathEscape(session.ClubID) + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &Error{Kind: KindUnknown, Operation: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session.AccessToken != "" {
		tok, err := session.TokenSource().Token()
		if err != nil {
			return &Error{Kind: KindUnknown, Operation: op, Err: err}
		}
		tok.SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		rerr := classifyTransport(op, err)
		c.logger.DebugContext(ctx, "Remote call failed",
			attr.String("operation", op),
			attr.String("kind", rerr.Kind.String()),
			attr.Duration("elapsed", time.Since(start)),
			attr.Error(err),
		)
		return rerr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransport(op, err)
	}

	var env envelope[json.RawMessage]
	decodeErr := json.Unmarshal(raw, &env)
	if len(raw) == 0 {
		decodeErr = nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &Error{Kind: KindServer, Operation: op, StatusCode: resp.StatusCode}
		if decodeErr == nil && env.ErrorMessage != nil {
			rerr.Message = *env.ErrorMessage
		}
		return rerr
	}
	if decodeErr != nil {
		return &Error{Kind: KindUnknown, Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if env.ErrorMessage != nil {
		return &Error{Kind: KindDomain, Operation: op, StatusCode: resp.StatusCode, Message: *env.ErrorMessage}
	}
	if out != nil {
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return &Error{Kind: KindUnknown, Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("response carried no data")}
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &Error{Kind: KindUnknown, Operation: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode data: %w", err)}
		}
	}
	return nil
}
