package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/musicengine/auth-server-go/internal/model"
)

// State tracks where a poll loop is in its lifecycle. Transitions are
// one-way: a poller that reaches a terminal state never polls again.
type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateResolved  State = "resolved"
	StateExpired   State = "expired"
	StateCancelled State = "cancelled"
)

var (
	ErrSessionNotFound = errors.New("client: session not found")
	ErrSessionExpired  = errors.New("client: session expired")
	ErrCancelled       = errors.New("client: polling cancelled")
	ErrAlreadyStarted  = errors.New("client: poller already started")
)

// Session is the wire shape returned when requesting a new pairing session.
type Session struct {
	SessionID string `json:"sessionId"`
	QRURL     string `json:"qrUrl"`
	ExpiresIn int    `json:"expiresIn"`
	Status    string `json:"status"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Poller is the waiting-device side of the pairing handshake. It requests a
// session, hands the QR URL to the caller, then polls the status endpoint
// until the session resolves, expires, or the context is cancelled.
//
// Transient transport failures and 5xx responses do not abort the loop; only
// a definitive server answer (authenticated, 404, 410) or cancellation does.
type Poller struct {
	baseURL     string
	httpClient  *http.Client
	interval    time.Duration
	maxAttempts int

	mu    sync.Mutex
	state State
}

type Option func(*Poller)

func WithHTTPClient(c *http.Client) Option {
	return func(p *Poller) { p.httpClient = c }
}

func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

func WithMaxAttempts(n int) Option {
	return func(p *Poller) { p.maxAttempts = n }
}

func NewPoller(baseURL string, opts ...Option) *Poller {
	p := &Poller{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		interval:    5 * time.Second,
		maxAttempts: 60,
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// CreateSession requests a fresh pairing session. The returned QR URL is what
// the completing device must open.
func (p *Poller) CreateSession(ctx context.Context) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/auth/session", nil)
	if err != nil {
		return nil, fmt.Errorf("build create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("create session: unexpected status %d", resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode create response: %w", err)
	}
	return &session, nil
}

// Wait polls the session until it resolves. It blocks and returns the
// authenticated identity on success. A poller is single-use.
func (p *Poller) Wait(ctx context.Context, sessionID string) (*model.AuthUser, error) {
	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	p.state = StatePolling
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		user, done, err := p.pollOnce(ctx, sessionID)
		if done {
			return user, err
		}

		select {
		case <-ctx.Done():
			p.setState(StateCancelled)
			return nil, ErrCancelled
		case <-ticker.C:
		}
	}

	// Attempt budget exhausted. The session TTL and the poll window are sized
	// together, so treat this the same as server-side expiry.
	p.setState(StateExpired)
	return nil, ErrSessionExpired
}

// pollOnce performs a single status read. done reports whether the loop must
// stop, with err carrying the terminal outcome.
func (p *Poller) pollOnce(ctx context.Context, sessionID string) (*model.AuthUser, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/api/auth/session?sessionId="+sessionID, nil)
	if err != nil {
		p.setState(StateCancelled)
		return nil, true, fmt.Errorf("build poll request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			p.setState(StateCancelled)
			return nil, true, ErrCancelled
		}
		log.Warn().Err(err).Msg("poll attempt failed, retrying")
		return nil, false, nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var session model.PairingSession
		if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
			log.Warn().Err(err).Msg("malformed poll response, retrying")
			return nil, false, nil
		}
		if session.Status == model.SessionStatusAuthenticated && session.UserData != nil {
			p.setState(StateResolved)
			return session.UserData, true, nil
		}
		return nil, false, nil

	case http.StatusNotFound:
		p.setState(StateExpired)
		return nil, true, ErrSessionNotFound

	case http.StatusGone:
		p.setState(StateExpired)
		return nil, true, ErrSessionExpired

	default:
		var body errorBody
		_ = json.NewDecoder(resp.Body).Decode(&body)
		log.Warn().
			Int("status", resp.StatusCode).
			Str("code", body.Code).
			Msg("unexpected poll status, retrying")
		return nil, false, nil
	}
}
