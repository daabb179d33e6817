// Package auth drives the login state machine: challenge string arrival,
// assertion acquisition (startup credentials, stored token, interactive
// flow, or password), and logout.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"pschat/contract"
	"pschat/domain"
	"pschat/errs"
	"pschat/settings"
)

// Manager holds the session's authentication state. The challenge string
// is a one-shot signal: the first challstr closes ready, every login path
// waits on it instead of polling.
type Manager struct {
	log    *slog.Logger
	sender contract.Sender
	store  *settings.Store
	flow   contract.AuthFlow

	httpClient     *http.Client
	loginServerURL string
	clientID       string

	pollInterval time.Duration
	pollRetries  int

	mu           sync.Mutex
	challstr     string
	ready        chan struct{}
	readyOnce    sync.Once
	loggedIn     bool
	manualLogout bool
	username     string
}

func NewManager(log *slog.Logger, sender contract.Sender, store *settings.Store, flow contract.AuthFlow, clientID string, pollInterval time.Duration, pollRetries int) *Manager {
	return &Manager{
		log:            log,
		sender:         sender,
		store:          store,
		flow:           flow,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		loginServerURL: store.LoginServerURL(),
		clientID:       clientID,
		pollInterval:   pollInterval,
		pollRetries:    pollRetries,
		ready:          make(chan struct{}),
	}
}

// SetChallstr records the challenge and releases every waiter. The server
// sends challstr once per connection; later calls only refresh the value.
func (m *Manager) SetChallstr(challstr string) {
	m.mu.Lock()
	m.challstr = challstr
	m.mu.Unlock()
	m.readyOnce.Do(func() { close(m.ready) })
}

func (m *Manager) waitChallstr(ctx context.Context) (string, error) {
	select {
	case <-m.ready:
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", errs.ErrNoChallenge, ctx.Err())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.challstr, nil
}

// LoggedIn reports whether an updateuser with a named (non-guest) user
// has been observed.
func (m *Manager) LoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loggedIn
}

// Username is the live name: the authenticated name once logged in, the
// server-assigned guest name before that.
func (m *Manager) Username() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.username
}

// MarkLoggedIn is called by the dispatcher on a named updateuser.
func (m *Manager) MarkLoggedIn(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loggedIn = true
	m.username = username
}

// MarkGuest is called by the dispatcher on a guest updateuser. The guest
// name is still the live username: self-detection (PM routing, highlight
// suppression) needs it even before login.
func (m *Manager) MarkGuest(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loggedIn = false
	m.username = username
}

// TryLogin attempts every non-interactive path in priority order: a
// startup assertion, then a stored or startup token (refresh + assertion
// fetch), then the interactive flow if one is wired. After a manual
// logout only an explicit Login call resumes authentication.
func (m *Manager) TryLogin(ctx context.Context, startupAssertion, startupToken string) error {
	m.mu.Lock()
	if m.manualLogout {
		m.mu.Unlock()
		m.log.Debug("skipping auto-login after manual logout")
		return nil
	}
	m.mu.Unlock()

	if startupAssertion != "" {
		return m.sendAssertion(startupAssertion)
	}

	token := startupToken
	if token == "" {
		token = m.store.Token()
	}
	if token != "" {
		if err := m.loginWithToken(ctx, token); err == nil {
			return nil
		} else {
			m.log.Warn("token login failed", "err", err)
		}
	}

	if m.flow == nil {
		m.log.Debug("no stored credentials and no interactive flow")
		return nil
	}
	return m.interactiveLogin(ctx)
}

// Login runs the interactive flow explicitly, clearing any manual-logout
// suppression first.
func (m *Manager) Login(ctx context.Context) error {
	m.mu.Lock()
	m.manualLogout = false
	m.mu.Unlock()
	if m.flow == nil {
		return fmt.Errorf("%w: no interactive flow configured", errs.ErrLoginFailed)
	}
	return m.interactiveLogin(ctx)
}

func (m *Manager) interactiveLogin(ctx context.Context) error {
	challstr, err := m.waitChallstr(ctx)
	if err != nil {
		return err
	}
	authorizeURL := fmt.Sprintf("%soauth/authorize?redirect_uri=%s&client_id=%s&challenge=%s",
		m.loginServerURL, url.QueryEscape("http://localhost"), m.clientID, url.QueryEscape(challstr))
	if err := m.flow.Open(authorizeURL); err != nil {
		return fmt.Errorf("opening authorization flow: %w", err)
	}
	for attempt := 0; attempt < m.pollRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.pollInterval):
		}
		assertion, token, done, err := m.flow.Poll()
		if err != nil {
			return fmt.Errorf("polling authorization flow: %w", err)
		}
		if !done {
			continue
		}
		if token != "" {
			if err := m.store.SetToken(token); err != nil {
				m.log.Error("failed to persist login token", "err", err)
			}
		}
		return m.sendAssertion(assertion)
	}
	return fmt.Errorf("%w: authorization flow timed out", errs.ErrLoginFailed)
}

// loginWithToken refreshes the durable token, fetches an assertion bound
// to the current challenge, and sends it. A refresh failure discards the
// stored token so the next attempt starts clean.
func (m *Manager) loginWithToken(ctx context.Context, token string) error {
	challstr, err := m.waitChallstr(ctx)
	if err != nil {
		return err
	}
	fresh, err := m.refreshToken(ctx, token)
	if err != nil {
		if clearErr := m.store.ClearToken(); clearErr != nil {
			m.log.Error("failed to clear stale token", "err", clearErr)
		}
		return err
	}
	if fresh != token {
		if err := m.store.SetToken(fresh); err != nil {
			m.log.Error("failed to persist refreshed token", "err", err)
		}
	}
	assertion, err := m.getAssertion(ctx, fresh, challstr)
	if err != nil {
		return err
	}
	return m.sendAssertion(assertion)
}

func (m *Manager) refreshToken(ctx context.Context, token string) (string, error) {
	u := fmt.Sprintf("%soauth/api/refreshtoken?token=%s&client_id=%s",
		m.loginServerURL, url.QueryEscape(token), m.clientID)
	body, err := m.post(ctx, u)
	if err != nil {
		return "", fmt.Errorf("refreshing token: %w", err)
	}
	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := parseLoginserverResponse(body, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.Token == "" {
		return "", fmt.Errorf("%w: token refresh rejected", errs.ErrLoginFailed)
	}
	return resp.Token, nil
}

func (m *Manager) getAssertion(ctx context.Context, token, challstr string) (string, error) {
	u := fmt.Sprintf("%soauth/api/getassertion?challenge=%s&token=%s&client_id=%s",
		m.loginServerURL, url.QueryEscape(challstr), url.QueryEscape(token), m.clientID)
	body, err := m.post(ctx, u)
	if err != nil {
		return "", fmt.Errorf("fetching assertion: %w", err)
	}
	var resp struct {
		Success   bool   `json:"success"`
		Assertion string `json:"assertion"`
	}
	if err := parseLoginserverResponse(body, &resp); err != nil {
		return "", err
	}
	if resp.Assertion != "" {
		return resp.Assertion, nil
	}
	// Bare-string assertions are valid too.
	trimmed := strings.TrimSpace(string(body))
	if trimmed != "" && !strings.HasPrefix(trimmed, ";") && !strings.HasPrefix(trimmed, "]") {
		return trimmed, nil
	}
	return "", fmt.Errorf("%w: no assertion in response", errs.ErrLoginFailed)
}

// LoginWithPassword runs the legacy name/password login against the
// loginserver and sends the resulting assertion.
func (m *Manager) LoginWithPassword(ctx context.Context, username, password string) error {
	challstr, err := m.waitChallstr(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.manualLogout = false
	m.mu.Unlock()

	form := url.Values{}
	form.Set("name", username)
	form.Set("pass", password)
	form.Set("challstr", challstr)
	u := m.loginServerURL + "login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("password login request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var parsed struct {
		ActionSuccess bool   `json:"actionsuccess"`
		Assertion     string `json:"assertion"`
	}
	if err := parseLoginserverResponse(body, &parsed); err != nil {
		return err
	}
	if parsed.Assertion == "" || strings.HasPrefix(parsed.Assertion, ";") {
		return fmt.Errorf("%w: wrong credentials", errs.ErrLoginFailed)
	}
	return m.sendAssertion(parsed.Assertion)
}

// sendAssertion emits the trust command. The name comes from the
// assertion itself; the stored display name is preferred when it
// normalizes to the same user, keeping its capitalization.
func (m *Manager) sendAssertion(assertion string) error {
	parts := strings.Split(assertion, ",")
	if len(parts) < 2 {
		return fmt.Errorf("%w: malformed assertion", errs.ErrLoginFailed)
	}
	name := parts[1]
	if stored := m.store.Username(); stored != "" && domain.ToID(stored) == domain.ToID(name) {
		name = stored
	}
	return m.sender.Send(fmt.Sprintf("/trn %s,0,%s", name, assertion), "")
}

// Logout sends the logout command, drops the durable token, and
// suppresses auto-login until the next explicit Login.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.manualLogout = true
	m.loggedIn = false
	m.username = ""
	m.mu.Unlock()
	if err := m.store.ClearToken(); err != nil {
		m.log.Error("failed to clear token on logout", "err", err)
	}
	return m.sender.Send("/logout", "")
}

func (m *Manager) post(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("loginserver returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// parseLoginserverResponse handles the loginserver's framing: a leading
// ';' marks a refusal, a leading ']' precedes the JSON payload.
func parseLoginserverResponse(body []byte, out any) error {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return fmt.Errorf("%w: empty loginserver response", errs.ErrLoginFailed)
	}
	if strings.HasPrefix(s, ";") {
		return fmt.Errorf("%w: %s", errs.ErrLoginFailed, strings.TrimPrefix(s, ";"))
	}
	if strings.HasPrefix(s, "]") {
		s = s[1:]
	}
	if !json.Valid([]byte(s)) {
		// Bare-string payloads (raw assertions) are the caller's problem.
		return nil
	}
	if err := json.Unmarshal([]byte(s), out); err != nil {
		return fmt.Errorf("malformed loginserver JSON: %w", err)
	}
	return nil
}
