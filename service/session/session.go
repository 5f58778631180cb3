package session

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/ProjectsTask/EasySwapAgent/logger/xzap"
	"github.com/ProjectsTask/EasySwapAgent/service/gateway"
	"github.com/ProjectsTask/EasySwapAgent/service/marketplace"
)

// State tracks the wallet session lifecycle.
type State int

const (
	StateUnauthenticated State = iota
	StateChallengeRequested
	StateSigned
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateChallengeRequested:
		return "challenge_requested"
	case StateSigned:
		return "signed"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// AuthAPI is the slice of the marketplace client the session needs.
type AuthAPI interface {
	GetChallenge(ctx context.Context, walletAddress string) (*marketplace.Challenge, error)
	Login(ctx context.Context, challenge *marketplace.Challenge, signature string) (string, error)
	CookieDomain() string
}

// Manager owns the wallet-auth session with the marketplace. Login walks
// the challenge, sign and exchange steps in order; any failure drops the
// session back to unauthenticated so the next attempt starts clean.
type Manager struct {
	api    AuthAPI
	signer *Signer

	mu          sync.RWMutex
	state       State
	accessToken string
}

func NewManager(api AuthAPI, signer *Signer) *Manager {
	return &Manager{api: api, signer: signer, state: StateUnauthenticated}
}

// Address is the session wallet address.
func (m *Manager) Address() string {
	return m.signer.Address()
}

// State reports the current session state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Authenticated reports whether the session holds a live access token.
func (m *Manager) Authenticated() bool {
	return m.State() == StateAuthenticated
}

// Login establishes a fresh session with the marketplace.
func (m *Manager) Login(ctx context.Context) error {
	m.setState(StateUnauthenticated, "")

	challenge, err := m.api.GetChallenge(ctx, m.signer.Address())
	if err != nil {
		xzap.WithContext(ctx).Error("failed on fetch login challenge",
			zap.String("wallet", m.signer.Address()), zap.Error(err))
		return err
	}
	m.setState(StateChallengeRequested, "")

	signature, err := m.signer.SignMessage(challenge.Message)
	if err != nil {
		m.setState(StateUnauthenticated, "")
		return err
	}
	m.setState(StateSigned, "")

	token, err := m.api.Login(ctx, challenge, signature)
	if err != nil {
		m.setState(StateUnauthenticated, "")
		xzap.WithContext(ctx).Error("failed on exchange signed challenge",
			zap.String("wallet", m.signer.Address()), zap.Error(err))
		return err
	}

	m.setState(StateAuthenticated, token)
	xzap.WithContext(ctx).Info("wallet session established",
		zap.String("wallet", m.signer.Address()))
	return nil
}

// Invalidate drops the session, forcing a fresh login before the next
// authenticated call.
func (m *Manager) Invalidate() {
	m.setState(StateUnauthenticated, "")
}

// AuthCookies materializes the authenticated session as request cookies.
// Returns nil when the session is not authenticated.
func (m *Manager) AuthCookies() []gateway.Cookie {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateAuthenticated {
		return nil
	}
	domain := m.api.CookieDomain()
	return []gateway.Cookie{
		{Name: "authToken", Value: m.accessToken, Domain: domain},
		{Name: "walletAddress", Value: m.signer.Address(), Domain: domain},
	}
}

// SignTypedData signs a server-provided EIP-712 order payload.
func (m *Manager) SignTypedData(raw json.RawMessage) (string, error) {
	return m.signer.SignTypedData(raw)
}

func (m *Manager) setState(s State, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	m.accessToken = token
}
