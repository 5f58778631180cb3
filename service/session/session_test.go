package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ProjectsTask/EasySwapAgent/service/marketplace"
)

const testKey = "0000000000000000000000000000000000000000000000000000000000000001"

type fakeAuthAPI struct {
	challenge    *marketplace.Challenge
	challengeErr error
	loginToken   string
	loginErr     error
	loginCalls   int
}

func (f *fakeAuthAPI) GetChallenge(ctx context.Context, walletAddress string) (*marketplace.Challenge, error) {
	if f.challengeErr != nil {
		return nil, f.challengeErr
	}
	return f.challenge, nil
}

func (f *fakeAuthAPI) Login(ctx context.Context, challenge *marketplace.Challenge, signature string) (string, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.loginToken, nil
}

func (f *fakeAuthAPI) CookieDomain() string { return ".example.test" }

func newTestChallenge() *marketplace.Challenge {
	return &marketplace.Challenge{
		Raw:     json.RawMessage(`{"message":"sign me","hmac":"abc"}`),
		Message: "sign me",
	}
}

func TestSignerPersonalSignRecoversAddress(t *testing.T) {
	signer, err := NewSigner(testKey)
	require.NoError(t, err)

	sig, err := signer.SignMessage("sign me")
	require.NoError(t, err)

	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)
	require.Len(t, raw, 65)
	require.GreaterOrEqual(t, raw[64], byte(27))

	raw[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash([]byte("sign me")), raw)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), crypto.PubkeyToAddress(*pub).Hex())
}

func TestSignerAcceptsPrefixedKey(t *testing.T) {
	plain, err := NewSigner(testKey)
	require.NoError(t, err)
	prefixed, err := NewSigner("0x" + testKey)
	require.NoError(t, err)
	assert.Equal(t, plain.Address(), prefixed.Address())
}

func TestSignTypedDataNormalizesBigNumbers(t *testing.T) {
	signer, err := NewSigner(testKey)
	require.NoError(t, err)

	payload := json.RawMessage(`{
		"types": {
			"Order": [
				{"name": "trader", "type": "address"},
				{"name": "nonce", "type": "uint256"}
			]
		},
		"domain": {
			"name": "Exchange",
			"version": "1.0",
			"chainId": "1",
			"verifyingContract": "0x000000000000ad05ccc4f10045630fb830b95127"
		},
		"value": {
			"trader": "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf",
			"nonce": {"type": "BigNumber", "hex": "0x1f"}
		}
	}`)

	sig, err := signer.SignTypedData(payload)
	require.NoError(t, err)

	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)
	assert.Len(t, raw, 65)
}

func TestSignTypedDataRejectsEmptyValue(t *testing.T) {
	signer, err := NewSigner(testKey)
	require.NoError(t, err)

	_, err = signer.SignTypedData(json.RawMessage(`{"types":{},"domain":{},"value":{}}`))
	require.Error(t, err)
}

func TestLoginWalksStateMachine(t *testing.T) {
	signer, err := NewSigner(testKey)
	require.NoError(t, err)
	api := &fakeAuthAPI{challenge: newTestChallenge(), loginToken: "tok-123"}
	m := NewManager(api, signer)

	assert.Equal(t, StateUnauthenticated, m.State())
	require.NoError(t, m.Login(context.Background()))
	assert.Equal(t, StateAuthenticated, m.State())
	assert.True(t, m.Authenticated())

	cookies := m.AuthCookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, "authToken", cookies[0].Name)
	assert.Equal(t, "tok-123", cookies[0].Value)
	assert.Equal(t, ".example.test", cookies[0].Domain)
	assert.Equal(t, "walletAddress", cookies[1].Name)
	assert.Equal(t, signer.Address(), cookies[1].Value)
}

func TestLoginFailureRevertsToUnauthenticated(t *testing.T) {
	signer, err := NewSigner(testKey)
	require.NoError(t, err)
	api := &fakeAuthAPI{challenge: newTestChallenge(), loginErr: errors.New("rejected")}
	m := NewManager(api, signer)

	require.Error(t, m.Login(context.Background()))
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Nil(t, m.AuthCookies())
}

func TestChallengeFailureLeavesSessionUnauthenticated(t *testing.T) {
	signer, err := NewSigner(testKey)
	require.NoError(t, err)
	api := &fakeAuthAPI{challengeErr: errors.New("unreachable")}
	m := NewManager(api, signer)

	require.Error(t, m.Login(context.Background()))
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Zero(t, api.loginCalls)
}

func TestInvalidateDropsCookies(t *testing.T) {
	signer, err := NewSigner(testKey)
	require.NoError(t, err)
	api := &fakeAuthAPI{challenge: newTestChallenge(), loginToken: "tok"}
	m := NewManager(api, signer)

	require.NoError(t, m.Login(context.Background()))
	m.Invalidate()
	assert.False(t, m.Authenticated())
	assert.Nil(t, m.AuthCookies())
}
