package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ProjectsTask/EasySwapAgent/service/gateway"
)

type fakeSubmitter struct {
	payload json.RawMessage
	err     error
	last    gateway.Task
}

func (f *fakeSubmitter) Submit(ctx context.Context, task gateway.Task) (json.RawMessage, error) {
	f.last = task
	return f.payload, f.err
}

func testClient(payload string) (*Client, *fakeSubmitter) {
	gw := &fakeSubmitter{payload: json.RawMessage(payload)}
	return NewClient(gw, Config{BaseURL: "https://api.test", CookieDomain: ".test"}), gw
}

func TestGetChallengeKeepsRawPayload(t *testing.T) {
	c, gw := testClient(`{"message":"sign me","hmac":"abc","expiresOn":"2026-01-01"}`)

	challenge, err := c.GetChallenge(context.Background(), "0xWallet")
	require.NoError(t, err)
	assert.Equal(t, "sign me", challenge.Message)
	// Raw keeps every server field for the login echo.
	assert.Contains(t, string(challenge.Raw), "hmac")
	assert.Equal(t, http.MethodPost, gw.last.Method)
	assert.Equal(t, "https://api.test/auth/challenge", gw.last.URL)
}

func TestLoginEchoesChallengeWithSignature(t *testing.T) {
	c, gw := testClient(`{"accessToken":"tok-1"}`)
	challenge := &Challenge{
		Raw:     json.RawMessage(`{"message":"sign me","hmac":"abc"}`),
		Message: "sign me",
	}

	token, err := c.Login(context.Background(), challenge, "0xsig")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(gw.last.Body, &sent))
	assert.Equal(t, "abc", sent["hmac"])
	assert.Equal(t, "0xsig", sent["signature"])
}

func TestLoginWithoutTokenIsAuthError(t *testing.T) {
	c, _ := testClient(`{"message":"wrong signature"}`)
	challenge := &Challenge{Raw: json.RawMessage(`{"message":"m"}`), Message: "m"}

	_, err := c.Login(context.Background(), challenge, "0xsig")
	require.Error(t, err)
	assert.Equal(t, gateway.KindAuth, gateway.KindOf(err))
}

func TestGetExecutableBidsFiltersCriteria(t *testing.T) {
	c, _ := testClient(`{
		"success": true,
		"priceLevels": [
			{"criteriaType": "COLLECTION", "price": "0.9", "executableSize": 3},
			{"criteriaType": "TRAIT", "price": "1.2", "executableSize": 1}
		]
	}`)

	levels, err := c.GetExecutableBids(context.Background(), "0xContract")
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, "COLLECTION", levels[0].CriteriaType)
}

func TestGetTokensRequiresData(t *testing.T) {
	c, _ := testClient(`{"success": true, "tokens": []}`)

	_, err := c.GetTokens(context.Background(), "0xContract")
	require.Error(t, err)
	assert.Equal(t, gateway.KindMalformed, gateway.KindOf(err))
}

func TestCancelBidPayloadShape(t *testing.T) {
	c, gw := testClient(`{"success": true}`)

	res, err := c.CancelBid(context.Background(), nil, "0xContract", "0.4")
	require.NoError(t, err)
	assert.True(t, res.Success)

	var sent struct {
		ContractAddress string `json:"contractAddress"`
		CriteriaPrices  []struct {
			Price    string `json:"price"`
			Criteria struct {
				Type string `json:"type"`
			} `json:"criteria"`
		} `json:"criteriaPrices"`
	}
	require.NoError(t, json.Unmarshal(gw.last.Body, &sent))
	assert.Equal(t, "0xContract", sent.ContractAddress)
	require.Len(t, sent.CriteriaPrices, 1)
	assert.Equal(t, "0.4", sent.CriteriaPrices[0].Price)
	assert.Equal(t, "COLLECTION", sent.CriteriaPrices[0].Criteria.Type)
}
