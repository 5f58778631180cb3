package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/ProjectsTask/EasySwapAgent/service/gateway"
)

// Config points the client at one marketplace deployment.
type Config struct {
	BaseURL      string `toml:"base_url" mapstructure:"base_url" json:"base_url" validate:"required,url"`
	CookieDomain string `toml:"cookie_domain" mapstructure:"cookie_domain" json:"cookie_domain"`
	UseProxy     bool   `toml:"use_proxy" mapstructure:"use_proxy" json:"use_proxy"`
}

// Submitter is the slice of the request gateway the client needs.
type Submitter interface {
	Submit(ctx context.Context, task gateway.Task) (json.RawMessage, error)
}

// Client wraps the marketplace's JSON endpoints over the gateway. It
// owns URL construction and response decoding; authentication cookies
// are supplied per call by the session manager.
type Client struct {
	gw  Submitter
	cfg Config
}

func NewClient(gw Submitter, cfg Config) *Client {
	return &Client{gw: gw, cfg: cfg}
}

// CookieDomain is the domain auth cookies must be scoped to.
func (c *Client) CookieDomain() string {
	return c.cfg.CookieDomain
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, cookies []gateway.Cookie) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed on marshal request payload")
	}
	return c.gw.Submit(ctx, gateway.Task{
		Method:   http.MethodPost,
		URL:      c.cfg.BaseURL + path,
		Body:     body,
		UseProxy: c.cfg.UseProxy,
		Cookies:  cookies,
	})
}

func (c *Client) get(ctx context.Context, path string, cookies []gateway.Cookie) (json.RawMessage, error) {
	return c.gw.Submit(ctx, gateway.Task{
		Method:   http.MethodGet,
		URL:      c.cfg.BaseURL + path,
		UseProxy: c.cfg.UseProxy,
		Cookies:  cookies,
	})
}

// GetChallenge requests a login challenge for the wallet address.
func (c *Client) GetChallenge(ctx context.Context, walletAddress string) (*Challenge, error) {
	raw, err := c.post(ctx, "/auth/challenge", map[string]string{"walletAddress": walletAddress}, nil)
	if err != nil {
		return nil, err
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, gateway.NewMalformed("failed on decode challenge: %v", err)
	}
	if body.Message == "" {
		return nil, gateway.NewMalformed("challenge message missing in response")
	}
	return &Challenge{Raw: raw, Message: body.Message}, nil
}

// Login submits the signed challenge and returns the access token.
func (c *Client) Login(ctx context.Context, challenge *Challenge, signature string) (string, error) {
	// Echo every challenge field back with the signature attached.
	var payload map[string]interface{}
	if err := json.Unmarshal(challenge.Raw, &payload); err != nil {
		return "", gateway.NewMalformed("failed on decode challenge for login: %v", err)
	}
	payload["signature"] = signature

	raw, err := c.post(ctx, "/auth/login", payload, nil)
	if err != nil {
		return "", err
	}

	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", gateway.NewMalformed("failed on decode login response: %v", err)
	}
	if body.AccessToken == "" {
		return "", gateway.NewAuth("accessToken not found in response %s", gateway.Truncate(string(raw), 200))
	}
	return body.AccessToken, nil
}

// FormatBidRequest asks the server to compute a signable collection bid.
type FormatBidRequest struct {
	ContractAddress string
	PriceAmount     string
	Quantity        int
	ExpirationTime  string
}

// FormatBid round-trips the bid details for a signable EIP-712 payload.
func (c *Client) FormatBid(ctx context.Context, cookies []gateway.Cookie, req FormatBidRequest) (*FormatBidResponse, error) {
	payload := map[string]interface{}{
		"price": map[string]string{
			"amount": req.PriceAmount,
			"unit":   "BETH",
		},
		"quantity":        req.Quantity,
		"expirationTime":  req.ExpirationTime,
		"contractAddress": req.ContractAddress,
		"criteria": map[string]interface{}{
			"type":  "COLLECTION",
			"value": map[string]interface{}{},
		},
	}

	raw, err := c.post(ctx, "/v1/collection-bids/format", payload, cookies)
	if err != nil {
		return nil, err
	}

	var body FormatBidResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, gateway.NewMalformed("failed on decode format bid response: %v", err)
	}
	return &body, nil
}

// SubmitBid activates a previously formatted and signed bid.
func (c *Client) SubmitBid(ctx context.Context, cookies []gateway.Cookie, signature, marketplaceData string) (*SubmitResult, error) {
	payload := map[string]string{
		"signature":       signature,
		"marketplaceData": marketplaceData,
	}

	raw, err := c.post(ctx, "/v1/collection-bids/submit", payload, cookies)
	if err != nil {
		return nil, err
	}

	var body SubmitResult
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, gateway.NewMalformed("failed on decode submit bid response: %v", err)
	}
	return &body, nil
}

// CancelBid withdraws the wallet's collection bid at one price point.
func (c *Client) CancelBid(ctx context.Context, cookies []gateway.Cookie, contractAddress, price string) (*SubmitResult, error) {
	payload := map[string]interface{}{
		"contractAddress": contractAddress,
		"criteriaPrices": []map[string]interface{}{
			{
				"criteria": map[string]interface{}{
					"type":  "COLLECTION",
					"value": map[string]interface{}{},
				},
				"price": price,
			},
		},
	}

	raw, err := c.post(ctx, "/v1/collection-bids/cancel", payload, cookies)
	if err != nil {
		return nil, err
	}

	var body SubmitResult
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, gateway.NewMalformed("failed on decode cancel bid response: %v", err)
	}
	return &body, nil
}

// GetMyPriceLevels fetches the wallet's open bid levels across
// collections via the authenticated open-bids endpoint.
func (c *Client) GetMyPriceLevels(ctx context.Context, cookies []gateway.Cookie, walletAddress string) ([]PriceLevel, error) {
	raw, err := c.get(ctx, fmt.Sprintf("/v1/collection-bids/user/%s", walletAddress), cookies)
	if err != nil {
		return nil, err
	}

	var body struct {
		Success     bool         `json:"success"`
		PriceLevels []PriceLevel `json:"priceLevels"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, gateway.NewMalformed("failed on decode open bids response: %v", err)
	}
	if !body.Success {
		return nil, gateway.NewMalformed("unexpected open bids response format")
	}
	return body.PriceLevels, nil
}

// GetExecutableBids fetches the public collection-level bid book.
func (c *Client) GetExecutableBids(ctx context.Context, contractAddress string) ([]BidLevel, error) {
	filters := url.QueryEscape(`{"criteria":{"type":"COLLECTION","value":{}}}`)
	raw, err := c.get(ctx, fmt.Sprintf("/v1/collections/%s/executable-bids?filters=%s", contractAddress, filters), nil)
	if err != nil {
		return nil, err
	}

	var body struct {
		Success     bool       `json:"success"`
		PriceLevels []BidLevel `json:"priceLevels"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, gateway.NewMalformed("failed on decode executable bids response: %v", err)
	}
	if !body.Success {
		return nil, gateway.NewMalformed("unexpected executable bids response format")
	}

	// Only collection-wide bids participate in the level snapshot.
	levels := make([]BidLevel, 0, len(body.PriceLevels))
	for _, level := range body.PriceLevels {
		if level.CriteriaType == "COLLECTION" {
			levels = append(levels, level)
		}
	}
	return levels, nil
}

// GetTokens fetches the collection's listed tokens, cheapest first.
func (c *Client) GetTokens(ctx context.Context, contractAddress string) ([]Token, error) {
	filters := url.QueryEscape(`{"traits":[],"hasAsks":true}`)
	raw, err := c.get(ctx, fmt.Sprintf("/v1/collections/%s/tokens?filters=%s", contractAddress, filters), nil)
	if err != nil {
		return nil, err
	}

	var body struct {
		Success bool    `json:"success"`
		Tokens  []Token `json:"tokens"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, gateway.NewMalformed("failed on decode tokens response: %v", err)
	}
	if !body.Success || len(body.Tokens) == 0 {
		return nil, gateway.NewMalformed("failed on fetch floor data for collection %s", contractAddress)
	}
	return body.Tokens, nil
}

// GetTopCollections fetches the top collections ranked by one-day
// volume.
func (c *Client) GetTopCollections(ctx context.Context, count int) ([]Collection, error) {
	filters := url.QueryEscape(`{"sort":"VOLUME_ONE_DAY","order":"DESC"}`)
	raw, err := c.get(ctx, fmt.Sprintf("/v1/collections/?count=%d&filters=%s", count, filters), nil)
	if err != nil {
		return nil, err
	}

	var body struct {
		Success     bool         `json:"success"`
		Collections []Collection `json:"collections"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, gateway.NewMalformed("failed on decode collections response: %v", err)
	}
	if !body.Success {
		return nil, gateway.NewMalformed("unexpected collections response format")
	}
	return body.Collections, nil
}

// GetActivityEvents fetches recent trade and transfer activity for a
// collection.
func (c *Client) GetActivityEvents(ctx context.Context, contractAddress string, count int) ([]Event, error) {
	filters := url.QueryEscape(fmt.Sprintf(`{"count":%d,"contractAddress":"%s"}`, count, contractAddress))
	raw, err := c.get(ctx, fmt.Sprintf("/v1/activity/event-filter?filters=%s", filters), nil)
	if err != nil {
		return nil, err
	}

	var body struct {
		Success       bool    `json:"success"`
		ActivityItems []Event `json:"activityItems"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, gateway.NewMalformed("failed on decode activity response: %v", err)
	}
	if !body.Success {
		return nil, gateway.NewMalformed("unexpected activity response format")
	}
	return body.ActivityItems, nil
}
