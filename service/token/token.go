package token

import (
	"context"
	"fmt"

	"creditline/core"
	"creditline/pkg/number"
	"creditline/pkg/resthttp"

	"github.com/holiman/uint256"
)

type tokenClient struct {
	endpoint string
	assetID  string
}

// New token client against the custody service at endpoint
func New(endpoint, assetID string) core.Token {
	return &tokenClient{
		endpoint: endpoint,
		assetID:  assetID,
	}
}

type provider struct {
	endpoint string
}

// NewProvider token provider against the custody service at endpoint
func NewProvider(endpoint string) core.TokenProvider {
	return &provider{endpoint: endpoint}
}

func (p *provider) Token(ctx context.Context, assetID string) (core.Token, error) {
	t := New(p.endpoint, assetID)
	// probe the asset so an unknown id fails here, not mid-transfer
	if _, err := t.Decimals(ctx); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *tokenClient) AssetID() string {
	return t.assetID
}

func (t *tokenClient) Decimals(ctx context.Context) (uint8, error) {
	url := fmt.Sprintf("%s/tokens/%s", t.endpoint, t.assetID)
	resp, err := resthttp.Request(ctx).Get(url)
	if err != nil {
		return 0, err
	}

	var body struct {
		AssetID  string `json:"asset_id"`
		Decimals uint8  `json:"decimals"`
	}
	if err := resthttp.ParseResponse(resp, &body); err != nil {
		return 0, err
	}

	return body.Decimals, nil
}

func (t *tokenClient) BalanceOf(ctx context.Context, account string) (*uint256.Int, error) {
	url := fmt.Sprintf("%s/tokens/%s/balances/%s", t.endpoint, t.assetID, account)
	resp, err := resthttp.Request(ctx).Get(url)
	if err != nil {
		return nil, err
	}

	var body struct {
		Balance string `json:"balance"`
	}
	if err := resthttp.ParseResponse(resp, &body); err != nil {
		return nil, err
	}

	return number.FromString(body.Balance)
}

func (t *tokenClient) Transfer(ctx context.Context, from, to string, amount *uint256.Int) error {
	url := fmt.Sprintf("%s/tokens/%s/transfers", t.endpoint, t.assetID)
	resp, err := resthttp.Request(ctx).SetBody(map[string]string{
		"from":   from,
		"to":     to,
		"amount": amount.Dec(),
	}).Post(url)
	if err != nil {
		return err
	}

	return resthttp.ParseResponse(resp, nil)
}

func (t *tokenClient) Approve(ctx context.Context, owner, spender string, amount *uint256.Int) error {
	url := fmt.Sprintf("%s/tokens/%s/approvals", t.endpoint, t.assetID)
	resp, err := resthttp.Request(ctx).SetBody(map[string]string{
		"owner":   owner,
		"spender": spender,
		"amount":  amount.Dec(),
	}).Post(url)
	if err != nil {
		return err
	}

	return resthttp.ParseResponse(resp, nil)
}
