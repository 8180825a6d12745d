package feed

import (
	"context"
	"fmt"

	"creditline/core"
	"creditline/pkg/number"
	"creditline/pkg/resthttp"

	"github.com/holiman/uint256"
)

type feedClient struct {
	endpoint string
}

// New price feed client. The feed's identity is its endpoint.
func New(endpoint string) core.PriceFeed {
	return &feedClient{endpoint: endpoint}
}

func (f *feedClient) ID() string {
	return f.endpoint
}

type quote struct {
	AssetID string `json:"asset_id"`
	Price   string `json:"price"`
}

func (f *feedClient) quote(ctx context.Context) (*quote, error) {
	url := fmt.Sprintf("%s/quote", f.endpoint)
	resp, err := resthttp.Request(ctx).Get(url)
	if err != nil {
		return nil, err
	}

	var q quote
	if err := resthttp.ParseResponse(resp, &q); err != nil {
		return nil, err
	}

	return &q, nil
}

func (f *feedClient) QuotedAsset(ctx context.Context) (string, error) {
	q, err := f.quote(ctx)
	if err != nil {
		return "", err
	}

	return q.AssetID, nil
}

func (f *feedClient) Price(ctx context.Context) (*uint256.Int, error) {
	q, err := f.quote(ctx)
	if err != nil {
		return nil, err
	}

	return number.FromString(q.Price)
}
