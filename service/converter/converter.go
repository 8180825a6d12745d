package converter

import (
	"context"
	"fmt"

	"creditline/core"
	"creditline/pkg/number"
	"creditline/pkg/resthttp"

	"github.com/holiman/uint256"
)

type converterClient struct {
	endpoint string
	account  string
}

// New converter client. Swaps draw on the allowance account granted the
// converter beforehand.
func New(endpoint, account string) core.Converter {
	return &converterClient{
		endpoint: endpoint,
		account:  account,
	}
}

func (c *converterClient) ID() string {
	return c.endpoint
}

type pair struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

func (c *converterClient) pair(ctx context.Context) (*pair, error) {
	url := fmt.Sprintf("%s/pair", c.endpoint)
	resp, err := resthttp.Request(ctx).Get(url)
	if err != nil {
		return nil, err
	}

	var p pair
	if err := resthttp.ParseResponse(resp, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

func (c *converterClient) SourceAsset(ctx context.Context) (string, error) {
	p, err := c.pair(ctx)
	if err != nil {
		return "", err
	}

	return p.Source, nil
}

func (c *converterClient) DestinationAsset(ctx context.Context) (string, error) {
	p, err := c.pair(ctx)
	if err != nil {
		return "", err
	}

	return p.Destination, nil
}

func (c *converterClient) ConvertExactIn(ctx context.Context, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	return c.convert(ctx, "exact_in", amountIn, minAmountOut)
}

func (c *converterClient) ConvertExactOut(ctx context.Context, amountOut, maxAmountIn *uint256.Int) (*uint256.Int, error) {
	return c.convert(ctx, "exact_out", amountOut, maxAmountIn)
}

func (c *converterClient) convert(ctx context.Context, mode string, amount, limit *uint256.Int) (*uint256.Int, error) {
	url := fmt.Sprintf("%s/conversions", c.endpoint)
	resp, err := resthttp.Request(ctx).SetBody(map[string]string{
		"mode":    mode,
		"account": c.account,
		"amount":  amount.Dec(),
		"limit":   limit.Dec(),
	}).Post(url)
	if err != nil {
		return nil, err
	}

	// realized is the output for exact_in and the input for exact_out
	var body struct {
		Realized string `json:"realized"`
	}
	if err := resthttp.ParseResponse(resp, &body); err != nil {
		return nil, err
	}

	return number.FromString(body.Realized)
}

func (c *converterClient) QuoteAmountIn(ctx context.Context, amountOut *uint256.Int) (*uint256.Int, error) {
	url := fmt.Sprintf("%s/quotes/in", c.endpoint)
	resp, err := resthttp.Request(ctx).SetQueryParam("amount_out", amountOut.Dec()).Get(url)
	if err != nil {
		return nil, err
	}

	var body struct {
		AmountIn string `json:"amount_in"`
	}
	if err := resthttp.ParseResponse(resp, &body); err != nil {
		return nil, err
	}

	return number.FromString(body.AmountIn)
}
