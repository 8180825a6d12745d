package comptroller

import (
	"context"
	"fmt"

	"creditline/core"
	"creditline/pkg/number"
	"creditline/pkg/resthttp"
	"creditline/service/market"

	"github.com/holiman/uint256"
)

type comptrollerClient struct {
	endpoint string
	account  string
	tokens   core.TokenProvider
}

// New comptroller client. account is the agreement account market clients
// are bound to.
func New(endpoint, account string, tokens core.TokenProvider) core.Comptroller {
	return &comptrollerClient{
		endpoint: endpoint,
		account:  account,
		tokens:   tokens,
	}
}

type marketView struct {
	ID         string `json:"id"`
	Underlying string `json:"underlying"`
}

func (c *comptrollerClient) Oracle(ctx context.Context) (core.PriceOracle, error) {
	return &oracleClient{endpoint: c.endpoint}, nil
}

func (c *comptrollerClient) MarketsEnteredBy(ctx context.Context, account string) ([]core.Market, error) {
	url := fmt.Sprintf("%s/accounts/%s/markets", c.endpoint, account)
	resp, err := resthttp.Request(ctx).Get(url)
	if err != nil {
		return nil, err
	}

	var views []marketView
	if err := resthttp.ParseResponse(resp, &views); err != nil {
		return nil, err
	}

	markets := make([]core.Market, 0, len(views))
	for _, v := range views {
		markets = append(markets, market.New(c.endpoint, v.ID, v.Underlying, c.account, c.tokens))
	}

	return markets, nil
}

func (c *comptrollerClient) Market(ctx context.Context, id string) (core.Market, error) {
	url := fmt.Sprintf("%s/markets/%s", c.endpoint, id)
	resp, err := resthttp.Request(ctx).Get(url)
	if err != nil {
		return nil, err
	}

	var v marketView
	if err := resthttp.ParseResponse(resp, &v); err != nil {
		return nil, err
	}

	return market.New(c.endpoint, v.ID, v.Underlying, c.account, c.tokens), nil
}

type oracleClient struct {
	endpoint string
}

func (o *oracleClient) UnderlyingPrice(ctx context.Context, m core.Market) (*uint256.Int, error) {
	url := fmt.Sprintf("%s/oracle/prices/%s", o.endpoint, m.ID())
	resp, err := resthttp.Request(ctx).Get(url)
	if err != nil {
		return nil, err
	}

	var body struct {
		Price string `json:"price"`
	}
	if err := resthttp.ParseResponse(resp, &body); err != nil {
		return nil, err
	}

	return number.FromString(body.Price)
}
