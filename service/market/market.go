package market

import (
	"context"
	"fmt"

	"creditline/core"
	"creditline/pkg/number"
	"creditline/pkg/resthttp"

	"github.com/holiman/uint256"
)

type marketClient struct {
	endpoint   string
	id         string
	underlying string
	account    string
	tokens     core.TokenProvider
}

// New market client. endpoint is the comptroller service base url, id the
// market, underlying the market's debt token asset id. Borrow and
// RepayBorrow act on behalf of account.
func New(endpoint, id, underlying, account string, tokens core.TokenProvider) core.Market {
	return &marketClient{
		endpoint:   endpoint,
		id:         id,
		underlying: underlying,
		account:    account,
		tokens:     tokens,
	}
}

func (m *marketClient) ID() string {
	return m.id
}

func (m *marketClient) Underlying(ctx context.Context) (core.Token, error) {
	return m.tokens.Token(ctx, m.underlying)
}

func (m *marketClient) Borrow(ctx context.Context, amount *uint256.Int) (uint64, error) {
	url := fmt.Sprintf("%s/markets/%s/borrows", m.endpoint, m.id)
	return m.postAction(ctx, url, amount)
}

func (m *marketClient) RepayBorrow(ctx context.Context, amount *uint256.Int) (uint64, error) {
	url := fmt.Sprintf("%s/markets/%s/repayments", m.endpoint, m.id)
	return m.postAction(ctx, url, amount)
}

func (m *marketClient) postAction(ctx context.Context, url string, amount *uint256.Int) (uint64, error) {
	resp, err := resthttp.Request(ctx).SetBody(map[string]string{
		"account": m.account,
		"amount":  amount.Dec(),
	}).Post(url)
	if err != nil {
		return 0, err
	}

	var body struct {
		Code uint64 `json:"code"`
	}
	if err := resthttp.ParseResponse(resp, &body); err != nil {
		return 0, err
	}

	return body.Code, nil
}

func (m *marketClient) BorrowBalanceCurrent(ctx context.Context, account string) (*uint256.Int, error) {
	url := fmt.Sprintf("%s/markets/%s/borrow-balances/%s", m.endpoint, m.id, account)
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

func (m *marketClient) AccountSnapshot(ctx context.Context, account string) (*core.AccountSnapshot, error) {
	url := fmt.Sprintf("%s/markets/%s/snapshots/%s", m.endpoint, m.id, account)
	resp, err := resthttp.Request(ctx).Get(url)
	if err != nil {
		return nil, err
	}

	var body struct {
		TokenBalance  string `json:"token_balance"`
		BorrowBalance string `json:"borrow_balance"`
		ExchangeRate  string `json:"exchange_rate"`
	}
	if err := resthttp.ParseResponse(resp, &body); err != nil {
		return nil, err
	}

	tokenBalance, err := number.FromString(body.TokenBalance)
	if err != nil {
		return nil, err
	}

	borrowBalance, err := number.FromString(body.BorrowBalance)
	if err != nil {
		return nil, err
	}

	exchangeRate, err := number.FromString(body.ExchangeRate)
	if err != nil {
		return nil, err
	}

	return &core.AccountSnapshot{
		TokenBalance:  tokenBalance,
		BorrowBalance: borrowBalance,
		ExchangeRate:  exchangeRate,
	}, nil
}
