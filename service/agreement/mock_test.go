package agreement

import (
	"context"
	"errors"
	"fmt"

	"creditline/core"
	"creditline/pkg/number"

	"github.com/holiman/uint256"
)

const (
	testBorrower = "borrower-1"
	testExecutor = "executor-1"
	testGovernor = "governor-1"
	testAccount  = "agreement-1"
)

func e18(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1e18))
}

// ---- token ----

type mockToken struct {
	asset     string
	decimals  uint8
	balances  map[string]*uint256.Int
	approvals map[string]*uint256.Int // spender -> amount
	failNext  error
}

func newMockToken(asset string, decimals uint8) *mockToken {
	return &mockToken{
		asset:     asset,
		decimals:  decimals,
		balances:  make(map[string]*uint256.Int),
		approvals: make(map[string]*uint256.Int),
	}
}

func (t *mockToken) balance(account string) *uint256.Int {
	if b, ok := t.balances[account]; ok {
		return b
	}

	return uint256.NewInt(0)
}

func (t *mockToken) AssetID() string { return t.asset }

func (t *mockToken) Decimals(ctx context.Context) (uint8, error) { return t.decimals, nil }

func (t *mockToken) BalanceOf(ctx context.Context, account string) (*uint256.Int, error) {
	return new(uint256.Int).Set(t.balance(account)), nil
}

func (t *mockToken) Transfer(ctx context.Context, from, to string, amount *uint256.Int) error {
	if t.failNext != nil {
		err := t.failNext
		t.failNext = nil
		return err
	}

	have := t.balance(from)
	if amount.Gt(have) {
		return fmt.Errorf("token %s: %s has %s, wants %s", t.asset, from, have.Dec(), amount.Dec())
	}

	t.balances[from] = new(uint256.Int).Sub(have, amount)
	t.balances[to] = new(uint256.Int).Add(t.balance(to), amount)
	return nil
}

func (t *mockToken) Approve(ctx context.Context, owner, spender string, amount *uint256.Int) error {
	t.approvals[spender] = new(uint256.Int).Set(amount)
	return nil
}

type mockTokens struct {
	tokens map[string]*mockToken
}

func (p *mockTokens) Token(ctx context.Context, assetID string) (core.Token, error) {
	if t, ok := p.tokens[assetID]; ok {
		return t, nil
	}

	return nil, errors.New("unknown token")
}

// ---- market ----

type mockMarket struct {
	id         string
	underlying *mockToken
	creditTo   string

	borrowBalance *uint256.Int
	borrowCode    uint64
	repayCode     uint64
	borrowErr     error
}

func newMockMarket(id string, underlying *mockToken, creditTo string) *mockMarket {
	return &mockMarket{
		id:            id,
		underlying:    underlying,
		creditTo:      creditTo,
		borrowBalance: uint256.NewInt(0),
	}
}

func (m *mockMarket) ID() string { return m.id }

func (m *mockMarket) Underlying(ctx context.Context) (core.Token, error) {
	return m.underlying, nil
}

func (m *mockMarket) Borrow(ctx context.Context, amount *uint256.Int) (uint64, error) {
	if m.borrowErr != nil {
		return 0, m.borrowErr
	}

	if m.borrowCode != 0 {
		return m.borrowCode, nil
	}

	m.borrowBalance = new(uint256.Int).Add(m.borrowBalance, amount)
	m.underlying.balances[m.creditTo] = new(uint256.Int).Add(m.underlying.balance(m.creditTo), amount)
	return 0, nil
}

func (m *mockMarket) RepayBorrow(ctx context.Context, amount *uint256.Int) (uint64, error) {
	if m.repayCode != 0 {
		return m.repayCode, nil
	}

	if amount.Gt(m.borrowBalance) {
		m.borrowBalance = uint256.NewInt(0)
	} else {
		m.borrowBalance = new(uint256.Int).Sub(m.borrowBalance, amount)
	}
	return 0, nil
}

func (m *mockMarket) BorrowBalanceCurrent(ctx context.Context, account string) (*uint256.Int, error) {
	return new(uint256.Int).Set(m.borrowBalance), nil
}

func (m *mockMarket) AccountSnapshot(ctx context.Context, account string) (*core.AccountSnapshot, error) {
	return &core.AccountSnapshot{
		TokenBalance:  uint256.NewInt(0),
		BorrowBalance: new(uint256.Int).Set(m.borrowBalance),
		ExchangeRate:  e18(1),
	}, nil
}

// ---- comptroller / oracle ----

type mockOracle struct {
	prices map[string]*uint256.Int
}

func (o *mockOracle) UnderlyingPrice(ctx context.Context, market core.Market) (*uint256.Int, error) {
	price, ok := o.prices[market.ID()]
	if !ok {
		return nil, errors.New("no price")
	}

	return new(uint256.Int).Set(price), nil
}

type mockComptroller struct {
	markets []*mockMarket
	oracle  *mockOracle
}

func (c *mockComptroller) Oracle(ctx context.Context) (core.PriceOracle, error) {
	return c.oracle, nil
}

func (c *mockComptroller) MarketsEnteredBy(ctx context.Context, account string) ([]core.Market, error) {
	markets := make([]core.Market, 0, len(c.markets))
	for _, m := range c.markets {
		markets = append(markets, m)
	}
	return markets, nil
}

func (c *mockComptroller) Market(ctx context.Context, id string) (core.Market, error) {
	for _, m := range c.markets {
		if m.id == id {
			return m, nil
		}
	}
	return nil, errors.New("no such market")
}

// ---- price feed ----

type mockFeed struct {
	id    string
	asset string
	price *uint256.Int
}

func (f *mockFeed) ID() string { return f.id }

func (f *mockFeed) QuotedAsset(ctx context.Context) (string, error) { return f.asset, nil }

func (f *mockFeed) Price(ctx context.Context) (*uint256.Int, error) {
	return new(uint256.Int).Set(f.price), nil
}

// ---- converter ----

type mockConverter struct {
	id     string
	source string
	dest   string
	// rate is wad destination-per-source
	rate *uint256.Int

	collateral *mockToken
	account    string

	// onConvert lets a test make the converter call back into the
	// agreement mid-swap
	onConvert func()
}

func (c *mockConverter) ID() string { return c.id }

func (c *mockConverter) SourceAsset(ctx context.Context) (string, error) { return c.source, nil }

func (c *mockConverter) DestinationAsset(ctx context.Context) (string, error) { return c.dest, nil }

func (c *mockConverter) ConvertExactIn(ctx context.Context, amountIn, minAmountOut *uint256.Int) (*uint256.Int, error) {
	if c.onConvert != nil {
		c.onConvert()
	}

	out, err := number.MulWad(amountIn, c.rate)
	if err != nil {
		return nil, err
	}

	if out.Lt(minAmountOut) {
		return nil, errors.New("slippage: output below minimum")
	}

	return out, c.consume(ctx, amountIn)
}

func (c *mockConverter) ConvertExactOut(ctx context.Context, amountOut, maxAmountIn *uint256.Int) (*uint256.Int, error) {
	if c.onConvert != nil {
		c.onConvert()
	}

	in, err := number.DivWad(amountOut, c.rate)
	if err != nil {
		return nil, err
	}

	if in.Gt(maxAmountIn) {
		return nil, errors.New("slippage: input above maximum")
	}

	return in, c.consume(ctx, in)
}

func (c *mockConverter) QuoteAmountIn(ctx context.Context, amountOut *uint256.Int) (*uint256.Int, error) {
	return number.DivWad(amountOut, c.rate)
}

func (c *mockConverter) consume(ctx context.Context, amountIn *uint256.Int) error {
	if c.collateral == nil {
		return nil
	}

	return c.collateral.Transfer(ctx, c.account, c.id, amountIn)
}

// ---- events ----

type mockEvents struct {
	events []*core.Event
}

func (s *mockEvents) Create(ctx context.Context, event *core.Event) error {
	s.events = append(s.events, event)
	return nil
}

func (s *mockEvents) List(ctx context.Context, limit int) ([]*core.Event, error) {
	return s.events, nil
}

func (s *mockEvents) ListByType(ctx context.Context, typ core.EventType, limit int) ([]*core.Event, error) {
	var out []*core.Event
	for _, e := range s.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *mockEvents) byType(typ core.EventType) []*core.Event {
	out, _ := s.ListByType(context.Background(), typ, 0)
	return out
}

// ---- fixture ----

type fixture struct {
	svc         core.IAgreementService
	collateral  *mockToken
	usdx        *mockToken
	market      *mockMarket
	comptroller *mockComptroller
	oracle      *mockOracle
	feed        *mockFeed
	events      *mockEvents
	tokens      *mockTokens
}

// newFixture a 1000 USD position: 1000e18 base units of an 18-decimal
// collateral at 1 USD, one entered market with an 18-decimal underlying at
// 1 USD, factors 0.8 / 0.9 / 0.5.
func newFixture(t interface{ Fatal(args ...interface{}) }) *fixture {
	collateral := newMockToken("coll", 18)
	collateral.balances[testAccount] = e18(1000)

	usdx := newMockToken("usdx", 18)
	market := newMockMarket("m1", usdx, testAccount)

	oracle := &mockOracle{prices: map[string]*uint256.Int{"m1": e18(1)}}
	comptroller := &mockComptroller{markets: []*mockMarket{market}, oracle: oracle}
	feed := &mockFeed{id: "feed-1", asset: "coll", price: e18(1)}
	events := &mockEvents{}
	tokens := &mockTokens{tokens: map[string]*mockToken{"coll": collateral, "usdx": usdx}}

	agreement := &core.Agreement{
		Borrower:          testBorrower,
		Executor:          testExecutor,
		Governor:          testGovernor,
		Account:           testAccount,
		CollateralFactor:  uint256.NewInt(8e17),
		LiquidationFactor: uint256.NewInt(9e17),
		CloseFactor:       uint256.NewInt(5e17),
	}

	svc, err := New(context.Background(), agreement, comptroller, collateral, tokens, feed, events)
	if err != nil {
		t.Fatal(err)
	}

	return &fixture{
		svc:         svc,
		collateral:  collateral,
		usdx:        usdx,
		market:      market,
		comptroller: comptroller,
		oracle:      oracle,
		feed:        feed,
		events:      events,
		tokens:      tokens,
	}
}

// bindConverter bind a 1:1 converter for m1 and return it
func (f *fixture) bindConverter(rate *uint256.Int) *mockConverter {
	conv := &mockConverter{
		id:         "conv-1",
		source:     "coll",
		dest:       "usdx",
		rate:       rate,
		collateral: f.collateral,
		account:    testAccount,
	}

	if err := f.svc.SetConverter(context.Background(), testExecutor, []string{"m1"}, []core.Converter{conv}); err != nil {
		panic(err)
	}

	return conv
}
