package number

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/holiman/uint256"
)

func TestNormalizedValue(t *testing.T) {
	// balance at the token's own decimals, price and value 18-decimal USD
	data := []struct {
		balance  string
		decimals uint8
		price    string
		value    string
	}{
		// 1.0 token of 6 decimals at 2 USD -> 2 USD
		{"1000000", 6, "2000000000000000000", "2000000000000000000"},
		// 18 decimal token, 1:1 price
		{"5000000000000000000", 18, "1000000000000000000", "5000000000000000000"},
		// truncating division: 1 base unit of 18 decimals at 1.5 USD
		{"1", 18, "1500000000000000000", "1"},
		{"0", 6, "2000000000000000000", "0"},
	}

	for _, row := range data {
		balance, _ := FromString(row.balance)
		price, _ := FromString(row.price)

		v, err := NormalizedValue(balance, row.decimals, price)
		assert.Equal(t, nil, err)
		assert.Equal(t, row.value, v.Dec())
	}
}

func TestNormalizeRejectsWideDecimals(t *testing.T) {
	_, err := Normalize(uint256.NewInt(1), 19)
	assert.Equal(t, ErrDecimalsTooLarge, err)
}

func TestMulDivTruncates(t *testing.T) {
	// 10 * 0.333... wad truncates, never rounds
	out, err := MulWad(uint256.NewInt(10), uint256.NewInt(333333333333333333))
	assert.Equal(t, nil, err)
	assert.Equal(t, "3", out.Dec())
}

func TestDivWadByZero(t *testing.T) {
	_, err := DivWad(uint256.NewInt(1), uint256.NewInt(0))
	assert.Equal(t, ErrDivisionByZero, err)
}

func TestMulWadOverflow(t *testing.T) {
	max := new(uint256.Int).Not(uint256.NewInt(0))
	_, err := MulWad(max, uint256.NewInt(2e18))
	assert.Equal(t, ErrOverflow, err)
}

func TestWadFromString(t *testing.T) {
	data := map[string]string{
		"0.8":  "800000000000000000",
		"1":    "1000000000000000000",
		"0.05": "50000000000000000",
	}

	for k, v := range data {
		w, err := WadFromString(k)
		assert.Equal(t, nil, err)
		assert.Equal(t, v, w.Dec())
	}

	if _, err := WadFromString("-1"); err == nil {
		t.Error("negative amount accepted")
	}

	// finer than 1e-18 cannot be represented
	if _, err := WadFromString("0.0000000000000000001"); err == nil {
		t.Error("sub-wei amount accepted")
	}
}

func TestToDecimal(t *testing.T) {
	x, _ := FromString("1500000")
	assert.Equal(t, "1.5", ToDecimal(x, 6).String())
}
