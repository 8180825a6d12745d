package core

import "fmt"

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unknown
	ErrUnknown ErrorCode = 100000

	// ErrOperationForbidden caller is not the required principal
	ErrOperationForbidden ErrorCode = 100101

	// ErrPriceFeedMismatch price feed does not quote the collateral token
	ErrPriceFeedMismatch ErrorCode = 100201
	// ErrConverterMismatch converter source/destination does not match
	ErrConverterMismatch ErrorCode = 100202
	// ErrConverterInvalid empty or null converter
	ErrConverterInvalid ErrorCode = 100203
	// ErrBatchMismatch markets/converters arrays differ in length
	ErrBatchMismatch ErrorCode = 100204
	// ErrMarketNotFound no such market
	ErrMarketNotFound ErrorCode = 100205

	// ErrUndercollateralized debt would exceed the borrow capacity
	ErrUndercollateralized ErrorCode = 100301

	// ErrNotLiquidatable debt does not exceed the liquidation threshold
	ErrNotLiquidatable ErrorCode = 100401
	// ErrLiquidationTooLarge collateral consumed exceeds the close factor bound
	ErrLiquidationTooLarge ErrorCode = 100402
	// ErrConverterUnset no converter bound for the target market
	ErrConverterUnset ErrorCode = 100403

	// ErrMarketBorrowFailed market signaled a nonzero borrow result code
	ErrMarketBorrowFailed ErrorCode = 100501
	// ErrMarketRepayFailed market signaled a nonzero repay result code
	ErrMarketRepayFailed ErrorCode = 100502
	// ErrExternalCall a collaborator call failed in transport
	ErrExternalCall ErrorCode = 100503

	// ErrReentrant a mutating entry point is already executing
	ErrReentrant ErrorCode = 100601

	// ErrCollateralSeizeForbidden seize targeted the collateral token
	ErrCollateralSeizeForbidden ErrorCode = 100701
	// ErrInsufficientCollateral withdraw exceeds the collateral held
	ErrInsufficientCollateral ErrorCode = 100702
	// ErrInvalidAmount invalid amount
	ErrInvalidAmount ErrorCode = 100703
	// ErrPaused operation blocked by the circuit breaker
	ErrPaused ErrorCode = 100704

	// ErrDecimalOverflow fixed point arithmetic overflowed 256 bits
	ErrDecimalOverflow ErrorCode = 100801
)

var errorNames = map[ErrorCode]string{
	ErrUnknown:                  "unknown",
	ErrOperationForbidden:       "operation forbidden",
	ErrPriceFeedMismatch:        "price feed mismatch",
	ErrConverterMismatch:        "converter mismatch",
	ErrConverterInvalid:         "invalid converter",
	ErrBatchMismatch:            "mismatched batch",
	ErrMarketNotFound:           "market not found",
	ErrUndercollateralized:      "undercollateralized",
	ErrNotLiquidatable:          "not liquidatable",
	ErrLiquidationTooLarge:      "liquidation too large",
	ErrConverterUnset:           "converter unset",
	ErrMarketBorrowFailed:       "market borrow failed",
	ErrMarketRepayFailed:        "market repay failed",
	ErrExternalCall:             "external call failed",
	ErrReentrant:                "reentrant call",
	ErrCollateralSeizeForbidden: "collateral seize forbidden",
	ErrInsufficientCollateral:   "insufficient collateral",
	ErrInvalidAmount:            "invalid amount",
	ErrPaused:                   "paused",
	ErrDecimalOverflow:          "decimal overflow",
}

func (e ErrorCode) String() string {
	if name, ok := errorNames[e]; ok {
		return name
	}

	return errorNames[ErrUnknown]
}

func (e ErrorCode) Error() string {
	return fmt.Sprintf("%d: %s", int(e), e.String())
}

// Error an ErrorCode with the context of the failing check attached.
type Error struct {
	Code ErrorCode
	Msg  string
}

// Errorf build an Error for code with a formatted context message
func Errorf(code ErrorCode, format string, args ...interface{}) error {
	return &Error{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code.Error()
	}

	return fmt.Sprintf("%d: %s: %s", int(e.Code), e.Code.String(), e.Msg)
}

// Is matches against a bare ErrorCode, so errors.Is(err, core.ErrReentrant) works
func (e *Error) Is(target error) bool {
	code, ok := target.(ErrorCode)
	return ok && code == e.Code
}

// Unwrap exposes the code
func (e *Error) Unwrap() error {
	return e.Code
}
