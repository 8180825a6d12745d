package render

import (
	"errors"
	"net/http"

	"creditline/core"

	"github.com/twitchtv/twirp"
)

// CoreError map a core error onto an HTTP status through the twirp code
// table, keeping the numeric error code in the body.
func CoreError(w http.ResponseWriter, err error) {
	code := core.ErrUnknown

	var wrapped *core.Error
	if errors.As(err, &wrapped) {
		code = wrapped.Code
	} else {
		var bare core.ErrorCode
		if errors.As(err, &bare) {
			code = bare
		}
	}

	status := twirp.ServerHTTPStatusFromErrorCode(twirpCode(code))
	Error(w, status, int(code), err)
}

func twirpCode(code core.ErrorCode) twirp.ErrorCode {
	switch family(code) {
	case family(core.ErrOperationForbidden):
		return twirp.PermissionDenied
	case family(core.ErrPriceFeedMismatch):
		if code == core.ErrMarketNotFound {
			return twirp.NotFound
		}
		return twirp.InvalidArgument
	case family(core.ErrUndercollateralized), family(core.ErrNotLiquidatable):
		return twirp.FailedPrecondition
	case family(core.ErrExternalCall):
		return twirp.Unavailable
	case family(core.ErrReentrant):
		return twirp.Aborted
	case family(core.ErrCollateralSeizeForbidden):
		return twirp.InvalidArgument
	default:
		return twirp.Internal
	}
}

func family(code core.ErrorCode) int {
	return int(code) / 100
}
