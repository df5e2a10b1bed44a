package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oxtoacart/bpool"
	"github.com/pandodao/tag-wallet/core"
	"github.com/twitchtv/twirp"
)

var bufferPool = bpool.NewBufferPool(64)

func renderJSON(w http.ResponseWriter, status int, v any) {
	buf := bufferPool.Get()
	defer bufferPool.Put(buf)

	if err := json.NewEncoder(buf).Encode(v); err != nil {
		renderError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func renderError(w http.ResponseWriter, err error) {
	_ = twirp.WriteError(w, twirpError(err))
}

// twirpError maps the core error taxonomy onto twirp codes.
func twirpError(err error) twirp.Error {
	var te twirp.Error
	if errors.As(err, &te) {
		return te
	}

	msg := err.Error()
	switch {
	case errors.Is(err, core.ErrValidation):
		return twirp.NewError(twirp.InvalidArgument, msg)
	case errors.Is(err, core.ErrInsufficientFunds):
		return twirp.NewError(twirp.FailedPrecondition, msg).WithMeta("reason", "insufficient_funds")
	case errors.Is(err, core.ErrLimitExceeded):
		return twirp.NewError(twirp.ResourceExhausted, msg).WithMeta("reason", "limit_exceeded")
	case errors.Is(err, core.ErrNotFound):
		return twirp.NewError(twirp.NotFound, msg)
	case errors.Is(err, core.ErrConflict):
		return twirp.NewError(twirp.AlreadyExists, msg)
	case errors.Is(err, core.ErrProvider):
		return twirp.NewError(twirp.Unavailable, msg).WithMeta("reason", "provider_rejected")
	case errors.Is(err, core.ErrAmbiguousOutcome):
		return twirp.NewError(twirp.DeadlineExceeded, msg).WithMeta("reason", "pending")
	default:
		return twirp.InternalErrorWith(err)
	}
}
