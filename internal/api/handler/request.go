package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"companion_hub/internal/api/middleware"
	"companion_hub/internal/common"
	"companion_hub/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidID      = common.NewError(common.ErrBadRequest, "invalid id")
	errInvalidPayload = common.NewError(common.ErrBadRequest, "Invalid request payload")
)

// decodeJSON treats an empty body as an empty object so that field presence
// checks produce the validation message.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return errInvalidPayload
}

func parseID(r *http.Request, param string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// callerFrom returns the authenticated identity, or nil on public routes.
func callerFrom(r *http.Request) *model.Identity {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	return &identity
}
