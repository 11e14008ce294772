package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/dinkup/internal/api/apierr"
	"github.com/mcoot/dinkup/internal/api/middleware"
	"github.com/mcoot/dinkup/internal/model"
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// decode reads a JSON body into v. An empty body is accepted when optional is set.
func decode(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return NewInvalidRequestError("invalid request body: " + err.Error())
	}
	return nil
}

func caller(r *http.Request) *model.Player {
	return middleware.MustGetPlayer(r.Context())
}

func poolID(r *http.Request) model.PoolID {
	return model.PoolID(mux.Vars(r)["pool_id"])
}

func sessionID(r *http.Request) model.SessionID {
	return model.SessionID(mux.Vars(r)["session_id"])
}
