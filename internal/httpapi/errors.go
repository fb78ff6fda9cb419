package httpapi

import (
	"errors"
	"net/http"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/erauner12/genvault/internal/civitai"
	"github.com/erauner12/genvault/internal/cursorid"
	"github.com/erauner12/genvault/internal/importer"
	"github.com/erauner12/genvault/internal/service/accounts"
	"github.com/erauner12/genvault/internal/service/gallery"
	"github.com/erauner12/genvault/internal/store"
	"github.com/rs/zerolog/log"
)

// statusFor maps domain errors to a status code and response detail
func statusFor(err error) (int, string) {
	var (
		apiErr  *civitai.APIError
		limited civitai.ErrRateLimited
	)
	switch {
	case errors.Is(err, gallery.ErrForbidden):
		return http.StatusForbidden, "Not enough permissions"
	case errors.Is(err, gallery.ErrNotFound):
		return http.StatusNotFound, "Images not found"
	case errors.Is(err, gallery.ErrDuplicate):
		return http.StatusOK, "Images already exists"
	case errors.Is(err, accounts.ErrForbidden):
		return http.StatusForbidden, "The user doesn't have enough privileges"
	case errors.Is(err, auth.ErrBadCredentials):
		return http.StatusBadRequest, "Incorrect username or password"
	case errors.Is(err, auth.ErrInactiveUser):
		return http.StatusBadRequest, "Inactive user"
	case errors.Is(err, accounts.ErrInvalidInput), errors.Is(err, gallery.ErrInvalidInput):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, cursorid.ErrInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, importer.ErrNoData):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, civitai.ErrCookieNotConfigured), errors.Is(err, civitai.ErrInvalidCookie):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &limited):
		return http.StatusTooManyRequests, err.Error()
	case errors.As(err, &apiErr), errors.Is(err, civitai.ErrInvalidResponse):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict, "Already exists"
	}
	return http.StatusInternalServerError, "server error"
}

// writeDomainError logs unexpected failures and writes the mapped response
// Server errors carry the request's correlation id in the body
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	code, detail := statusFor(err)
	if code < 500 {
		writeError(w, r, code, detail)
		return
	}

	log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	if code == http.StatusInternalServerError {
		detail = msg
	}
	writeJSON(w, code, errorResp{Detail: detail, CorrelationID: CorrelationID(r.Context())})
}
