package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"brokerledger/src/controller"
	"brokerledger/src/ledgererr"
)

const serviceName = "ledger_api"

type errorResponse struct {
	Error     string `json:"error"`
	Reference string `json:"reference,omitempty"`
	Shortfall string `json:"shortfall,omitempty"`
}

// statusFor maps the ledger error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledgererr.ErrInvalidAmount), errors.Is(err, ledgererr.ErrInvalidDirection):
		return http.StatusBadRequest
	case errors.Is(err, ledgererr.ErrInstrumentNotFound), errors.Is(err, ledgererr.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledgererr.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledgererr.ErrConcurrencyConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the mapped status. Failures that are not the caller's fault are
// captured as exceptions and only their reference is exposed.
func writeError(w http.ResponseWriter, r *http.Request, exceptions controller.ExceptionRecorder, module, method string, err error, contextData map[string]interface{}) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var insufficient *ledgererr.InsufficientFundsError
	if errors.As(err, &insufficient) {
		resp.Shortfall = insufficient.Shortfall().String()
	}

	switch status {
	case http.StatusInternalServerError:
		resp.Error = "internal error"
		resp.Reference = controller.Capture(r.Context(), exceptions, serviceName, module, method, controller.LevelError, err, contextData)
	case http.StatusConflict:
		resp.Reference = controller.Capture(r.Context(), exceptions, serviceName, module, method, controller.LevelWarn, err, contextData)
	default:
		logger.WithFields(map[string]interface{}{
			"module": module,
			"method": method,
			"status": status,
		}).WithError(err).Warn("request rejected")
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

func accountIDParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid account id")
	}
	return uint(id), nil
}
