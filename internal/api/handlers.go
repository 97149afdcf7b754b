package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ignite/budget-escalator/internal/pkg/httputil"
	"github.com/ignite/budget-escalator/internal/report"
	"github.com/ignite/budget-escalator/internal/service/campaign"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	svc     *campaign.Service
	reports *report.Generator
}

// NewHandlers creates a new Handlers instance. reports may be nil, in
// which case the report routes answer 503.
func NewHandlers(svc *campaign.Service, reports *report.Generator) *Handlers {
	return &Handlers{svc: svc, reports: reports}
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	httputil.JSON(w, status, data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	httputil.Error(w, status, message)
}

// kindStatus maps engine error kinds to HTTP statuses.
var kindStatus = map[campaign.Kind]int{
	campaign.KindNotFound:             http.StatusNotFound,
	campaign.KindInvalidRate:          http.StatusUnprocessableEntity,
	campaign.KindInvalidInput:         http.StatusUnprocessableEntity,
	campaign.KindInvalidPauseDate:     http.StatusUnprocessableEntity,
	campaign.KindNoPriorBudget:        http.StatusUnprocessableEntity,
	campaign.KindUnreachableTarget:    http.StatusUnprocessableEntity,
	campaign.KindRollbackAtFloor:      http.StatusUnprocessableEntity,
	campaign.KindInvalidTransition:    http.StatusConflict,
	campaign.KindConflict:             http.StatusConflict,
	campaign.KindConfirmationRequired: http.StatusPreconditionRequired,
	campaign.KindPersistence:          http.StatusInternalServerError,
}

// errorDetails is the details payload of an engine error response.
type errorDetails struct {
	Op   string `json:"op,omitempty"`
	Step string `json:"step,omitempty"`
}

// respondServiceError writes an engine error with its kind as the code.
// Persistence failures keep the operation's own explanation but never the
// driver's error text.
func respondServiceError(w http.ResponseWriter, err error) {
	var e *campaign.Error
	if !errors.As(err, &e) {
		kind := campaign.KindOf(err)
		if status, ok := kindStatus[kind]; ok && kind != campaign.KindPersistence {
			httputil.ErrorCode(w, status, string(kind), err.Error(), nil)
			return
		}
		httputil.InternalError(w, err)
		return
	}

	status, ok := kindStatus[e.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	msg := e.Message
	if status >= 500 {
		msg = publicMessage(e)
	}
	httputil.ErrorCode(w, status, string(e.Kind), msg, errorDetails{Op: e.Op, Step: e.Step})
}

// publicMessage returns the message of a persistence failure with any
// underlying driver text replaced.
func publicMessage(e *campaign.Error) string {
	if e.Message == "" || (e.Err != nil && strings.Contains(e.Message, e.Err.Error())) {
		return sanitizedError(http.StatusInternalServerError, e, safeErrorMessage(http.StatusInternalServerError, e.Err))
	}
	return sanitizedError(http.StatusInternalServerError, e, e.Message)
}

// requireConfirm rejects destructive requests without ?confirm=true.
func requireConfirm(w http.ResponseWriter, r *http.Request, op string) bool {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); ok {
		return true
	}
	httputil.ErrorCode(w, http.StatusPreconditionRequired, string(campaign.KindConfirmationRequired),
		op+" must be confirmed with confirm=true", errorDetails{Op: op})
	return false
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// queryFloat parses an optional float query parameter.
func queryFloat(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
