package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of every error answer
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"requestId,omitempty"`
}

// statusByType is used when an AppError carries no explicit status
var statusByType = map[ErrorType]int{
	ErrorTypeValidation:  http.StatusBadRequest,
	ErrorTypeNotFound:    http.StatusNotFound,
	ErrorTypeConflict:    http.StatusConflict,
	ErrorTypeTimeout:     http.StatusGatewayTimeout,
	ErrorTypeRateLimit:   http.StatusTooManyRequests,
	ErrorTypeUnavailable: http.StatusServiceUnavailable,
	ErrorTypeNetwork:     http.StatusBadGateway,
	ErrorTypeExternal:    http.StatusBadGateway,
}

// ErrorHandler writes AppErrors as JSON responses and logs them
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates an error handler. In debug mode responses carry stack traces
// and the text of unclassified errors.
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle classifies err and writes the response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	appErr := h.classify(err)
	status := StatusOf(appErr)
	response := ErrorResponse{
		Error:     true,
		Type:      string(appErr.Type),
		Message:   h.messageFor(appErr),
		Code:      appErr.Code,
		Details:   copyDetails(appErr.Details),
		RequestID: requestIDFrom(r),
	}
	if h.debug && appErr.StackTrace != "" {
		if response.Details == nil {
			response.Details = make(map[string]interface{})
		}
		response.Details["stackTrace"] = appErr.StackTrace
	}
	if retry, ok := appErr.Details["retryAfter"]; ok {
		w.Header().Set("Retry-After", fmt.Sprint(retry))
	}

	h.log(r, appErr, status)
	h.writeJSON(w, status, response)
}

// HandleStatus writes an error response for a bare status, e.g. an unknown route
func (h *ErrorHandler) HandleStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	errType := ErrorTypeInternal
	switch status {
	case http.StatusBadRequest, http.StatusMethodNotAllowed:
		errType = ErrorTypeValidation
	case http.StatusNotFound:
		errType = ErrorTypeNotFound
	case http.StatusTooManyRequests:
		errType = ErrorTypeRateLimit
	case http.StatusServiceUnavailable:
		errType = ErrorTypeUnavailable
	}

	h.logger.Debug("HTTP error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
	)
	h.writeJSON(w, status, ErrorResponse{
		Error:     true,
		Type:      string(errType),
		Message:   message,
		RequestID: requestIDFrom(r),
	})
}

// Middleware turns a panic in a handler into a 500 response
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.logger.Error("Recovered from panic in handler",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// StatusOf returns the HTTP status for an AppError
func StatusOf(appErr *AppError) int {
	if appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	if status, ok := statusByType[appErr.Type]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// classify wraps plain errors; a deadline is a timeout, anything else is internal
func (h *ErrorHandler) classify(err error) *AppError {
	if appErr := GetAppError(err); appErr != nil {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("request").WithCause(err)
	}
	return NewInternalError("unhandled error").WithCause(err)
}

// messageFor passes upstream causes through to the client. Internal details stay
// hidden unless debugging.
func (h *ErrorHandler) messageFor(appErr *AppError) string {
	if appErr.Type == ErrorTypeInternal && !h.debug {
		return "An internal error occurred"
	}
	return appErr.UserMessage()
}

func (h *ErrorHandler) log(r *http.Request, appErr *AppError, status int) {
	fields := []zap.Field{
		zap.String("errorType", string(appErr.Type)),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("requestId", requestIDFrom(r)),
	}
	if appErr.Code != "" {
		fields = append(fields, zap.String("errorCode", appErr.Code))
	}
	if appErr.Cause != nil {
		fields = append(fields, zap.Error(appErr.Cause))
	}

	if status >= 500 {
		h.logger.Error(appErr.Message, fields...)
		return
	}
	h.logger.Warn(appErr.Message, fields...)
}

func (h *ErrorHandler) writeJSON(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("Failed to encode error response", zap.Error(err))
	}
}

func copyDetails(details map[string]interface{}) map[string]interface{} {
	if details == nil {
		return nil
	}
	out := make(map[string]interface{}, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}

// requestIDFrom prefers the id assigned by the request-id middleware
func requestIDFrom(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
