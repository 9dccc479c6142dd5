package employee

import (
	"errors"
	"net/http"
	"strconv"

	"employee-gateway/employee/domain"
	"employee-gateway/middleware/httplog"
)

const rateLimitMessage = "Rate limit exceeded. Please retry after some time."

// RateLimitBody é o corpo do 429. retryAfterSeconds é null quando o upstream
// não mandou um Retry-After inteiro.
type RateLimitBody struct {
	Message           string `json:"message"`
	RetryAfterSeconds *int64 `json:"retryAfterSeconds"`
}

func (h Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		rl *domain.RateLimitError
		ve *domain.ValidationError
		ue *domain.UpstreamError
	)
	switch {
	case errors.As(err, &rl):
		body := RateLimitBody{Message: rateLimitMessage}
		if rl.HasRetryAfter {
			secs := rl.RetryAfterSeconds
			body.RetryAfterSeconds = &secs
			w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
		}
		httplog.WriteJSON(w, http.StatusTooManyRequests, body)
	case errors.As(err, &ve):
		httplog.WriteError(w, r, http.StatusBadRequest, "invalid_input", ve.Error())
	case errors.As(err, &ue):
		httplog.WriteError(w, r, http.StatusBadGateway, "upstream_error", "upstream employee service failed")
	default:
		h.log().ErrorContext(r.Context(), "unexpected error",
			"request_id", httplog.RequestIDFrom(r.Context()), "err", err)
		httplog.WriteError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
