package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/onboarding/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Stable machine-readable error kinds returned in the "kind" field.
const (
	KindInvalidCredentials = "invalid_credentials"
	KindDuplicateEmail     = "duplicate_email"
	KindNotFound           = "not_found"
	KindUnauthenticated    = "unauthenticated"
	KindInvalidToken       = "invalid_token"
	KindRefreshRejected    = "refresh_rejected"
	KindForbidden          = "forbidden"
	KindValidation         = "validation_failure"
	KindStoreUnavailable   = "store_unavailable"
	KindInternal           = "internal"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorMapping struct {
	target  error
	status  int
	kind    string
	message string
}

// Order matters: refresh rejections wrap token errors.
var errorMappings = []errorMapping{
	{common.ErrRefreshRejected, http.StatusForbidden, KindRefreshRejected, "refresh token rejected"},
	{common.ErrInvalidCredentials, http.StatusUnauthorized, KindInvalidCredentials, "invalid email or password"},
	{common.ErrDuplicateEmail, http.StatusBadRequest, KindDuplicateEmail, "email already registered"},
	{common.ErrorNotFound, http.StatusNotFound, KindNotFound, "not found"},
	{common.ErrUnauthenticated, http.StatusUnauthorized, KindUnauthenticated, "authentication required"},
	{common.ErrInvalidToken, http.StatusForbidden, KindInvalidToken, "invalid or expired token"},
	{common.ErrForbidden, http.StatusForbidden, KindForbidden, "insufficient permissions"},
	{common.ErrValidation, http.StatusBadRequest, KindValidation, "invalid request"},
	{common.ErrStoreUnavailable, http.StatusInternalServerError, KindStoreUnavailable, "service temporarily unavailable"},
}

// classifyError maps err to a status code and response body. Raw error
// text never reaches the body.
func classifyError(err error) (int, ErrorResponse) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		resp := ErrorResponse{Kind: m.kind, Message: m.message}
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			resp.Fields = verr.Fields
		}
		return m.status, resp
	}
	return http.StatusInternalServerError, ErrorResponse{Kind: KindInternal, Message: "internal server error"}
}

func (s *HTTPServer) writeError(c *gin.Context, err error) {
	status, resp := classifyError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	} else {
		s.logger.Debug(c.Request.Context(), "request rejected", "path", c.FullPath(), "kind", resp.Kind, "error", err)
	}
	c.AbortWithStatusJSON(status, resp)
}

// bindError turns a gin binding failure into a ValidationError.
func bindError(err error) error {
	verr := &common.ValidationError{}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			verr.Add(jsonName(fe.Field()), "failed "+fe.Tag()+" check")
		}
		return verr
	}

	verr.Add("body", "malformed JSON")
	return verr
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
