package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/onboarding/internal/common"
	"github.com/dmitrijs2005/onboarding/internal/server/auth"
	"github.com/dmitrijs2005/onboarding/internal/server/models"
	"github.com/gin-gonic/gin"
)

// Authenticate verifies the bearer access token and stores the resulting
// auth.VerifiedIdentity in the request context. A missing token fails with
// 401, a token that does not verify with 403.
func (s *HTTPServer) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader(common.AuthorizationHeaderName))
		if !ok {
			s.writeError(c, common.ErrUnauthenticated)
			return
		}

		id, err := s.verifier.VerifyAccess(token)
		if err != nil {
			s.writeError(c, err)
			return
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// RequireRole lets the request through only if the verified identity has
// exactly the given role. Without a verified identity in the context the
// request fails with 500: the route is misconfigured, and access is never
// granted by default.
func (s *HTTPServer) RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.IdentityFromContext(c.Request.Context())
		if !ok {
			s.writeError(c, common.ErrMissingVerifiedIdentity)
			return
		}
		if err := auth.RequireRole(id, role); err != nil {
			s.writeError(c, err)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// requestLogger logs one line per request. Query strings are left out
// since they may carry credentials.
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *HTTPServer) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, err any) {
		s.logger.Error(c.Request.Context(), "panic in handler", "panic", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			ErrorResponse{Kind: KindInternal, Message: "internal server error"})
	})
}
