// Package rest is the HTTP transport of the onboarding API: the gin router,
// the authorization gate middleware and the JSON handlers.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/onboarding/internal/logging"
	"github.com/dmitrijs2005/onboarding/internal/server/auth"
	"github.com/dmitrijs2005/onboarding/internal/server/models"
	"github.com/dmitrijs2005/onboarding/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// UserService is the business API the handlers call.
type UserService interface {
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	ChangePassword(ctx context.Context, id auth.VerifiedIdentity, current, next string) error
	SignUp(ctx context.Context, in services.SignUpInput) (*models.User, error)
	UpdateProfile(ctx context.Context, id auth.VerifiedIdentity, name, phone *string) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// TokenVerifier checks access tokens.
type TokenVerifier interface {
	VerifyAccess(token string) (auth.VerifiedIdentity, error)
}

// CookieOptions controls the refresh-token cookie.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

type HTTPServer struct {
	address  string
	users    UserService
	verifier TokenVerifier
	cookie   CookieOptions
	logger   logging.Logger
	engine   *gin.Engine
}

func NewHTTPServer(a string, l logging.Logger, us UserService, v TokenVerifier, cookie CookieOptions) *HTTPServer {
	s := &HTTPServer{
		address:  a,
		users:    us,
		verifier: v,
		cookie:   cookie,
		logger:   l.With("module", "http_server"),
	}
	s.engine = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.requestLogger(), s.recovery())

	r.GET("/health", s.health)

	users := r.Group("/api/users")
	{
		users.POST("/login", s.login)
		users.POST("/refresh", s.refresh)
		users.POST("/logout", s.logout)
	}

	admin := r.Group("/api/users", s.Authenticate(), s.RequireRole(models.RoleAdmin))
	{
		admin.POST("/signup", s.signUp)
		admin.GET("", s.listUsers)
		admin.GET("/:id", s.getUser)
	}

	profile := r.Group("/api/profile", s.Authenticate())
	{
		profile.GET("", s.getProfile)
		profile.PATCH("", s.updateProfile)
		profile.PUT("/password", s.changePassword)
	}

	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
