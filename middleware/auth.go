package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/models"
	"github.com/kendall-kelly/cafe-manager-api/services"
	"github.com/rs/zerolog/log"
)

// Context keys shared with the handlers
const (
	ContextUserID      = "user_id"
	ContextClaims      = "validated_claims"
	ContextCurrentUser = "current_user"
)

// DashboardPath is where a client should send a user after a denied request
const DashboardPath = "/api/v1/dashboard"

// CustomClaims contains the café specific claims of an access token.
type CustomClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Validate rejects tokens that carry no role.
func (c CustomClaims) Validate(ctx context.Context) error {
	if c.Role == "" {
		return errors.New("token has no role claim")
	}
	return nil
}

// EnsureValidToken is a middleware that checks the HS256 signature, issuer, audience
// and expiry of the bearer token, then rejects tokens revoked by logout.
func EnsureValidToken(cfg *config.Config, store services.TokenStore) gin.HandlerFunc {
	secret := []byte(cfg.JWTSecret)
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return secret, nil
	}

	jwtValidator, err := validator.New(
		keyFunc,
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.JWTAudience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up the jwt validator")
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		code, message := "INVALID_TOKEN", "Failed to validate JWT."
		if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
			code, message = "UNAUTHORIZED", "Authentication required"
		} else {
			log.Debug().Err(err).Msg("Encountered error while validating JWT")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		body := `{"success":false,"error":{"code":"` + code + `","message":"` + message + `"}}`
		if _, writeErr := w.Write([]byte(body)); writeErr != nil {
			log.Error().Err(writeErr).Msg("Failed to write error response")
		}
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		passed := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			revoked, err := store.IsRevoked(r.Context(), token.RegisteredClaims.ID)
			if err != nil {
				log.Error().Err(err).Msg("Failed to check token revocation")
				abortWithError(c, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Could not verify the session")
				return
			}
			if revoked {
				abortWithError(c, http.StatusUnauthorized, "TOKEN_REVOKED", "Session has ended, please log in again")
				return
			}

			c.Set(ContextUserID, token.RegisteredClaims.Subject)
			c.Set(ContextClaims, token)
			c.Request = r
			passed = true
			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !passed {
			// the error handler already wrote the response
			c.Abort()
		}
	}
}

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get(ContextUserID)
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get(ContextClaims)
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// UserLoader fetches the account behind an authenticated request
type UserLoader func(ctx context.Context, id uint) (*models.User, error)

// LoadCurrentUser resolves the token subject to a stored user so deleted
// accounts are refused and role changes apply on the next request.
func LoadCurrentUser(load UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := GetUserID(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}
		id, err := strconv.ParseUint(userID, 10, 64)
		if err != nil || id == 0 {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token subject is not a user id")
			return
		}

		user, err := load(c.Request.Context(), uint(id))
		if err != nil {
			var nf *services.NotFoundError
			if errors.As(err, &nf) {
				abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User account no longer exists")
				return
			}
			log.Error().Err(err).Uint64("user_id", id).Msg("Failed to load current user")
			abortWithError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user")
			return
		}

		c.Set(ContextCurrentUser, user)
		c.Next()
	}
}

// GetCurrentUser returns the user stored by LoadCurrentUser
func GetCurrentUser(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(ContextCurrentUser)
	if !exists {
		return nil, &AuthError{Code: "UNAUTHORIZED", Message: "Authentication required"}
	}
	user, ok := value.(*models.User)
	if !ok || user == nil {
		return nil, &AuthError{Code: "UNAUTHORIZED", Message: "Authentication required"}
	}
	return user, nil
}

// RequireRole is a middleware that only lets users holding one of roles through
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetCurrentUser(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		if !services.Authorize(user.Role, roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":     "FORBIDDEN",
					"message":  services.DeniedMessage(roles...),
					"redirect": DashboardPath,
				},
			})
			return
		}

		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
