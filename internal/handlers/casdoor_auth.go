package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/guards"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/services"
	"github.com/SAP-F-2025/lms-service/internal/session"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

// Context keys set by ResolveSession
const (
	sessionContextKey   = "session"
	identityContextKey  = "identity"
	actorContextKey     = "actor"
	authErrorContextKey = "auth_error"
)

// CasdoorAuthMiddleware turns a Casdoor access token into an LMS session
type CasdoorAuthMiddleware struct {
	identity  repositories.IdentityRepository
	store     *session.Store
	evaluator guards.Evaluator
	logger    utils.Logger
}

func NewCasdoorAuthMiddleware(identity repositories.IdentityRepository, store *session.Store, entryRoute string, logger utils.Logger) *CasdoorAuthMiddleware {
	return &CasdoorAuthMiddleware{
		identity:  identity,
		store:     store,
		evaluator: guards.NewEvaluator(entryRoute),
		logger:    logger,
	}
}

// ResolveSession runs on every API request. Requests without a usable token
// continue as anonymous; guards decide whether that is enough.
func (cam *CasdoorAuthMiddleware) ResolveSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err != nil {
			c.Set(authErrorContextKey, err.Error())
		}

		var identity *models.Identity
		if token != "" {
			identity, err = cam.identity.ParseToken(token)
			if err != nil {
				utils.GetLogger(c, cam.logger).Debug("Rejected access token", "error", err)
				c.Set(authErrorContextKey, fmt.Sprintf("invalid token: %v", err))
				identity = nil
			}
		}

		sess := cam.store.Resolve(c.Request.Context(), identity)
		c.Set(sessionContextKey, sess)
		if identity != nil {
			c.Set(identityContextKey, identity)
		}

		if sess.IsAuthenticated() && sess.Account != nil {
			c.Set("user_id", sess.Account.ID)
			c.Set("user_role", sess.Role)
			c.Set("user_email", sess.Account.Email)
			c.Set(actorContextKey, &services.Actor{
				ID:    sess.Account.ID,
				Email: sess.Account.Email,
				Name:  sess.Account.DisplayName,
				Role:  sess.Role,
			})
		}

		c.Next()
	}
}

// RequireGuard enforces a route guard on an API group. Redirect decisions
// become 401 for anonymous callers and 403 otherwise, with the target attached.
func (cam *CasdoorAuthMiddleware) RequireGuard(kind guards.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := GetSessionFromContext(c)
		decision := cam.evaluator.Evaluate(kind, sess.GuardState())

		switch decision.Action {
		case guards.Render:
			c.Next()
			return
		case guards.Placeholder:
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{
				Message: "session is still loading",
			})
			return
		}

		status := http.StatusForbidden
		message := "insufficient permissions"
		switch {
		case sess.IsDisabled():
			message = session.DisabledMessage
		case !sess.IsAuthenticated():
			status = http.StatusUnauthorized
			message = "authentication required"
		}

		details := gin.H{
			"redirect":       decision.Target,
			"session_status": sess.Status,
		}
		if decision.Error != "" {
			details["error"] = decision.Error
		}
		if sess.Error != "" && !sess.IsDisabled() {
			details["session_error"] = sess.Error
		}
		if authErr := c.GetString(authErrorContextKey); authErr != "" {
			details["token_error"] = authErr
		}

		c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Details: details})
	}
}

// RequireIdentity admits any signed-in, non-disabled identity, including one
// with no profile yet
func (cam *CasdoorAuthMiddleware) RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := GetSessionFromContext(c)
		if sess.IsDisabled() {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Message: session.DisabledMessage})
			return
		}
		if GetIdentityFromContext(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "authentication required"})
			return
		}
		c.Next()
	}
}

// extractToken reads "Bearer <token>" or, for WebSocket upgrades where
// browsers cannot set headers, the access_token query parameter
func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return strings.TrimSpace(c.Query("access_token")), nil
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
		return "", fmt.Errorf("invalid authorization header format")
	}
	return tokenParts[1], nil
}

// GetSessionFromContext never returns nil; requests that skipped
// ResolveSession are anonymous
func GetSessionFromContext(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if sess, ok := v.(*session.Session); ok && sess != nil {
			return sess
		}
	}
	return &session.Session{Status: session.StatusAnonymous}
}

func GetIdentityFromContext(c *gin.Context) *models.Identity {
	if v, ok := c.Get(identityContextKey); ok {
		if identity, ok := v.(*models.Identity); ok {
			return identity
		}
	}
	return nil
}

// GetActorFromContext returns nil for anything but an active session
func GetActorFromContext(c *gin.Context) *services.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(*services.Actor); ok {
			return actor
		}
	}
	return nil
}
