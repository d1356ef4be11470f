package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-service/internal/guards"
	"github.com/SAP-F-2025/lms-service/internal/session"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

const rememberedEmailKey = "remembered_email"

type SessionHandler struct {
	BaseHandler
	store     *session.Store
	evaluator guards.Evaluator
}

func NewSessionHandler(store *session.Store, entryRoute string, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		store:       store,
		evaluator:   guards.NewEvaluator(entryRoute),
	}
}

type SessionResponse struct {
	*session.Session
	IsAuthenticated bool   `json:"is_authenticated"`
	IsStudent       bool   `json:"is_student"`
	IsInstructor    bool   `json:"is_instructor"`
	IsAdmin         bool   `json:"is_admin"`
	IsDisabled      bool   `json:"is_disabled"`
	Home            string `json:"home,omitempty"`
	RememberedEmail string `json:"remembered_email,omitempty"`
}

func newSessionResponse(sess *session.Session) SessionResponse {
	resp := SessionResponse{
		Session:         sess,
		IsAuthenticated: sess.IsAuthenticated(),
		IsStudent:       sess.IsStudent(),
		IsInstructor:    sess.IsInstructor(),
		IsAdmin:         sess.IsAdmin(),
		IsDisabled:      sess.IsDisabled(),
	}
	if resp.IsAuthenticated {
		resp.Home = guards.HomeFor(sess.Role)
	}
	return resp
}

// GetSession returns the caller's session. remember=true stores the
// identity's email in the remember-me cookie; remember=false clears it.
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess := GetSessionFromContext(c)
	cookieSession := sessions.Default(c)

	if raw := c.Query("remember"); raw != "" && sess.Identity != nil {
		if remember, err := strconv.ParseBool(raw); err == nil {
			if remember {
				cookieSession.Set(rememberedEmailKey, sess.Identity.Email)
			} else {
				cookieSession.Delete(rememberedEmailKey)
			}
			if err := cookieSession.Save(); err != nil {
				h.LogError(c, err, "Failed to save remember-me cookie")
			}
		}
	}

	resp := newSessionResponse(sess)
	if email, ok := cookieSession.Get(rememberedEmailKey).(string); ok {
		resp.RememberedEmail = email
	}
	c.JSON(http.StatusOK, resp)
}

// Guard answers what the SPA should do for a route of the given kind
func (h *SessionHandler) Guard(c *gin.Context) {
	kind, err := guards.ParseKind(c.Query("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid guard kind",
			Details: err.Error(),
		})
		return
	}

	sess := GetSessionFromContext(c)
	c.JSON(http.StatusOK, h.evaluator.Evaluate(kind, sess.GuardState()))
}

// Logout drops the cached session and the remember-me cookie
func (h *SessionHandler) Logout(c *gin.Context) {
	sess := GetSessionFromContext(c)
	h.LogRequest(c, "Logging out", "account_id", sess.AccountID())

	if err := h.store.Logout(c.Request.Context(), sess.AccountID()); err != nil {
		h.LogError(c, err, "Failed to drop cached session", "account_id", sess.AccountID())
	}

	cookieSession := sessions.Default(c)
	cookieSession.Clear()
	cookieSession.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := cookieSession.Save(); err != nil {
		h.LogError(c, err, "Failed to clear remember-me cookie")
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Logged out",
		Data:    gin.H{"redirect": h.evaluator.EntryRoute},
	})
}
