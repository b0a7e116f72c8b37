// Package httpapi exposes the application over HTTP with Gin. All
// feature routes sit behind bearer-token auth; the user id from the
// token scopes every persona, schedule, and queue operation.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"xgrowth/internal/auth"
	"xgrowth/internal/content"
	"xgrowth/internal/feedback"
	"xgrowth/internal/intel"
	"xgrowth/internal/onboarding"
	"xgrowth/internal/persona"
	"xgrowth/internal/replyguy"
	"xgrowth/internal/targets"
	"xgrowth/internal/trends"
	"xgrowth/internal/xapi"
)

const userKey = "user"

// #region contracts

// XReader is the slice of the X client the API exposes directly.
type XReader interface {
	GetUserByUsername(ctx context.Context, username string) (*xapi.User, error)
	OwnedLists(ctx context.Context, userID string) ([]xapi.List, error)
}

// #endregion contracts

// #region server

// Server bundles the feature services behind the router.
type Server struct {
	auth       *auth.Service
	personas   *persona.Manager
	learn      *feedback.Processor
	onboarding *onboarding.Flow
	machine    *content.Machine
	schedule   *content.ScheduleStore
	planner    *targets.Planner
	replies    *replyguy.Engine
	intel      *intel.Analyzer
	x          XReader
	trends     *trends.Collector
}

// New constructs a Server.
func New(authSvc *auth.Service, personas *persona.Manager, learn *feedback.Processor,
	flow *onboarding.Flow, machine *content.Machine, schedule *content.ScheduleStore,
	planner *targets.Planner, replies *replyguy.Engine, analyzer *intel.Analyzer, x XReader) *Server {
	return &Server{
		auth:       authSvc,
		personas:   personas,
		learn:      learn,
		onboarding: flow,
		machine:    machine,
		schedule:   schedule,
		planner:    planner,
		replies:    replies,
		intel:      analyzer,
		x:          x,
	}
}

// SetTrends enables list-activity signal collection for generation
// requests that don't supply their own external signals.
func (s *Server) SetTrends(c *trends.Collector) {
	s.trends = c
}

// Router builds the Gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/api/auth/register", s.register)
	r.POST("/api/auth/login", s.login)

	api := r.Group("/api", s.requireUser)
	{
		api.GET("/auth/me", s.me)

		api.GET("/persona/state", s.personaState)
		api.GET("/persona/explanation", s.personaExplanation)

		api.POST("/feedback/explicit", s.feedbackExplicit)
		api.POST("/feedback/behavioral", s.feedbackBehavioral)
		api.POST("/feedback/temporal", s.feedbackTemporal)
		api.POST("/feedback/outcome", s.feedbackOutcome)

		api.GET("/onboarding/status", s.onboardingStatus)
		api.POST("/onboarding/connect", s.onboardingConnect)
		api.POST("/onboarding/analyze", s.onboardingAnalyze)
		api.POST("/onboarding/respond", s.onboardingRespond)

		api.POST("/content-machine/generate", s.contentGenerate)
		api.GET("/content-machine/schedule", s.contentSchedule)
		api.GET("/content-machine/posts/:id", s.contentGet)
		api.PUT("/content-machine/posts/:id", s.contentEdit)
		api.DELETE("/content-machine/posts/:id", s.contentDelete)
		api.POST("/content-machine/posts/:id/approve", s.contentApprove)
		api.GET("/content-machine/posts/:id/rationale", s.contentRationale)

		api.GET("/daily-actions/targets", s.dailyTargets)
		api.GET("/daily-actions/prioritized", s.dailyPrioritized)
		api.GET("/daily-actions/progress", s.dailyProgress)
		api.POST("/daily-actions/track", s.dailyTrack)
		api.POST("/daily-actions/sync", s.dailySync)

		api.POST("/reply-guy/check", s.replyCheck)
		api.GET("/reply-guy/pending", s.replyPending)
		api.POST("/reply-guy/mark-used/:postID", s.replyMarkUsed)

		api.GET("/content-intelligence/analyze/:listID", s.intelAnalyze)
		api.POST("/content-intelligence/analyze-multiple", s.intelAnalyzeMultiple)

		api.GET("/x/lists", s.xLists)
		api.GET("/x/user", s.xUser)
	}
	return r
}

// #endregion server

// #region middleware

// requireUser resolves the Authorization bearer token to a user and
// stores it in the request context.
func (s *Server) requireUser(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	u, err := s.auth.Authenticate(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	c.Set(userKey, u)
	c.Next()
}

func currentUser(c *gin.Context) *auth.User {
	return c.MustGet(userKey).(*auth.User)
}

// fail writes the JSON error envelope, mapping not-found sentinels to
// 404.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, content.ErrPostNotFound), errors.Is(err, auth.ErrUserNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// #endregion middleware

// #region auth-handlers

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.auth.Register(req.Email, req.Password, req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, u, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// #endregion auth-handlers

// #region persona-handlers

func (s *Server) personaState(c *gin.Context) {
	state, err := s.personas.Load(currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) personaExplanation(c *gin.Context) {
	state, err := s.personas.Load(currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.String(http.StatusOK, persona.Explain(state))
}

// #endregion persona-handlers

// #region feedback-handlers

type explicitRequest struct {
	Action   string `json:"action" binding:"required"`
	Content  string `json:"content"`
	Original string `json:"original"`
}

func (s *Server) feedbackExplicit(c *gin.Context) {
	var req explicitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := s.learn.Explicit(currentUser(c).ID, req.Action, req.Content, req.Original)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type behavioralRequest struct {
	Action string   `json:"action" binding:"required"`
	Topics []string `json:"topics"`
}

func (s *Server) feedbackBehavioral(c *gin.Context) {
	var req behavioralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := s.learn.Behavioral(currentUser(c).ID, req.Action, req.Topics)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type temporalRequest struct {
	Action      string `json:"action" binding:"required"`
	TimeTakenMS int64  `json:"time_taken_ms"`
	Hesitated   bool   `json:"hesitated"`
}

func (s *Server) feedbackTemporal(c *gin.Context) {
	var req temporalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := s.learn.Temporal(currentUser(c).ID, req.Action,
		time.Duration(req.TimeTakenMS)*time.Millisecond, req.Hesitated)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type outcomeRequest struct {
	PostID   string `json:"post_id" binding:"required"`
	Likes    int    `json:"likes"`
	Replies  int    `json:"replies"`
	Retweets int    `json:"retweets"`
}

func (s *Server) feedbackOutcome(c *gin.Context) {
	var req outcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := s.learn.Outcome(currentUser(c).ID, req.PostID, feedback.EngagementMetrics{
		Likes:    req.Likes,
		Replies:  req.Replies,
		Retweets: req.Retweets,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// #endregion feedback-handlers
