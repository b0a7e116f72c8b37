package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// #region onboarding-handlers

func (s *Server) onboardingStatus(c *gin.Context) {
	info, err := s.onboarding.Step(currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

type connectRequest struct {
	XUsername string `json:"x_username" binding:"required"`
}

func (s *Server) onboardingConnect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.onboarding.ConnectX(c.Request.Context(), currentUser(c).ID, req.XUsername); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true, "step": 2})
}

func (s *Server) onboardingAnalyze(c *gin.Context) {
	res, err := s.onboarding.RunAnalysis(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": true, "data_ingested": res})
}

type respondRequest struct {
	Phase     int    `json:"phase" binding:"required"`
	Response  string `json:"response" binding:"required"`
	ShownText string `json:"shown_text"`
}

func (s *Server) onboardingRespond(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := s.onboarding.GuidedResponse(c.Request.Context(), currentUser(c).ID,
		req.Phase, req.Response, req.ShownText)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// #endregion onboarding-handlers

// #region content-handlers

type generateRequest struct {
	Count           int      `json:"count"`
	ExternalSignals string   `json:"external_signals"`
	SignalLists     []string `json:"signal_lists"`
	StartDate       string   `json:"start_date"`
}

func (s *Server) contentGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Count <= 0 {
		req.Count = 30
	}
	start := time.Now().UTC()
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
			return
		}
		start = parsed
	}
	if req.ExternalSignals == "" && s.trends != nil && len(req.SignalLists) > 0 {
		signals, err := s.trends.Collect(c.Request.Context(), req.SignalLists)
		if err != nil {
			fail(c, err)
			return
		}
		req.ExternalSignals = signals
	}
	posts, err := s.machine.GenerateBatch(c.Request.Context(), currentUser(c).ID,
		req.Count, req.ExternalSignals, start)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(posts), "posts": posts})
}

func (s *Server) contentSchedule(c *gin.Context) {
	posts, err := s.schedule.List(currentUser(c).ID, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (s *Server) contentGet(c *gin.Context) {
	p, err := s.schedule.Get(currentUser(c).ID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type editRequest struct {
	Content string `json:"content" binding:"required"`
}

func (s *Server) contentEdit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := s.machine.Edit(currentUser(c).ID, c.Param("id"), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) contentDelete(c *gin.Context) {
	p, err := s.machine.Reject(currentUser(c).ID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "post": p})
}

func (s *Server) contentApprove(c *gin.Context) {
	p, err := s.machine.Approve(currentUser(c).ID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) contentRationale(c *gin.Context) {
	rationale, err := s.machine.Rationale(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rationale": rationale})
}

// #endregion content-handlers

// #region daily-handlers

func (s *Server) dailyTargets(c *gin.Context) {
	targets, err := s.planner.DailyTargets(currentUser(c).ID, c.Query("target_date"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, targets)
}

func (s *Server) dailyPrioritized(c *gin.Context) {
	actions, err := s.planner.PrioritizedActions(currentUser(c).ID, c.Query("target_date"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, actions)
}

func (s *Server) dailyProgress(c *gin.Context) {
	prog, err := s.planner.TodayProgress(currentUser(c).ID, c.Query("target_date"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prog)
}

type trackRequest struct {
	ActionType string   `json:"action_type" binding:"required"`
	Topics     []string `json:"topics"`
	Detail     string   `json:"detail"`
	ActionDate string   `json:"action_date"`
}

func (s *Server) dailyTrack(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := s.planner.TrackAction(currentUser(c).ID, req.ActionType, req.Topics, req.Detail, req.ActionDate)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracked": true, "action_type": req.ActionType})
}

func (s *Server) dailySync(c *gin.Context) {
	u := currentUser(c)
	if u.XUsername == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X account not connected"})
		return
	}
	xUser, err := s.x.GetUserByUsername(c.Request.Context(), u.XUsername)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	res, err := s.planner.SyncFromX(c.Request.Context(), u.ID, xUser.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// #endregion daily-handlers

// #region reply-handlers

type replyCheckRequest struct {
	ListIDs   []string `json:"list_ids" binding:"required"`
	HoursBack int      `json:"hours_back"`
}

func (s *Server) replyCheck(c *gin.Context) {
	var req replyCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.HoursBack <= 0 {
		req.HoursBack = 24
	}
	res, err := s.replies.ProcessOpportunities(c.Request.Context(), currentUser(c).ID,
		req.ListIDs, req.HoursBack)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) replyPending(c *gin.Context) {
	pending, err := s.replies.Pending(currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pending)
}

type markUsedRequest struct {
	ReplyContent string `json:"reply_content" binding:"required"`
}

func (s *Server) replyMarkUsed(c *gin.Context) {
	var req markUsedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.replies.MarkUsed(currentUser(c).ID, c.Param("postID"), req.ReplyContent); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": true})
}

// #endregion reply-handlers

// #region intel-handlers

func (s *Server) intelAnalyze(c *gin.Context) {
	daysBack := 30
	if v := c.Query("days_back"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			daysBack = n
		}
	}
	report, err := s.intel.AnalyzeList(c.Request.Context(), currentUser(c).ID,
		c.Param("listID"), daysBack, 200)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type analyzeMultipleRequest struct {
	ListIDs  []string `json:"list_ids" binding:"required"`
	DaysBack int      `json:"days_back"`
}

func (s *Server) intelAnalyzeMultiple(c *gin.Context) {
	var req analyzeMultipleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DaysBack <= 0 {
		req.DaysBack = 30
	}
	report, err := s.intel.AnalyzeLists(c.Request.Context(), currentUser(c).ID,
		req.ListIDs, req.DaysBack)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// #endregion intel-handlers

// #region x-handlers

func (s *Server) xLists(c *gin.Context) {
	u := currentUser(c)
	if u.XUsername == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X account not connected"})
		return
	}
	xUser, err := s.x.GetUserByUsername(c.Request.Context(), u.XUsername)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	lists, err := s.x.OwnedLists(c.Request.Context(), xUser.ID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lists": lists})
}

func (s *Server) xUser(c *gin.Context) {
	u := currentUser(c)
	if u.XUsername == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "X account not connected"})
		return
	}
	xUser, err := s.x.GetUserByUsername(c.Request.Context(), u.XUsername)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, xUser)
}

// #endregion x-handlers
