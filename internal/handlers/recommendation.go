package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/novelshelf/novelshelf-backend/internal/recommendation"
	"github.com/novelshelf/novelshelf-backend/internal/services"
)

type RecommendationHandler struct {
	recService services.RecommendationService
}

func NewRecommendationHandler(recService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recService: recService}
}

func (rh *RecommendationHandler) Home(c *gin.Context) {
	rh.serve(c, recommendation.SurfaceHome)
}

func (rh *RecommendationHandler) Friends(c *gin.Context) {
	rh.serve(c, recommendation.SurfaceFriends)
}

func (rh *RecommendationHandler) serve(c *gin.Context, surface string) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	forceRefresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	result, err := rh.recService.Surface(c.Request.Context(), surface, limit, forceRefresh)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

func (rh *RecommendationHandler) Feedback(c *gin.Context) {
	var input services.FeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := rh.recService.RecordFeedback(c.Request.Context(), input); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (rh *RecommendationHandler) Metrics(c *gin.Context) {
	windowDays, _ := strconv.Atoi(c.DefaultQuery("window_days", "7"))
	metrics, err := rh.recService.Metrics(c.Request.Context(), c.Query("algorithm"), windowDays)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"metrics": metrics})
}
