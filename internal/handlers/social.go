package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/novelshelf/novelshelf-backend/internal/services"
)

type SocialHandler struct {
	socialService services.SocialService
}

func NewSocialHandler(socialService services.SocialService) *SocialHandler {
	return &SocialHandler{socialService: socialService}
}

func (sh *SocialHandler) Follow(c *gin.Context) {
	followeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid user id"))
		return
	}
	if err := sh.socialService.Follow(c.Request.Context(), followeeID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (sh *SocialHandler) Unfollow(c *gin.Context) {
	followeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid user id"))
		return
	}
	if err := sh.socialService.Unfollow(c.Request.Context(), followeeID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (sh *SocialHandler) Following(c *gin.Context) {
	users, err := sh.socialService.Following(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"following": users})
}

func (sh *SocialHandler) Followers(c *gin.Context) {
	users, err := sh.socialService.Followers(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"followers": users})
}
