package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/novelshelf/novelshelf-backend/internal/services"
)

type ShelfHandler struct {
	shelfService services.ShelfService
}

func NewShelfHandler(shelfService services.ShelfService) *ShelfHandler {
	return &ShelfHandler{shelfService: shelfService}
}

func (sh *ShelfHandler) Shelve(c *gin.Context) {
	bookID, err := parseBookID(c)
	if err != nil {
		return
	}
	var input struct {
		Shelf string `json:"shelf"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	item, err := sh.shelfService.Shelve(c.Request.Context(), bookID, input.Shelf)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"item": item})
}

func (sh *ShelfHandler) Unshelve(c *gin.Context) {
	bookID, err := parseBookID(c)
	if err != nil {
		return
	}
	if err := sh.shelfService.Unshelve(c.Request.Context(), bookID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (sh *ShelfHandler) List(c *gin.Context) {
	entries, err := sh.shelfService.List(c.Request.Context(), c.Query("shelf"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"shelf": entries})
}
