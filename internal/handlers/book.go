package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/novelshelf/novelshelf-backend/internal/services"
)

type BookHandler struct {
	bookService services.BookService
}

func NewBookHandler(bookService services.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

func (bh *BookHandler) Create(c *gin.Context) {
	var input services.CreateBookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	book, err := bh.bookService.Create(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"book": book})
}

func (bh *BookHandler) GetByID(c *gin.Context) {
	bookID, err := parseBookID(c)
	if err != nil {
		return
	}
	book, err := bh.bookService.GetByID(c.Request.Context(), bookID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"book": book})
}

func (bh *BookHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	books, err := bh.bookService.Search(c.Request.Context(), c.Query("q"), limit, offset)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"books": books})
}

func (bh *BookHandler) Like(c *gin.Context) {
	bookID, err := parseBookID(c)
	if err != nil {
		return
	}
	if err := bh.bookService.Like(c.Request.Context(), bookID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (bh *BookHandler) Unlike(c *gin.Context) {
	bookID, err := parseBookID(c)
	if err != nil {
		return
	}
	if err := bh.bookService.Unlike(c.Request.Context(), bookID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (bh *BookHandler) Rate(c *gin.Context) {
	bookID, err := parseBookID(c)
	if err != nil {
		return
	}
	var input struct {
		Rating float64 `json:"rating"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := bh.bookService.Rate(c.Request.Context(), bookID, input.Rating); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseBookID pulls the :id path param, responding 400 itself on failure.
func parseBookID(c *gin.Context) (uuid.UUID, error) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid book id"))
		return uuid.Nil, err
	}
	return bookID, nil
}
