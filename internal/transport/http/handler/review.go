package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goosetrack/goosetrack-api/internal/domain"
	"github.com/goosetrack/goosetrack-api/internal/transport/http/middleware"
)

type reviewUsecaser interface {
	Create(ctx context.Context, owner *domain.User, rating int, text string) (*domain.Review, error)
	ListAll(ctx context.Context) ([]*domain.Review, error)
	FindOwn(ctx context.Context, owner *domain.User) (*domain.Review, error)
	UpdateOwn(ctx context.Context, owner *domain.User, rating int, text string) (*domain.Review, error)
	RemoveOwn(ctx context.Context, owner *domain.User) (*domain.Review, error)
}

type ReviewHandler struct {
	reviewUsecase reviewUsecaser
}

func NewReviewHandler(reviewUsecase reviewUsecaser) *ReviewHandler {
	return &ReviewHandler{reviewUsecase: reviewUsecase}
}

type reviewRequest struct {
	Rating int    `json:"rating" binding:"required,gte=1,lte=5"`
	Text   string `json:"text"   binding:"required,max=300"`
}

type reviewResponse struct {
	ID        string    `json:"_id"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	Owner     any       `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toReviewResponse(r *domain.Review) *reviewResponse {
	if r == nil {
		return nil
	}
	var owner any = r.OwnerID
	if r.Owner != nil {
		owner = r.Owner
	}
	return &reviewResponse{
		ID:        r.ID,
		Rating:    r.Rating,
		Text:      r.Text,
		Owner:     owner,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// GET /api/reviews
func (h *ReviewHandler) List(c *gin.Context) {
	reviews, err := h.reviewUsecase.ListAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	out := make([]*reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, toReviewResponse(r))
	}
	respondList(c, http.StatusOK, out)
}

// GET /api/reviews/own, data is null when the caller has no review
func (h *ReviewHandler) FindOwn(c *gin.Context) {
	review, err := h.reviewUsecase.FindOwn(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, toReviewResponse(review))
}

// POST /api/reviews/own
func (h *ReviewHandler) Create(c *gin.Context) {
	var req reviewRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	review, err := h.reviewUsecase.Create(c.Request.Context(), middleware.CurrentUser(c), req.Rating, req.Text)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusCreated, toReviewResponse(review))
}

// PATCH /api/reviews/own
func (h *ReviewHandler) Update(c *gin.Context) {
	var req reviewRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	review, err := h.reviewUsecase.UpdateOwn(c.Request.Context(), middleware.CurrentUser(c), req.Rating, req.Text)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, toReviewResponse(review))
}

// DELETE /api/reviews/own
func (h *ReviewHandler) Remove(c *gin.Context) {
	review, err := h.reviewUsecase.RemoveOwn(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"data":    toReviewResponse(review),
		"message": "Review deleted successfully",
	})
}
