package reviews

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/pkg/common"
	"github.com/richxcame/verified-reviews/pkg/logger"
	"github.com/richxcame/verified-reviews/pkg/middleware"
	"github.com/richxcame/verified-reviews/pkg/pagination"
	"github.com/richxcame/verified-reviews/pkg/validation"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for reviews
type Handler struct {
	service *Service
}

// NewHandler creates a new reviews handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SubmitReview accepts a location-verified review from the caller
func (h *Handler) SubmitReview(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var sub Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	sub.UserID = userID

	result, err := h.service.SubmitReview(c.Request.Context(), &sub)
	if err != nil {
		appErr := ToAppError(err)
		if appErr.Code >= http.StatusInternalServerError {
			logger.WithContext(c.Request.Context()).Error("review submission failed", zap.Error(err))
		}
		var fieldErrs *validation.ValidationError
		if IsKind(err, KindValidation) && errors.As(err, &fieldErrs) {
			middleware.RespondWithValidationError(c, fieldErrs)
			return
		}
		common.AppErrorResponse(c, appErr)
		return
	}

	common.CreatedResponse(c, result)
}

// GetReview returns a single review
func (h *Handler) GetReview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid review ID")
		return
	}

	review, err := h.service.GetReview(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrReviewNotFound) {
			common.AppErrorResponse(c, common.NewNotFoundError("review not found", err))
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get review")
		return
	}

	common.SuccessResponse(c, review)
}

// ListBusinessReviews returns a page of a business's reviews
func (h *Handler) ListBusinessReviews(c *gin.Context) {
	businessID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid business ID")
		return
	}

	params := pagination.ParseParams(c)
	reviews, total, err := h.service.ListBusinessReviews(c.Request.Context(), businessID, params.Limit, params.Offset)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	common.SuccessResponseWithMeta(c, reviews, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// RegisterRoutes mounts review routes
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/reviews", h.SubmitReview)
	api.GET("/reviews/:id", h.GetReview)
	api.GET("/businesses/:id/reviews", h.ListBusinessReviews)
}
