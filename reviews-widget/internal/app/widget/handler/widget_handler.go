package handler

import (
	"errors"
	"net/http"
	"strconv"

	"gymsite/pkg/logger"
	"gymsite/reviews-widget/internal/app/widget/entity"
	"gymsite/reviews-widget/internal/app/widget/service"

	"github.com/gin-gonic/gin"
)

const widgetTemplate = "widget.html"

type WidgetHandler struct {
	widgetService service.WidgetServiceInterface
}

func NewWidgetHandler(widgetService service.WidgetServiceInterface) *WidgetHandler {
	return &WidgetHandler{
		widgetService: widgetService,
	}
}

// ShowWidget отрисовывает виджет: три фиксированных отзыва, средний рейтинг и форму
func (h *WidgetHandler) ShowWidget(c *gin.Context) {
	sessionID, ok := sessionIDFrom(c)
	if !ok {
		c.String(http.StatusInternalServerError, "Session is not initialized")
		return
	}

	session, err := h.widgetService.Mount(c.Request.Context(), sessionID)
	if err != nil {
		logger.Ctx(c.Request.Context()).Error().Err(err).Msg("Failed to mount widget")
		c.String(http.StatusInternalServerError, "Failed to load reviews")
		return
	}

	c.HTML(http.StatusOK, widgetTemplate, h.widgetService.View(session, nil))
}

// SubmitForm принимает отправку HTML формы и отрисовывает виджет с уведомлением
func (h *WidgetHandler) SubmitForm(c *gin.Context) {
	sessionID, ok := sessionIDFrom(c)
	if !ok {
		c.String(http.StatusInternalServerError, "Session is not initialized")
		return
	}

	var draft entity.Draft
	if err := c.ShouldBind(&draft); err != nil {
		c.String(http.StatusBadRequest, "Invalid form data")
		return
	}

	result, err := h.widgetService.Submit(c.Request.Context(), sessionID, draft)
	if err != nil {
		logger.Ctx(c.Request.Context()).Error().Err(err).Msg("Failed to submit review")
		c.String(http.StatusInternalServerError, "Failed to submit review")
		return
	}

	c.HTML(submissionStatus(result.Outcome), widgetTemplate, h.widgetService.View(result.Session, result.Notification))
}

// RecordImageError вызывается из onerror изображения отзыва
func (h *WidgetHandler) RecordImageError(c *gin.Context) {
	sessionID, ok := sessionIDFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Session is not initialized"})
		return
	}

	reviewID, err := strconv.Atoi(c.Param("review_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid review ID"})
		return
	}

	if err := h.widgetService.RecordImageError(c.Request.Context(), sessionID, reviewID); err != nil {
		if errors.Is(err, service.ErrInvalidReviewID) {
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid review ID"})
			return
		}
		logger.Ctx(c.Request.Context()).Error().Err(err).Int("review_id", reviewID).Msg("Failed to record image error")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to record image error"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetState возвращает модель виджета в JSON
func (h *WidgetHandler) GetState(c *gin.Context) {
	sessionID, ok := sessionIDFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Session is not initialized"})
		return
	}

	session, err := h.widgetService.Mount(c.Request.Context(), sessionID)
	if err != nil {
		logger.Ctx(c.Request.Context()).Error().Err(err).Msg("Failed to mount widget")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to load reviews"})
		return
	}

	c.JSON(http.StatusOK, h.widgetService.View(session, nil))
}

// SubmitReview - JSON вариант отправки формы
func (h *WidgetHandler) SubmitReview(c *gin.Context) {
	sessionID, ok := sessionIDFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Session is not initialized"})
		return
	}

	var req entity.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	result, err := h.widgetService.Submit(c.Request.Context(), sessionID, draftFromRequest(&req))
	if err != nil {
		logger.Ctx(c.Request.Context()).Error().Err(err).Msg("Failed to submit review")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to submit review"})
		return
	}

	c.JSON(submissionStatus(result.Outcome), h.widgetService.View(result.Session, result.Notification))
}

// draftFromRequest приводит JSON запрос к виду формы; отсутствующая оценка - пустая строка
func draftFromRequest(req *entity.SubmitReviewRequest) entity.Draft {
	draft := entity.Draft{Name: req.Name, Message: req.Message}
	if req.Rating != 0 {
		draft.Rating = strconv.Itoa(req.Rating)
	}
	return draft
}

func submissionStatus(outcome service.SubmissionOutcome) int {
	switch outcome {
	case service.OutcomeSucceeded:
		return http.StatusOK
	case service.OutcomeInvalid:
		return http.StatusUnprocessableEntity
	case service.OutcomeInProgress:
		return http.StatusConflict
	case service.OutcomeRejected, service.OutcomeNetworkError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
