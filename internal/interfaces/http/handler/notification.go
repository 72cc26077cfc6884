package handler

import (
	appnotification "github.com/bizconsult/crm/internal/application/notification"
	"github.com/bizconsult/crm/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// NotificationHandler handles outbound SMS requests
type NotificationHandler struct {
	BaseHandler
	notificationService *appnotification.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *appnotification.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// SendBusinessCard godoc
// @Summary      Send the manager's business card by SMS
// @Tags         notifications
// @Security     BearerAuth
// @Router       /notifications/business-card [post]
func (h *NotificationHandler) SendBusinessCard(c *gin.Context) {
	var req appnotification.MessageInput
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.notificationService.SendBusinessCard(c.Request.Context(), req, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// SendLongAbsence godoc
// @Summary      Send the long-absence notice by SMS
// @Tags         notifications
// @Security     BearerAuth
// @Router       /notifications/long-absence [post]
func (h *NotificationHandler) SendLongAbsence(c *gin.Context) {
	var req appnotification.MessageInput
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.notificationService.SendLongAbsence(c.Request.Context(), req, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
