package controllers

import (
	"learnhub/backend/config"
	"learnhub/backend/middleware"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

type NotificationController struct {
	Notifications *services.NotificationService
	Cfg           *config.Config
}

func NewNotificationController(notifications *services.NotificationService, cfg *config.Config) *NotificationController {
	return &NotificationController{Notifications: notifications, Cfg: cfg}
}

// ListNotifications returns the acting user's notifications, newest first.
// ?unread=true limits the list to unread ones.
func (nc *NotificationController) ListNotifications(c *fiber.Ctx) error {
	claims, _ := middleware.Claims(c)
	page, pageSize := utils.ParsePage(c, 20, 100)

	notifications, total, err := nc.Notifications.ListForUser(c.UserContext(), claims.UserID, c.QueryBool("unread"), page, pageSize)
	if err != nil {
		return utils.HandleError(c, err, nc.Cfg)
	}
	return utils.Paginate(c, notifications, total, page, pageSize)
}

func (nc *NotificationController) MarkRead(c *fiber.Ctx) error {
	id, err := utils.ParseUintParam(c, "id")
	if err != nil {
		return utils.HandleError(c, err, nc.Cfg)
	}
	claims, _ := middleware.Claims(c)

	notification, err := nc.Notifications.MarkRead(c.UserContext(), claims.UserID, id)
	if err != nil {
		return utils.HandleError(c, err, nc.Cfg)
	}
	return utils.OK(c, notification)
}
