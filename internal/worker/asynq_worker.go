package worker

import (
	"context"
	"encoding/json"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/logger"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/provider"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer handles the async tasks.
type Consumer struct {
	*provider.Container
}

// NewConsumer creates a consumer over the DI container.
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{Container: c}
}

// Register binds task handlers onto the mux.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskTicketNotifyEmail, c.handleTicketNotifyEmail)
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.handleOrderTimeoutCancel)
	mux.HandleFunc(queue.TaskAffiliateStatsRefresh, c.handleAffiliateStatsRefresh)
}

func (c *Consumer) handleTicketNotifyEmail(_ context.Context, task *asynq.Task) error {
	var payload queue.TicketNotifyEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_ticket_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.TicketID == 0 {
		return nil
	}

	email, subject, err := c.TicketService.OwnerEmail(payload.TicketID)
	if err != nil {
		logger.Warnw("worker_ticket_notify_resolve_failed", "ticket_id", payload.TicketID, "error", err)
		return err
	}
	if c.EmailService == nil {
		return nil
	}
	if err := c.EmailService.SendTicketReplyNotification(email, subject); err != nil {
		logger.Warnw("worker_ticket_notify_send_failed",
			"ticket_id", payload.TicketID, "email", email, "error", err)
		return err
	}
	logger.Infow("worker_ticket_notify_sent", "ticket_id", payload.TicketID)
	return nil
}

func (c *Consumer) handleOrderTimeoutCancel(_ context.Context, task *asynq.Task) error {
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderNo == "" {
		return nil
	}

	if err := c.OrderService.CancelExpired(payload.OrderNo); err != nil {
		logger.Warnw("worker_order_timeout_cancel_failed", "order_no", payload.OrderNo, "error", err)
		return err
	}
	logger.Infow("worker_order_timeout_checked", "order_no", payload.OrderNo)
	return nil
}

func (c *Consumer) handleAffiliateStatsRefresh(_ context.Context, task *asynq.Task) error {
	var payload queue.AffiliateStatsRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_affiliate_refresh_unmarshal_failed", "error", err)
		return err
	}

	if payload.AffiliateID != 0 {
		if err := c.AffiliateService.RefreshStats(payload.AffiliateID); err != nil {
			logger.Warnw("worker_affiliate_refresh_failed", "affiliate_id", payload.AffiliateID, "error", err)
			return err
		}
		return nil
	}

	count, err := c.AffiliateService.RefreshAllStats()
	if err != nil {
		logger.Warnw("worker_affiliate_refresh_all_failed", "refreshed", count, "error", err)
		return err
	}
	logger.Infow("worker_affiliate_refresh_all_done", "refreshed", count)
	return nil
}
