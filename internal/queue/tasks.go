package queue

import (
	"encoding/json"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskTicketNotifyEmail notifies a ticket owner about an admin reply.
	TaskTicketNotifyEmail = constants.TaskTicketNotifyEmail
	// TaskOrderTimeoutCancel expires an order whose payment window lapsed.
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
	// TaskAffiliateStatsRefresh recomputes derived affiliate stats.
	TaskAffiliateStatsRefresh = constants.TaskAffiliateStatsRefresh
)

// TicketNotifyEmailPayload carries the ticket to notify about.
type TicketNotifyEmailPayload struct {
	TicketID uint `json:"ticket_id"`
}

// OrderTimeoutCancelPayload carries the order to expire.
type OrderTimeoutCancelPayload struct {
	OrderNo string `json:"order_no"`
}

// AffiliateStatsRefreshPayload selects which affiliates to refresh.
// AffiliateID zero means all.
type AffiliateStatsRefreshPayload struct {
	AffiliateID uint `json:"affiliate_id"`
}

// NewTicketNotifyEmailTask builds a ticket notification task.
func NewTicketNotifyEmailTask(payload TicketNotifyEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTicketNotifyEmail, body), nil
}

// NewOrderTimeoutCancelTask builds an order expiry task.
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}

// NewAffiliateStatsRefreshTask builds a stats refresh task.
func NewAffiliateStatsRefreshTask(payload AffiliateStatsRefreshPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAffiliateStatsRefresh, body), nil
}
