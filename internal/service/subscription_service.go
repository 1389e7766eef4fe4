package service

import (
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
)

// SubscriptionService manages subscription lifecycle after activation.
// Activation itself is owned by the payment flow.
type SubscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
}

// NewSubscriptionService creates a subscription service.
func NewSubscriptionService(subscriptionRepo repository.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{subscriptionRepo: subscriptionRepo}
}

// Current returns the user's active subscription, nil when none.
func (s *SubscriptionService) Current(userID uint) (*models.Subscription, error) {
	sub, err := s.subscriptionRepo.GetActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, nil
	}
	// Lazily expire a period that lapsed between sweeps.
	if sub.CurrentPeriodEnd.Before(time.Now()) {
		sub.Status = constants.SubscriptionStatusExpired
		if err := s.subscriptionRepo.Update(sub); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return sub, nil
}

// Cancel stops auto-continuation of an active subscription. Access runs to
// the end of the paid period.
func (s *SubscriptionService) Cancel(userID uint) error {
	sub, err := s.subscriptionRepo.GetActiveByUser(userID)
	if err != nil {
		return err
	}
	if sub == nil {
		return ErrSubscriptionNotFound
	}
	now := time.Now()
	sub.Status = constants.SubscriptionStatusCanceled
	sub.CanceledAt = &now
	return s.subscriptionRepo.Update(sub)
}

// List returns subscriptions for the admin panel.
func (s *SubscriptionService) List(filter repository.SubscriptionListFilter) ([]models.Subscription, int64, error) {
	return s.subscriptionRepo.List(filter)
}
