package entity

import "time"

// Estados de una suscripción.
const (
	SubscriptionActive   = "active"
	SubscriptionTrialing = "trialing"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Subscription vincula una organización con su plan vigente. La mantiene el sistema de facturación;
// este servicio solo la lee.
type Subscription struct {
	OrganizationID string
	PlanCode       string
	Status         string // active, trialing, past_due, canceled
	PeriodStart    time.Time
	PeriodEnd      *time.Time // nil = sin vencimiento
	TrialEnd       *time.Time
}

// IsCurrent informa si la suscripción otorga su plan en el instante now.
// past_due conserva el plan (periodo de gracia); canceled nunca lo hace.
func (s *Subscription) IsCurrent(now time.Time) bool {
	if s == nil {
		return false
	}
	switch s.Status {
	case SubscriptionActive, SubscriptionPastDue:
		return s.PeriodEnd == nil || s.PeriodEnd.After(now)
	case SubscriptionTrialing:
		return s.TrialEnd == nil || s.TrialEnd.After(now)
	default:
		return false
	}
}
