package payments

import (
	billingdomain "membership-app-go/internal/domain/billing"
	dashboarddomain "membership-app-go/internal/domain/dashboard"
	membershipdomain "membership-app-go/internal/domain/membership"
	"membership-app-go/pkg/logger"
)

type Handlers struct {
	Payments  *billingdomain.Service
	Members   *membershipdomain.Service
	Dashboard *dashboarddomain.Service
	log       logger.Logger
}

func New(payments *billingdomain.Service, members *membershipdomain.Service, dashboard *dashboarddomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Payments:  payments,
		Members:   members,
		Dashboard: dashboard,
		log:       log,
	}
}
