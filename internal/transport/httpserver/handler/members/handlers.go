package members

import (
	"time"

	billingdomain "membership-app-go/internal/domain/billing"
	dashboarddomain "membership-app-go/internal/domain/dashboard"
	membershipdomain "membership-app-go/internal/domain/membership"
	"membership-app-go/pkg/logger"
)

type Handlers struct {
	Members        *membershipdomain.Service
	Payments       *billingdomain.Service
	Dashboard      *dashboarddomain.Service
	maxUploadBytes int64
	now            func() time.Time
	log            logger.Logger
}

func New(members *membershipdomain.Service, payments *billingdomain.Service, dashboard *dashboarddomain.Service, maxUploadBytes int64, log logger.Logger) *Handlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = membershipdomain.DefaultMaxDocumentBytes
	}
	return &Handlers{
		Members:        members,
		Payments:       payments,
		Dashboard:      dashboard,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
		log:            log,
	}
}
