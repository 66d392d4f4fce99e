package admin

import (
	auditdomain "membership-app-go/internal/domain/audit"
	dashboarddomain "membership-app-go/internal/domain/dashboard"
	locationdomain "membership-app-go/internal/domain/location"
	membershipdomain "membership-app-go/internal/domain/membership"
	settingdomain "membership-app-go/internal/domain/setting"
	userdomain "membership-app-go/internal/domain/user"
	"membership-app-go/pkg/logger"
)

type Handlers struct {
	Users     *userdomain.Service
	Members   *membershipdomain.Service
	Locations *locationdomain.Service
	Settings  *settingdomain.Service
	Audit     *auditdomain.Service
	Dashboard *dashboarddomain.Service
	log       logger.Logger
}

func New(
	users *userdomain.Service,
	members *membershipdomain.Service,
	locations *locationdomain.Service,
	settings *settingdomain.Service,
	audit *auditdomain.Service,
	dashboard *dashboarddomain.Service,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Users:     users,
		Members:   members,
		Locations: locations,
		Settings:  settings,
		Audit:     audit,
		Dashboard: dashboard,
		log:       log,
	}
}
