package handler

import (
	adminhandler "membership-app-go/internal/transport/httpserver/handler/admin"
	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
	membershandler "membership-app-go/internal/transport/httpserver/handler/members"
	paymentshandler "membership-app-go/internal/transport/httpserver/handler/payments"
)

type Handlers struct {
	Common   *commonhandler.Handlers
	Members  *membershandler.Handlers
	Payments *paymentshandler.Handlers
	Admin    *adminhandler.Handlers
}

func New(common *commonhandler.Handlers, members *membershandler.Handlers, payments *paymentshandler.Handlers, admin *adminhandler.Handlers) *Handlers {
	return &Handlers{
		Common:   common,
		Members:  members,
		Payments: payments,
		Admin:    admin,
	}
}
