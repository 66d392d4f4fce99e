package members

import (
	"net/http"
	"time"

	dashboarddomain "membership-app-go/internal/domain/dashboard"
	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
)

type memberDashboardResponse struct {
	Member              memberResponse                       `json:"member"`
	IsActive            bool                                 `json:"is_active"`
	DaysUntilExpiry     *int                                 `json:"days_until_expiry,omitempty"`
	Payments            []PaymentResponse                    `json:"payments"`
	Notifications       []commonhandler.NotificationResponse `json:"notifications"`
	UnreadNotifications int64                                `json:"unread_notifications"`
	Certificates        []certificateResponse                `json:"certificates"`
	Renewals            []renewalResponse                    `json:"renewals"`
	Documents           []documentResponse                   `json:"documents"`
}

func (h *Handlers) MemberDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.Dashboard.Member(r.Context(), user.ID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "dashboard.member", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toMemberDashboardResponse(result, h.now()))
}

func (h *Handlers) StaffDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	result, err := h.Dashboard.Staff(r.Context(), user.ID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "dashboard.staff", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func toMemberDashboardResponse(result dashboarddomain.MemberDashboard, now time.Time) memberDashboardResponse {
	response := memberDashboardResponse{
		Member:              toMemberViewResponse(result.Member, now),
		IsActive:            result.IsActive,
		DaysUntilExpiry:     result.DaysUntilExpiry,
		Payments:            make([]PaymentResponse, 0, len(result.Payments)),
		Notifications:       make([]commonhandler.NotificationResponse, 0, len(result.Notifications)),
		UnreadNotifications: result.UnreadNotifications,
		Certificates:        make([]certificateResponse, 0, len(result.Certificates)),
		Renewals:            make([]renewalResponse, 0, len(result.Renewals)),
		Documents:           make([]documentResponse, 0, len(result.Documents)),
	}
	for _, payment := range result.Payments {
		response.Payments = append(response.Payments, ToPaymentResponse(payment))
	}
	for _, item := range result.Notifications {
		response.Notifications = append(response.Notifications, commonhandler.ToNotificationResponse(item))
	}
	for _, certificate := range result.Certificates {
		response.Certificates = append(response.Certificates, toCertificateResponse(certificate))
	}
	for _, renewal := range result.Renewals {
		response.Renewals = append(response.Renewals, toRenewalResponse(renewal))
	}
	for _, document := range result.Documents {
		response.Documents = append(response.Documents, toDocumentResponse(document))
	}
	return response
}
