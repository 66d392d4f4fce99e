package members

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	membershipdomain "membership-app-go/internal/domain/membership"
	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
)

type initiateRenewalRequest struct {
	PhoneNumber string `json:"phone_number"`
	Notes       string `json:"notes"`
}

func (r initiateRenewalRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PhoneNumber, validation.Length(9, 16)),
		validation.Field(&r.Notes, validation.Length(0, 1000)),
	)
}

type renewRequest struct {
	PaymentID string `json:"payment_id"`
}

func (r renewRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PaymentID, validation.Required, is.UUID),
	)
}

// InitiateOwnRenewal starts a renewal for the signed-in member.
func (h *Handlers) InitiateOwnRenewal(w http.ResponseWriter, r *http.Request) {
	member, userID, ok := h.ownMember(w, r, "renewals.initiate")
	if !ok {
		return
	}
	h.initiateRenewal(w, r, member.ID, userID)
}

// InitiateRenewal starts a renewal on behalf of a member.
func (h *Handlers) InitiateRenewal(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	memberID, ok := memberIDParam(w, r)
	if !ok {
		return
	}
	h.initiateRenewal(w, r, memberID, user.ID)
}

func (h *Handlers) initiateRenewal(w http.ResponseWriter, r *http.Request, memberID, actorID string) {
	var req initiateRenewalRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	started, err := h.Members.InitiateRenewal(r.Context(), membershipdomain.InitiateRenewalInput{
		MemberID:    memberID,
		ActorID:     actorID,
		PhoneNumber: req.PhoneNumber,
		Notes:       req.Notes,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "renewals.initiate", err, "member_id", memberID, "actor_id", actorID)
		return
	}

	h.Dashboard.Invalidate(r.Context())
	writeJSON(w, http.StatusCreated, renewalStartedResponse{
		Renewal: toRenewalResponse(started.Renewal),
		Payment: ToPaymentResponse(started.Payment),
	})
}

func (h *Handlers) ListRenewals(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDParam(w, r)
	if !ok {
		return
	}

	items, err := h.Members.ListRenewals(r.Context(), memberID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "renewals.list", err, "member_id", memberID)
		return
	}

	response := make([]renewalResponse, 0, len(items))
	for _, item := range items {
		response = append(response, toRenewalResponse(item))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CompleteRenewal(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	renewalID := strings.TrimSpace(chi.URLParam(r, "renewal_id"))
	if renewalID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "renewal_id is required")
		return
	}

	affected, err := h.Members.CompleteRenewal(r.Context(), renewalID, user.ID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "renewals.complete", err, "renewal_id", renewalID, "actor_id", user.ID)
		return
	}
	if affected > 0 {
		h.Dashboard.Invalidate(r.Context())
	}
	commonhandler.WriteAffected(w, affected)
}

// RenewMember extends a membership with a completed payment.
func (h *Handlers) RenewMember(w http.ResponseWriter, r *http.Request) {
	var req renewRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}
	h.transition(w, r, "members.renew", func(memberID, actorID string) (int64, error) {
		return h.Members.Renew(r.Context(), memberID, req.PaymentID, actorID)
	})
}
