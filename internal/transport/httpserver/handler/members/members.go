package members

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	membershipdomain "membership-app-go/internal/domain/membership"
	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
)

const (
	bulkApprove = "approve"
	bulkReject  = "reject"
	bulkSuspend = "suspend"
)

type registrationRequest struct {
	CategoryID       string `json:"category_id"`
	CountryID        string `json:"country_id"`
	RegionID         string `json:"region_id"`
	FirstName        string `json:"first_name"`
	MiddleName       string `json:"middle_name"`
	LastName         string `json:"last_name"`
	DateOfBirth      string `json:"date_of_birth"`
	Gender           string `json:"gender"`
	NationalID       string `json:"national_id"`
	Email            string `json:"email"`
	PhoneNumber      string `json:"phone_number"`
	AlternativePhone string `json:"alternative_phone"`
	PostalAddress    string `json:"postal_address"`
	PhysicalAddress  string `json:"physical_address"`
	Occupation       string `json:"occupation"`
	Organization     string `json:"organization"`
}

func (r registrationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CategoryID, validation.Required, is.UUID),
		validation.Field(&r.CountryID, validation.Required, is.UUID),
		validation.Field(&r.RegionID, is.UUID),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.MiddleName, validation.Length(0, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.DateOfBirth, validation.Required, validation.Date(commonhandler.DateLayout)),
		validation.Field(&r.Gender, validation.Required, validation.Length(1, 1)),
		validation.Field(&r.NationalID, validation.Required, validation.Length(1, 20)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.PhoneNumber, validation.Required, validation.Length(9, 16)),
		validation.Field(&r.AlternativePhone, validation.Length(9, 16)),
		validation.Field(&r.PhysicalAddress, validation.Required),
		validation.Field(&r.Occupation, validation.Length(0, 100)),
		validation.Field(&r.Organization, validation.Length(0, 200)),
	)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (r rejectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Required, validation.Length(1, 1000)),
	)
}

type bulkActionRequest struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
	Reason string   `json:"reason"`
}

func (r bulkActionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Action, validation.Required, validation.In(bulkApprove, bulkReject, bulkSuspend)),
		validation.Field(&r.IDs, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.Reason, validation.By(r.requireReason)),
	)
}

func (r bulkActionRequest) requireReason(value interface{}) error {
	if r.Action == bulkReject && strings.TrimSpace(r.Reason) == "" {
		return errors.New("reason is required to reject")
	}
	return nil
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

func (r idsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDs, validation.Required, validation.Length(1, 500)),
	)
}

// SelfRegister creates the membership of the signed-in user.
func (h *Handlers) SelfRegister(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req registrationRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}
	dateOfBirth, err := commonhandler.ParseDateRequired(req.DateOfBirth)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid date_of_birth")
		return
	}

	member, err := h.Members.Register(r.Context(), membershipdomain.RegisterInput{
		UserID:           user.ID,
		ActorID:          user.ID,
		CategoryID:       req.CategoryID,
		CountryID:        req.CountryID,
		RegionID:         req.RegionID,
		FirstName:        req.FirstName,
		MiddleName:       req.MiddleName,
		LastName:         req.LastName,
		DateOfBirth:      dateOfBirth,
		Gender:           req.Gender,
		NationalID:       req.NationalID,
		Email:            req.Email,
		PhoneNumber:      req.PhoneNumber,
		AlternativePhone: req.AlternativePhone,
		PostalAddress:    req.PostalAddress,
		PhysicalAddress:  req.PhysicalAddress,
		Occupation:       req.Occupation,
		Organization:     req.Organization,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "members.register", err, "user_id", user.ID)
		return
	}

	h.Dashboard.Invalidate(r.Context())
	writeJSON(w, http.StatusCreated, toMemberResponse(*member, h.now()))
}

func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, err := commonhandler.Page(query.Get("limit"), query.Get("offset"), membershipdomain.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	filter := membershipdomain.ListFilter{
		Status:     query.Get("status"),
		CategoryID: strings.TrimSpace(query.Get("category_id")),
		CountryID:  strings.TrimSpace(query.Get("country_id")),
		Search:     query.Get("search"),
		Limit:      limit,
		Offset:     offset,
	}
	items, total, err := h.Members.List(r.Context(), filter)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "members.list", err)
		return
	}

	now := h.now()
	response := make([]memberResponse, 0, len(items))
	for _, item := range items {
		response = append(response, toMemberViewResponse(item, now))
	}
	writeJSON(w, http.StatusOK, memberListResponse{Items: response, Total: total, Limit: limit, Offset: offset})
}

func (h *Handlers) GetMember(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDParam(w, r)
	if !ok {
		return
	}

	member, err := h.Members.Get(r.Context(), memberID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "members.get", err, "member_id", memberID)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(*member, h.now()))
}

func (h *Handlers) ApproveMember(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "members.approve", func(memberID, actorID string) (int64, error) {
		return h.Members.Approve(r.Context(), memberID, actorID)
	})
}

func (h *Handlers) SuspendMember(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "members.suspend", func(memberID, actorID string) (int64, error) {
		return h.Members.Suspend(r.Context(), memberID, actorID)
	})
}

func (h *Handlers) RejectMember(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}
	h.transition(w, r, "members.reject", func(memberID, actorID string) (int64, error) {
		return h.Members.Reject(r.Context(), memberID, actorID, req.Reason)
	})
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, operation string, apply func(memberID, actorID string) (int64, error)) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	memberID, ok := memberIDParam(w, r)
	if !ok {
		return
	}

	affected, err := apply(memberID, user.ID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, operation, err, "member_id", memberID, "actor_id", user.ID)
		return
	}
	if affected > 0 {
		h.Dashboard.Invalidate(r.Context())
	}
	commonhandler.WriteAffected(w, affected)
}

func (h *Handlers) BulkAction(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req bulkActionRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}
	ids := commonhandler.UniqueIDs(req.IDs)

	var (
		affected int64
		err      error
	)
	switch req.Action {
	case bulkApprove:
		affected, err = h.Members.ApproveMany(r.Context(), ids, user.ID)
	case bulkReject:
		affected, err = h.Members.RejectMany(r.Context(), ids, user.ID, req.Reason)
	case bulkSuspend:
		affected, err = h.Members.SuspendMany(r.Context(), ids, user.ID)
	}
	if affected > 0 {
		h.Dashboard.Invalidate(r.Context())
	}
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "members.bulk_"+req.Action, err, "actor_id", user.ID, "applied", affected)
		return
	}
	commonhandler.WriteAffected(w, affected)
}

func (h *Handlers) DeleteMember(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	memberID, ok := memberIDParam(w, r)
	if !ok {
		return
	}

	if err := h.Members.Delete(r.Context(), memberID, user.ID); err != nil {
		commonhandler.WriteDomainError(w, h.log, "members.delete", err, "member_id", memberID, "actor_id", user.ID)
		return
	}

	h.Dashboard.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SendExpiryReminders(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req idsRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	sent, err := h.Members.SendExpiryReminders(r.Context(), commonhandler.UniqueIDs(req.IDs))
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "members.expiry_reminders", err, "actor_id", user.ID)
		return
	}
	commonhandler.WriteAffected(w, sent)
}

func memberIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	memberID := strings.TrimSpace(chi.URLParam(r, "id"))
	if memberID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return "", false
	}
	return memberID, true
}

// ownMember resolves the membership of the signed-in user.
func (h *Handlers) ownMember(w http.ResponseWriter, r *http.Request, operation string) (*membershipdomain.Member, string, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, "", false
	}
	member, err := h.Members.GetByUserID(r.Context(), user.ID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, operation, err, "user_id", user.ID)
		return nil, "", false
	}
	return member, user.ID, true
}
