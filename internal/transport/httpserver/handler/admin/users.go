package admin

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	userdomain "membership-app-go/internal/domain/user"
	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
)

type createUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Password    string `json:"password"`
	UserType    string `json:"user_type"`
}

func (r createUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 150)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.PhoneNumber, validation.Length(9, 16)),
		validation.Field(&r.Password, validation.Required, validation.Length(userdomain.MinPasswordLength, 128)),
		validation.Field(&r.UserType, validation.Required, validation.In(
			userdomain.TypeMember, userdomain.TypeStaff, userdomain.TypeAdmin,
		)),
	)
}

type userIDsRequest struct {
	IDs []string `json:"ids"`
}

func (r userIDsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDs, validation.Required, validation.Length(1, 500)),
	)
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset, err := commonhandler.Page(query.Get("limit"), query.Get("offset"), userdomain.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	verified, err := commonhandler.ParseBoolParam(query.Get("is_verified"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid is_verified")
		return
	}
	active, err := commonhandler.ParseBoolParam(query.Get("is_active"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid is_active")
		return
	}

	items, total, err := h.Users.List(r.Context(), userdomain.ListFilter{
		UserType:   query.Get("user_type"),
		IsVerified: verified,
		IsActive:   active,
		Search:     query.Get("search"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "users.list", err)
		return
	}

	response := make([]commonhandler.UserResponse, 0, len(items))
	for _, item := range items {
		response = append(response, commonhandler.ToUserResponse(item))
	}
	commonhandler.WriteList(w, response, total, limit, offset)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	user, err := h.Users.Get(r.Context(), userID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "users.get", err, "user_id", userID)
		return
	}
	writeJSON(w, http.StatusOK, commonhandler.ToUserResponse(*user))
}

// CreateUser creates an account of any type, typically staff.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createUserRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.Users.Register(r.Context(), userdomain.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Password:    req.Password,
		UserType:    req.UserType,
		ActorID:     actor.ID,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "users.create", err, "actor_id", actor.ID)
		return
	}
	writeJSON(w, http.StatusCreated, commonhandler.ToUserResponse(*user))
}

func (h *Handlers) VerifyUsers(w http.ResponseWriter, r *http.Request) {
	h.bulkUsers(w, r, "users.verify", h.Users.VerifyUsers)
}

func (h *Handlers) DeactivateUsers(w http.ResponseWriter, r *http.Request) {
	h.bulkUsers(w, r, "users.deactivate", h.Users.DeactivateUsers)
}

func (h *Handlers) bulkUsers(w http.ResponseWriter, r *http.Request, operation string, apply func(ctx context.Context, ids []string, actorID string) (int64, error)) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req userIDsRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	affected, err := apply(r.Context(), commonhandler.UniqueIDs(req.IDs), actor.ID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, operation, err, "actor_id", actor.ID)
		return
	}
	commonhandler.WriteAffected(w, affected)
}
