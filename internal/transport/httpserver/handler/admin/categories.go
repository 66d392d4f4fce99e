package admin

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	membershipdomain "membership-app-go/internal/domain/membership"
	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
)

type categoryRequest struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	RegistrationFee float64 `json:"registration_fee"`
	AnnualFee       float64 `json:"annual_fee"`
	Benefits        string  `json:"benefits"`
	DurationMonths  int     `json:"duration_months"`
	IsActive        *bool   `json:"is_active"`
}

func (r categoryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.RegistrationFee, validation.Min(0.0)),
		validation.Field(&r.AnnualFee, validation.Min(0.0)),
		validation.Field(&r.DurationMonths, validation.Min(0), validation.Max(120)),
	)
}

type categoryResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	RegistrationFee float64   `json:"registration_fee"`
	AnnualFee       float64   `json:"annual_fee"`
	Benefits        string    `json:"benefits"`
	DurationMonths  int       `json:"duration_months"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toCategoryResponse(category membershipdomain.Category) categoryResponse {
	return categoryResponse{
		ID:              category.ID,
		Name:            category.Name,
		Description:     category.Description,
		RegistrationFee: category.RegistrationFee,
		AnnualFee:       category.AnnualFee,
		Benefits:        category.Benefits,
		DurationMonths:  category.DurationMonths,
		IsActive:        category.IsActive,
		CreatedAt:       category.CreatedAt,
		UpdatedAt:       category.UpdatedAt,
	}
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	onlyActive, ok := activeOnly(w, r)
	if !ok {
		return
	}

	items, err := h.Members.ListCategories(r.Context(), onlyActive)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "categories.list", err)
		return
	}

	response := make([]categoryResponse, 0, len(items))
	for _, item := range items {
		response = append(response, toCategoryResponse(item))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	category, err := h.Members.GetCategory(r.Context(), categoryID)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "categories.get", err, "category_id", categoryID)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(*category))
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	category, err := h.Members.CreateCategory(r.Context(), membershipdomain.CreateCategoryInput{
		Name:            req.Name,
		Description:     req.Description,
		RegistrationFee: req.RegistrationFee,
		AnnualFee:       req.AnnualFee,
		Benefits:        req.Benefits,
		DurationMonths:  req.DurationMonths,
		ActorID:         user.ID,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "categories.create", err, "actor_id", user.ID)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(*category))
}

func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	categoryID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	var req categoryRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	category, err := h.Members.UpdateCategory(r.Context(), membershipdomain.UpdateCategoryInput{
		ID:              categoryID,
		Name:            req.Name,
		Description:     req.Description,
		RegistrationFee: req.RegistrationFee,
		AnnualFee:       req.AnnualFee,
		Benefits:        req.Benefits,
		DurationMonths:  req.DurationMonths,
		IsActive:        isActive,
		ActorID:         user.ID,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "categories.update", err, "category_id", categoryID, "actor_id", user.ID)
		return
	}

	h.Dashboard.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, toCategoryResponse(*category))
}

func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	categoryID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Members.DeleteCategory(r.Context(), categoryID, user.ID); err != nil {
		commonhandler.WriteDomainError(w, h.log, "categories.delete", err, "category_id", categoryID, "actor_id", user.ID)
		return
	}

	h.Dashboard.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
