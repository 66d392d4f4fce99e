package admin

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	locationdomain "membership-app-go/internal/domain/location"
	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
)

type countryRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	IsActive *bool  `json:"is_active"`
}

func (r countryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Code, validation.Required, validation.Length(2, 3)),
	)
}

type regionRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	IsActive *bool  `json:"is_active"`
}

func (r regionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Code, validation.Required, validation.Length(1, 10)),
	)
}

type countryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type regionResponse struct {
	ID        string    `json:"id"`
	CountryID string    `json:"country_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toCountryResponse(country locationdomain.Country) countryResponse {
	return countryResponse{
		ID:        country.ID,
		Name:      country.Name,
		Code:      country.Code,
		IsActive:  country.IsActive,
		CreatedAt: country.CreatedAt,
	}
}

func toRegionResponse(region locationdomain.Region) regionResponse {
	return regionResponse{
		ID:        region.ID,
		CountryID: region.CountryID,
		Name:      region.Name,
		Code:      region.Code,
		IsActive:  region.IsActive,
		CreatedAt: region.CreatedAt,
	}
}

func isActiveOrDefault(value *bool) bool {
	if value == nil {
		return true
	}
	return *value
}

func (h *Handlers) ListCountries(w http.ResponseWriter, r *http.Request) {
	onlyActive, ok := activeOnly(w, r)
	if !ok {
		return
	}

	items, err := h.Locations.ListCountries(r.Context(), onlyActive)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "countries.list", err)
		return
	}

	response := make([]countryResponse, 0, len(items))
	for _, item := range items {
		response = append(response, toCountryResponse(item))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateCountry(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req countryRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	country, err := h.Locations.CreateCountry(r.Context(), locationdomain.CountryInput{
		Name:     req.Name,
		Code:     req.Code,
		IsActive: isActiveOrDefault(req.IsActive),
		ActorID:  user.ID,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "countries.create", err, "actor_id", user.ID)
		return
	}
	writeJSON(w, http.StatusCreated, toCountryResponse(*country))
}

func (h *Handlers) UpdateCountry(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	countryID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	var req countryRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	country, err := h.Locations.UpdateCountry(r.Context(), locationdomain.CountryInput{
		ID:       countryID,
		Name:     req.Name,
		Code:     req.Code,
		IsActive: isActiveOrDefault(req.IsActive),
		ActorID:  user.ID,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "countries.update", err, "country_id", countryID, "actor_id", user.ID)
		return
	}

	h.Dashboard.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, toCountryResponse(*country))
}

func (h *Handlers) DeleteCountry(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	countryID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Locations.DeleteCountry(r.Context(), countryID, user.ID); err != nil {
		commonhandler.WriteDomainError(w, h.log, "countries.delete", err, "country_id", countryID, "actor_id", user.ID)
		return
	}

	h.Dashboard.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListRegions(w http.ResponseWriter, r *http.Request) {
	countryID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}
	onlyActive, ok := activeOnly(w, r)
	if !ok {
		return
	}

	items, err := h.Locations.ListRegions(r.Context(), countryID, onlyActive)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "regions.list", err, "country_id", countryID)
		return
	}

	response := make([]regionResponse, 0, len(items))
	for _, item := range items {
		response = append(response, toRegionResponse(item))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateRegion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	countryID, ok := pathParam(w, r, "id")
	if !ok {
		return
	}

	var req regionRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	region, err := h.Locations.CreateRegion(r.Context(), locationdomain.RegionInput{
		CountryID: countryID,
		Name:      req.Name,
		Code:      req.Code,
		IsActive:  isActiveOrDefault(req.IsActive),
		ActorID:   user.ID,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "regions.create", err, "country_id", countryID, "actor_id", user.ID)
		return
	}
	writeJSON(w, http.StatusCreated, toRegionResponse(*region))
}

func (h *Handlers) UpdateRegion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	regionID, ok := pathParam(w, r, "region_id")
	if !ok {
		return
	}

	var req regionRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	region, err := h.Locations.UpdateRegion(r.Context(), locationdomain.RegionInput{
		ID:       regionID,
		Name:     req.Name,
		Code:     req.Code,
		IsActive: isActiveOrDefault(req.IsActive),
		ActorID:  user.ID,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "regions.update", err, "region_id", regionID, "actor_id", user.ID)
		return
	}

	h.Dashboard.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, toRegionResponse(*region))
}

func (h *Handlers) DeleteRegion(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	regionID, ok := pathParam(w, r, "region_id")
	if !ok {
		return
	}

	if err := h.Locations.DeleteRegion(r.Context(), regionID, user.ID); err != nil {
		commonhandler.WriteDomainError(w, h.log, "regions.delete", err, "region_id", regionID, "actor_id", user.ID)
		return
	}

	h.Dashboard.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
