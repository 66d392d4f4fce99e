package admin

import (
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	settingdomain "membership-app-go/internal/domain/setting"
	commonhandler "membership-app-go/internal/transport/httpserver/handler/common"
)

type upsertSettingRequest struct {
	Value       string `json:"value"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (r upsertSettingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Value, validation.Length(0, 10000)),
		validation.Field(&r.Description, validation.Length(0, 1000)),
	)
}

type settingResponse struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	UpdatedBy   *string   `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toSettingResponse(setting settingdomain.Setting) settingResponse {
	return settingResponse{
		Key:         setting.Key,
		Value:       setting.Value,
		Description: setting.Description,
		IsActive:    setting.IsActive,
		UpdatedBy:   setting.UpdatedBy,
		UpdatedAt:   setting.UpdatedAt,
	}
}

func (h *Handlers) ListSettings(w http.ResponseWriter, r *http.Request) {
	onlyActive, ok := activeOnly(w, r)
	if !ok {
		return
	}

	items, err := h.Settings.List(r.Context(), onlyActive)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "settings.list", err)
		return
	}

	response := make([]settingResponse, 0, len(items))
	for _, item := range items {
		response = append(response, toSettingResponse(item))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) GetSetting(w http.ResponseWriter, r *http.Request) {
	key, ok := pathParam(w, r, "key")
	if !ok {
		return
	}

	setting, err := h.Settings.Get(r.Context(), key)
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "settings.get", err, "key", key)
		return
	}
	writeJSON(w, http.StatusOK, toSettingResponse(*setting))
}

func (h *Handlers) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	key, ok := pathParam(w, r, "key")
	if !ok {
		return
	}

	var req upsertSettingRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	setting, err := h.Settings.Upsert(r.Context(), settingdomain.UpsertInput{
		Key:         key,
		Value:       req.Value,
		Description: req.Description,
		IsActive:    req.IsActive,
		ActorID:     user.ID,
	})
	if err != nil {
		commonhandler.WriteDomainError(w, h.log, "settings.upsert", err, "key", key, "actor_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toSettingResponse(*setting))
}
