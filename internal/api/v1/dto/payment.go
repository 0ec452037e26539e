package dto

type CreatePreferenceRequest struct {
	Plan string `json:"plan" validate:"required"`
}

type CreatePreferenceResponse struct {
	PreferenceID string `json:"preferenceId"`
}
