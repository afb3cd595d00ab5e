package dtos

type TelegramAuthRequest struct {
	InitData string `json:"initData" validate:"required"`
}

type TelegramAuthResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
	PartnerID   string `json:"partnerId"`
}
