package services

import (
	"context"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/partnerclub/booking-service/internal/middleware"
	"github.com/partnerclub/booking-service/internal/models"
	"github.com/partnerclub/booking-service/internal/repositories"
	"github.com/partnerclub/booking-service/internal/utils"
	initdata "github.com/telegram-mini-apps/init-data-golang"
)

/*
AuthService exchanges Telegram-signed init data for a service access token.
The init data is the identity source of record: if its HMAC checks out
against the bot token, the embedded user is who Telegram says they are.
*/
type AuthService struct {
	partnerRepo    repositories.PartnerRepository
	botToken       string
	privateKey     *rsa.PrivateKey
	initDataExpiry time.Duration
	tokenTTL       time.Duration
}

func NewAuthService(
	partnerRepo repositories.PartnerRepository,
	botToken string,
	privateKey *rsa.PrivateKey,
	initDataExpiry, tokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		partnerRepo:    partnerRepo,
		botToken:       botToken,
		privateKey:     privateKey,
		initDataExpiry: initDataExpiry,
		tokenTTL:       tokenTTL,
	}
}

// Exchange validates the raw init data, upserts the partner record and mints
// an access token. Returns ErrInvalidInitData for anything Telegram did not
// sign recently enough.
func (s *AuthService) Exchange(ctx context.Context, rawInitData string) (string, *models.Partner, error) {
	if err := initdata.Validate(rawInitData, s.botToken, s.initDataExpiry); err != nil {
		return "", nil, utils.ErrInvalidInitData
	}

	data, err := initdata.Parse(rawInitData)
	if err != nil {
		return "", nil, utils.ErrInvalidInitData
	}
	if data.User.ID == 0 {
		return "", nil, utils.ErrInvalidInitData
	}

	partner, err := s.partnerRepo.Upsert(ctx, &models.Partner{
		ID:         uuid.New(),
		TelegramID: data.User.ID,
		FirstName:  data.User.FirstName,
		LastName:   data.User.LastName,
		Username:   data.User.Username,
	})
	if err != nil {
		return "", nil, fmt.Errorf("service: failed to upsert partner %d: %w", data.User.ID, err)
	}

	token, err := middleware.IssueToken(s.privateKey, partner.ID.String(), partner.TelegramID, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("service: failed to issue token for partner %s: %w", partner.ID, err)
	}

	utils.Logger.Infof("Partner %s (tg %d) authenticated", partner.ID, partner.TelegramID)
	return token, partner, nil
}
