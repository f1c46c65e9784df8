package repository

import (
	"context"

	"procureflow/internal/model"

	"gorm.io/gorm"
)

// TokenRepository persists refresh tokens.
type TokenRepository interface {
	CreateToken(ctx context.Context, token *model.RefreshToken) error
	GetToken(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteToken(ctx context.Context, token string) error
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) CreateToken(ctx context.Context, token *model.RefreshToken) error {
	return GetDB(ctx, r.db).Create(token).Error
}

func (r *tokenRepository) GetToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var stored model.RefreshToken
	if err := GetDB(ctx, r.db).First(&stored, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *tokenRepository) DeleteToken(ctx context.Context, token string) error {
	return GetDB(ctx, r.db).Where("token = ?", token).Delete(&model.RefreshToken{}).Error
}
