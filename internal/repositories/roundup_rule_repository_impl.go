package repositories

import (
	"errors"
	"fmt"

	"kobo/internal/models"

	"gorm.io/gorm"
)

type roundUpRuleRepository struct {
	db *gorm.DB
}

// NewRoundUpRuleRepository creates a gorm-backed round-up rule repository.
func NewRoundUpRuleRepository(db *gorm.DB) RoundUpRuleRepository {
	return &roundUpRuleRepository{db: db}
}

func (r *roundUpRuleRepository) FindByUserID(userID uint) (*models.RoundUpRule, error) {
	var rule models.RoundUpRule
	err := r.db.Where("user_id = ?", userID).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get round-up rule: %w", err)
	}
	return &rule, nil
}
