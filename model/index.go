package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (d *DTO) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

type ResponseCustom struct {
	Rows       any   `json:"rows"`
	Limit      int   `json:"limit"`
	Page       int   `json:"page"`
	TotalCount int64 `json:"totalCount"`
}

type Pagination struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
	Page  int `query:"page" validate:"omitempty,min=1"`
}

type TokenClaim struct {
	AccountID uuid.UUID `json:"accountId"`
	Role      Role      `json:"role"`
	Email     string    `json:"email"`
}
