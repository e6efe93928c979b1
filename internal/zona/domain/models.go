package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Zona groups customers geographically. Valor is the padron prefix.
type Zona struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	Nombre      string       `json:"nombre" gorm:"type:text;not null"`
	Valor       int          `json:"valor" gorm:"not null;uniqueIndex:ux_zonas_valor"`
	Descripcion string       `json:"descripcion" gorm:"type:text"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"not null"`
}

func (Zona) TableName() string { return "zonas" }
