package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONMap stores a string->string map as a JSON text column. Used for the
// per-product size price map ({"S":"2.50","M":"3.00"}).
type JSONMap map[string]string

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("failed to scan JSONMap: %v", value)
		}
	}
	if len(bytes) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return json.Marshal(m)
}

type Product struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	ProductName string  `gorm:"type:varchar(128);not null"`
	Price       string  `gorm:"type:varchar(32);not null"`
	SizePrices  JSONMap `gorm:"type:text"`
	Quantity    string  `gorm:"type:varchar(32);not null;default:'0'"`
	Unit        string  `gorm:"type:varchar(32);not null;default:'pcs'"`
	CategoryID  *int64
	IsActive    bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
}

type Category struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	CategoryName string `gorm:"type:varchar(128);uniqueIndex;not null"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Products []Product `gorm:"foreignKey:CategoryID"`
}

type DiningTable struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	TableName string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Capacity  int32  `gorm:"not null;default:4"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
