package models

import "time"

const (
	OrderStatusDraft     = "draft"
	OrderStatusCompleted = "completed"

	PaymentStatusPaid    = "paid"
	PaymentStatusPartial = "partial"
	PaymentStatusDue     = "due"
)

// Order is the persisted checkout/draft target. All monetary columns hold
// canonical decimal strings; discount keeps its raw value plus type so a
// percentage discount can be redisplayed as entered.
type Order struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	OrderNumber  string `gorm:"type:varchar(32);uniqueIndex;not null"`
	TableID      *int64
	DiningOption string `gorm:"type:varchar(16);not null;default:'dine-in'"`

	Subtotal     string `gorm:"type:varchar(32);not null"`
	Discount     string `gorm:"type:varchar(32);not null;default:'0'"`
	DiscountType string `gorm:"type:varchar(16);not null;default:'amount'"`
	Total        string `gorm:"type:varchar(32);not null"`

	Status        string `gorm:"type:varchar(16);not null;index"`
	PaymentMethod string `gorm:"type:varchar(64)"`
	PaymentStatus string `gorm:"type:varchar(16)"`
	PaidAmount    string `gorm:"type:varchar(32);not null;default:'0.00'"`
	DueAmount     string `gorm:"type:varchar(32);not null;default:'0.00'"`

	CustomerName  *string `gorm:"type:varchar(128)"`
	CustomerPhone *string `gorm:"type:varchar(32)"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []OrderItem  `gorm:"foreignKey:OrderID"`
	Table *DiningTable `gorm:"foreignKey:TableID"`
}

type OrderItem struct {
	ID               int64   `gorm:"primaryKey;autoIncrement"`
	OrderID          int64   `gorm:"index;not null"`
	ProductID        int64   `gorm:"not null"`
	Quantity         int32   `gorm:"not null"`
	Price            string  `gorm:"type:varchar(32);not null"`
	Total            string  `gorm:"type:varchar(32);not null"`
	ItemDiscount     string  `gorm:"type:varchar(32);not null;default:'0'"`
	ItemDiscountType string  `gorm:"type:varchar(16);not null;default:'amount'"`
	SelectedSize     *string `gorm:"type:varchar(32)"`
	CreatedAt        time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
