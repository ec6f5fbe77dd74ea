package model

import "time"

// 注文明細。名前と単価は確定時点のスナップショットで、以後変更しない。
// カタログ側の価格が変わっても過去の注文には影響させない。
type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPriceSnapshot   int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// 明細の小計。
func (i OrderItem) Subtotal() int64 {
	return i.UnitPriceSnapshot * i.Quantity
}
