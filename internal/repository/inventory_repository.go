package repository

import "context"

type InventoryRepository interface {
	// 在庫の現在値を設定（管理者操作）
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 在庫が足りるときだけ減算。足りなければfalse。
	// チェックアウトと同じトランザクションで発行して二重販売を防ぐ。
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)
}
