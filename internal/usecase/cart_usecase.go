package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// 読んで比べて書く一連の処理を割り込ませないため、全操作をTxで回す。
type CartUsecase struct {
	tx repo.TransactionManager
}

func NewCartUsecase(tx repo.TransactionManager) *CartUsecase {
	return &CartUsecase{tx: tx}
}

// price は表示時点のカタログ価格。カートには価格を保存しない。
type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total int64              `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// GetCart はカート取得。明細が無ければ空を返す。副作用なし。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out CartResponse
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		out, err = buildCartResponse(ctx, r, userID)
		return err
	})
	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// AddToCart はカートに追加（同一商品は数量加算）。
// 加算後の数量が在庫を超えるなら既存の行は触らずに失敗する。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//商品チェック（公開のみ）
		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !p.IsActive {
			return ErrNotFound
		}

		//既存行をロック付きで取得（無ければ数量0扱い）
		var existingQty int64 = 0
		existing, err := r.CartItems().FindByUserAndProductForUpdate(ctx, userID, in.ProductID)
		if err == nil {
			existingQty = existing.Quantity
		} else if !errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//加算後の数量で在庫チェック。超えるなら既存行は変更しない。
		newQty := existingQty + in.Quantity
		if newQty > p.Stock {
			return fmt.Errorf("%w: product %d", ErrInsufficientStock, p.ID)
		}

		if existingQty > 0 {
			if err := r.CartItems().UpdateQuantity(ctx, existing.ID, newQty); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		} else {
			now := time.Now()
			_, err := r.CartItems().Create(ctx, model.CartItem{
				UserID:    userID,
				ProductID: in.ProductID,
				Quantity:  in.Quantity,
				CreatedAt: now,
				UpdatedAt: now,
			})
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		out, err = buildCartResponse(ctx, r, userID)
		return err
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// 数量変更（所有チェック＋在庫チェック）。
// quantityが1未満なら行を削除して成功扱い（これ以上の検証はしない）。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		item, err := r.CartItems().FindByID(ctx, cartItemID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//他人の明細は所有エラー（存在は隠さない）
		if item.UserID != userID {
			return ErrForbidden
		}

		//1未満は削除パス
		if in.Quantity < 1 {
			if err := r.CartItems().DeleteByID(ctx, cartItemID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out, err = buildCartResponse(ctx, r, userID)
			return err
		}

		//商品の在庫チェック
		p, err := r.Products().FindByID(ctx, item.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !p.IsActive {
			return ErrNotFound
		}
		if in.Quantity > p.Stock {
			return fmt.Errorf("%w: product %d", ErrInsufficientStock, p.ID)
		}

		if err := r.CartItems().UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out, err = buildCartResponse(ctx, r, userID)
		return err
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// 明細削除（所有チェックはUpdateと同じ）
func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		item, err := r.CartItems().FindByID(ctx, cartItemID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if item.UserID != userID {
			return ErrForbidden
		}

		if err := r.CartItems().DeleteByID(ctx, cartItemID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out, err = buildCartResponse(ctx, r, userID)
		return err
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// ユーザーの明細をまとめてCartResponseを作る。
// 価格は毎回カタログから読む（キャッシュしない）。消えた商品・非公開は表示しない。
func buildCartResponse(ctx context.Context, r repo.TxRepos, userID int64) (CartResponse, error) {
	items, err := r.CartItems().ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	respItems := make([]CartItemResponse, 0, len(items))
	var total int64 = 0

	for _, it := range items {
		p, err := r.Products().FindByID(ctx, it.ProductID)
		if err != nil {
			continue
		}
		if !p.IsActive {
			continue
		}

		subtotal := p.Price * it.Quantity
		respItems = append(respItems, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
			Subtotal:  subtotal,
		})

		total += subtotal
	}

	return CartResponse{Items: respItems, Total: total}, nil
}
