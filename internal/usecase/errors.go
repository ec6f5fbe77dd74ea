package usecase

import (
	"errors"
	"fmt"
)

// 業務ルール違反。呼び出し側が種類で分岐できるようにsentinelで定義する。
// handler側のwriteErrorがHTTPコードへ変換する（握りつぶして一般エラーにしない）。
var (
	//404 対象（カート明細・注文・商品）が存在しない
	ErrNotFound = errors.New("not found")
	//403 所有者でもADMINでもない
	ErrForbidden = errors.New("forbidden")
	//409 要求数量（加算後含む）が在庫を超える
	ErrInsufficientStock = errors.New("insufficient stock")
	//400 空カートでチェックアウト
	ErrEmptyCart = errors.New("cart is empty")
	//409 遷移表に無いステータス変更
	ErrInvalidTransition = errors.New("invalid status transition")
)

// 入力不正やDB障害など、上の分類に乗らないもの用。
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}
