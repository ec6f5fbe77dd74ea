package usecase_test

import (
	"context"
	"errors"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newAdminOrderFixture() (*TxManagerMock, *OrderRepoMock, *OrderItemRepoMock, *AuditRepoMock, *usecase.AdminOrderUsecase) {
	tx := new(TxManagerMock)
	orders := new(OrderRepoMock)
	orderItems := new(OrderItemRepoMock)
	audit := new(AuditRepoMock)

	tx.Repos = &TxReposMock{
		orders:     orders,
		orderItems: orderItems,
		auditLogs:  audit,
	}
	tx.On("WithinTx", mock.Anything).Return(nil)

	return tx, orders, orderItems, audit, usecase.NewAdminOrderUsecase(tx)
}

func TestAdminOrderUsecase_List_InvalidPage(t *testing.T) {
	_, _, _, _, uc := newAdminOrderFixture()

	outs, err := uc.List(context.Background(), model.RoleAdmin, repo.AdminOrderListFilter{Page: 0, Limit: 20})
	assert.Equal(t, 0, len(outs))
	assert.Error(t, err)
}

func TestAdminOrderUsecase_List_ForbiddenForUserRole(t *testing.T) {
	_, _, _, _, uc := newAdminOrderFixture()

	_, err := uc.List(context.Background(), model.RoleUser, repo.AdminOrderListFilter{Page: 1, Limit: 20})
	assert.ErrorIs(t, err, usecase.ErrForbidden)
}

func TestAdminOrderUsecase_List_Success(t *testing.T) {
	ctx := context.Background()
	_, orders, orderItems, _, uc := newAdminOrderFixture()

	f := repo.AdminOrderListFilter{Page: 1, Limit: 20}
	orders.On("ListAdmin", mock.Anything, f).Return([]model.Order{
		{ID: 10, Status: model.OrderStatusPending},
		{ID: 11, Status: model.OrderStatusConfirmed},
	}, int64(2), nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{}, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(11)).Return([]model.OrderItem{}, nil)

	outs, err := uc.List(ctx, model.RoleAdmin, f)
	assert.NoError(t, err)
	assert.Len(t, outs, 2)

	orders.AssertExpectations(t)
	orderItems.AssertExpectations(t)
}

func TestAdminOrderUsecase_UpdateStatus_ForbiddenForUserRole(t *testing.T) {
	_, orders, _, _, uc := newAdminOrderFixture()

	_, err := uc.UpdateStatus(context.Background(), 1, model.RoleUser, 10, usecase.UpdateOrderStatusInput{Status: "CONFIRMED"})
	assert.ErrorIs(t, err, usecase.ErrForbidden)

	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_UnknownStatus(t *testing.T) {
	_, _, _, _, uc := newAdminOrderFixture()

	_, err := uc.UpdateStatus(context.Background(), 1, model.RoleAdmin, 10, usecase.UpdateOrderStatusInput{Status: "XXX"})
	assert.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, 400, he.Status)
}

func TestAdminOrderUsecase_UpdateStatus_NotFound(t *testing.T) {
	ctx := context.Background()
	_, orders, _, _, uc := newAdminOrderFixture()

	orders.On("FindByID", mock.Anything, int64(99)).Return(model.Order{}, repo.ErrNotFound)

	_, err := uc.UpdateStatus(ctx, 1, model.RoleAdmin, 99, usecase.UpdateOrderStatusInput{Status: "CONFIRMED"})
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestAdminOrderUsecase_UpdateStatus_ValidTransition(t *testing.T) {
	ctx := context.Background()
	_, orders, orderItems, audit, uc := newAdminOrderFixture()

	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID:     10,
		UserID: 1,
		Status: model.OrderStatusShipped,
	}, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{}, nil)
	orders.On("UpdateStatus", mock.Anything, int64(10), model.OrderStatusDelivered).Return(nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateOrderStatus && l.ResourceID == 10 && l.ActorUserID == 1
	})).Return(nil)

	out, err := uc.UpdateStatus(ctx, 1, model.RoleAdmin, 10, usecase.UpdateOrderStatusInput{Status: "DELIVERED"})
	assert.NoError(t, err)
	assert.Equal(t, "DELIVERED", out.Status)

	orders.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestAdminOrderUsecase_UpdateStatus_AuditWriteFailureFailsUpdate(t *testing.T) {
	ctx := context.Background()
	_, orders, orderItems, audit, uc := newAdminOrderFixture()

	//監査行はステータス更新と同じTxで書く。書けなければ更新ごと失敗する
	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID:     10,
		Status: model.OrderStatusShipped,
	}, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{}, nil)
	orders.On("UpdateStatus", mock.Anything, int64(10), model.OrderStatusDelivered).Return(nil)
	audit.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	_, err := uc.UpdateStatus(ctx, 1, model.RoleAdmin, 10, usecase.UpdateOrderStatusInput{Status: "DELIVERED"})
	assert.Error(t, err)

	audit.AssertExpectations(t)
}

func TestAdminOrderUsecase_UpdateStatus_SkippingStateRejected(t *testing.T) {
	ctx := context.Background()
	_, orders, orderItems, audit, uc := newAdminOrderFixture()

	//PENDINGからDELIVEREDへは飛べない
	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID:     10,
		Status: model.OrderStatusPending,
	}, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{}, nil)

	_, err := uc.UpdateStatus(ctx, 1, model.RoleAdmin, 10, usecase.UpdateOrderStatusInput{Status: "DELIVERED"})
	assert.ErrorIs(t, err, usecase.ErrInvalidTransition)

	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_TerminalStateLocked(t *testing.T) {
	ctx := context.Background()
	_, orders, orderItems, _, uc := newAdminOrderFixture()

	//DELIVEREDは終端。CANCELLEDにも動かせない
	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID:     10,
		Status: model.OrderStatusDelivered,
	}, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{}, nil)

	_, err := uc.UpdateStatus(ctx, 1, model.RoleAdmin, 10, usecase.UpdateOrderStatusInput{Status: "CANCELLED"})
	assert.ErrorIs(t, err, usecase.ErrInvalidTransition)
}

func TestAdminOrderUsecase_UpdateStatus_CancelFromActiveState(t *testing.T) {
	ctx := context.Background()
	_, orders, orderItems, audit, uc := newAdminOrderFixture()

	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID:     10,
		Status: model.OrderStatusConfirmed,
	}, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{}, nil)
	orders.On("UpdateStatus", mock.Anything, int64(10), model.OrderStatusCancelled).Return(nil)
	audit.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := uc.UpdateStatus(ctx, 1, model.RoleAdmin, 10, usecase.UpdateOrderStatusInput{Status: "CANCELLED"})
	assert.NoError(t, err)
	assert.Equal(t, "CANCELLED", out.Status)
}

func TestAdminOrderUsecase_UpdateStatus_SameStatus_NoOp(t *testing.T) {
	ctx := context.Background()
	_, orders, orderItems, audit, uc := newAdminOrderFixture()

	orders.On("FindByID", mock.Anything, int64(10)).Return(model.Order{
		ID:     10,
		Status: model.OrderStatusConfirmed,
	}, nil)
	orderItems.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderItem{}, nil)

	out, err := uc.UpdateStatus(ctx, 1, model.RoleAdmin, 10, usecase.UpdateOrderStatusInput{Status: "CONFIRMED"})
	assert.NoError(t, err)
	assert.Equal(t, "CONFIRMED", out.Status)

	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
