package services

import (
	"context"
	"log/slog"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
)

type OrderService struct {
	orders OrderStore
	logger *slog.Logger
}

func NewOrderService(orders OrderStore, logger *slog.Logger) *OrderService {
	return &OrderService{orders: orders, logger: logger}
}

func (s *OrderService) History(ctx context.Context, accountID int64, page, limit int) ([]models.Order, int, error) {
	page, limit = normalizePage(page, limit)
	return s.orders.ListByAccount(ctx, accountID, page, limit)
}

// Detail hides orders the account does not own behind not-found.
func (s *OrderService) Detail(ctx context.Context, accountID, orderID int64) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(accountID) {
		return nil, models.ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) AdminDetail(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

func (s *OrderService) FindByCheckoutSession(ctx context.Context, sessionID string) (*models.Order, error) {
	if sessionID == "" {
		return nil, models.ErrOrderNotFound
	}
	return s.orders.FindByCheckoutSessionID(ctx, sessionID)
}

// UpdateStatus runs an admin status change through the order transition table.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	var from models.OrderStatus
	order, err := s.orders.UpdateByID(ctx, orderID, func(o *models.Order) (bool, error) {
		from = o.Status
		if err := o.SetStatus(status); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order status changed", "order_id", orderID, "from", from, "to", order.Status)
	return order, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
