package transactions

import (
	"context"
	"strings"
)

type AdminListParams struct {
	Q        string // order id, invoice code or donor email
	Status   string
	Page     int
	PageSize int
}

type AdminListResult struct {
	Items []Transaction
	Total int64
}

func (s *Store) AdminList(ctx context.Context, in AdminListParams) (AdminListResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 30
	}

	q := strings.TrimSpace(in.Q)
	status := strings.TrimSpace(in.Status)

	base := s.db.WithContext(ctx).Model(&Transaction{})
	if status != "" {
		base = base.Where("status = ?", status)
	}
	if q != "" {
		like := "%" + q + "%"
		base = base.Where("(merchant_order_id LIKE ? OR invoice_code LIKE ? OR customer_email LIKE ?)", like, like, like)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return AdminListResult{}, storeErr("admin count", "", err)
	}

	var items []Transaction
	if err := base.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return AdminListResult{}, storeErr("admin list", "", err)
	}

	return AdminListResult{Items: items, Total: total}, nil
}
