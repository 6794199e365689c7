package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anggiadiputra/donasiku-sub000/internal/http/middleware"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/transactions"
	"github.com/anggiadiputra/donasiku-sub000/internal/shared/apperr"
	"github.com/anggiadiputra/donasiku-sub000/pkg/view"
)

const pageSize = 30

type Lister interface {
	AdminList(ctx context.Context, in transactions.AdminListParams) (transactions.AdminListResult, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, orderID string) (transactions.Transaction, bool, error)
}

type TransactionsHandler struct {
	Logger     *slog.Logger
	List       Lister
	Reconciler Reconciler
}

func NewTransactionsHandler(logger *slog.Logger, l Lister, r Reconciler) *TransactionsHandler {
	return &TransactionsHandler{Logger: logger, List: l, Reconciler: r}
}

var listableStatus = map[string]bool{
	"":                            true,
	transactions.StatusInitiating: true,
	transactions.StatusPending:    true,
	transactions.StatusSuccess:    true,
	transactions.StatusFailed:     true,
	transactions.StatusExpired:    true,
}

// GET /api/admin/transactions?q=&status=&page=
func (h *TransactionsHandler) Index(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	status := strings.TrimSpace(c.Query("status"))
	page := parseInt(c.Query("page"), 1)

	if !listableStatus[status] {
		middleware.Fail(c, apperr.InvalidErr("Filter tidak valid", map[string]string{"status": "Status tidak dikenal."}))
		return
	}

	res, err := h.List.AdminList(c.Request.Context(), transactions.AdminListParams{
		Q: q, Status: status, Page: page, PageSize: pageSize,
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	items := make([]view.AdminTransaction, 0, len(res.Items))
	for _, t := range res.Items {
		items = append(items, view.NewAdminTransaction(t))
	}
	c.JSON(http.StatusOK, view.AdminTransactionList{
		Items:    items,
		Total:    res.Total,
		Page:     page,
		PageSize: pageSize,
	})
}

// POST /api/admin/transactions/:orderId/reconcile
func (h *TransactionsHandler) Reconcile(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("orderId"))

	trx, changed, err := h.Reconciler.Reconcile(c.Request.Context(), orderID)
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	h.Logger.InfoContext(c.Request.Context(), "admin reconcile",
		"admin", middleware.AdminSubject(c),
		"merchant_order_id", orderID,
		"status", trx.Status,
		"changed", changed,
	)
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"changed":     changed,
		"transaction": view.NewAdminTransaction(trx),
	})
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
