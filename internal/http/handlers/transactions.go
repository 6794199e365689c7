package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anggiadiputra/donasiku-sub000/internal/http/middleware"
	"github.com/anggiadiputra/donasiku-sub000/internal/http/validation"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/payments"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/transactions"
	"github.com/anggiadiputra/donasiku-sub000/internal/shared/apperr"
	"github.com/anggiadiputra/donasiku-sub000/pkg/view"
)

type DonationCreator interface {
	Create(ctx context.Context, in payments.CreateInput) (transactions.Transaction, error)
}

type StatusPoller interface {
	Poll(ctx context.Context, orderID string) (transactions.Transaction, error)
}

type TransactionsHandler struct {
	Donations DonationCreator
	Poller    StatusPoller
}

func NewTransactionsHandler(d DonationCreator, p StatusPoller) *TransactionsHandler {
	return &TransactionsHandler{Donations: d, Poller: p}
}

type createTransactionRequest struct {
	CampaignID      string `json:"campaignId" binding:"max=36"`
	CampaignSlug    string `json:"campaignSlug" binding:"max=191"`
	Amount          int64  `json:"amount" binding:"required,gt=0"`
	PaymentMethod   string `json:"paymentMethod" binding:"required,max=16"`
	CustomerName    string `json:"customerName" binding:"required,max=255"`
	OriginalName    string `json:"originalName" binding:"max=255"`
	IsAnonymous     bool   `json:"isAnonymous"`
	CustomerEmail   string `json:"customerEmail" binding:"required,email,max=255"`
	CustomerPhone   string `json:"customerPhone" binding:"required,max=32"`
	CustomerMessage string `json:"customerMessage" binding:"max=1000"`
	ReturnURL       string `json:"returnUrl" binding:"omitempty,url,max=512"`
	ProductDetails  string `json:"productDetails" binding:"max=255"`
}

// POST /api/transactions
func (h *TransactionsHandler) Create(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Data donasi tidak valid", validation.FromBindError(err, &req)))
		return
	}

	trx, err := h.Donations.Create(c.Request.Context(), payments.CreateInput{
		CampaignID:      req.CampaignID,
		CampaignSlug:    req.CampaignSlug,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		CustomerName:    req.CustomerName,
		OriginalName:    req.OriginalName,
		IsAnonymous:     req.IsAnonymous,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		CustomerMessage: req.CustomerMessage,
		ReturnURL:       req.ReturnURL,
		ProductDetails:  req.ProductDetails,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"transaction": view.NewTransaction(trx),
	})
}

// GET /api/transactions/:orderId
func (h *TransactionsHandler) Get(c *gin.Context) {
	orderID := strings.TrimSpace(c.Param("orderId"))
	if orderID == "" || len(orderID) > 64 {
		middleware.Fail(c, apperr.NotFoundErr("Transaksi tidak ditemukan"))
		return
	}

	trx, err := h.Poller.Poll(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, transactions.ErrNotFound) {
			err = apperr.NotFoundErr("Transaksi tidak ditemukan")
		}
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"transaction": view.NewTransaction(trx),
	})
}
