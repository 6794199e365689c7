package payments

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/anggiadiputra/donasiku-sub000/internal/config"
	"github.com/anggiadiputra/donasiku-sub000/internal/events"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/campaigns"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/transactions"
	"github.com/anggiadiputra/donasiku-sub000/internal/testutil"
)

type fakeGateway struct {
	mu          sync.Mutex
	InquireFunc func(InquiryRequest) (InquiryResponse, error)
	StatusFunc  func(orderID string) (StatusResponse, error)
	inquiries   []InquiryRequest
	statusCalls int
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) Inquire(_ context.Context, req InquiryRequest) (InquiryResponse, error) {
	g.mu.Lock()
	g.inquiries = append(g.inquiries, req)
	g.mu.Unlock()
	if g.InquireFunc != nil {
		return g.InquireFunc(req)
	}
	return InquiryResponse{
		Reference:     "REF-" + req.MerchantOrderID,
		VANumber:      "8801234567",
		PaymentURL:    "https://pay.example/" + req.MerchantOrderID,
		StatusCode:    CodeSuccess,
		StatusMessage: "SUCCESS",
	}, nil
}

func (g *fakeGateway) CheckStatus(_ context.Context, orderID string) (StatusResponse, error) {
	g.mu.Lock()
	g.statusCalls++
	g.mu.Unlock()
	if g.StatusFunc != nil {
		return g.StatusFunc(orderID)
	}
	return StatusResponse{MerchantOrderID: orderID, StatusCode: CodePending}, nil
}

func (g *fakeGateway) VerifyAndParseCallback(http.Header, []byte) (CallbackEvent, error) {
	return CallbackEvent{}, ErrInvalidCallback
}

func (g *fakeGateway) StatusCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusCalls
}

type notifyCall struct {
	Event    string
	OrderID  string
	Campaign *campaigns.Campaign
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (n *fakeNotifier) NotifyPending(_ context.Context, trx transactions.Transaction, camp *campaigns.Campaign) {
	n.record("pending", trx, camp)
}

func (n *fakeNotifier) NotifySuccess(_ context.Context, trx transactions.Transaction, camp *campaigns.Campaign) {
	n.record("success", trx, camp)
}

func (n *fakeNotifier) record(ev string, trx transactions.Transaction, camp *campaigns.Campaign) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{Event: ev, OrderID: trx.MerchantOrderID, Campaign: camp})
}

func (n *fakeNotifier) Count(ev string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, call := range n.calls {
		if call.Event == ev {
			c++
		}
	}
	return c
}

// failingStore fails MarkPending and delegates everything else.
type failingStore struct {
	*transactions.Store
	markErr error
}

func (f failingStore) MarkPending(context.Context, string, transactions.GatewayFields) (transactions.Transaction, error) {
	return transactions.Transaction{}, f.markErr
}

// settlingStore settles the intent row with status just before MarkPending runs.
type settlingStore struct {
	*transactions.Store
	status string
}

func (f settlingStore) MarkPending(ctx context.Context, orderID string, g transactions.GatewayFields) (transactions.Transaction, error) {
	if _, _, err := f.Store.UpdateStatus(ctx, orderID, f.status, transactions.GatewayFields{ResultCode: CodeSuccess}); err != nil {
		return transactions.Transaction{}, err
	}
	return f.Store.MarkPending(ctx, orderID, g)
}

type harness struct {
	db       *gorm.DB
	store    *transactions.Store
	gateway  *fakeGateway
	notifier *fakeNotifier
	events   *events.Recorder
	deps     Deps
}

func testConfig() config.Config {
	return config.Config{
		AppBaseURL: "https://donasi.example",
		Gateway: config.GatewayConfig{
			MerchantCode:  "D0001",
			APIKey:        "secret-key",
			Sandbox:       true,
			ExpiryMinutes: 60,
		},
		Donation: config.DonationConfig{
			MinAmount:    10000,
			PollThrottle: 0,
		},
		Reconcile: config.ReconcileConfig{
			InitiatingGrace: 5 * time.Minute,
			PendingGrace:    10 * time.Minute,
			BatchSize:       10,
		},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.OpenDB(t, &transactions.Transaction{}, &campaigns.Campaign{}, &GatewayCallback{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := transactions.NewStore(db, 5*time.Second)
	repo := campaigns.NewRepo(db, 5*time.Second)

	h := &harness{
		db:       db,
		store:    store,
		gateway:  &fakeGateway{},
		notifier: &fakeNotifier{},
		events:   &events.Recorder{},
	}
	h.deps = Deps{
		Config:    testConfig(),
		Store:     store,
		Resolver:  campaigns.NewResolver(repo, logger),
		Campaigns: repo,
		Gateway:   h.gateway,
		Notifier:  h.notifier,
		Events:    h.events,
		Logger:    logger,
		Go:        func(task func()) { task() },
	}
	return h
}

func validInput() CreateInput {
	return CreateInput{
		CampaignSlug:  "infaq",
		Amount:        150000,
		PaymentMethod: "BC",
		CustomerName:  "Budi",
		CustomerEmail: "a@b.com",
		CustomerPhone: "081234567890",
	}
}
