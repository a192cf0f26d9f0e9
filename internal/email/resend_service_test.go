package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/memstore"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/resend/resend-go/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type fakeResend struct {
	mu   sync.Mutex
	sent []sentEmail
}

func newFakeResend(t *testing.T) (*fakeResend, *resend.Client) {
	t.Helper()
	f := &fakeResend{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var msg sentEmail
		if err := json.Unmarshal(body, &msg); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.sent = append(f.sent, msg)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"email-123"}`)
	}))
	t.Cleanup(srv.Close)

	client := resend.NewClient("re_test")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	return f, client
}

func (f *fakeResend) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func sampleInvoice(clientID uuid.UUID) *models.InvoiceRecord {
	return &models.InvoiceRecord{
		ID:            uuid.New(),
		InvoiceNumber: "INV-<2026>-001",
		ClientID:      clientID,
		TotalAmount:   decimal.RequireFromString("1210.00"),
		IssueDate:     civil.Date{Year: 2026, Month: time.January, Day: 9},
		DueDate:       civil.Date{Year: 2026, Month: time.January, Day: 30},
	}
}

func TestResendService_SendInvoiceCreatedEmail(t *testing.T) {
	fake, client := newFakeResend(t)
	svc := NewResendService(client, "billing@northwind.example", "https://app.northwind.example", "Northwind Studio", "€", quietLogger())

	customer := &models.ClientProfile{ID: uuid.New(), LegalName: "Acme", ContactName: "Sam", ContactEmail: "sam@acme.example"}
	invoice := sampleInvoice(customer.ID)

	id, err := svc.SendInvoiceCreatedEmail(invoice, customer)
	require.NoError(t, err)
	assert.Equal(t, "email-123", id)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.sent, 1)
	msg := fake.sent[0]
	assert.Equal(t, "billing@northwind.example", msg.From)
	assert.Equal(t, []string{"sam@acme.example"}, msg.To)
	assert.Equal(t, "Invoice INV-<2026>-001 from Northwind Studio", msg.Subject)
	assert.Contains(t, msg.HTML, "INV-&lt;2026&gt;-001")
	assert.Contains(t, msg.HTML, "€1,210.00")
	assert.Contains(t, msg.HTML, "https://app.northwind.example/v1/invoices/"+invoice.ID.String()+"/download")
	assert.Contains(t, msg.HTML, "Hello Sam,")
}

func TestResendService_NoRecipient(t *testing.T) {
	fake, client := newFakeResend(t)
	svc := NewResendService(client, "billing@northwind.example", "", "Northwind Studio", "€", quietLogger())

	_, err := svc.SendInvoiceCreatedEmail(sampleInvoice(uuid.New()), &models.ClientProfile{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNoRecipient)
	assert.Zero(t, fake.count())
}

func TestDirectNotifier(t *testing.T) {
	fake, client := newFakeResend(t)
	mailer := NewResendService(client, "billing@northwind.example", "https://app", "Northwind Studio", "€", quietLogger())

	customer := models.ClientProfile{ID: uuid.New(), LegalName: "Acme", ContactEmail: "finance@acme.example"}
	ledger := memstore.NewLedger()
	invoice := sampleInvoice(customer.ID)
	require.NoError(t, ledger.CreateInvoice(context.Background(), invoice))

	notifier := NewDirectNotifier(mailer, ledger, memstore.NewClients(customer))

	require.NoError(t, notifier.NotifyInvoiceCreated(context.Background(), invoice.ID))
	assert.Equal(t, 1, fake.count())

	err := notifier.NotifyInvoiceCreated(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}
