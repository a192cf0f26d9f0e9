package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/memstore"
	"github.com/hypernova-labs/agency-invoicing/internal/metrics"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRenderer struct{ err error }

func (r failingRenderer) Render(models.InvoiceMetadata, models.VATBreakdown, models.IssuerProfile) (*models.RenderedDocument, error) {
	return nil, r.err
}

type orchestratorHarness struct {
	ledger   *memstore.Ledger
	storage  *memstore.Storage
	notifier *memstore.Notifier
	registry *prometheus.Registry
	recorder *metrics.Recorder
	actor    uuid.UUID
	client   models.ClientProfile
}

func newHarness() *orchestratorHarness {
	registry := prometheus.NewRegistry()
	return &orchestratorHarness{
		ledger:   memstore.NewLedger(),
		storage:  memstore.NewStorage(),
		notifier: &memstore.Notifier{},
		registry: registry,
		recorder: metrics.NewRecorder(registry),
		actor:    uuid.New(),
		client:   testClient(),
	}
}

func (h *orchestratorHarness) orchestrator(renderer DocumentRenderer, guard NumberGuard) *InvoiceOrchestrator {
	if renderer == nil {
		renderer = NewDocumentGenerator("€", quietLogger())
	}
	return NewInvoiceOrchestrator(renderer, h.storage, h.ledger, h.notifier, guard, h.recorder,
		OrchestratorConfig{
			Currency:        "EUR",
			CurrencySymbol:  "€",
			PaymentTermDays: 15,
			NotifyTimeout:   time.Second,
			Issuer:          testIssuer(),
		}, quietLogger())
}

func (h *orchestratorHarness) request(number, total string) IssueRequest {
	return IssueRequest{
		ClientID:  h.client.ID,
		CreatedBy: h.actor,
		Client:    h.client,
		Draft:     testDraft(number, total),
	}
}

func drain(t *testing.T, ch <-chan error) []error {
	t.Helper()
	var errs []error
	timeout := time.After(2 * time.Second)
	for {
		select {
		case err, ok := <-ch:
			if !ok {
				return errs
			}
			errs = append(errs, err)
		case <-timeout:
			t.Fatal("notification channel was not closed")
			return errs
		}
	}
}

func TestIssue_HappyPath(t *testing.T) {
	h := newHarness()
	o := h.orchestrator(nil, nil)

	result, err := o.Issue(context.Background(), h.request("INV-2026-001", "121.00"))
	require.NoError(t, err)

	assert.Equal(t, State{Stage: StageDone}, result.State)
	assert.Equal(t, "done", result.State.String())
	require.NotNil(t, result.Invoice)
	require.NotNil(t, result.File)
	require.NotNil(t, result.Activity)

	invoice := result.Invoice
	path := h.client.ID.String() + "/invoices/INV-2026-001.pdf"
	assert.Equal(t, path, invoice.DocumentPath)
	assert.Equal(t, "https://storage.test/public/"+path, invoice.DocumentURL)
	assert.True(t, invoice.Subtotal.Equal(dec("100.00")))
	assert.True(t, invoice.VATAmount.Equal(dec("21.00")))
	assert.True(t, invoice.TotalAmount.Equal(dec("121.00")))
	assert.Equal(t, "2026-01-30", invoice.DueDate.String())
	assert.Equal(t, models.InvoiceStatusPending, invoice.Status)
	assert.Equal(t, "EUR", invoice.Currency)
	assert.Equal(t, h.actor, invoice.CreatedBy)

	assert.True(t, h.storage.Has(path))
	assert.Equal(t, PDFContentType, h.storage.ContentType(path))

	assert.Equal(t, path, result.File.StoragePath)
	assert.Equal(t, models.FileCategoryDocument, result.File.Category)
	assert.Equal(t, "INV-2026-001.pdf", result.File.Name)
	assert.Positive(t, result.File.SizeBytes)

	assert.Equal(t, models.ActivityInvoiceCreated, result.Activity.ActionType)
	assert.Equal(t, "Invoice INV-2026-001 created for €121.00", result.Activity.Description)

	assert.Empty(t, drain(t, result.Notification))
	assert.Equal(t, []uuid.UUID{invoice.ID}, h.notifier.Calls())

	invoices, files, activity := h.ledger.Counts()
	assert.Equal(t, 1, invoices)
	assert.Equal(t, 1, files)
	assert.Equal(t, 1, activity)
}

func TestIssue_RenderingFailuresLeaveNoTrace(t *testing.T) {
	cases := []struct {
		name     string
		renderer DocumentRenderer
		total    string
		kind     ErrorKind
	}{
		{"calculator rejects total", nil, "100.001", KindInvalidInput},
		{"renderer fails", failingRenderer{err: ErrRenderFailure}, "121.00", KindRenderFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			o := h.orchestrator(tc.renderer, nil)

			req := h.request("INV-1", "121.00")
			if tc.total != "121.00" {
				req.Draft = testDraft("INV-1", tc.total)
			}

			result, err := o.Issue(context.Background(), req)
			require.Error(t, err)
			assert.Nil(t, result)

			var issueErr *IssueError
			require.ErrorAs(t, err, &issueErr)
			assert.Equal(t, StageRendering, issueErr.Stage)
			assert.Equal(t, tc.kind, issueErr.Kind)
			assert.False(t, issueErr.InvoiceCreated)

			assert.Zero(t, h.storage.Puts())
			invoices, files, activity := h.ledger.Counts()
			assert.Zero(t, invoices+files+activity)
			assert.Empty(t, h.notifier.Calls())
		})
	}
}

func TestIssue_UploadFailure(t *testing.T) {
	h := newHarness()
	h.storage.FailPut = errors.New("bucket unavailable")
	guard := memstore.NewGuard()
	o := h.orchestrator(nil, guard)

	result, err := o.Issue(context.Background(), h.request("INV-1", "121.00"))
	assert.Nil(t, result)
	assert.Equal(t, KindStorageFailure, KindOf(err))
	assert.False(t, IsInvoiceCreated(err))
	assert.Contains(t, err.Error(), "bucket unavailable")

	invoices, files, activity := h.ledger.Counts()
	assert.Zero(t, invoices+files+activity)
	assert.False(t, guard.Reserved(h.client.ID, "INV-1"), "reservation must be released")

	expected := `
# HELP agency_invoicing_invoices_issued_total Invoice issuance attempts by final state.
# TYPE agency_invoicing_invoices_issued_total counter
agency_invoicing_invoices_issued_total{state="failed(uploading)"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(h.registry, strings.NewReader(expected), "agency_invoicing_invoices_issued_total"))
}

func TestIssue_RecordingInvoiceFailureOrphansDocument(t *testing.T) {
	h := newHarness()
	h.ledger.FailCreateInvoice = errors.New("connection reset")
	o := h.orchestrator(nil, nil)

	result, err := o.Issue(context.Background(), h.request("INV-1", "121.00"))
	assert.Nil(t, result)

	var issueErr *IssueError
	require.ErrorAs(t, err, &issueErr)
	assert.Equal(t, StageRecordingInvoice, issueErr.Stage)
	assert.Equal(t, KindRecordFailure, issueErr.Kind)
	assert.Equal(t, EntityInvoice, issueErr.Entity)
	assert.False(t, issueErr.InvoiceCreated)

	// no se limpia el objeto ya subido
	assert.True(t, h.storage.Has(h.client.ID.String()+"/invoices/INV-1.pdf"))
	assert.Empty(t, h.notifier.Calls())
}

func TestIssue_RecordingFileFailureKeepsInvoice(t *testing.T) {
	h := newHarness()
	h.ledger.FailCreateFile = errors.New("files table locked")
	o := h.orchestrator(nil, nil)
	ctx := context.Background()

	result, err := o.Issue(ctx, h.request("INV-2026-010", "121.00"))
	require.Error(t, err)
	require.NotNil(t, result)

	var issueErr *IssueError
	require.ErrorAs(t, err, &issueErr)
	assert.Equal(t, StageRecordingFile, issueErr.Stage)
	assert.Equal(t, EntityFile, issueErr.Entity)
	assert.True(t, issueErr.InvoiceCreated)
	assert.True(t, IsInvoiceCreated(err))
	assert.Equal(t, "failed(recording_file)", result.State.String())

	// la factura sigue existiendo y su documento se descarga
	stored, err := h.ledger.GetInvoice(ctx, result.Invoice.ID)
	require.NoError(t, err)
	data, err := h.storage.Get(ctx, stored.DocumentPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))

	// pero no aparece en el listado de archivos del cliente
	files, err := h.ledger.ListFilesByClient(ctx, h.client.ID)
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.Nil(t, result.Activity)
	assert.Empty(t, drain(t, result.Notification))
	assert.Empty(t, h.notifier.Calls())
}

func TestIssue_ActivityFailureIsTolerated(t *testing.T) {
	h := newHarness()
	h.ledger.FailAppendActivity = errors.New("audit log down")
	o := h.orchestrator(nil, nil)

	result, err := o.Issue(context.Background(), h.request("INV-1", "121.00"))
	require.NoError(t, err)
	assert.Equal(t, StageDone, result.State.Stage)
	assert.Nil(t, result.Activity)
	assert.NotNil(t, result.File)
	assert.Contains(t, result.Warnings, "activity log entry could not be recorded")

	assert.Empty(t, drain(t, result.Notification))
	assert.Len(t, h.notifier.Calls(), 1)
}

func TestIssue_NotificationFailureNeverReachesCaller(t *testing.T) {
	h := newHarness()
	h.notifier.Err = errors.New("mail provider down")
	h.notifier.Gate = make(chan struct{})
	o := h.orchestrator(nil, nil)

	result, err := o.Issue(context.Background(), h.request("INV-1", "121.00"))
	require.NoError(t, err, "issuance returns before the notifier finishes")
	assert.Equal(t, StageDone, result.State.Stage)

	close(h.notifier.Gate)
	errs := drain(t, result.Notification)
	require.Len(t, errs, 1)
	assert.Equal(t, KindNotifyFailure, KindOf(errs[0]))
	assert.True(t, IsInvoiceCreated(errs[0]))

	expected := `
# HELP agency_invoicing_notification_failures_total Invoice notifications that could not be dispatched.
# TYPE agency_invoicing_notification_failures_total counter
agency_invoicing_notification_failures_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(h.registry, strings.NewReader(expected), "agency_invoicing_notification_failures_total"))
}

func TestInvoiceOrchestrator_WaitDrainsPendingNotifications(t *testing.T) {
	h := newHarness()
	h.notifier.Gate = make(chan struct{})
	o := h.orchestrator(nil, nil)

	result, err := o.Issue(context.Background(), h.request("INV-1", "121.00"))
	require.NoError(t, err)

	short, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, o.Wait(short), context.DeadlineExceeded)
	assert.Empty(t, h.notifier.Calls())

	close(h.notifier.Gate)
	ctx, cancelWait := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelWait()
	require.NoError(t, o.Wait(ctx))
	assert.Equal(t, []uuid.UUID{result.Invoice.ID}, h.notifier.Calls())
	assert.Empty(t, drain(t, result.Notification))
}

func TestInvoiceOrchestrator_WaitWithoutPendingWork(t *testing.T) {
	h := newHarness()
	assert.NoError(t, h.orchestrator(nil, nil).Wait(context.Background()))
}

func TestIssue_CanceledBeforeUploadHasNoSideEffects(t *testing.T) {
	h := newHarness()
	o := h.orchestrator(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := o.Issue(ctx, h.request("INV-1", "121.00"))
	assert.Nil(t, result)
	assert.Equal(t, KindCanceled, KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, h.storage.Puts())
}

func TestIssue_InvalidRequest(t *testing.T) {
	h := newHarness()
	o := h.orchestrator(nil, nil)

	req := h.request("INV-1", "121.00")
	req.ClientID = uuid.Nil
	_, err := o.Issue(context.Background(), req)
	assert.Equal(t, KindInvalidInput, KindOf(err))

	req = h.request("INV-1", "121.00")
	req.Draft = models.InvoiceDraft{}
	_, err = o.Issue(context.Background(), req)
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIssue_ConcurrentSameNumberWithoutGuardBothSucceed(t *testing.T) {
	h := newHarness()
	o := h.orchestrator(nil, nil)

	results := issueConcurrently(t, o, h.request("INV-DUP", "121.00"), 2)

	var ids []uuid.UUID
	for _, r := range results {
		require.NoError(t, r.err)
		ids = append(ids, r.result.Invoice.ID)
	}
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])

	invoices, err := h.ledger.ListInvoicesByClient(context.Background(), h.client.ID)
	require.NoError(t, err)
	assert.Len(t, invoices, 2)
}

func TestIssue_ConcurrentSameNumberWithGuardOnlyOneSucceeds(t *testing.T) {
	h := newHarness()
	o := h.orchestrator(nil, memstore.NewGuard())

	results := issueConcurrently(t, o, h.request("INV-DUP", "121.00"), 4)

	succeeded, conflicts := 0, 0
	for _, r := range results {
		switch {
		case r.err == nil:
			succeeded++
		case KindOf(r.err) == KindConflict:
			conflicts++
			assert.ErrorIs(t, r.err, ErrNumberTaken)
		default:
			t.Fatalf("unexpected error: %v", r.err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 3, conflicts)
}

func TestIssue_GuardBackendFailure(t *testing.T) {
	h := newHarness()
	guard := memstore.NewGuard()
	guard.FailReserve = errors.New("redis timeout")
	o := h.orchestrator(nil, guard)

	_, err := o.Issue(context.Background(), h.request("INV-1", "121.00"))
	var issueErr *IssueError
	require.ErrorAs(t, err, &issueErr)
	assert.Equal(t, StageDraft, issueErr.Stage)
	assert.Equal(t, KindStorageFailure, issueErr.Kind)
}

type issueOutcome struct {
	result *IssueResult
	err    error
}

func issueConcurrently(t *testing.T, o *InvoiceOrchestrator, req IssueRequest, n int) []issueOutcome {
	t.Helper()
	out := make([]issueOutcome, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			result, err := o.Issue(context.Background(), req)
			out[i] = issueOutcome{result: result, err: err}
		}(i)
	}
	close(start)
	wg.Wait()
	return out
}
