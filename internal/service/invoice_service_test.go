package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoicex/internal/domain"
	"invoicex/internal/port"
	"invoicex/internal/service"
	"invoicex/mocks"
)

type testFile struct {
	name    string
	content string
}

func fileHeaders(t *testing.T, files ...testFile) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["files"]
}

type invoiceDeps struct {
	repo      *mocks.MockInvoiceRepo
	store     *mocks.MockDocumentStore
	extractor *mocks.MockInvoiceExtractor
	svc       service.InvoiceService
}

func newInvoiceDeps(cfg service.InvoiceServiceConfig) invoiceDeps {
	d := invoiceDeps{
		repo:      new(mocks.MockInvoiceRepo),
		store:     new(mocks.MockDocumentStore),
		extractor: new(mocks.MockInvoiceExtractor),
	}
	d.svc = service.NewInvoiceService(d.repo, d.store, d.extractor, cfg, nil)
	return d
}

func strPtr(s string) *string { return &s }

func TestInvoiceService_Upload_MixedBatch(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{})

	d.store.On("Save", mock.Anything, mock.MatchedBy(func(in port.SaveInput) bool {
		return strings.HasPrefix(in.Key, "7_") && strings.HasSuffix(in.Key, "_march.pdf") &&
			in.ContentType == "application/pdf"
	})).Return("7_1_march.pdf", nil)
	d.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).
		Run(func(args mock.Arguments) {
			inv := args.Get(1).(*domain.Invoice)
			assert.Equal(t, domain.InvoiceStatusProcessing, inv.Status)
			assert.Equal(t, "7_1_march.pdf", inv.Filepath)
			assert.Equal(t, int64(7), inv.OwnerID)
			inv.ID = 11
		}).Return(nil)

	results, err := d.svc.Upload(context.Background(), service.UploadInput{
		OwnerID: 7,
		Files: fileHeaders(t,
			testFile{"notes.txt", "hello"},
			testFile{"march.pdf", "%PDF-1.4"},
		),
	})

	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "notes.txt", results[0].Filename)
	assert.Equal(t, service.UploadStatusFailed, results[0].Status)
	assert.Equal(t, domain.ErrUnsupportedFileType.Error(), results[0].Error)
	assert.Nil(t, results[0].ID)

	assert.Equal(t, "march.pdf", results[1].Filename)
	assert.Equal(t, service.UploadStatusUploaded, results[1].Status)
	require.NotNil(t, results[1].ID)
	assert.Equal(t, int64(11), *results[1].ID)

	d.store.AssertNumberOfCalls(t, "Save", 1)
	d.repo.AssertExpectations(t)
}

func TestInvoiceService_Upload_SanitizesKey(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{})

	var savedKey string
	d.store.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		savedKey = args.Get(1).(port.SaveInput).Key
	}).Return("loc.png", nil)
	d.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := d.svc.Upload(context.Background(), service.UploadInput{
		OwnerID: 3,
		Files:   fileHeaders(t, testFile{"my scan (1).PNG", "png"}),
	})

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(savedKey, "_my_scan_1_.PNG"), savedKey)
	assert.NotContains(t, savedKey, " ")
}

func TestInvoiceService_Upload_TooLarge(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{MaxFileSizeMB: 1})

	results, err := d.svc.Upload(context.Background(), service.UploadInput{
		OwnerID: 1,
		Files:   fileHeaders(t, testFile{"big.pdf", strings.Repeat("x", 1024*1024+1)}),
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, service.UploadStatusFailed, results[0].Status)
	assert.Equal(t, domain.ErrFileTooLarge.Error(), results[0].Error)
	d.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestInvoiceService_Upload_RecordFailureRemovesFile(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{})

	d.store.On("Save", mock.Anything, mock.Anything).Return("1_1_a.jpg", nil)
	d.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
	d.store.On("Delete", mock.Anything, "1_1_a.jpg").Return(nil)

	results, err := d.svc.Upload(context.Background(), service.UploadInput{
		OwnerID: 1,
		Files:   fileHeaders(t, testFile{"a.jpg", "jpg"}),
	})

	require.NoError(t, err)
	assert.Equal(t, service.UploadStatusFailed, results[0].Status)
	assert.Equal(t, domain.ErrUploadFailed.Error(), results[0].Error)
	d.store.AssertExpectations(t)
}

func TestInvoiceService_Upload_StoreFailure(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{})

	d.store.On("Save", mock.Anything, mock.Anything).Return("", errors.New("disk full"))

	results, err := d.svc.Upload(context.Background(), service.UploadInput{
		OwnerID: 1,
		Files:   fileHeaders(t, testFile{"a.tiff", "tiff"}),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ErrUploadFailed.Error(), results[0].Error)
	d.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInvoiceService_List(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{})

	invoices := []domain.Invoice{
		{ID: 2, Filename: "b.pdf", Status: domain.InvoiceStatusCompleted, Confidence: 0.85,
			ExtractedData: &domain.ExtractedData{InvoiceNumber: strPtr("INV-2")}},
		{ID: 1, Filename: "a.pdf", Status: domain.InvoiceStatusProcessing},
	}
	d.repo.On("ListByOwner", mock.Anything, int64(5), 0, 20).Return(invoices, 2, nil)

	summaries, total, err := d.svc.List(context.Background(), 5, 0, 20)

	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, summaries, 2)
	assert.Equal(t, "INV-2", *summaries[0].InvoiceNumber)
	assert.Nil(t, summaries[1].InvoiceNumber)
}

func TestInvoiceService_Delete_RemovesRecordAndFile(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{})

	d.repo.On("GetByID", mock.Anything, int64(1), int64(9)).
		Return(&domain.Invoice{ID: 9, OwnerID: 1, Filepath: "1_1_a.pdf"}, nil)
	d.repo.On("Delete", mock.Anything, int64(1), int64(9)).Return(nil)
	d.store.On("Delete", mock.Anything, "1_1_a.pdf").Return(errors.New("already gone"))

	err := d.svc.Delete(context.Background(), 1, 9)

	assert.NoError(t, err)
	d.repo.AssertExpectations(t)
	d.store.AssertExpectations(t)
}

func TestInvoiceService_Delete_NotOwned(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{})

	d.repo.On("GetByID", mock.Anything, int64(2), int64(9)).Return(nil, domain.ErrInvoiceNotFound)

	err := d.svc.Delete(context.Background(), 2, 9)

	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
	d.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// recordStates captures the status of every UpdateState call.
func recordStates(repo *mocks.MockInvoiceRepo, err error) *[]domain.InvoiceStatus {
	var states []domain.InvoiceStatus
	repo.On("UpdateState", mock.Anything, mock.AnythingOfType("*domain.Invoice")).
		Run(func(args mock.Arguments) {
			states = append(states, args.Get(1).(*domain.Invoice).Status)
		}).Return(err)
	return &states
}

func TestInvoiceService_Process_Success(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{ProcessTimeout: time.Second})

	prior := "previous failure"
	inv := &domain.Invoice{ID: 4, OwnerID: 1, Filepath: "1_1_a.pdf",
		Status: domain.InvoiceStatusFailed, ErrorMessage: &prior}
	d.repo.On("GetByID", mock.Anything, int64(1), int64(4)).Return(inv, nil)
	states := recordStates(d.repo, nil)

	data := &domain.ExtractedData{InvoiceNumber: strPtr("INV-4")}
	d.extractor.On("Extract", mock.Anything, "1_1_a.pdf").Return(data, 0.85, nil)

	result, err := d.svc.Process(context.Background(), 1, 4)

	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusCompleted, result.Status)
	assert.Equal(t, data, result.Data)
	require.NotNil(t, result.Confidence)
	assert.Equal(t, 0.85, *result.Confidence)
	assert.Empty(t, result.Error)

	assert.Equal(t, []domain.InvoiceStatus{domain.InvoiceStatusProcessing, domain.InvoiceStatusCompleted}, *states)
	assert.Nil(t, inv.ErrorMessage)
}

func TestInvoiceService_Process_ExtractionFailureKeepsPriorData(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{})

	prev := &domain.ExtractedData{InvoiceNumber: strPtr("OLD")}
	inv := &domain.Invoice{ID: 4, OwnerID: 1, Filepath: "1_1_a.png",
		Status: domain.InvoiceStatusCompleted, ExtractedData: prev, Confidence: 0.85}
	d.repo.On("GetByID", mock.Anything, int64(1), int64(4)).Return(inv, nil)
	states := recordStates(d.repo, nil)

	providerErr := fmt.Errorf("%w: openai request failed (status 429)", domain.ErrExtractionFailed)
	d.extractor.On("Extract", mock.Anything, "1_1_a.png").Return(nil, 0.0, providerErr)

	result, err := d.svc.Process(context.Background(), 1, 4)

	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusFailed, result.Status)
	assert.Contains(t, result.Error, "status 429")
	assert.Nil(t, result.Data)
	assert.Nil(t, result.Confidence)

	assert.Equal(t, []domain.InvoiceStatus{domain.InvoiceStatusProcessing, domain.InvoiceStatusFailed}, *states)
	assert.Equal(t, prev, inv.ExtractedData)
	assert.Equal(t, 0.85, inv.Confidence)
	require.NotNil(t, inv.ErrorMessage)
	assert.Equal(t, result.Error, *inv.ErrorMessage)
}

func TestInvoiceService_Process_UnparsedCompletionIsCompleted(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{})

	inv := &domain.Invoice{ID: 4, OwnerID: 1, Filepath: "a.pdf", Status: domain.InvoiceStatusProcessing}
	d.repo.On("GetByID", mock.Anything, int64(1), int64(4)).Return(inv, nil)
	recordStates(d.repo, nil)
	d.extractor.On("Extract", mock.Anything, "a.pdf").Return(&domain.ExtractedData{}, 0.0, nil)

	result, err := d.svc.Process(context.Background(), 1, 4)

	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusCompleted, result.Status)
	assert.Equal(t, 0.0, *result.Confidence)
	assert.True(t, result.Data.IsEmpty())
}

func TestInvoiceService_Process_NotFound(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{})

	d.repo.On("GetByID", mock.Anything, int64(1), int64(404)).Return(nil, domain.ErrInvoiceNotFound)

	result, err := d.svc.Process(context.Background(), 1, 404)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
	d.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestInvoiceService_Process_PersistError(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{})

	inv := &domain.Invoice{ID: 4, OwnerID: 1, Filepath: "a.pdf", Status: domain.InvoiceStatusFailed}
	d.repo.On("GetByID", mock.Anything, int64(1), int64(4)).Return(inv, nil)
	recordStates(d.repo, errors.New("db down"))

	result, err := d.svc.Process(context.Background(), 1, 4)

	assert.Nil(t, result)
	assert.Error(t, err)
	d.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestInvoiceService_Process_PersistsOutcomeAfterCallerCancels(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	inv := &domain.Invoice{ID: 4, OwnerID: 1, Filepath: "a.pdf", Status: domain.InvoiceStatusFailed}
	d.repo.On("GetByID", mock.Anything, int64(1), int64(4)).Return(inv, nil)

	var finalCtxErr error
	calls := 0
	d.repo.On("UpdateState", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		calls++
		if calls == 2 {
			finalCtxErr = args.Get(0).(context.Context).Err()
		}
	}).Return(nil)
	d.extractor.On("Extract", mock.Anything, "a.pdf").Run(func(mock.Arguments) { cancel() }).
		Return(nil, 0.0, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, context.Canceled))

	result, err := d.svc.Process(ctx, 1, 4)

	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusFailed, result.Status)
	assert.Equal(t, 2, calls)
	assert.NoError(t, finalCtxErr)
}

func TestInvoiceService_Process_TimeoutMarksFailed(t *testing.T) {
	d := newInvoiceDeps(service.InvoiceServiceConfig{ProcessTimeout: 20 * time.Millisecond})

	prev := &domain.ExtractedData{InvoiceNumber: strPtr("OLD")}
	inv := &domain.Invoice{ID: 4, OwnerID: 1, Filepath: "a.pdf",
		Status: domain.InvoiceStatusCompleted, ExtractedData: prev, Confidence: 0.85}
	d.repo.On("GetByID", mock.Anything, int64(1), int64(4)).Return(inv, nil)
	states := recordStates(d.repo, nil)

	var extractCtxErr error
	d.extractor.On("Extract", mock.Anything, "a.pdf").Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
		}
		extractCtxErr = ctx.Err()
	}).Return(nil, 0.0, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, context.DeadlineExceeded))

	result, err := d.svc.Process(context.Background(), 1, 4)

	require.NoError(t, err)
	assert.ErrorIs(t, extractCtxErr, context.DeadlineExceeded)
	assert.Equal(t, domain.InvoiceStatusFailed, result.Status)
	assert.Contains(t, result.Error, "deadline exceeded")

	assert.Equal(t, []domain.InvoiceStatus{domain.InvoiceStatusProcessing, domain.InvoiceStatusFailed}, *states)
	assert.Equal(t, domain.InvoiceStatusFailed, inv.Status)
	require.NotNil(t, inv.ErrorMessage)
	assert.Contains(t, *inv.ErrorMessage, "deadline exceeded")
	assert.Equal(t, prev, inv.ExtractedData)
	assert.Equal(t, 0.85, inv.Confidence)
}
