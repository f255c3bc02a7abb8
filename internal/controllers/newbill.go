package controllers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"billed/internal/core"
	"billed/internal/dom"
	applog "billed/internal/log"
	"billed/internal/session"
	"billed/internal/store"
	"billed/internal/views"
)

// UploadState is where a new bill stands between file selection and submission.
type UploadState int

const (
	Idle UploadState = iota
	FileSelected
	Uploading
	Uploaded
	UploadFailed
	Submitting
	Submitted
	SubmitFailed
)

func (s UploadState) String() string {
	switch s {
	case Idle:
		return "idle"
	case FileSelected:
		return "file_selected"
	case Uploading:
		return "uploading"
	case Uploaded:
		return "uploaded"
	case UploadFailed:
		return "upload_failed"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	case SubmitFailed:
		return "submit_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultPct is used when the pct field is empty or not a number.
const DefaultPct = 20

const unsupportedFileMessage = "Seuls les fichiers jpg, jpeg et png sont acceptés"

var (
	ErrUnsupportedFile  = errors.New("unsupported receipt file")
	ErrNoFile           = errors.New("no file selected")
	ErrNotReadyToSubmit = errors.New("receipt not uploaded")
	ErrBusy             = errors.New("operation in progress")
	ErrNoStore          = errors.New("no bill store")
)

var (
	allowedExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}
	allowedMIMETypes  = map[string]bool{"image/png": true, "image/jpeg": true}
)

// AllowedReceipt reports whether a receipt file may be uploaded. The extension
// must be allowed; a MIME type, when known, must be too.
func AllowedReceipt(name, mimeType string) bool {
	if !allowedExtensions[strings.ToLower(filepath.Ext(name))] {
		return false
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType == "" || allowedMIMETypes[mimeType]
}

// NewBill drives the new bill form: receipt upload on file change, then bill
// submission once the upload succeeded.
type NewBill struct {
	doc     *dom.Document
	nav     Navigator
	store   store.Bills
	session session.Reader
	logger  *applog.Logger

	mu       sync.Mutex
	state    UploadState
	fileURL  string
	fileName string
	billID   string
}

func NewNewBill(doc *dom.Document, nav Navigator, bills store.Bills, sess session.Reader, logger *applog.Logger) *NewBill {
	c := &NewBill{
		doc:     doc,
		nav:     nav,
		store:   bills,
		session: sess,
		logger:  componentLogger(logger, applog.ComponentNewBill),
	}
	doc.On(dom.TestIDSelector("file"), dom.Change, func(ctx context.Context, _ *dom.Event) error {
		return c.HandleChangeFile(ctx)
	})
	doc.On(dom.TestIDSelector("form-new-bill"), dom.Submit, c.HandleSubmit)
	return c
}

func (c *NewBill) State() UploadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Receipt returns the uploaded file reference and the record key it belongs to.
func (c *NewBill) Receipt() (fileURL, fileName, billID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fileURL, c.fileName, c.billID
}

// HandleChangeFile validates the picked file and uploads it. A rejected file
// is never uploaded and is cleared from the input.
func (c *NewBill) HandleChangeFile(ctx context.Context) error {
	files := c.doc.Files("file")
	if len(files) == 0 {
		return ErrNoFile
	}
	f := files[0]

	c.mu.Lock()
	if c.state == Uploading || c.state == Submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = FileSelected
	c.fileURL, c.fileName, c.billID = "", "", ""
	c.mu.Unlock()

	if !AllowedReceipt(f.Name, f.Type) {
		c.doc.ResetFileInput("file")
		c.doc.SetText("file-error", unsupportedFileMessage)
		c.setState(Idle)
		c.logger.InfoContext(ctx, "Rejected receipt file",
			applog.FieldFileName, f.Name,
			applog.FieldMimeType, f.Type)
		return fmt.Errorf("%s: %w", f.Name, ErrUnsupportedFile)
	}
	c.doc.SetText("file-error", "")

	if c.store == nil {
		c.setState(UploadFailed)
		return ErrNoStore
	}

	c.setState(Uploading)
	rec, err := c.store.Create(ctx, store.Upload{
		Email:       c.email(),
		FileName:    f.Name,
		ContentType: f.Type,
		Content:     f.Content,
	})
	if err != nil {
		c.setState(UploadFailed)
		c.logger.ErrorContext(ctx, "Receipt upload failed",
			applog.FieldOperation, applog.OpUpload,
			applog.FieldFileName, f.Name,
			applog.FieldError, err)
		return err
	}

	c.mu.Lock()
	c.fileURL, c.fileName, c.billID = rec.FileURL, rec.FileName, rec.Key
	c.state = Uploaded
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "Receipt uploaded",
		applog.FieldBillID, rec.Key,
		applog.FieldFileName, rec.FileName)
	return nil
}

// HandleSubmit sends the form as the bill attached to the uploaded receipt and
// returns to the bill list. It is refused until the upload succeeded.
func (c *NewBill) HandleSubmit(ctx context.Context, e *dom.Event) error {
	if e != nil {
		e.PreventDefault()
	}

	c.mu.Lock()
	if c.state != Uploaded && c.state != SubmitFailed {
		state := c.state
		c.mu.Unlock()
		c.doc.SetText("form-error", "Veuillez joindre un justificatif valide avant d'envoyer")
		return fmt.Errorf("submit in state %s: %w", state, ErrNotReadyToSubmit)
	}
	c.state = Submitting
	fileURL, fileName, id := c.fileURL, c.fileName, c.billID
	c.mu.Unlock()

	bill := c.billFromForm(ctx)
	bill.FileURL, bill.FileName = fileURL, fileName

	if _, err := c.store.Update(ctx, id, bill); err != nil {
		c.setState(SubmitFailed)
		c.doc.SetText("form-error", err.Error())
		c.logger.ErrorContext(ctx, "Bill submission failed",
			applog.FieldOperation, applog.OpSubmit,
			applog.FieldBillID, id,
			applog.FieldError, err)
		return err
	}
	c.setState(Submitted)
	c.logger.InfoContext(ctx, "Bill submitted", applog.FieldBillID, id)

	return c.nav.Navigate(ctx, views.Bills)
}

func (c *NewBill) billFromForm(ctx context.Context) core.Bill {
	amount, err := core.ParseAmount(c.doc.Value("amount"))
	if err != nil {
		c.logger.WarnContext(ctx, "Invalid amount, using zero", "amount", c.doc.Value("amount"), applog.FieldError, err)
	}
	pct, err := strconv.Atoi(strings.TrimSpace(c.doc.Value("pct")))
	if err != nil {
		pct = DefaultPct
	}
	return core.Bill{
		Email:      c.email(),
		Type:       c.doc.Value("expense-type"),
		Name:       c.doc.Value("expense-name"),
		Amount:     amount,
		Date:       c.doc.Value("datepicker"),
		VAT:        c.doc.Value("vat"),
		Pct:        pct,
		Commentary: c.doc.Value("commentary"),
		Status:     core.StatusPending,
	}
}

func (c *NewBill) email() string {
	if c.session == nil {
		return ""
	}
	sess, _ := c.session.Current()
	return sess.Email
}

func (c *NewBill) setState(s UploadState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
