package worker

// Processes receipt jobs from QueueReceipts: renders the sale receipt PDF and,
// when a receipt mailbox is configured, queues it for mailing.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/FMABr/ducks-demo/internal/infra"
	"github.com/FMABr/ducks-demo/internal/model"
	"github.com/FMABr/ducks-demo/internal/repository"

	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipts.
type ReceiptJobPayload struct {
	SaleID int64 `json:"sale_id"`
}

// SaleLoader fetches a sale with its items, ducks, customer and employee.
type SaleLoader interface {
	FindByID(ctx context.Context, id int64) (*model.Sale, error)
}

// EmailEnqueuer queues an outgoing email.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type ReceiptWorker struct {
	sales       SaleLoader
	emails      EmailEnqueuer
	storagePath string
	mailbox     string
	render      func(*model.Sale, string) (string, error)
}

// NewReceiptWorker wires the receipt worker. An empty mailbox disables mailing.
func NewReceiptWorker(sales SaleLoader, emails EmailEnqueuer, storagePath, mailbox string) *ReceiptWorker {
	return &ReceiptWorker{
		sales:       sales,
		emails:      emails,
		storagePath: storagePath,
		mailbox:     mailbox,
		render:      infra.GenerateSaleReceiptPDF,
	}
}

func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.SaleID <= 0 {
		return permanent("receipt_worker: invalid payload %s", string(raw))
	}

	var sale *model.Sale
	err := withRetry(ctx, 3, func(attempt int) error {
		s, err := w.sales.FindByID(ctx, payload.SaleID)
		if errors.Is(err, repository.ErrNotFound) {
			return permanent("receipt_worker: sale %d not found", payload.SaleID)
		}
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Int64("sale_id", payload.SaleID).
				Msg("receipt_worker: loading sale failed")
			return err
		}
		sale = s
		return nil
	})
	if err != nil {
		return err
	}

	pdfPath, err := w.render(sale, w.storagePath)
	if err != nil {
		return fmt.Errorf("receipt_worker: render sale %d: %w", sale.ID, err)
	}
	log.Info().Str("pdf", pdfPath).Int64("sale_id", sale.ID).Msg("receipt_worker: PDF generated")

	if w.mailbox == "" || w.emails == nil {
		return nil
	}
	job := EmailJobPayload{
		SaleID:  sale.ID,
		ToEmail: w.mailbox,
		Subject: fmt.Sprintf("Duck Shop receipt #%d", sale.ID),
		Body:    fmt.Sprintf("Receipt for sale #%d attached.\nTotal: $%s", sale.ID, sale.TotalAfterDiscount.StringFixed(2)),
		PDFPath: pdfPath,
	}
	if err := w.emails.EnqueueEmail(ctx, job); err != nil {
		return fmt.Errorf("receipt_worker: enqueue email for sale %d: %w", sale.ID, err)
	}
	return nil
}
