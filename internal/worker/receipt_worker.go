package worker

// Processes receipt jobs from QueueReceipt: renders the PDF receipt for a
// completed sale and emails it to the customer.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/napestudio/stock-control-sub000/internal/infra"
	"github.com/napestudio/stock-control-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// walkInEmail marks the shared counter customer — quick sales have nobody to
// send a receipt to.
const walkInEmail = "walkin@pos.local"

type ReceiptWorker struct {
	sales       repository.SaleRepository
	customers   repository.CustomerRepository
	mailer      *infra.Mailer
	storeName   string
	storagePath string
}

func NewReceiptWorker(
	sales repository.SaleRepository,
	customers repository.CustomerRepository,
	mailer *infra.Mailer,
	storeName, storagePath string,
) *ReceiptWorker {
	return &ReceiptWorker{
		sales:       sales,
		customers:   customers,
		mailer:      mailer,
		storeName:   storeName,
		storagePath: storagePath,
	}
}

// Process renders and sends the receipt. Returning an error triggers the
// pool's retry/DLQ handling.
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return nil // malformed jobs are not retryable
	}

	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: invalid sale id")
		return nil
	}

	sale, err := w.sales.FindByID(ctx, saleID)
	if err != nil {
		return fmt.Errorf("receipt_worker: load sale %s: %w", saleID, err)
	}
	if sale.CustomerID == nil {
		log.Debug().Str("sale_id", payload.SaleID).Msg("receipt_worker: sale has no customer — skipping")
		return nil
	}

	customer, err := w.customers.FindByID(ctx, *sale.CustomerID)
	if err != nil {
		return fmt.Errorf("receipt_worker: load customer: %w", err)
	}
	if customer.Email == "" || customer.Email == walkInEmail {
		log.Debug().Str("sale_id", payload.SaleID).Msg("receipt_worker: no deliverable email — skipping")
		return nil
	}

	pdfPath, err := infra.GenerateReceiptPDF(sale, w.storeName, w.storagePath)
	if err != nil {
		return fmt.Errorf("receipt_worker: render pdf: %w", err)
	}

	subject := fmt.Sprintf("%s — your receipt", w.storeName)
	body := fmt.Sprintf("Hi %s,\n\nThanks for your purchase. Your receipt is attached.\n\nTotal: $%s\n",
		customer.Name, sale.Total.StringFixed(2))
	if err := w.mailer.SendReceipt(customer.Email, subject, body, pdfPath); err != nil {
		return fmt.Errorf("receipt_worker: send email: %w", err)
	}

	log.Info().Str("sale_id", payload.SaleID).Str("to", customer.Email).Msg("receipt_worker: receipt sent")
	return nil
}
