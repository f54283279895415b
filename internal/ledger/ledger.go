package ledger

import (
	"fmt"

	"go.uber.org/zap"

	"tovarbot/internal/models"
	"tovarbot/internal/pkg/utils"
)

// SaleStore persists the durable ledger. Implemented by
// repository.SaleRepository; sales.order_id carries a unique index so a
// second write for the same order fails at the database.
type SaleStore interface {
	Create(sale *models.Sale) error
	FindByOrderID(orderID string) (*models.Sale, error)
	MarkSheetsMirrored(orderID string) error
}

// RowAppender mirrors rows to an external spreadsheet. Implemented by
// pkg/sheets.Client.
type RowAppender interface {
	Enabled() bool
	Append(row []interface{}) error
}

// MirrorStatus tells the caller what happened to the spreadsheet copy, so
// the admin fan-out can tell "mirror is off" apart from "mirror broke".
type MirrorStatus int

const (
	MirrorDisabled MirrorStatus = iota
	MirrorFailed
	MirrorDone
)

// Writer records completed sales: a durable database row first, then a
// best-effort spreadsheet mirror. A mirror failure never fails the sale.
type Writer struct {
	store  SaleStore
	mirror RowAppender
	log    *zap.Logger
}

func NewWriter(store SaleStore, mirror RowAppender, log *zap.Logger) *Writer {
	return &Writer{store: store, mirror: mirror, log: log}
}

// Close writes the durable sale row and then moves the order to its final
// status through finalize. The row is written first so a failed transition
// or a crash in between never loses the sale; the unique index on
// sales.order_id keeps the pre-write idempotent when the caller retries.
func (w *Writer) Close(o *models.Order, product *models.Product, finalize func(orderID string) (*models.Order, error)) (*models.Order, *models.Sale, MirrorStatus, error) {
	sale, mirror, err := w.Record(o, product)
	if err != nil {
		return nil, nil, mirror, err
	}
	finalized, err := finalize(o.ID)
	if err != nil {
		return nil, sale, mirror, err
	}
	return finalized, sale, mirror, nil
}

// Record writes the sale for an order whose payment review is complete and
// reports the spreadsheet mirror outcome. If the row already exists the
// existing sale is returned unchanged.
func (w *Writer) Record(o *models.Order, product *models.Product) (*models.Sale, MirrorStatus, error) {
	sale := &models.Sale{
		OrderID:         o.ID,
		ProductID:       product.ID,
		BuyerID:         o.BuyerID,
		ProductPrice:    product.Price,
		PaidAmount:      o.ConfirmedAmount,
		RemainingAmount: o.RemainingBalance(product.Price),
		PaymentLabel:    o.PaymentLabel,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerAddress: o.CustomerAddress,
		FulfillStatus:   models.FulfillNew,
	}

	if err := w.store.Create(sale); err != nil {
		existing, lookupErr := w.store.FindByOrderID(o.ID)
		if lookupErr == nil && existing != nil {
			w.log.Warn("sale already recorded", zap.String("order_id", o.ID))
			return existing, w.replayMirrorStatus(existing), nil
		}
		return nil, MirrorDisabled, fmt.Errorf("record sale: %w", err)
	}

	return sale, w.mirrorSale(sale, product), nil
}

func (w *Writer) replayMirrorStatus(sale *models.Sale) MirrorStatus {
	if w.mirror == nil || !w.mirror.Enabled() {
		return MirrorDisabled
	}
	if sale.SheetsMirrored {
		return MirrorDone
	}
	return MirrorFailed
}

func (w *Writer) mirrorSale(sale *models.Sale, product *models.Product) MirrorStatus {
	if w.mirror == nil || !w.mirror.Enabled() {
		return MirrorDisabled
	}
	row := []interface{}{
		utils.NowStamp(),
		sale.OrderID,
		product.Name,
		sale.CustomerName,
		sale.CustomerPhone,
		sale.CustomerAddress,
		sale.PaymentLabel,
		sale.PaidAmount,
		sale.RemainingAmount,
	}
	if err := w.mirror.Append(row); err != nil {
		w.log.Warn("sheets mirror failed", zap.String("order_id", sale.OrderID), zap.Error(err))
		return MirrorFailed
	}
	if err := w.store.MarkSheetsMirrored(sale.OrderID); err != nil {
		w.log.Warn("mark mirrored failed", zap.String("order_id", sale.OrderID), zap.Error(err))
	}
	sale.SheetsMirrored = true
	return MirrorDone
}
