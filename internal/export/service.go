// Package export renders a user's stored records as an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/entity"
)

const (
	ExpensesSheet = "Expenses"
	PaymentsSheet = "Payments"

	notesWidth = 140
)

// RecordLister is satisfied by repository.RecordStore.
type RecordLister interface {
	ListExpenses(ctx context.Context, userID uuid.UUID, r entity.DateRange) ([]entity.Expense, error)
	ListPayments(ctx context.Context, userID uuid.UUID, r entity.DateRange) ([]entity.Payment, error)
}

// Service produces XLSX bytes for exports.
type Service struct {
	records RecordLister
	now     func() time.Time
	logger  *slog.Logger
}

func NewService(records RecordLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, now: time.Now, logger: logger}
}

// Window normalizes an export window to UTC dates.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> everything.
func Window(from, to *time.Time, now time.Time) (entity.DateRange, error) {
	var r entity.DateRange
	if from != nil {
		f := dateOnly(*from)
		r.From = &f
	}
	if to != nil {
		t := dateOnly(*to)
		r.To = &t
	}
	if r.From != nil && r.To == nil {
		t := dateOnly(now)
		r.To = &t
	}
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return entity.DateRange{}, common.ValidationFailed("from must not be after to", nil)
	}
	return r, nil
}

// ExportExpensesXLSX returns a workbook with the user's expenses and payments in the window.
func (s *Service) ExportExpensesXLSX(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	window, err := Window(from, to, s.now())
	if err != nil {
		return nil, err
	}
	expenses, err := s.records.ListExpenses(ctx, userID, window)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	payments, err := s.records.ListPayments(ctx, userID, window)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExpensesSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	if _, err := f.NewSheet(PaymentsSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	idx, _ := f.GetSheetIndex(ExpensesSheet)
	f.SetActiveSheet(idx)

	writeExpenses(f, expenses)
	writePayments(f, payments)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", userID.String(),
		"expenses", len(expenses),
		"payments", len(payments),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeExpenses(f *excelize.File, rows []entity.Expense) {
	writeHeader(f, ExpensesSheet, "Expense Date", "Category", "Vendor", "Amount", "Notes")
	for i, e := range rows {
		writeRow(f, ExpensesSheet, i+2,
			formatDate(e.ExpenseDate),
			e.Category,
			e.Vendor,
			e.Amount,
			truncate(e.RawText, notesWidth),
		)
	}
	_ = f.SetColWidth(ExpensesSheet, "A", "A", 14) // date
	_ = f.SetColWidth(ExpensesSheet, "B", "B", 22) // category
	_ = f.SetColWidth(ExpensesSheet, "C", "C", 28) // vendor
	_ = f.SetColWidth(ExpensesSheet, "D", "D", 14)
	_ = f.SetColWidth(ExpensesSheet, "E", "E", 48)
}

func writePayments(f *excelize.File, rows []entity.Payment) {
	writeHeader(f, PaymentsSheet, "Payment Date", "Method", "Status", "Transaction ID", "Amount")
	for i, p := range rows {
		txn := ""
		if p.TransactionID != nil {
			txn = *p.TransactionID
		}
		writeRow(f, PaymentsSheet, i+2,
			formatDate(p.PaymentDate),
			p.PaymentMethod,
			p.PaymentStatus,
			txn,
			p.Amount,
		)
	}
	_ = f.SetColWidth(PaymentsSheet, "A", "A", 14)
	_ = f.SetColWidth(PaymentsSheet, "B", "C", 14)
	_ = f.SetColWidth(PaymentsSheet, "D", "D", 28)
	_ = f.SetColWidth(PaymentsSheet, "E", "E", 14)
}

func writeHeader(f *excelize.File, sheet string, headers ...string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(entity.DateLayout)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
