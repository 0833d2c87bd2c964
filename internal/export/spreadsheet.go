package export

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/frahmantamala/club-ledger/internal/expense"
	"github.com/frahmantamala/club-ledger/internal/reporting"
)

const csvBufferSize = 32 * 1024

var ledgerHeader = []string{
	"expense_id", "date", "member_id", "event_id", "category", "amount",
	"payment_mode", "status", "fiscal_year", "description", "bill_file",
	"approved_by", "rejection_reason", "reimbursement_reference",
}

// WriteLedgerCSV writes one row per expense in spreadsheet friendly form.
// Amounts keep two decimals and no currency symbol.
func WriteLedgerCSV(w io.Writer, records []*expense.Expense) error {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true

	if err := writer.Write(ledgerHeader); err != nil {
		return err
	}
	for _, e := range records {
		row := []string{
			strconv.FormatInt(e.ID, 10),
			e.Date.Format("2006-01-02"),
			strconv.FormatInt(e.MemberID, 10),
			strconv.FormatInt(e.EventID, 10),
			string(e.Category),
			e.Amount.StringFixed(2),
			string(e.PaymentMode),
			string(e.Status),
			e.FiscalYear,
			e.Description,
			optional(e.BillFileName),
			optionalID(e.ApprovedBy),
			optional(e.RejectionReason),
			optional(e.ReimbursementReference),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return buf.Flush()
}

// WriteRollupCSV writes a grouped report with its dimension as first column.
func WriteRollupCSV(w io.Writer, dim reporting.Dimension, rollups []reporting.Rollup) error {
	writer := csv.NewWriter(w)
	writer.UseCRLF = true

	if err := writer.Write([]string{string(dim), "label", "count", "total_amount"}); err != nil {
		return err
	}
	for _, r := range rollups {
		if err := writer.Write([]string{r.GroupKey, r.Label, strconv.Itoa(r.Count), r.TotalAmount.StringFixed(2)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func optional(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optionalID(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
