// Package export writes back-office tables as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/xuri/excelize/v2"
)

const dateLayout = "2006-01-02 15:04"

var (
	orderHeader     = []any{"ID", "Created", "Customer", "Phone", "Model", "Service", "Price", "Status"}
	paymentHeader   = []any{"ID", "Order", "Paid", "Amount", "Method", "Status"}
	inventoryHeader = []any{"ID", "Name", "Category", "Model", "Price", "Cost", "Stock"}
)

func WriteOrders(w io.Writer, orders []model.Order) error {
	rows := make([][]any, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []any{o.ID, formatDate(o.CreatedAt), o.Customer, o.Phone, o.Model, o.Service, o.Price, o.Status})
	}
	return writeSheet(w, "Orders", orderHeader, rows)
}

func WritePayments(w io.Writer, payments []model.Payment) error {
	rows := make([][]any, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, []any{p.ID, p.OrderID, formatDate(p.PaidAt), p.Amount, p.Method, p.Status})
	}
	return writeSheet(w, "Payments", paymentHeader, rows)
}

func WriteInventory(w io.Writer, items []model.InventoryItem) error {
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, []any{item.ID, item.Name, item.Category, item.Model, item.Price, item.Cost, item.Stock})
	}
	return writeSheet(w, "Inventory", inventoryHeader, rows)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(dateLayout)
}

func writeSheet(w io.Writer, sheet string, header []any, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := sw.SetRow("A1", styled(header, bold)); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func styled(values []any, style int) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = excelize.Cell{StyleID: style, Value: v}
	}
	return out
}
