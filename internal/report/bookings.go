package report

import (
	"fmt"
	"io"
	"time"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	BookingsSheet       = "Bookings"
	ContentTypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultSheet        = "Sheet1"
	numberFormatAmount  = 4
	amountColumn        = 7
	bookedAtColumnWidth = 22
)

var bookingHeaders = []any{"Booking ID", "User ID", "Inventory Item", "Product", "Variant", "Slots", "Amount", "Transaction ID", "Booked At (UTC)"}

// BookingsFilename names an export generated at generatedAt.
func BookingsFilename(generatedAt time.Time) string {
	return fmt.Sprintf("bookings-%s.xlsx", generatedAt.UTC().Format("20060102-150405"))
}

// WriteBookings renders bookings as a single-sheet workbook. Amounts are major units.
func WriteBookings(writer io.Writer, bookings []ledger.Booking) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName(defaultSheet, BookingsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	amountStyle, err := file.NewStyle(&excelize.Style{NumFmt: numberFormatAmount})
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	if err := file.SetSheetRow(BookingsSheet, "A1", &bookingHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(bookingHeaders), 1)
	if err != nil {
		return err
	}
	if err := file.SetCellStyle(BookingsSheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for index, booking := range bookings {
		rowNumber := index + 2
		cell, err := excelize.CoordinatesToCellName(1, rowNumber)
		if err != nil {
			return err
		}
		row := []any{
			booking.ID.Int64(),
			booking.UserID.Int64(),
			booking.InventoryItemID.Int64(),
			booking.ProductName,
			booking.VariantName,
			booking.Slots,
			decimal.New(booking.Amount.Int64(), -2).InexactFloat64(),
			booking.TransactionID.Int64(),
			time.Unix(booking.CreatedUnixUTC, 0).UTC().Format(time.RFC3339),
		}
		if err := file.SetSheetRow(BookingsSheet, cell, &row); err != nil {
			return fmt.Errorf("write booking %d: %w", booking.ID, err)
		}
		amountCell, err := excelize.CoordinatesToCellName(amountColumn, rowNumber)
		if err != nil {
			return err
		}
		if err := file.SetCellStyle(BookingsSheet, amountCell, amountCell, amountStyle); err != nil {
			return fmt.Errorf("style amount: %w", err)
		}
	}
	if err := file.SetColWidth(BookingsSheet, "I", "I", bookedAtColumnWidth); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if _, err := file.WriteTo(writer); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
