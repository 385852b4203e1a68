// Package report exports a month of room utilization to an Excel
// workbook for the admin dashboard.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"meetroom/internal/calendar"
	"meetroom/internal/model"
	"meetroom/internal/slots"
)

// MonthReport collects the inputs of one export.
type MonthReport struct {
	RoomName string
	Month    calendar.Month
	Cells    []calendar.Cell
	Hours    model.BusinessHours
}

// Write renders the report as an xlsx document: a Summary sheet with
// one row per day and a Bookings sheet listing every interval.
func Write(w io.Writer, r MonthReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummary(f, r); err != nil {
		return err
	}
	if err := writeBookings(f, r); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, r MonthReport) error {
	const sheet = "Summary"
	f.SetSheetName("Sheet1", sheet)

	title := fmt.Sprintf("%s %s", r.RoomName, r.Month)
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}

	header := []string{"Date", "Status", "Bookings", "Booked hours"}
	if err := writeRow(f, sheet, 2, toAny(header)); err != nil {
		return err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A2", "D2", style)
	}

	row := 3
	for _, cell := range r.Cells {
		if cell.Empty() {
			continue
		}
		booked := 0
		for _, s := range slots.HourlySlots(r.Hours, cell.Bookings) {
			if s.Booked {
				booked++
			}
		}
		values := []any{cell.Date.String(), string(cell.Class), cell.BookingCount, booked}
		if err := writeRow(f, sheet, row, values); err != nil {
			return err
		}
		row++
	}
	return nil
}

func writeBookings(f *excelize.File, r MonthReport) error {
	const sheet = "Bookings"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	header := []string{"Date", "Start", "End", "Booked by", "Department", "Purpose", "Status"}
	if err := writeRow(f, sheet, 1, toAny(header)); err != nil {
		return err
	}

	row := 2
	for _, cell := range r.Cells {
		for _, b := range cell.Bookings {
			values := []any{
				b.Date.String(), b.Start.String(), b.End.String(),
				b.FullName, b.Department, b.Purpose, b.Status,
			}
			if err := writeRow(f, sheet, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Filename generates the download name, e.g. "room-A101_2024-05.xlsx".
func Filename(roomNumber string, m calendar.Month) string {
	return fmt.Sprintf("room-%s_%s.xlsx", roomNumber, m)
}
