// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/danielhkuo/armonia/models"
)

const (
	SheetSummary   = "Resumen"
	SheetAttendees = "Asistentes"
	SheetVotes     = "Votaciones"
)

// XLSX renders minutes as a workbook with a summary, attendee and vote sheet
type XLSX struct{}

func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSX) FileExtension() string {
	return ".xlsx"
}

func (XLSX) Render(doc models.MinutesDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetSummary); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetAttendees); err != nil {
		return nil, fmt.Errorf("failed to create attendee sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetVotes); err != nil {
		return nil, fmt.Errorf("failed to create vote sheet: %w", err)
	}

	if err := writeRows(f, SheetSummary, summaryRows(doc)); err != nil {
		return nil, err
	}

	attendees := [][]interface{}{{"Nombre", "Unidad", "Coeficiente", "Hora de registro"}}
	for _, a := range doc.Attendees {
		attendees = append(attendees, []interface{}{a.Name, a.Unit, a.Coefficient, formatTime(a.CheckInTime)})
	}
	if err := writeRows(f, SheetAttendees, attendees); err != nil {
		return nil, err
	}

	votes := [][]interface{}{{"Votación", "Opción", "Votos", "Peso", "Porcentaje"}}
	for _, v := range doc.Votes {
		for _, r := range v.Results {
			votes = append(votes, []interface{}{v.Title, r.Option, r.Count, r.Weight, fmt.Sprintf("%.2f%%", r.Percentage)})
		}
	}
	if err := writeRows(f, SheetVotes, votes); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func summaryRows(doc models.MinutesDocument) [][]interface{} {
	date := ""
	if doc.Date != nil {
		date = formatTime(*doc.Date)
	}
	reached := "No"
	if doc.Quorum.QuorumReached {
		reached = "Sí"
	}

	return [][]interface{}{
		{"Título", doc.Title},
		{"Fecha", date},
		{"Lugar", doc.Location},
		{"Propiedad", doc.Property},
		{"Unidades totales", doc.Quorum.TotalUnits},
		{"Unidades presentes", doc.Quorum.PresentUnits},
		{"Coeficientes presentes", doc.Quorum.PresentCoefficients},
		{"Coeficientes totales", doc.Quorum.TotalCoefficients},
		{"Quórum", fmt.Sprintf("%.2f%%", doc.Quorum.QuorumPercentage)},
		{"Quórum requerido", fmt.Sprintf("%.2f%%", doc.Quorum.RequiredQuorum)},
		{"Quórum alcanzado", reached},
		{"Conclusiones", doc.Conclusions},
		{"Generada", doc.GeneratedAt},
	}
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address %s row %d: %w", sheet, i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}
