package beneficiary

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"recibi/internal/apperr"
	"recibi/internal/config"
	"recibi/internal/logging"
)

// Layouts accepted for date cells stored as text.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02-01-2006",
	"2/1/2006",
}

// Load reads the first worksheet of the workbook at path, with column titles
// on layout.HeaderRow, plus the professionals sheet.
func Load(path string, layout config.DataConfig) (*Repository, error) {
	const op = "beneficiary.Load"

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperr.Load(op, "cannot open workbook "+path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Load(op, "workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperr.Load(op, "cannot read sheet "+sheets[0], err)
	}
	if len(rows) <= layout.HeaderRow {
		return nil, apperr.Load(op, fmt.Sprintf("sheet %q has no header at row %d", sheets[0], layout.HeaderRow+1), nil)
	}

	cols, err := mapColumns(rows[layout.HeaderRow], layout.Columns)
	if err != nil {
		return nil, apperr.Load(op, err.Error(), nil)
	}

	var records []Record
	for i := layout.HeaderRow + 1; i < len(rows); i++ {
		rec, ok := cols.record(rows[i], i+1)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	professionals, err := readProfessionals(f, layout)
	if err != nil {
		return nil, apperr.Load(op, "cannot read professionals", err)
	}

	logging.Data("loaded %d records and %d professionals from %s", len(records), len(professionals), path)
	return NewRepository(path, records, professionals), nil
}

// columnIndex maps each record field to its position in a row.
type columnIndex struct {
	id, firstName, lastName, docNumber, docExpiry int
	household, holder, legalStatus, birthDate, caseNumber int
}

func normalizeTitle(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func mapColumns(header []string, titles config.ColumnsConfig) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeTitle(h)
		if _, seen := pos[key]; !seen && key != "" {
			pos[key] = i
		}
	}

	var missing []string
	find := func(title string) int {
		i, ok := pos[normalizeTitle(title)]
		if !ok {
			missing = append(missing, title)
			return -1
		}
		return i
	}

	idx := columnIndex{
		id:          find(titles.ID),
		firstName:   find(titles.FirstName),
		lastName:    find(titles.LastName),
		docNumber:   find(titles.DocumentNumber),
		docExpiry:   find(titles.DocumentExpiry),
		household:   find(titles.HouseholdID),
		holder:      find(titles.HolderID),
		legalStatus: find(titles.LegalStatus),
		birthDate:   find(titles.BirthDate),
		caseNumber:  find(titles.CaseNumber),
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columnIndex) record(row []string, rowNum int) (Record, bool) {
	id := cell(row, c.id)
	if id == "" {
		return Record{}, false
	}

	rec := Record{
		ID:             id,
		FirstName:      cell(row, c.firstName),
		LastName:       cell(row, c.lastName),
		DocumentNumber: cell(row, c.docNumber),
		DocumentExpiry: cell(row, c.docExpiry),
		HouseholdID:    cell(row, c.household),
		HolderID:       cell(row, c.holder),
		LegalStatus:    cell(row, c.legalStatus),
		CaseNumber:     cell(row, c.caseNumber),
		Row:            rowNum,
	}

	if raw := cell(row, c.birthDate); raw != "" {
		if t, ok := ParseDate(raw); ok {
			rec.BirthDate = t
		} else {
			logging.DataWarn("row %d: unreadable birth date, treated as unknown", rowNum)
		}
	}
	if t, ok := ParseDate(rec.DocumentExpiry); ok {
		rec.DocumentExpiry = t.Format("02-01-2006")
	}
	return rec, true
}

// ParseDate accepts an Excel serial number or one of the text layouts.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		// Serials below 1 are times of day, not dates.
		if serial < 1 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func readProfessionals(f *excelize.File, layout config.DataConfig) ([]string, error) {
	if idx, err := f.GetSheetIndex(layout.ProfessionalsSheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", layout.ProfessionalsSheet)
	}

	var names []string
	for _, col := range layout.ProfessionalsColumns {
		for row := layout.ProfessionalsFirstRow; row <= layout.ProfessionalsLastRow; row++ {
			ref, err := excelize.JoinCellName(col, row)
			if err != nil {
				return nil, err
			}
			v, err := f.GetCellValue(layout.ProfessionalsSheet, ref)
			if err != nil {
				return nil, err
			}
			if v = strings.TrimSpace(v); v != "" {
				names = append(names, v)
			}
		}
	}
	return names, nil
}
