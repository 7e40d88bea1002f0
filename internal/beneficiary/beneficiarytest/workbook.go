// Package beneficiarytest builds beneficiary workbooks for tests.
package beneficiarytest

import (
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// Row is one fixture beneficiary.
type Row struct {
	ID          string
	FirstName   string
	LastName    string
	Document    string
	Expiry      string
	Household   string
	Holder      string
	LegalStatus string
	BirthDate   time.Time
	Case        string
}

// Header mirrors the regional workbook titles, including their stray spaces.
var Header = []interface{}{
	"Nº SIRIA BENEFICIARIA/O",
	"NOMBRE",
	"APELLIDOS",
	"NÚMERO NIE",
	"CADUCIDAD NIE ",
	"Nº SIRIA  UNIDAD CONVIVENCIAL (SI APLICA)",
	"Nº DE SIRIA TITULAR UNIDAD FAMILIAR",
	"SITUACIÓN LEGAL/ADMINISTRATIVA ACTUAL",
	"FECHA NACIMIENTO",
	"Nº EXPEDIENTE OAR",
	"OBSERVACIONES",
}

// ProfessionalsSheet is the default name of the professionals sheet.
const ProfessionalsSheet = "LISTADOS (no tocar)"

// Workbook describes a fixture file.
type Workbook struct {
	Rows []Row
	// ColumnB and ColumnC fill rows 4.. of the professionals sheet.
	ColumnB []string
	ColumnC []string
	// SkipProfessionals omits the professionals sheet.
	SkipProfessionals bool
	// OmitColumn drops the header with this index.
	OmitColumn int
}

// Write saves the workbook into dir and returns its path.
func Write(t testing.TB, dir string, wb Workbook) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("build workbook: %v", err)
		}
	}

	must(f.SetCellValue(sheet, "A1", "LISTADO DE PERSONAS BENEFICIARIAS"))

	header := make([]interface{}, 0, len(Header))
	for i, h := range Header {
		if wb.OmitColumn > 0 && i == wb.OmitColumn {
			h = "COLUMNA LIBRE"
		}
		header = append(header, h)
	}
	must(f.SetSheetRow(sheet, "A5", &header))

	for i, r := range wb.Rows {
		row := i + 6
		values := []interface{}{r.ID, r.FirstName, r.LastName, r.Document, r.Expiry, r.Household, r.Holder, r.LegalStatus, "", r.Case, ""}
		cellRef, err := excelize.CoordinatesToCellName(1, row)
		must(err)
		must(f.SetSheetRow(sheet, cellRef, &values))
		if !r.BirthDate.IsZero() {
			ref, err := excelize.CoordinatesToCellName(9, row)
			must(err)
			must(f.SetCellValue(sheet, ref, r.BirthDate))
		}
	}

	if !wb.SkipProfessionals {
		_, err := f.NewSheet(ProfessionalsSheet)
		must(err)
		must(f.SetCellValue(ProfessionalsSheet, "B2", "PROFESIONALES"))
		for i, name := range wb.ColumnB {
			must(f.SetCellValue(ProfessionalsSheet, "B"+strconv.Itoa(4+i), name))
		}
		for i, name := range wb.ColumnC {
			must(f.SetCellValue(ProfessionalsSheet, "C"+strconv.Itoa(4+i), name))
		}
	}

	path := filepath.Join(dir, "beneficiarios.xlsx")
	must(f.SaveAs(path))
	return path
}
