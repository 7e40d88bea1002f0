package beneficiary_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recibi/internal/apperr"
	"recibi/internal/beneficiary"
	"recibi/internal/beneficiary/beneficiarytest"
	"recibi/internal/config"
)

var now = time.Date(2026, time.October, 19, 10, 30, 0, 0, time.Local)

func fixture(t *testing.T) string {
	t.Helper()
	return beneficiarytest.Write(t, t.TempDir(), beneficiarytest.Workbook{
		Rows: []beneficiarytest.Row{
			{
				ID: "00123", FirstName: "María", LastName: "Pérez Gómez",
				Document: "X1234567A", Expiry: "2027-03-31", Household: "UC-9",
				LegalStatus: "Solicitante Protección Internacional",
				BirthDate:   time.Date(1985, time.May, 2, 0, 0, 0, 0, time.UTC),
				Case:        "OAR-1",
			},
			{
				ID: "00456", FirstName: "Omar", LastName: "Pérez",
				Holder:      "00123",
				LegalStatus: "Beneficiario/a Protección Temporal",
				BirthDate:   time.Date(2015, time.January, 10, 0, 0, 0, 0, time.UTC),
			},
			{ID: "789", FirstName: "Sin", LastName: "Fecha"},
			{ID: "", FirstName: "Fila", LastName: "Vacía"},
		},
		ColumnB: []string{"Ana Ruiz", "", "Luis Mora"},
		ColumnC: []string{"Eva Sanz"},
	})
}

func TestLoadRoundTripKeepsLeadingZeros(t *testing.T) {
	repo, err := beneficiary.Load(fixture(t), config.DefaultDataConfig())
	require.NoError(t, err)

	assert.Equal(t, 3, repo.Len())

	rec, ok := repo.FindByID("00123")
	require.True(t, ok)
	assert.Equal(t, "00123", rec.ID)
	assert.Equal(t, "María", rec.FirstName)
	assert.Equal(t, "Pérez Gómez", rec.LastName)
	assert.Equal(t, "X1234567A", rec.DocumentNumber)
	assert.Equal(t, "31-03-2027", rec.DocumentExpiry)
	assert.Equal(t, "UC-9", rec.HouseholdID)
	assert.Equal(t, "OAR-1", rec.CaseNumber)
	assert.Equal(t, 6, rec.Row)
	require.True(t, rec.HasBirthDate())
	assert.Equal(t, "1985-05-02", rec.BirthDate.Format("2006-01-02"))

	_, ok = repo.FindByID("123")
	assert.False(t, ok, "identifiers are compared as text")
}

func TestFindByIDIgnoresSpaces(t *testing.T) {
	repo, err := beneficiary.Load(fixture(t), config.DefaultDataConfig())
	require.NoError(t, err)

	rec, ok := repo.FindByID(" 00 456 ")
	require.True(t, ok)
	assert.Equal(t, "Omar", rec.FirstName)
}

func TestLoadProfessionals(t *testing.T) {
	repo, err := beneficiary.Load(fixture(t), config.DefaultDataConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"Ana Ruiz", "Luis Mora", "Eva Sanz"}, repo.Professionals())
}

func TestLoadErrors(t *testing.T) {
	layout := config.DefaultDataConfig()

	t.Run("missing file", func(t *testing.T) {
		_, err := beneficiary.Load(filepath.Join(t.TempDir(), "nope.xlsx"), layout)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindLoad))
	})

	t.Run("not a workbook", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("plain text"), 0644))
		_, err := beneficiary.Load(path, layout)
		assert.True(t, apperr.Is(err, apperr.KindLoad))
	})

	t.Run("missing column", func(t *testing.T) {
		path := beneficiarytest.Write(t, t.TempDir(), beneficiarytest.Workbook{OmitColumn: 8})
		_, err := beneficiary.Load(path, layout)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindLoad))
		assert.Contains(t, err.Error(), "FECHA NACIMIENTO")
	})

	t.Run("missing professionals sheet", func(t *testing.T) {
		path := beneficiarytest.Write(t, t.TempDir(), beneficiarytest.Workbook{SkipProfessionals: true})
		_, err := beneficiary.Load(path, layout)
		assert.True(t, apperr.Is(err, apperr.KindLoad))
	})

	t.Run("header row beyond data", func(t *testing.T) {
		l := layout
		l.HeaderRow = 50
		_, err := beneficiary.Load(fixture(t), l)
		assert.True(t, apperr.Is(err, apperr.KindLoad))
	})
}

func TestResolveMinorAndGuardian(t *testing.T) {
	repo, err := beneficiary.Load(fixture(t), config.DefaultDataConfig())
	require.NoError(t, err)

	minor := repo.ResolveMinorAndGuardian("00456", now)
	assert.True(t, minor.IsMinor)
	assert.Equal(t, "00123", minor.HolderID)
	assert.Equal(t, 2015, minor.BirthDate.Year())

	adult := repo.ResolveMinorAndGuardian("00123", now)
	assert.False(t, adult.IsMinor)
	assert.Equal(t, "", adult.HolderID)

	assert.Equal(t, beneficiary.MinorStatus{}, repo.ResolveMinorAndGuardian("789", now), "unknown birth date")
	assert.Equal(t, beneficiary.MinorStatus{}, repo.ResolveMinorAndGuardian("missing", now), "absent record")
}

func TestMinorityBoundary(t *testing.T) {
	at := time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)
	exactly18 := at.AddDate(-18, 0, 0)
	dayBefore := at.AddDate(-18, 0, 1)

	repo := beneficiary.NewRepository("mem", []beneficiary.Record{
		{ID: "A", BirthDate: exactly18},
		{ID: "B", BirthDate: dayBefore, HolderID: "A"},
	}, nil)

	assert.False(t, repo.ResolveMinorAndGuardian("A", at).IsMinor)
	assert.True(t, repo.ResolveMinorAndGuardian("B", at).IsMinor)
}

func TestAgeAt(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		now   time.Time
		want  int
	}{
		{"birthday today", date(2008, 10, 19), date(2026, 10, 19), 18},
		{"birthday tomorrow", date(2008, 10, 20), date(2026, 10, 19), 17},
		{"later this month", date(2008, 10, 30), date(2026, 10, 19), 17},
		{"earlier this month", date(2008, 10, 1), date(2026, 10, 19), 18},
		{"next month", date(2008, 11, 1), date(2026, 10, 19), 17},
		{"leap day before anniversary", date(2008, 2, 29), date(2026, 2, 28), 17},
		{"leap day after anniversary", date(2008, 2, 29), date(2026, 3, 1), 18},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, beneficiary.AgeAt(tt.birth, tt.now))
		})
	}
}

func TestParseDate(t *testing.T) {
	for _, raw := range []string{"2015-01-10", "10/01/2015", "10-01-2015", "2015-01-10 00:00:00", "42014"} {
		got, ok := beneficiary.ParseDate(raw)
		require.True(t, ok, raw)
		assert.Equal(t, "2015-01-10", got.Format("2006-01-02"), raw)
	}
	for _, raw := range []string{"", "sin fecha", "0.5"} {
		_, ok := beneficiary.ParseDate(raw)
		assert.False(t, ok, raw)
	}
}

func TestDuplicateIdentifierFirstWins(t *testing.T) {
	repo := beneficiary.NewRepository("mem", []beneficiary.Record{
		{ID: "1", FirstName: "first"},
		{ID: "1", FirstName: "second"},
	}, nil)
	rec, ok := repo.FindByID("1")
	require.True(t, ok)
	assert.Equal(t, "first", rec.FirstName)
	assert.Equal(t, 1, repo.Len())
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}
