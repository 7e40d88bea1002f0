package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recibi/internal/aid"
	"recibi/internal/apperr"
	"recibi/internal/beneficiary"
	"recibi/internal/journal"
	"recibi/internal/receipt"
)

var testNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

type fakeRenderer struct {
	calls []*receipt.Context
	err   error
}

func (f *fakeRenderer) Render(c *receipt.Context, outDir string) (string, error) {
	f.calls = append(f.calls, c)
	if f.err != nil {
		return "", f.err
	}
	return outDir + "/" + c.FileName, nil
}

type fakePrompter struct {
	confirm   bool
	answer    string
	err       error
	confirmed []string
	asked     int
}

func (p *fakePrompter) ConfirmHolder(_ context.Context, _ beneficiary.Record, holderID string) (bool, error) {
	p.confirmed = append(p.confirmed, holderID)
	return p.confirm, p.err
}

func (p *fakePrompter) AskHolder(_ context.Context, _ beneficiary.Record) (string, error) {
	p.asked++
	return p.answer, p.err
}

type fakeJournal struct {
	entries []journal.Entry
	err     error
}

func (j *fakeJournal) Record(e *journal.Entry) error {
	if j.err != nil {
		return j.err
	}
	e.ID = "entry-1"
	j.entries = append(j.entries, *e)
	return nil
}

func newTestController(t *testing.T) (*Controller, *fakeRenderer, *fakeJournal) {
	t.Helper()
	repo := beneficiary.NewRepository("mem", []beneficiary.Record{
		{ID: "00123", FirstName: "María", LastName: "Pérez", LegalStatus: "Apátrida",
			BirthDate: time.Date(1985, 5, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "00456", FirstName: "Omar", LastName: "Pérez", HolderID: "00123",
			BirthDate: time.Date(2015, 1, 10, 0, 0, 0, 0, time.UTC)},
		{ID: "00789", FirstName: "Lina", LastName: "Haddad",
			BirthDate: time.Date(2016, 3, 3, 0, 0, 0, 0, time.UTC)},
		{ID: "00999", FirstName: "Otra", LastName: "Titular",
			BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)},
	}, []string{"Ana Ruiz", "Luis Mora"})

	catalog := aid.DefaultCatalog()
	copay := aid.DefaultCopay()
	r := &fakeRenderer{}
	j := &fakeJournal{}
	c := NewController(&Session{
		Repository: repo,
		Catalog:    catalog,
		Copay:      copay,
		Assembler:  receipt.NewAssembler(catalog, copay, "Hijo/a", func() time.Time { return testNow }),
		Renderer:   r,
		Journal:    j,
		OutputDir:  "out",
		Now:        func() time.Time { return testNow },
	})
	return c, r, j
}

func TestValidate(t *testing.T) {
	c, _, _ := newTestController(t)

	tests := []struct {
		name    string
		in      Input
		wantErr bool
		amount  string
	}{
		{"ok dot", Input{BeneficiaryID: "00123", AidCode: "1FGBI", Amount: "56.00"}, false, "56"},
		{"ok comma", Input{BeneficiaryID: "00123", AidCode: "ATSANMED", Amount: "12,5"}, false, "12.5"},
		{"ok euro sign", Input{BeneficiaryID: "00123", AidCode: "ATSANMED", Amount: "12 €"}, false, "12"},
		{"missing id", Input{AidCode: "1FGBI", Amount: "1"}, true, ""},
		{"missing code", Input{BeneficiaryID: "1", Amount: "1"}, true, ""},
		{"missing amount", Input{BeneficiaryID: "1", AidCode: "1FGBI"}, true, ""},
		{"not numeric", Input{BeneficiaryID: "1", AidCode: "1FGBI", Amount: "diez"}, true, ""},
		{"zero", Input{BeneficiaryID: "1", AidCode: "1FGBI", Amount: "0"}, true, ""},
		{"negative", Input{BeneficiaryID: "1", AidCode: "1FGBI", Amount: "-3"}, true, ""},
		{"unknown code", Input{BeneficiaryID: "1", AidCode: "ZZZ", Amount: "3"}, true, ""},
		{"over max", Input{BeneficiaryID: "1", AidCode: "1FGBI", Amount: "56.01"}, true, ""},
		{"bad payment", Input{BeneficiaryID: "1", AidCode: "1FGBI", Amount: "1", PaymentMethod: "bizum"}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := c.Validate(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.amount).Equal(req.Amount), "amount %s", req.Amount)
			assert.Equal(t, receipt.PaymentCash, req.PaymentMethod)
		})
	}
}

func TestValidateMaximumBoundaryForEveryCode(t *testing.T) {
	c, _, _ := newTestController(t)
	cent := decimal.RequireFromString("0.01")

	for _, code := range c.s.Catalog.Codes() {
		max, ok := c.s.Catalog.MaxAmount(code)
		if !ok {
			continue
		}
		_, err := c.Validate(Input{BeneficiaryID: "1", AidCode: string(code), Amount: max.StringFixed(2)})
		assert.NoError(t, err, "%s at max", code)

		_, err = c.Validate(Input{BeneficiaryID: "1", AidCode: string(code), Amount: max.Add(cent).StringFixed(2)})
		assert.True(t, apperr.Is(err, apperr.KindValidation), "%s one cent over", code)
	}
}

func TestGenerateAdult(t *testing.T) {
	c, r, j := newTestController(t)
	p := &fakePrompter{}

	res, err := c.Generate(context.Background(), Input{
		BeneficiaryID: "00123", AidCode: "1FGBI", Amount: "56", Professional: "Ana Ruiz",
	}, p)
	require.NoError(t, err)

	assert.Empty(t, p.confirmed)
	assert.Zero(t, p.asked)
	assert.Nil(t, res.Guardian)
	assert.Equal(t, "56.00", res.Context.Get(receipt.KeyAmount))
	assert.Equal(t, "", res.Context.Get(receipt.KeyRelation))
	assert.Equal(t, "out/MA.PÉ_00123_2026.10.19.docx", res.Path)
	assert.Equal(t, res.Path, c.Session().LastPath)
	require.Len(t, r.calls, 1)

	require.Len(t, j.entries, 1)
	assert.Equal(t, "entry-1", res.JournalID)
	assert.Equal(t, "", j.entries[0].HolderID)
	assert.Equal(t, "56.00", j.entries[0].Amount.StringFixed(2))
}

func TestGenerateMinorConfirmedHolder(t *testing.T) {
	c, _, j := newTestController(t)
	p := &fakePrompter{confirm: true}

	res, err := c.Generate(context.Background(), Input{
		BeneficiaryID: "00456", AidCode: "ATSANGA", Amount: "50.00", PaymentMethod: "Banco",
	}, p)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"00123"}, p.confirmed); diff != "" {
		t.Errorf("confirm prompts (-want +got):\n%s", diff)
	}
	assert.Zero(t, p.asked)
	require.NotNil(t, res.Holder)
	assert.Equal(t, StateConfirmed, res.Holder.State)
	assert.Equal(t, "42.50", res.Context.Get(receipt.KeyAmount))
	assert.Equal(t, "Hijo/a", res.Context.Get(receipt.KeyRelation))
	assert.Equal(t, "María", res.Context.Get("titular_nombre"))
	assert.Equal(t, "Omar", res.Context.Get("menor_nombre"))
	assert.Equal(t, "00123", j.entries[0].HolderID)
}

func TestGenerateMinorRejectedThenManual(t *testing.T) {
	c, _, _ := newTestController(t)
	p := &fakePrompter{confirm: false, answer: " 00 999 "}

	res, err := c.Generate(context.Background(), Input{BeneficiaryID: "00456", AidCode: "ATSANMED", Amount: "10"}, p)
	require.NoError(t, err)
	assert.Equal(t, 1, p.asked)
	assert.Equal(t, StateManual, res.Holder.State)
	assert.Equal(t, "00123", res.Holder.Suggested)
	assert.Equal(t, "Otra", res.Context.Get("titular_nombre"))
}

func TestGenerateMinorWithoutHolderInData(t *testing.T) {
	c, _, _ := newTestController(t)

	t.Run("manual entry", func(t *testing.T) {
		p := &fakePrompter{answer: "00123"}
		res, err := c.Generate(context.Background(), Input{BeneficiaryID: "00789", AidCode: "ATSANMED", Amount: "10"}, p)
		require.NoError(t, err)
		assert.Empty(t, p.confirmed, "nothing to confirm")
		assert.Equal(t, StateManual, res.Holder.State)
	})

	t.Run("empty entry aborts", func(t *testing.T) {
		c, r, j := newTestController(t)
		p := &fakePrompter{answer: "  "}
		_, err := c.Generate(context.Background(), Input{BeneficiaryID: "00789", AidCode: "ATSANMED", Amount: "10"}, p)
		assert.True(t, apperr.Is(err, apperr.KindGuardianRequired), "got %v", err)
		assert.Empty(t, r.calls)
		assert.Empty(t, j.entries)
		assert.Equal(t, "", c.Session().LastPath)
	})

	t.Run("holder not in data", func(t *testing.T) {
		p := &fakePrompter{answer: "55555"}
		_, err := c.Generate(context.Background(), Input{BeneficiaryID: "00789", AidCode: "ATSANMED", Amount: "10"}, p)
		assert.True(t, apperr.Is(err, apperr.KindLookup), "got %v", err)
	})
}

func TestGenerateErrors(t *testing.T) {
	t.Run("unknown beneficiary", func(t *testing.T) {
		c, r, _ := newTestController(t)
		_, err := c.Generate(context.Background(), Input{BeneficiaryID: "424242", AidCode: "ATSANMED", Amount: "1"}, &fakePrompter{})
		assert.True(t, apperr.Is(err, apperr.KindLookup))
		assert.Empty(t, r.calls)
	})

	t.Run("prompter failure", func(t *testing.T) {
		c, _, _ := newTestController(t)
		boom := errors.New("closed")
		_, err := c.Generate(context.Background(), Input{BeneficiaryID: "00456", AidCode: "ATSANMED", Amount: "1"}, &fakePrompter{err: boom})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("render failure", func(t *testing.T) {
		c, r, j := newTestController(t)
		r.err = apperr.Render("test", "broken template", nil)
		_, err := c.Generate(context.Background(), Input{BeneficiaryID: "00123", AidCode: "ATSANMED", Amount: "1"}, &fakePrompter{})
		assert.True(t, apperr.Is(err, apperr.KindRender))
		assert.Empty(t, j.entries)
		assert.Nil(t, c.Session().LastResult)
	})

	t.Run("journal failure keeps result", func(t *testing.T) {
		c, _, j := newTestController(t)
		j.err = errors.New("disk full")
		res, err := c.Generate(context.Background(), Input{BeneficiaryID: "00123", AidCode: "ATSANMED", Amount: "1"}, &fakePrompter{})
		require.NoError(t, err)
		assert.Equal(t, "", res.JournalID)
		assert.NotEmpty(t, res.Path)
	})
}

func TestGuardianResolutionTransitions(t *testing.T) {
	g := NewGuardianResolution(" 001 ")
	assert.Equal(t, StateTentative, g.State)
	assert.Equal(t, "001", g.HolderID)
	assert.False(t, g.Resolved())
	assert.False(t, g.Enter("002"), "manual entry only after rejection")

	g.Confirm()
	assert.Equal(t, StateConfirmed, g.State)
	assert.True(t, g.Resolved())

	g = NewGuardianResolution("001")
	g.Reject()
	assert.Equal(t, StateManual, g.State)
	assert.Equal(t, "", g.HolderID)
	assert.False(t, g.Enter(""))
	assert.False(t, g.Resolved())
	assert.True(t, g.Enter("003"))
	assert.True(t, g.Resolved())

	assert.Equal(t, StateManual, NewGuardianResolution("").State)
	assert.Equal(t, "confirmed", StateConfirmed.String())
}

func TestFlagPrompter(t *testing.T) {
	ctx := context.Background()
	minor := beneficiary.Record{ID: "2"}

	ok, _ := FlagPrompter{AcceptSuggested: true}.ConfirmHolder(ctx, minor, "1")
	assert.True(t, ok)

	ok, _ = FlagPrompter{}.ConfirmHolder(ctx, minor, "1")
	assert.False(t, ok)

	ok, _ = FlagPrompter{HolderID: "1"}.ConfirmHolder(ctx, minor, "1")
	assert.True(t, ok, "explicit holder matching the data")

	ok, _ = FlagPrompter{HolderID: "9", AcceptSuggested: true}.ConfirmHolder(ctx, minor, "1")
	assert.False(t, ok, "explicit holder overrides the data")

	id, _ := FlagPrompter{HolderID: "9"}.AskHolder(ctx, minor)
	assert.Equal(t, "9", id)
}

func TestAmountHelpers(t *testing.T) {
	c, _, _ := newTestController(t)

	max, ok := c.MaxAmount("ATSANGA")
	assert.True(t, ok)
	assert.Equal(t, "200.00", max)

	_, ok = c.MaxAmount("ATSANMED")
	assert.False(t, ok)

	def, ok := c.DefaultAmount("1FGBI")
	assert.True(t, ok)
	assert.Equal(t, "56.00", def)

	assert.Equal(t, "Copago (15%): 15.00€. Introduce total factura.", c.CopayHint("ATSANGA", "100"))
	assert.Equal(t, "Copago (15%): 7.50€. Introduce total factura.", c.CopayHint("ATSANTDE", "50,00"))
	assert.Equal(t, "", c.CopayHint("ATSANGA", "abc"))
	assert.Equal(t, "Medicamentos", c.CopayHint("ATSANMED", "100"))

	assert.Equal(t, []string{"Ana Ruiz", "Luis Mora"}, c.Professionals())
}
