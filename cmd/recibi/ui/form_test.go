package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recibi/internal/aid"
	"recibi/internal/apperr"
	"recibi/internal/beneficiary"
	"recibi/internal/form"
	"recibi/internal/receipt"
)

var testNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

type stubRenderer struct {
	contexts []*receipt.Context
}

func (r *stubRenderer) Render(c *receipt.Context, outDir string) (string, error) {
	r.contexts = append(r.contexts, c)
	return outDir + "/" + c.FileName, nil
}

func newTestModel(t *testing.T) (FormModel, *stubRenderer, *[]string) {
	t.Helper()
	repo := beneficiary.NewRepository("mem", []beneficiary.Record{
		{ID: "00123", FirstName: "María", LastName: "Pérez", BirthDate: time.Date(1985, 5, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "00456", FirstName: "Omar", LastName: "Pérez", HolderID: "00123", BirthDate: time.Date(2015, 1, 10, 0, 0, 0, 0, time.UTC)},
	}, []string{"Ana Ruiz", "Luis Mora"})
	catalog := aid.DefaultCatalog()
	r := &stubRenderer{}
	ctrl := form.NewController(&form.Session{
		Repository: repo,
		Catalog:    catalog,
		Copay:      aid.DefaultCopay(),
		Assembler:  receipt.NewAssembler(catalog, aid.DefaultCopay(), "Hijo/a", func() time.Time { return testNow }),
		Renderer:   r,
		OutputDir:  "out",
		Now:        func() time.Time { return testNow },
	})
	var opened []string
	m := NewFormModel(ctrl, Options{
		Styles: NewStyles(LightTheme()),
		Open: func(path string) error {
			opened = append(opened, path)
			return nil
		},
		Source: "beneficiarios.xlsx",
	})
	return m, r, &opened
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func send(m FormModel, msgs ...tea.Msg) (FormModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(FormModel)
	}
	return m, cmd
}

// exec runs cmd and any batched commands in goroutines, forwarding non-nil
// messages to out.
func exec(cmd tea.Cmd, out chan<- tea.Msg) {
	if cmd == nil {
		return
	}
	go func() {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				exec(c, out)
			}
			return
		}
		if msg != nil {
			out <- msg
		}
	}()
}

func next(t *testing.T, out <-chan tea.Msg) tea.Msg {
	t.Helper()
	select {
	case msg := <-out:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

func TestNewFormModelDefaults(t *testing.T) {
	m, _, _ := newTestModel(t)

	in := m.Input()
	assert.Equal(t, "1FGBI", in.AidCode)
	assert.Equal(t, "56.00", in.Amount)
	assert.Equal(t, "Ana Ruiz", in.Professional)
	assert.Equal(t, "Efectivo", in.PaymentMethod)
	assert.Equal(t, "Gastos de bolsillo", m.hint)
	assert.Contains(t, m.View(), "Nº SIRIA")
}

func TestFormCodeCyclingAndMax(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = send(m, key(tea.KeyTab))
	require.Equal(t, fieldCode, m.focus)

	m, _ = send(m, key(tea.KeyPgDown))
	assert.Equal(t, "1FGBM", m.Input().AidCode)
	assert.Equal(t, "22.00", m.Input().Amount)

	m, _ = send(m, key(tea.KeyPgUp), key(tea.KeyPgUp))
	assert.Equal(t, string(m.codes[len(m.codes)-1]), m.Input().AidCode, "wraps to the last code")

	m.code.SetValue("ATSANGA")
	m.syncCode()
	m.amount.SetValue("10")
	m, _ = send(m, key(tea.KeyCtrlX))
	assert.Equal(t, "200.00", m.Input().Amount)
	assert.Equal(t, "Copago (15%): 30.00€. Introduce total factura.", m.hint)

	m.code.SetValue("ATSANMED")
	m.syncCode()
	m, _ = send(m, key(tea.KeyCtrlX))
	status, isErr := m.Status()
	assert.Contains(t, status, "no tiene cuantía máxima")
	assert.False(t, isErr)
}

func TestFormSelectors(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = send(m, key(tea.KeyShiftTab))
	require.Equal(t, fieldPayment, m.focus)
	m, _ = send(m, key(tea.KeyRight))
	assert.Equal(t, "Banco", m.Input().PaymentMethod)

	m, _ = send(m, key(tea.KeyShiftTab), key(tea.KeyRight))
	require.Equal(t, fieldProfessional, m.focus)
	assert.Equal(t, "Luis Mora", m.Input().Professional)
	m, _ = send(m, key(tea.KeyRight))
	assert.Equal(t, "Ana Ruiz", m.Input().Professional)
}

func TestFormValidationErrorStaysIdle(t *testing.T) {
	m, r, _ := newTestModel(t)

	m, cmd := send(m, key(tea.KeyCtrlS))
	assert.Nil(t, cmd)
	assert.False(t, m.busy)
	status, isErr := m.Status()
	assert.True(t, isErr)
	assert.Equal(t, "Por favor, introduce todos los datos necesarios.", status)
	assert.Empty(t, r.contexts)
}

func TestFormGenerateAdult(t *testing.T) {
	m, r, opened := newTestModel(t)

	m, _ = send(m, runes("00123"))
	m, cmd := send(m, key(tea.KeyCtrlS))
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	out := make(chan tea.Msg, 4)
	exec(cmd, out)
	msg := next(t, out)
	require.IsType(t, generatedMsg{}, msg)

	m, cmd = send(m, msg)
	assert.False(t, m.busy)
	status, isErr := m.Status()
	assert.False(t, isErr, status)
	assert.Contains(t, status, "MA.PÉ_00123_2026.10.19.docx")
	require.Len(t, r.contexts, 1)

	exec(cmd, out)
	m, _ = send(m, next(t, out))
	assert.Equal(t, []string{"out/MA.PÉ_00123_2026.10.19.docx"}, *opened)
}

func TestFormGenerateMinorConfirmsHolder(t *testing.T) {
	m, r, _ := newTestModel(t)

	m.code.SetValue("ATSANGA")
	m.syncCode()
	m.amount.SetValue("50")
	m, _ = send(m, runes("00456"))
	m, cmd := send(m, key(tea.KeyCtrlS))

	out := make(chan tea.Msg, 4)
	exec(cmd, out)

	msg := next(t, out)
	require.IsType(t, holderPromptMsg{}, msg)
	m, _ = send(m, msg)
	require.NotNil(t, m.prompt)
	assert.Contains(t, m.View(), "Confirmar titular")

	m, cmd = send(m, runes("s"))
	assert.Nil(t, m.prompt)
	exec(cmd, out)

	msg = next(t, out)
	require.IsType(t, generatedMsg{}, msg)
	m, _ = send(m, msg)

	require.Len(t, r.contexts, 1)
	c := r.contexts[0]
	assert.Equal(t, "42.50", c.Get(receipt.KeyAmount))
	assert.Equal(t, "Hijo/a", c.Get(receipt.KeyRelation))
	assert.Equal(t, "María", c.Get("titular_nombre"))
}

func TestFormMinorManualEntryCancelled(t *testing.T) {
	m, r, _ := newTestModel(t)

	m.code.SetValue("ATSANMED")
	m.syncCode()
	m.amount.SetValue("5")
	m, _ = send(m, runes("00456"))
	m, cmd := send(m, key(tea.KeyCtrlS))

	out := make(chan tea.Msg, 4)
	exec(cmd, out)

	m, _ = send(m, next(t, out))
	m, cmd = send(m, runes("n"))
	exec(cmd, out)

	msg := next(t, out)
	require.IsType(t, holderPromptMsg{}, msg)
	m, _ = send(m, msg)
	assert.Contains(t, m.View(), "Introduce el número de SIRIA")

	m, cmd = send(m, key(tea.KeyEsc))
	exec(cmd, out)
	msg = next(t, out)
	require.IsType(t, generatedMsg{}, msg)
	m, _ = send(m, msg)

	status, isErr := m.Status()
	assert.True(t, isErr)
	assert.Contains(t, status, "Se requiere el número SIRIA del titular")
	assert.Empty(t, r.contexts)
}

func TestChannelPrompterHonoursContext(t *testing.T) {
	p := NewChannelPrompter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ConfirmHolder(ctx, beneficiary.Record{}, "1")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = p.AskHolder(ctx, beneficiary.Record{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChannelPrompterRoundTrip(t *testing.T) {
	p := NewChannelPrompter()
	go func() {
		hp := <-p.Prompts()
		hp.Enter("00999")
	}()
	id, err := p.AskHolder(context.Background(), beneficiary.Record{ID: "2"})
	require.NoError(t, err)
	assert.Equal(t, "00999", id)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "bad", Describe(apperr.Validation("bad")))
	assert.True(t, strings.HasPrefix(Describe(apperr.Lookup("op", "9")), "No se encontraron los datos"))
	assert.True(t, strings.HasPrefix(Describe(apperr.Render("op", "x", nil)), "Error al generar el documento"))
	assert.Equal(t, "Operación cancelada.", Describe(context.Canceled))
	assert.Equal(t, "plain", Describe(errors.New("plain")))
}
