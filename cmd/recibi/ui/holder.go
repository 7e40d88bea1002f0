package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"recibi/internal/beneficiary"
)

// HolderPrompt is a holder question waiting for the operator. An empty
// Suggested asks for manual entry.
type HolderPrompt struct {
	Minor     beneficiary.Record
	Suggested string
	reply     chan holderReply
}

type holderReply struct {
	ok bool
	id string
}

// Confirm answers a suggested-holder question.
func (p HolderPrompt) Confirm(ok bool) {
	p.reply <- holderReply{ok: ok}
}

// Enter answers a manual-entry question. An empty id cancels.
func (p HolderPrompt) Enter(id string) {
	p.reply <- holderReply{id: id}
}

type holderPromptMsg struct {
	prompt HolderPrompt
}

// ChannelPrompter implements form.Prompter for a generation running as a
// tea.Cmd: each question is handed to the UI loop and the call blocks until
// the operator answers or ctx ends.
type ChannelPrompter struct {
	prompts chan HolderPrompt
}

// NewChannelPrompter creates an unbuffered prompter.
func NewChannelPrompter() *ChannelPrompter {
	return &ChannelPrompter{prompts: make(chan HolderPrompt)}
}

// ConfirmHolder implements form.Prompter.
func (p *ChannelPrompter) ConfirmHolder(ctx context.Context, minor beneficiary.Record, holderID string) (bool, error) {
	r, err := p.ask(ctx, HolderPrompt{Minor: minor, Suggested: holderID})
	return r.ok, err
}

// AskHolder implements form.Prompter.
func (p *ChannelPrompter) AskHolder(ctx context.Context, minor beneficiary.Record) (string, error) {
	r, err := p.ask(ctx, HolderPrompt{Minor: minor})
	return r.id, err
}

func (p *ChannelPrompter) ask(ctx context.Context, hp HolderPrompt) (holderReply, error) {
	hp.reply = make(chan holderReply, 1)
	select {
	case p.prompts <- hp:
	case <-ctx.Done():
		return holderReply{}, ctx.Err()
	}
	select {
	case r := <-hp.reply:
		return r, nil
	case <-ctx.Done():
		return holderReply{}, ctx.Err()
	}
}

// Prompts exposes pending questions, for callers driving the prompter
// without a tea.Program.
func (p *ChannelPrompter) Prompts() <-chan HolderPrompt {
	return p.prompts
}

// wait delivers the next question as a message, or nil once done closes.
func (p *ChannelPrompter) wait(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case hp := <-p.prompts:
			return holderPromptMsg{prompt: hp}
		case <-done:
			return nil
		}
	}
}
