// Package flow drives an LLM-backed conversation that progressively fills a
// form: each turn the inspection worklist is shown to a patch generator, the
// generated batch is applied transactionally, and the phase advances once
// the form is complete.
package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/jlevy/markform/form"
	"github.com/jlevy/markform/inspect"
	"github.com/jlevy/markform/patch"
	"github.com/jlevy/markform/validate"
)

// Phase is the lifecycle of one form-filling session.
type Phase string

const (
	PhaseCollecting Phase = "collecting"
	PhaseConfirming Phase = "confirming"
	PhaseSubmitted  Phase = "submitted"
	PhaseCancelled  Phase = "cancelled"
)

// Session pairs a live form with its conversation phase. The flow is the
// form's only writer; hosts running sessions concurrently must not share one
// Session across goroutines without external mutual exclusion.
type Session struct {
	Phase   Phase
	Form    *form.Form
	History []*schema.Message
}

// Manager receives lifecycle callbacks when a session finishes.
type Manager interface {
	Submit(ctx context.Context, f *form.Form) error
	Cancel(ctx context.Context, f *form.Form) error
}

// Request is one user turn.
type Request struct {
	Session   *Session
	UserInput string
}

// Response is the outcome of one turn.
type Response struct {
	Message        string
	Session        *Session
	PatchesApplied int
	Metadata       map[string]string
}

// FormFlow wires a patch generator, a command parser and the markform core
// into a turn-based loop.
type FormFlow struct {
	generator Generator
	commands  CommandParser
	manager   Manager
	registry  validate.Registry
	roles     []string
	trimmer   Trimmer
}

// Option configures a FormFlow.
type Option func(*FormFlow)

// WithCommandParser replaces the default local keyword parser.
func WithCommandParser(parser CommandParser) Option {
	return func(fl *FormFlow) { fl.commands = parser }
}

// WithManager installs submit/cancel callbacks.
func WithManager(manager Manager) Option {
	return func(fl *FormFlow) { fl.manager = manager }
}

// WithRegistry supplies custom validators for every inspection the flow runs.
func WithRegistry(registry validate.Registry) Option {
	return func(fl *FormFlow) { fl.registry = registry }
}

// WithRoles restricts the flow to fields of the given roles, both in the
// worklist shown to the generator and as a hard guard on generated patches.
func WithRoles(roles ...string) Option {
	return func(fl *FormFlow) { fl.roles = roles }
}

// WithTrimmer replaces the default history trimming policy.
func WithTrimmer(trimmer Trimmer) Option {
	return func(fl *FormFlow) { fl.trimmer = trimmer }
}

// New builds a flow around a patch generator.
func New(generator Generator, opts ...Option) *FormFlow {
	fl := &FormFlow{
		generator: generator,
		commands:  NewLocalCommandParser(),
		trimmer:   KeepSystemLastNTrimmer{N: 20},
	}
	for _, opt := range opts {
		opt(fl)
	}
	return fl
}

// NewToolBased builds a flow whose patches come from a chat model.
func NewToolBased(chatModel model.ToolCallingChatModel, opts ...Option) (*FormFlow, error) {
	generator, err := NewToolBasedGenerator(chatModel)
	if err != nil {
		return nil, fmt.Errorf("create patch generator: %w", err)
	}
	return New(generator, opts...), nil
}

// Invoke runs one turn against the session's form.
func (fl *FormFlow) Invoke(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || req.Session == nil || req.Session.Form == nil {
		return nil, fmt.Errorf("flow: request has no session form")
	}
	session := req.Session
	if session.Phase == "" {
		session.Phase = PhaseCollecting
	}
	if session.Phase == PhaseSubmitted || session.Phase == PhaseCancelled {
		return &Response{
			Message: fmt.Sprintf("This session is already %s.", session.Phase),
			Session: session,
		}, nil
	}

	cmd, err := fl.commands.ParseCommand(ctx, req.UserInput)
	if err != nil {
		return fl.errorResponse(fmt.Errorf("parse command: %w", err), session), nil
	}
	slog.Debug("parsed command", "command", cmd, "phase", session.Phase)

	var resp *Response
	switch cmd {
	case CommandCancel:
		resp, err = fl.handleCancel(ctx, session)
	case CommandConfirm:
		resp, err = fl.handleConfirm(ctx, session)
	default:
		resp, err = fl.handleEdit(ctx, session, req.UserInput)
	}
	if err != nil {
		return nil, err
	}

	session.History = append(session.History,
		schema.UserMessage(req.UserInput),
		schema.AssistantMessage(resp.Message, nil),
	)
	if fl.trimmer != nil {
		session.History = fl.trimmer.Trim(session.History)
	}
	return resp, nil
}

func (fl *FormFlow) handleCancel(ctx context.Context, session *Session) (*Response, error) {
	if fl.manager != nil {
		if err := fl.manager.Cancel(ctx, session.Form); err != nil {
			return fl.errorResponse(fmt.Errorf("cancel: %w", err), session), nil
		}
	}
	session.Phase = PhaseCancelled
	return &Response{Message: "Form filling cancelled.", Session: session}, nil
}

func (fl *FormFlow) handleConfirm(ctx context.Context, session *Session) (*Response, error) {
	ires := fl.inspect(session.Form)
	if session.Phase != PhaseConfirming || !ires.IsComplete {
		return &Response{
			Message: "The form is not ready to submit. " + turnMessage(ires, 0),
			Session: session,
		}, nil
	}
	if fl.manager != nil {
		if err := fl.manager.Submit(ctx, session.Form); err != nil {
			return fl.errorResponse(fmt.Errorf("submit: %w", err), session), nil
		}
	}
	session.Phase = PhaseSubmitted
	return &Response{Message: "Form submitted, thank you.", Session: session}, nil
}

func (fl *FormFlow) handleEdit(ctx context.Context, session *Session, input string) (*Response, error) {
	ires := fl.inspect(session.Form)
	patches, err := fl.generator.GeneratePatches(ctx, &GenerateRequest{
		Form:       session.Form,
		UserInput:  input,
		Inspection: ires,
		Roles:      fl.roles,
		History:    session.History,
	})
	if err != nil {
		return fl.errorResponse(err, session), nil
	}

	applied := 0
	if len(patches) > 0 {
		if err := patch.ValidateRoles(session.Form, patches, fl.roles); err != nil {
			return fl.errorResponse(fmt.Errorf("generated patches failed role guard: %w", err), session), nil
		}
		slog.Debug("applying patches", "count", len(patches))
		res := patch.Apply(session.Form, patches, patch.Options{Registry: fl.registry})
		if res.Status == patch.StatusRejected {
			slog.Debug("patch batch rejected", "reasons", res.RejectionReasons)
			return &Response{
				Message: "The requested changes were rejected: " + joinReasons(res.RejectionReasons),
				Session: session,
				Metadata: map[string]string{
					"apply_status": string(res.Status),
				},
			}, nil
		}
		applied = len(patches)
	}

	ires = fl.inspect(session.Form)
	if session.Phase == PhaseCollecting && ires.IsComplete {
		session.Phase = PhaseConfirming
	}
	return &Response{
		Message:        turnMessage(ires, applied),
		Session:        session,
		PatchesApplied: applied,
	}, nil
}

func (fl *FormFlow) inspect(f *form.Form) inspect.Result {
	return inspect.Inspect(f, inspect.Options{
		Registry: fl.registry,
		Roles:    fl.roles,
	})
}

func (fl *FormFlow) errorResponse(err error, session *Session) *Response {
	slog.Debug("turn failed", "error", err)
	return &Response{
		Message:  fmt.Sprintf("Sorry, something went wrong handling that: %s", err.Error()),
		Session:  session,
		Metadata: map[string]string{"error": err.Error()},
	}
}

func joinReasons(reasons []string) string {
	out := ""
	for i, reason := range reasons {
		if i > 0 {
			out += "; "
		}
		out += reason
	}
	return out
}
