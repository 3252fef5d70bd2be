package flow

import (
	"context"
	"strings"
)

// Command is the user's turn-level intent, parsed before any patching.
type Command string

const (
	CommandCancel  Command = "cancel"
	CommandConfirm Command = "confirm"
	CommandNone    Command = "none"
)

// CommandParser classifies one user turn.
type CommandParser interface {
	ParseCommand(ctx context.Context, input string) (Command, error)
}

// LocalCommandParser matches exact keywords without any model call.
type LocalCommandParser struct {
	CancelKeywords  []string
	ConfirmKeywords []string
}

func NewLocalCommandParser() *LocalCommandParser {
	return &LocalCommandParser{
		CancelKeywords:  []string{"cancel", "quit", "exit", "stop", "abort"},
		ConfirmKeywords: []string{"confirm", "submit", "done", "ok", "yes"},
	}
}

func (p *LocalCommandParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, keyword := range p.CancelKeywords {
		if normalized == keyword {
			return CommandCancel, nil
		}
	}
	for _, keyword := range p.ConfirmKeywords {
		if normalized == keyword {
			return CommandConfirm, nil
		}
	}
	return CommandNone, nil
}

// FailbackCommandParser tries parsers in order and keeps the first answer.
type FailbackCommandParser struct {
	parsers []CommandParser
}

func NewFailbackCommandParser(parsers ...CommandParser) *FailbackCommandParser {
	return &FailbackCommandParser{parsers: parsers}
}

func (p *FailbackCommandParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	var lastErr error
	for _, parser := range p.parsers {
		cmd, err := parser.ParseCommand(ctx, input)
		if err == nil {
			return cmd, nil
		}
		lastErr = err
	}
	return CommandNone, lastErr
}
