package main

import (
	"context"
	"log/slog"

	"github.com/bytedance/sonic"

	"github.com/jlevy/markform/flow"
	"github.com/jlevy/markform/form"
)

var _ flow.Manager = (*ReviewManager)(nil)

type ReviewManager struct {
}

func (m *ReviewManager) Cancel(ctx context.Context, f *form.Form) error {
	slog.Debug("review form cancelled", "form", f.Schema.ID)
	return nil
}

func (m *ReviewManager) Submit(ctx context.Context, f *form.Form) error {
	answers, err := sonic.MarshalString(f.Responses)
	if err != nil {
		return err
	}
	slog.Info("review form submitted", "form", f.Schema.ID, "answers", answers)
	return nil
}
