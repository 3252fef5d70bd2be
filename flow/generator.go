package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/jlevy/markform/form"
	"github.com/jlevy/markform/inspect"
	"github.com/jlevy/markform/patch"
	"github.com/jlevy/markform/structured"
)

const (
	applyPatchesToolName        = "apply_form_patches"
	applyPatchesToolDescription = "Emit typed form patches for information explicitly provided by the user. Use set_* ops matching each field's kind, skip_field/abort_field for non-answers, and add_note for remarks that fit no field. Emit no patches when the input contains nothing to record."
)

// GenerateRequest is everything a patch generator may look at for one turn.
type GenerateRequest struct {
	Form       *form.Form
	UserInput  string
	Inspection inspect.Result
	Roles      []string
	History    []*schema.Message
}

// PatchArgs is the tool-call payload the model must produce.
type PatchArgs struct {
	Patches []patch.Patch `json:"patches" jsonschema:"description=Ordered list of form patches to apply atomically"`
}

// Generator turns a user message into a patch batch.
type Generator interface {
	GeneratePatches(ctx context.Context, req *GenerateRequest) ([]patch.Patch, error)
}

// ToolBasedGenerator asks a chat model for patches via a forced tool call.
type ToolBasedGenerator struct {
	chain *structured.Chain[*GenerateRequest, PatchArgs]
}

func NewToolBasedGenerator(chatModel model.ToolCallingChatModel) (*ToolBasedGenerator, error) {
	chain, err := structured.NewChain[*GenerateRequest, PatchArgs](
		chatModel,
		buildPatchPrompt,
		applyPatchesToolName,
		applyPatchesToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedGenerator{chain: chain}, nil
}

func (g *ToolBasedGenerator) GeneratePatches(ctx context.Context, req *GenerateRequest) ([]patch.Patch, error) {
	result, err := g.chain.Invoke(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("patch generation: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	return result.Patches, nil
}

func buildPatchPrompt(ctx context.Context, req *GenerateRequest) ([]*schema.Message, error) {
	answers, err := formatAnswersJSON(req.Form)
	if err != nil {
		return nil, err
	}

	systemPrompt := fmt.Sprintf("You are a form-filling assistant. Analyze the user input and call %s with patches for explicitly provided information only. Never invent values. Respect field kinds and option ids exactly as declared.", applyPatchesToolName)

	sections := []string{
		"# Fields:\n" + formatSchemaOutline(req.Form),
		"# Current responses JSON:\n" + answers,
		"# Outstanding work (most urgent first):\n" + formatWorklist(req.Inspection.Issues),
		"# Progress:\n" + formatProgress(req.Inspection.Progress),
	}
	if len(req.Roles) > 0 {
		sections = append(sections, "# Only touch fields with role in:\n"+strings.Join(req.Roles, ", "))
	}
	if len(req.History) > 0 {
		sections = append(sections, "# Recent conversation:\n"+formatHistory(req.History))
	}
	if req.UserInput != "" {
		sections = append(sections, "# User input:\n"+req.UserInput)
	}

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(strings.Join(sections, "\n\n")),
	}, nil
}
