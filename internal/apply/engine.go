// Package apply applies a design to a set of dynamic templates.
//
// A run has two phases. Prepare validates everything the templates share (the
// design, its injection point and the template selection); any failure there
// aborts the run. Run then fans out one task per template. A task's failure is
// recorded in that template's Outcome and never cancels its siblings.
package apply

import (
	"context"
	"errors"
	"fmt"

	"github.com/Helveg/sendgrid-template-manager/internal/apperr"
	"github.com/Helveg/sendgrid-template-manager/internal/design"
	"github.com/Helveg/sendgrid-template-manager/internal/dom"
	"github.com/Helveg/sendgrid-template-manager/internal/sendgrid"
	"github.com/Helveg/sendgrid-template-manager/internal/templates"
	"github.com/Helveg/sendgrid-template-manager/internal/types"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// DefaultTag names the version written when no tag is given.
const DefaultTag = "latest"

// Client is the part of the SendGrid API an Engine needs.
type Client interface {
	ListDesigns(ctx context.Context, summary bool) ([]types.Design, error)
	ListTemplates(ctx context.Context) ([]types.Template, error)
	GetVersion(ctx context.Context, templateID, versionID string) (*types.TemplateVersion, error)
	CreateVersion(ctx context.Context, templateID string, body types.VersionCreate) (*types.TemplateVersion, error)
	UpdateVersion(ctx context.Context, templateID, versionID string, body types.VersionUpdate) (*types.TemplateVersion, error)
}

// Options configures an Engine.
type Options struct {
	// Tag is the version name to create or update.
	Tag string
	// Activate marks the written version active. It never deactivates one.
	Activate bool
	// Kind is the placeholder module kind; empty means design.DefaultKind.
	Kind string
	// Placeholders adds empty signatures for further module kinds.
	Placeholders map[string]string
	// Preheader copies each template's preheader text into the merged design.
	Preheader bool
	// Concurrency caps simultaneous template tasks; 0 runs them all at once.
	Concurrency int
}

// Engine runs design applications against a Client.
type Engine struct {
	client Client
	merger *design.Merger
	logger *zap.Logger
	opts   Options
}

// New creates an Engine.
func New(client Client, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Tag == "" {
		opts.Tag = DefaultTag
	}
	return &Engine{
		client: client,
		merger: design.NewMerger(opts.Kind, opts.Placeholders),
		logger: logger,
		opts:   opts,
	}
}

// Plan is the validated input of a run.
type Plan struct {
	Design    types.Design
	Templates []types.Template
}

// Action is what happened to a template's tagged version.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Outcome is the terminal state of one template's application.
type Outcome struct {
	Template types.Template
	Action   Action
	Version  *types.TemplateVersion
	Err      error
}

// OK reports whether the template was written.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Result collects the outcomes of a run in template order.
type Result struct {
	Design   types.Design
	Outcomes []Outcome
}

// Succeeded returns the outcomes without an error.
func (r *Result) Succeeded() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the outcomes with an error.
func (r *Result) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Err joins the per-template errors, or returns nil when all succeeded.
func (r *Result) Err() error {
	var errs []error
	for _, o := range r.Failed() {
		errs = append(errs, fmt.Errorf("template '%s': %w", o.Template.Name, o.Err))
	}
	return errors.Join(errs...)
}

// Prepare resolves and validates the design and the templates of a run.
// An empty templateRefs selects every template with a content version.
func (e *Engine) Prepare(ctx context.Context, designRef string, templateRefs []string) (*Plan, error) {
	if err := e.checkTag(); err != nil {
		return nil, err
	}
	designs, err := e.client.ListDesigns(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list designs: %w", err)
	}
	var selected *types.Design
	for i := range designs {
		if designs[i].ID == designRef || designs[i].Name == designRef {
			selected = &designs[i]
			break
		}
	}
	if selected == nil {
		return nil, apperr.New(apperr.CodeDesignNotFound, "unknown design '%s'", designRef)
	}
	if err := e.merger.CheckTarget(*selected); err != nil {
		return nil, err
	}
	e.logger.Debug("Design validated", zap.String("design", selected.ID), zap.String("kind", e.merger.Kind()))

	all, err := e.client.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	chosen, err := templates.ResolveRefs(all, templateRefs)
	if err != nil {
		return nil, err
	}
	return &Plan{Design: *selected, Templates: chosen}, nil
}

// Run applies a prepared plan.
func (e *Engine) Run(ctx context.Context, plan *Plan) *Result {
	return &Result{
		Design:   plan.Design,
		Outcomes: e.Apply(ctx, plan.Design, plan.Templates),
	}
}

// Apply merges d into every template concurrently and waits for all of them.
// Outcomes are returned in the order of ts.
func (e *Engine) Apply(ctx context.Context, d types.Design, ts []types.Template) []Outcome {
	outcomes := make([]Outcome, len(ts))

	eg, egCtx := errgroup.WithContext(ctx)
	if e.opts.Concurrency > 0 {
		eg.SetLimit(e.opts.Concurrency)
	}
	for i, t := range ts {
		eg.Go(func() error {
			// Each task owns its slot; returning nil keeps siblings running.
			outcomes[i] = e.applyOne(egCtx, d, t)
			return nil
		})
	}
	_ = eg.Wait()
	return outcomes
}

func (e *Engine) applyOne(ctx context.Context, d types.Design, t types.Template) Outcome {
	logger := e.logger.With(zap.String("template", t.ID), zap.String("name", t.Name))
	outcome := Outcome{Template: t}
	if err := e.checkTag(); err != nil {
		outcome.Err = err
		return outcome
	}

	content, err := e.contentVersion(ctx, t)
	if err != nil {
		outcome.Err = err
		logger.Warn("Apply failed", zap.String("code", string(apperr.CodeOf(err))), zap.Error(err))
		return outcome
	}

	merged, err := e.merge(d, content)
	if err != nil {
		outcome.Err = err
		logger.Warn("Apply failed", zap.String("code", string(apperr.CodeOf(err))), zap.Error(err))
		return outcome
	}

	if existing := templates.ResolveVersion(t, e.opts.Tag); existing != nil {
		active := types.Flag(templates.MergeActive(existing.IsActive(), e.opts.Activate))
		outcome.Action = ActionUpdated
		outcome.Version, err = e.client.UpdateVersion(ctx, t.ID, existing.ID, types.VersionUpdate{
			HTMLContent: merged,
			Active:      &active,
		})
	} else {
		outcome.Action = ActionCreated
		outcome.Version, err = e.client.CreateVersion(ctx, t.ID, types.VersionCreate{
			TemplateID:           t.ID,
			Active:               types.Flag(e.opts.Activate),
			Name:                 e.opts.Tag,
			HTMLContent:          merged,
			GeneratePlainContent: true,
			Subject:              content.Subject,
			Editor:               types.EditorDesign,
		})
	}
	if err != nil {
		outcome.Err = err
		logger.Warn("Apply failed", zap.String("action", string(outcome.Action)), zap.Error(err))
		return outcome
	}
	if outcome.Version == nil {
		outcome.Version = &types.TemplateVersion{TemplateID: t.ID, Name: e.opts.Tag}
	}

	logger.Info("Design applied",
		zap.String("action", string(outcome.Action)),
		zap.String("version", outcome.Version.ID))
	return outcome
}

// checkTag refuses to write over the version modules are read from.
func (e *Engine) checkTag() error {
	if e.opts.Tag == types.ContentVersionName {
		return apperr.New(apperr.CodeConfigInvalid,
			"the %s version holds the template's modules and cannot be the target tag", types.ContentVersionName)
	}
	return nil
}

// contentVersion fetches the full content version of t.
func (e *Engine) contentVersion(ctx context.Context, t types.Template) (*types.TemplateVersion, error) {
	listed := templates.ContentVersion(t)
	if listed == nil {
		return nil, apperr.New(apperr.CodeTemplateNoContent,
			"template '%s' is missing a %s version", t.Name, types.ContentVersionName)
	}
	version, err := e.client.GetVersion(ctx, t.ID, listed.ID)
	if err != nil {
		if sendgrid.IsNotFound(err) {
			return nil, apperr.Wrap(err, apperr.CodeTemplateNoContent,
				"the %s version of template '%s' no longer exists", types.ContentVersionName, t.Name)
		}
		return nil, fmt.Errorf("failed to fetch content version: %w", err)
	}
	if version.Subject == "" {
		version.Subject = listed.Subject
	}
	return version, nil
}

// merge injects the content version's modules into d.
func (e *Engine) merge(d types.Design, content *types.TemplateVersion) (string, error) {
	doc, err := dom.Parse(content.HTMLContent)
	if err != nil {
		return "", err
	}
	modules, err := design.ExtractModules(doc)
	if err != nil {
		return "", err
	}

	var opts design.MergeOptions
	if e.opts.Preheader {
		preheader, err := preheaderOf(doc)
		if err != nil {
			return "", err
		}
		opts.Preheader = &preheader
	}
	return e.merger.Merge(d, modules, opts)
}

func preheaderOf(doc *html.Node) (string, error) {
	preheader, err := dom.Preheader(doc)
	if err != nil {
		return "", apperr.Wrap(err, apperr.CodeTemplateNoPreheader, "the content version has no preheader")
	}
	return preheader, nil
}
