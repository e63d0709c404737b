package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkosuda/pagefold/internal/config"
	"github.com/mkosuda/pagefold/internal/mapper"
	"github.com/mkosuda/pagefold/internal/model"
	"github.com/mkosuda/pagefold/internal/restructure"
	"github.com/mkosuda/pagefold/internal/rewrite"
	"github.com/mkosuda/pagefold/internal/validate"
)

// PlanStep builds the path mapping for the site: it walks the export,
// decides where every page moves, and persists the plan as the mapping
// file.
//
// Design decision: Planning is a separate step because:
// 1. The plan must be complete before any file moves (collision detection)
// 2. The "plan" command runs this step alone
// 3. The persisted mapping file is an interchange artifact for external
//    tooling
type PlanStep struct {
	// cfg carries the skip set, known prefixes, and strict mode.
	cfg *config.Config

	// logger for structured logging.
	logger *slog.Logger
}

// PlanStepOption configures a PlanStep.
type PlanStepOption func(*PlanStep)

// WithPlanLogger sets a custom logger for the plan step.
func WithPlanLogger(logger *slog.Logger) PlanStepOption {
	return func(s *PlanStep) {
		s.logger = logger
	}
}

// NewPlanStep creates a new planning step.
func NewPlanStep(cfg *config.Config, opts ...PlanStepOption) *PlanStep {
	s := &PlanStep{
		cfg:    cfg,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *PlanStep) Name() string {
	return "plan"
}

// Do executes the plan step.
func (s *PlanStep) Do(ctx context.Context, report *model.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pages, err := htmlPages(s.cfg.SiteRoot)
	if err != nil {
		return fmt.Errorf("failed to enumerate pages: %w", err)
	}

	m := mapper.New(s.cfg.SkipFiles, s.cfg.KnownPrefixes, mapper.WithLogger(s.logger))
	mapping, ambiguous, err := m.BuildMapping(pages)
	if err != nil {
		return err
	}

	if s.cfg.Strict && len(ambiguous) > 0 {
		return fmt.Errorf("%d ambiguous page name(s) in strict mode, first: %s",
			len(ambiguous), ambiguous[0])
	}

	report.Mapping = mapping
	report.PagesMapped = mapping.Len()
	report.AmbiguousPages = ambiguous

	if err := writeMappingFile(s.cfg.MappingFilePath(), mapping); err != nil {
		return fmt.Errorf("failed to write mapping file: %w", err)
	}

	s.logger.Info("plan complete",
		"pages_mapped", mapping.Len(),
		"ambiguous", len(ambiguous),
		"mapping_file", s.cfg.MappingFilePath(),
	)

	return nil
}

// htmlPages walks the site root and returns every HTML page as a
// site-root-relative POSIX path.
func htmlPages(root string) ([]string, error) {
	var pages []string

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		pages = append(pages, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pages, nil
}

// writeMappingFile serializes the mapping as the flat JSON object format.
func writeMappingFile(path string, mapping *model.PathMapping) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// LoadMappingFile restores a mapping from the flat JSON object format
// written by the plan step.
func LoadMappingFile(path string) (*model.PathMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	mapping := model.NewPathMapping()
	if err := json.Unmarshal(data, mapping); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file: %w", err)
	}
	return mapping, nil
}

// RestructureStep moves every mapped page into its directory-per-page
// location.
type RestructureStep struct {
	// cfg carries the site root, base href, and dry-run flag.
	cfg *config.Config

	// logger for structured logging.
	logger *slog.Logger
}

// RestructureStepOption configures a RestructureStep.
type RestructureStepOption func(*RestructureStep)

// WithRestructureLogger sets a custom logger for the restructure step.
func WithRestructureLogger(logger *slog.Logger) RestructureStepOption {
	return func(s *RestructureStep) {
		s.logger = logger
	}
}

// NewRestructureStep creates a new restructure step.
func NewRestructureStep(cfg *config.Config, opts ...RestructureStepOption) *RestructureStep {
	s := &RestructureStep{
		cfg:    cfg,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *RestructureStep) Name() string {
	return "restructure"
}

// Do executes the restructure step.
func (s *RestructureStep) Do(ctx context.Context, report *model.RunReport) error {
	mapping, err := stepMapping(s.cfg, report)
	if err != nil {
		return err
	}

	r := restructure.New(s.cfg.SiteRoot,
		restructure.WithBaseHref(s.cfg.BaseHref),
		restructure.WithDryRun(s.cfg.DryRun),
		restructure.WithLogger(s.logger),
	)

	report.Restructure = r.Apply(ctx, mapping)
	return nil
}

// RewriteStep rewrites every reference in every document to match the
// restructured layout.
type RewriteStep struct {
	// cfg carries resolution and concurrency settings.
	cfg *config.Config

	// logger for structured logging.
	logger *slog.Logger
}

// RewriteStepOption configures a RewriteStep.
type RewriteStepOption func(*RewriteStep)

// WithRewriteLogger sets a custom logger for the rewrite step.
func WithRewriteLogger(logger *slog.Logger) RewriteStepOption {
	return func(s *RewriteStep) {
		s.logger = logger
	}
}

// NewRewriteStep creates a new rewrite step.
func NewRewriteStep(cfg *config.Config, opts ...RewriteStepOption) *RewriteStep {
	s := &RewriteStep{
		cfg:    cfg,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *RewriteStep) Name() string {
	return "rewrite"
}

// Do executes the rewrite step.
func (s *RewriteStep) Do(ctx context.Context, report *model.RunReport) error {
	mapping, err := stepMapping(s.cfg, report)
	if err != nil {
		return err
	}

	classifier, resolver, rewriter := buildRewriteParts(s.cfg, s.logger)
	engineOpts := []rewrite.EngineOption{rewrite.WithEngineLogger(s.logger)}
	if s.cfg.Strict {
		engineOpts = append(engineOpts, rewrite.WithLegacyRemoval())
	}
	engine := rewrite.NewEngine(classifier, resolver, rewriter, engineOpts...)

	processor := NewDocumentProcessor(s.cfg.SiteRoot, engine,
		WithBatchConcurrency(s.cfg.Concurrency),
		WithBatchDryRun(s.cfg.DryRun),
		WithBatchLogger(s.logger),
	)

	rewriteReport, err := processor.Process(ctx, mapping)
	report.Rewrite = rewriteReport
	return err
}

// ValidateStep checks the rewritten tree for broken internal references.
type ValidateStep struct {
	// cfg carries resolution and concurrency settings.
	cfg *config.Config

	// logger for structured logging.
	logger *slog.Logger
}

// ValidateStepOption configures a ValidateStep.
type ValidateStepOption func(*ValidateStep)

// WithValidateLogger sets a custom logger for the validate step.
func WithValidateLogger(logger *slog.Logger) ValidateStepOption {
	return func(s *ValidateStep) {
		s.logger = logger
	}
}

// NewValidateStep creates a new validation step.
func NewValidateStep(cfg *config.Config, opts ...ValidateStepOption) *ValidateStep {
	s := &ValidateStep{
		cfg:    cfg,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ValidateStep) Name() string {
	return "validate"
}

// Do executes the validation step.
func (s *ValidateStep) Do(ctx context.Context, report *model.RunReport) error {
	classifier, resolver, _ := buildRewriteParts(s.cfg, s.logger)

	v := validate.New(s.cfg.SiteRoot, classifier, resolver,
		validate.WithConcurrency(s.cfg.Concurrency),
		validate.WithLogger(s.logger),
	)

	validationReport, err := v.Validate(ctx)
	report.Validation = validationReport
	return err
}

// stepMapping returns the mapping planned earlier in this run, falling
// back to the persisted mapping file when the plan step did not run in
// this process (e.g. restructuring from a reviewed plan).
func stepMapping(cfg *config.Config, report *model.RunReport) (*model.PathMapping, error) {
	if report.Mapping != nil {
		return report.Mapping, nil
	}

	mapping, err := LoadMappingFile(cfg.MappingFilePath())
	if err != nil {
		return nil, err
	}
	report.Mapping = mapping
	report.PagesMapped = mapping.Len()
	return mapping, nil
}

// buildRewriteParts assembles the classifier, resolver, and rewriter from
// configuration. The rewrite and validate steps share this wiring so both
// phases resolve references identically.
func buildRewriteParts(cfg *config.Config, logger *slog.Logger) (*rewrite.Classifier, *rewrite.Resolver, *rewrite.Rewriter) {
	classifier := rewrite.NewClassifier(cfg.OriginalDomains, cfg.LegacyScripts)

	resolverOpts := []rewrite.ResolverOption{
		rewrite.WithResolverLogger(logger),
		rewrite.WithResolverBaseHref(cfg.BaseHref),
	}
	if cfg.RootRelative {
		resolverOpts = append(resolverOpts, rewrite.WithRootRelative())
	}
	resolver := rewrite.NewResolver(classifier, resolverOpts...)

	return classifier, resolver, rewrite.NewRewriter(cfg.BaseHref)
}

// DefaultPipeline creates a pipeline with the standard phases for a full
// run: plan, restructure, rewrite, and validate.
//
// Design decision: We provide a default pipeline because:
// 1. Most users want the full run
// 2. Reduces boilerplate in CLI
// 3. Ensures consistent ordering
//
// SkipValidate drops the final phase; DryRun is honored inside the
// restructure and rewrite steps rather than by removing them, so a dry
// run still reports what would change.
func DefaultPipeline(cfg *config.Config, logger *slog.Logger, opts ...Option) *Pipeline {
	p := New(append([]Option{WithLogger(logger)}, opts...)...)

	p.AddSteps(
		NewPlanStep(cfg, WithPlanLogger(logger)),
		NewRestructureStep(cfg, WithRestructureLogger(logger)),
		NewRewriteStep(cfg, WithRewriteLogger(logger)),
	)

	if !cfg.SkipValidate && !cfg.DryRun {
		p.AddStep(NewValidateStep(cfg, WithValidateLogger(logger)))
	}

	return p
}
