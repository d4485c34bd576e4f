package generator

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-mdsite/internal/logging"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

// ErrMarkdownServiceRequired is returned when the generator has no document
// source.
var ErrMarkdownServiceRequired = errors.New("generator: markdown service is required")

const (
	sitemapFileName = "sitemap.xml"
	robotsFileName  = "robots.txt"
)

// Config captures runtime behaviour toggles for the generator. Paths are
// relative to the filesystem handed to NewService.
type Config struct {
	OutputDir    string
	StaticDir    string
	TemplatePath string
	BasePath     string
	BaseURL      string
	// Engine takes part in the incremental page hash so switching
	// converters re-renders every page.
	Engine          string
	CleanBuild      bool
	CopyStatic      bool
	Incremental     bool
	GenerateSitemap bool
	GenerateRobots  bool
	IncludeDrafts   bool
	SlugifyPaths    bool
	FailFast        bool
	Workers         int
	RenderTimeout   time.Duration
}

// BuildOptions narrows a generator run.
type BuildOptions struct {
	// BasePath overrides Config.BasePath when set.
	BasePath string
	DryRun   bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	BuildID       string
	PagesBuilt    int
	PagesSkipped  int
	DraftsSkipped int
	PagesFailed   int
	StaticFiles   int
	BytesWritten  int64
	Duration      time.Duration
	Rendered      []RenderedPage
	Diagnostics   []RenderDiagnostic
	Errors        []error
	DryRun        bool
}

// Service renders a content tree into a static site.
type Service struct {
	cfg      Config
	fs       afero.Fs
	markdown interfaces.MarkdownService
	logger   interfaces.Logger
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the logger used for build diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for manifests and sitemaps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires a generator writing to filesystem and reading documents
// from markdown. A nil filesystem means the OS filesystem.
func NewService(filesystem afero.Fs, markdown interfaces.MarkdownService, cfg Config, opts ...Option) *Service {
	if filesystem == nil {
		filesystem = afero.NewOsFs()
	}
	s := &Service{
		cfg:      cfg,
		fs:       filesystem,
		markdown: markdown,
		logger:   logging.NoOp(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type pageJob struct {
	doc    *interfaces.Document
	output string
	hash   string
}

type siteTemplate struct {
	body string
	hash string
}

// Build renders every document into the output directory.
func (s *Service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.markdown == nil {
		return nil, ErrMarkdownServiceRequired
	}

	start := s.now()
	result := &BuildResult{
		BuildID: uuid.NewString(),
		DryRun:  opts.DryRun,
	}
	logger := logging.WithBuildID(s.logger, result.BuildID)
	basePath := s.basePath(opts)
	writer := newArtifactWriter(s.fs, opts.DryRun)
	logger.Info("generator.build.started", "base_path", basePath, "dry_run", opts.DryRun, "incremental", s.cfg.Incremental)

	tmpl, err := s.readTemplate()
	if err != nil {
		return result, err
	}

	var errs []error
	manifest := newBuildManifest()
	if s.cfg.Incremental {
		loaded, err := loadManifest(s.fs, s.outputPath(manifestFileName))
		if err != nil {
			logger.Warn("generator.manifest.ignored", "error", err)
		} else {
			manifest = loaded
		}
	}

	if s.cfg.CleanBuild && !s.cfg.Incremental && !opts.DryRun {
		if err := s.Clean(ctx); err != nil {
			return result, err
		}
	}

	if s.cfg.CopyStatic {
		static, err := copyTree(ctx, s.fs, writer, s.cfg.StaticDir, s.cfg.OutputDir)
		if err != nil {
			errs = append(errs, err)
		}
		result.StaticFiles = static.Files
		if !opts.DryRun {
			result.BytesWritten += static.Bytes
		}
	}

	docs, err := s.markdown.LoadDirectory(ctx, ".", interfaces.LoadOptions{Lazy: true})
	if err != nil {
		return result, errors.Join(append(errs, err)...)
	}

	present := map[string]struct{}{}
	jobs := make([]pageJob, 0, len(docs))
	for _, doc := range docs {
		if doc.FrontMatter.Draft && !s.cfg.IncludeDrafts {
			result.DraftsSkipped++
			result.Diagnostics = append(result.Diagnostics, RenderDiagnostic{Source: doc.FilePath, Skipped: true, Draft: true})
			continue
		}
		present[doc.FilePath] = struct{}{}

		output, err := OutputPath(doc.FilePath, s.cfg.SlugifyPaths)
		if err != nil {
			result.PagesFailed++
			result.Diagnostics = append(result.Diagnostics, RenderDiagnostic{Source: doc.FilePath, Err: err})
			errs = append(errs, err)
			continue
		}
		hash := pageHash(doc.Checksum, tmpl.hash, basePath, s.cfg.Engine)
		if s.cfg.Incremental && manifest.shouldSkip(doc.FilePath, hash, output) && s.outputExists(output) {
			result.PagesSkipped++
			result.Diagnostics = append(result.Diagnostics, RenderDiagnostic{Source: doc.FilePath, Output: output, Skipped: true})
			continue
		}
		jobs = append(jobs, pageJob{doc: doc, output: output, hash: hash})
	}

	outcomes, stopped, renderErr := s.renderConcurrently(ctx, logger, jobs, tmpl, basePath, writer)
	generatedAt := s.now()
	for _, outcome := range outcomes {
		result.Diagnostics = append(result.Diagnostics, outcome.diagnostic)
		if outcome.err != nil {
			result.PagesFailed++
			errs = append(errs, outcome.err)
			manifest.remove(outcome.diagnostic.Source)
			continue
		}
		result.PagesBuilt++
		if !opts.DryRun {
			result.BytesWritten += int64(len(outcome.page.HTML))
		}
		result.Rendered = append(result.Rendered, outcome.page)
		manifest.set(manifestPage{
			Source:       outcome.page.Source,
			Output:       outcome.page.Output,
			Hash:         outcome.hash,
			Checksum:     outcome.page.Checksum,
			LastModified: outcome.page.LastModified,
			RenderedAt:   generatedAt,
		})
	}
	if renderErr != nil {
		errs = append(errs, renderErr)
	}
	if renderErr != nil || stopped {
		return s.finish(logger, result, start, errs)
	}

	if s.cfg.Incremental {
		for _, entry := range manifest.stale(present) {
			if err := writer.Remove(ctx, s.outputPath(entry.Output)); err != nil {
				errs = append(errs, err)
				continue
			}
			manifest.remove(entry.Source)
			logging.WithDocumentContext(logger, entry.Source, entry.Output).Info("generator.page.removed")
		}
	}

	if s.cfg.GenerateSitemap {
		content := buildSitemap(s.cfg.BaseURL, basePath, manifestPages(manifest), generatedAt)
		if err := s.writeArtifact(ctx, writer, result, sitemapFileName, content, categorySitemap); err != nil {
			errs = append(errs, err)
		}
	}
	if s.cfg.GenerateRobots {
		content := buildRobots(s.cfg.BaseURL, basePath, s.cfg.GenerateSitemap)
		if err := s.writeArtifact(ctx, writer, result, robotsFileName, content, categoryRobots); err != nil {
			errs = append(errs, err)
		}
	}

	manifest.BuildID = result.BuildID
	manifest.GeneratedAt = generatedAt
	if data, err := manifest.marshal(); err != nil {
		errs = append(errs, err)
	} else if err := s.writeArtifact(ctx, writer, result, manifestFileName, string(data), categoryManifest); err != nil {
		errs = append(errs, err)
	}

	return s.finish(logger, result, start, errs)
}

func (s *Service) finish(logger interfaces.Logger, result *BuildResult, start time.Time, errs []error) (*BuildResult, error) {
	slices.SortFunc(result.Rendered, func(a, b RenderedPage) int { return strings.Compare(a.Source, b.Source) })
	slices.SortStableFunc(result.Diagnostics, func(a, b RenderDiagnostic) int { return strings.Compare(a.Source, b.Source) })
	result.Duration = s.now().Sub(start)
	result.Errors = errs

	logger.Info("generator.build.completed",
		"pages_built", result.PagesBuilt,
		"pages_skipped", result.PagesSkipped,
		"drafts_skipped", result.DraftsSkipped,
		"pages_failed", result.PagesFailed,
		"static_files", result.StaticFiles,
		"elapsed", result.Duration,
	)
	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}
	return result, nil
}

func (s *Service) renderConcurrently(
	ctx context.Context,
	logger interfaces.Logger,
	jobs []pageJob,
	tmpl siteTemplate,
	basePath string,
	writer artifactWriter,
) ([]renderOutcome, bool, error) {
	var (
		mu       sync.Mutex
		outcomes = make([]renderOutcome, 0, len(jobs))
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workerCount(len(jobs)))
	for _, job := range jobs {
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			outcome := s.renderPage(groupCtx, logger, job, tmpl, basePath, writer)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			if outcome.err != nil && s.cfg.FailFast {
				return outcome.err
			}
			return nil
		})
	}

	// Under FailFast the first failure is already among the outcomes.
	stopped := group.Wait() != nil
	return outcomes, stopped, ctx.Err()
}

func (s *Service) renderPage(
	ctx context.Context,
	logger interfaces.Logger,
	job pageJob,
	tmpl siteTemplate,
	basePath string,
	writer artifactWriter,
) renderOutcome {
	source := job.doc.FilePath
	pageLogger := logging.WithDocumentContext(logger, source, job.output)
	outcome := renderOutcome{
		hash: job.hash,
		diagnostic: RenderDiagnostic{
			Source: source,
			Output: job.output,
		},
	}
	fail := func(err error) renderOutcome {
		err = pageError(err, source)
		outcome.err = err
		outcome.diagnostic.Err = err
		pageLogger.Warn("generator.page.failed", "error", err)
		return outcome
	}

	pageCtx := ctx
	if s.cfg.RenderTimeout > 0 {
		var cancel context.CancelFunc
		pageCtx, cancel = context.WithTimeout(ctx, s.cfg.RenderTimeout)
		defer cancel()
	}

	started := time.Now()
	page, err := s.assemble(pageCtx, job.doc, tmpl, basePath)
	if err == nil {
		err = writer.WriteFile(pageCtx, writeFileRequest{
			Path:     s.outputPath(job.output),
			Content:  strings.NewReader(page.HTML),
			Size:     int64(len(page.HTML)),
			Category: categoryPage,
			Checksum: page.Checksum,
		})
	}
	outcome.diagnostic.Duration = time.Since(started)
	if err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = goerrors.Wrap(ErrRenderTimeout, goerrors.CategoryOperation, s.cfg.RenderTimeout.String()).
				WithTextCode(textCodeRenderTimeout)
		}
		return fail(err)
	}

	page.Output = job.output
	page.Route = RouteFor(job.output)
	page.Duration = outcome.diagnostic.Duration
	outcome.page = page
	pageLogger.Debug("generator.page.written", "bytes", len(page.HTML), "elapsed", page.Duration)
	return outcome
}

// assemble renders the document body and places it in the page template.
func (s *Service) assemble(ctx context.Context, doc *interfaces.Document, tmpl siteTemplate, basePath string) (RenderedPage, error) {
	body, err := s.markdown.RenderDocument(ctx, doc, interfaces.ParseOptions{})
	if err != nil {
		return RenderedPage{}, err
	}
	title, err := s.markdown.Title(doc)
	if err != nil {
		return RenderedPage{}, err
	}
	if err := ctx.Err(); err != nil {
		return RenderedPage{}, err
	}
	html := AssemblePage(tmpl.body, title, string(body), basePath)
	return RenderedPage{
		Source:       doc.FilePath,
		Title:        title,
		HTML:         html,
		Checksum:     computeHash([]byte(html)),
		LastModified: doc.LastModified,
	}, nil
}

// BuildPage renders a single source document, relative to the content
// directory, and writes its output file. Drafts are built when requested
// directly.
func (s *Service) BuildPage(ctx context.Context, source string) (*RenderedPage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.markdown == nil {
		return nil, ErrMarkdownServiceRequired
	}
	tmpl, err := s.readTemplate()
	if err != nil {
		return nil, err
	}
	doc, err := s.markdown.Load(ctx, source, interfaces.LoadOptions{Lazy: true})
	if err != nil {
		return nil, err
	}
	output, err := OutputPath(doc.FilePath, s.cfg.SlugifyPaths)
	if err != nil {
		return nil, err
	}
	basePath := s.basePath(BuildOptions{})
	outcome := s.renderPage(ctx, s.logger, pageJob{
		doc:    doc,
		output: output,
		hash:   pageHash(doc.Checksum, tmpl.hash, basePath, s.cfg.Engine),
	}, tmpl, basePath, newArtifactWriter(s.fs, false))
	if outcome.err != nil {
		return nil, outcome.err
	}
	return &outcome.page, nil
}

// CopyStatic mirrors the static directory into the output directory.
func (s *Service) CopyStatic(ctx context.Context) (StaticResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return copyTree(ctx, s.fs, newArtifactWriter(s.fs, false), s.cfg.StaticDir, s.cfg.OutputDir)
}

// Clean removes and recreates the output directory. It only cleans
// directories strictly below the working directory: absolute paths, the
// working directory itself and anything outside it are refused.
func (s *Service) Clean(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, ok := cleanableDir(s.cfg.OutputDir)
	if !ok {
		return goerrors.Wrap(ErrUnsafeOutputDir, goerrors.CategoryBadInput, s.cfg.OutputDir).
			WithTextCode(textCodeUnsafeOutput)
	}
	if err := s.fs.RemoveAll(dir); err != nil {
		return writeError(err, dir)
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return writeError(err, dir)
	}
	s.logger.Debug("generator.output.cleaned", "output_dir", dir)
	return nil
}

// cleanableDir returns the cleaned, slash-separated form of dir when it is a
// relative path strictly below the working directory.
func cleanableDir(dir string) (string, bool) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" || filepath.IsAbs(trimmed) || filepath.VolumeName(trimmed) != "" {
		return "", false
	}
	cleaned := path.Clean(filepath.ToSlash(trimmed))
	if path.IsAbs(cleaned) || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}

// IsCleanableOutputDir reports whether Clean accepts dir as an output
// directory.
func IsCleanableOutputDir(dir string) bool {
	_, ok := cleanableDir(dir)
	return ok
}

func (s *Service) readTemplate() (siteTemplate, error) {
	data, err := afero.ReadFile(s.fs, s.cfg.TemplatePath)
	if err != nil {
		return siteTemplate{}, templateError(err, s.cfg.TemplatePath)
	}
	return siteTemplate{body: string(data), hash: computeHash(data)}, nil
}

func (s *Service) writeArtifact(ctx context.Context, writer artifactWriter, result *BuildResult, name, content string, category writeCategory) error {
	err := writer.WriteFile(ctx, writeFileRequest{
		Path:     s.outputPath(name),
		Content:  strings.NewReader(content),
		Size:     int64(len(content)),
		Category: category,
		Checksum: computeHash([]byte(content)),
	})
	if err != nil {
		return err
	}
	if !result.DryRun {
		result.BytesWritten += int64(len(content))
	}
	return nil
}

func (s *Service) basePath(opts BuildOptions) string {
	if strings.TrimSpace(opts.BasePath) != "" {
		return NormalizeBasePath(opts.BasePath)
	}
	return NormalizeBasePath(s.cfg.BasePath)
}

func (s *Service) outputPath(rel string) string {
	return joinOutputPath(s.cfg.OutputDir, rel)
}

func (s *Service) outputExists(rel string) bool {
	ok, err := afero.Exists(s.fs, s.outputPath(rel))
	return err == nil && ok
}

func (s *Service) workerCount(jobs int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if jobs > 0 && workers > jobs {
		workers = jobs
	}
	return max(workers, 1)
}

func manifestPages(manifest *buildManifest) []RenderedPage {
	pages := make([]RenderedPage, 0, len(manifest.Pages))
	for _, entry := range manifest.Pages {
		pages = append(pages, RenderedPage{
			Source:       entry.Source,
			Output:       entry.Output,
			Route:        RouteFor(entry.Output),
			LastModified: entry.LastModified,
		})
	}
	return pages
}
