package sitecmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-mdsite/internal/commands"
	"github.com/goliatone/go-mdsite/internal/generator"
	"github.com/goliatone/go-mdsite/internal/logging"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

// ErrGeneratorRequired is returned when a handler has no generator to
// delegate to.
var ErrGeneratorRequired = errors.New("site command: generator is required")

// Generator is the slice of generator.Service the handlers drive.
type Generator interface {
	Build(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error)
	BuildPage(ctx context.Context, source string) (*generator.RenderedPage, error)
	CopyStatic(ctx context.Context) (generator.StaticResult, error)
	Clean(ctx context.Context) error
}

var (
	_ Generator                           = (*generator.Service)(nil)
	_ command.Commander[BuildSiteCommand] = (*BuildSiteHandler)(nil)
	_ command.Commander[BuildPageCommand] = (*BuildPageHandler)(nil)
	_ command.Commander[DiffSiteCommand]  = (*DiffSiteHandler)(nil)
	_ command.Commander[CleanSiteCommand] = (*CleanSiteHandler)(nil)
)

// BuildSiteHandler orchestrates generator builds.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler constructs a handler wired to the provided generator.
func NewBuildSiteHandler(service Generator, logger interfaces.Logger, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	baseLogger := ensureLogger(logger)

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		if service == nil {
			return ErrGeneratorRequired
		}

		if msg.StaticOnly {
			static, err := service.CopyStatic(ctx)
			if err != nil {
				return err
			}
			invokeCallback(msg.ResultCallback, ResultEnvelope{
				Static:   &static,
				Metadata: map[string]any{"operation": "copy_static"},
			})
			return nil
		}

		result, err := service.Build(ctx, generator.BuildOptions{
			BasePath: msg.BasePath,
			DryRun:   msg.DryRun,
		})
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result:   result,
			Metadata: map[string]any{"operation": "build"},
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](baseLogger),
		commands.WithOperation[BuildSiteCommand]("site.build"),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			fields := map[string]any{}
			if msg.BasePath != "" {
				fields["base_path"] = msg.BasePath
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			if msg.StaticOnly {
				fields["static_only"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// BuildPageHandler renders one document.
type BuildPageHandler struct {
	inner *commands.Handler[BuildPageCommand]
}

// NewBuildPageHandler constructs a handler that renders single pages.
func NewBuildPageHandler(service Generator, logger interfaces.Logger, opts ...commands.HandlerOption[BuildPageCommand]) *BuildPageHandler {
	baseLogger := ensureLogger(logger)

	exec := func(ctx context.Context, msg BuildPageCommand) error {
		if service == nil {
			return ErrGeneratorRequired
		}
		page, err := service.BuildPage(ctx, msg.Source)
		if err != nil {
			return err
		}
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Page: page,
			Metadata: map[string]any{
				"operation": "build_page",
				"source":    msg.Source,
			},
		})
		return nil
	}

	handlerOpts := []commands.HandlerOption[BuildPageCommand]{
		commands.WithLogger[BuildPageCommand](baseLogger),
		commands.WithOperation[BuildPageCommand]("site.build_page"),
		commands.WithMessageFields(func(msg BuildPageCommand) map[string]any {
			return map[string]any{"document_path": msg.Source}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildPageCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildPageHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[BuildPageCommand].
func (h *BuildPageHandler) Execute(ctx context.Context, msg BuildPageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DiffSiteHandler performs dry-run builds.
type DiffSiteHandler struct {
	inner *commands.Handler[DiffSiteCommand]
}

// NewDiffSiteHandler constructs a handler that executes generator dry-runs.
func NewDiffSiteHandler(service Generator, logger interfaces.Logger, opts ...commands.HandlerOption[DiffSiteCommand]) *DiffSiteHandler {
	baseLogger := ensureLogger(logger)

	exec := func(ctx context.Context, msg DiffSiteCommand) error {
		if service == nil {
			return ErrGeneratorRequired
		}
		result, err := service.Build(ctx, generator.BuildOptions{
			BasePath: msg.BasePath,
			DryRun:   true,
		})
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result:   result,
			Metadata: map[string]any{"operation": "diff"},
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[DiffSiteCommand]{
		commands.WithLogger[DiffSiteCommand](baseLogger),
		commands.WithOperation[DiffSiteCommand]("site.diff"),
		commands.WithTelemetry(commands.DefaultTelemetry[DiffSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DiffSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[DiffSiteCommand].
func (h *DiffSiteHandler) Execute(ctx context.Context, msg DiffSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CleanSiteHandler empties the output directory.
type CleanSiteHandler struct {
	inner *commands.Handler[CleanSiteCommand]
}

// NewCleanSiteHandler constructs a handler that cleans generator output.
func NewCleanSiteHandler(service Generator, logger interfaces.Logger, opts ...commands.HandlerOption[CleanSiteCommand]) *CleanSiteHandler {
	baseLogger := ensureLogger(logger)

	exec := func(ctx context.Context, _ CleanSiteCommand) error {
		if service == nil {
			return ErrGeneratorRequired
		}
		return service.Clean(ctx)
	}

	handlerOpts := []commands.HandlerOption[CleanSiteCommand]{
		commands.WithLogger[CleanSiteCommand](baseLogger),
		commands.WithOperation[CleanSiteCommand]("site.clean"),
		commands.WithTelemetry(commands.DefaultTelemetry[CleanSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CleanSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CleanSiteCommand].
func (h *CleanSiteHandler) Execute(ctx context.Context, msg CleanSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

func ensureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}

func invokeCallback(cb ResultCallback, envelope ResultEnvelope) {
	if cb == nil {
		return
	}
	cb(envelope)
}

// Handlers groups the site command handlers sharing one generator.
type Handlers struct {
	BuildSite *BuildSiteHandler
	BuildPage *BuildPageHandler
	DiffSite  *DiffSiteHandler
	CleanSite *CleanSiteHandler
}

// NewHandlers wires every site handler to service.
func NewHandlers(service Generator, logger interfaces.Logger) Handlers {
	return Handlers{
		BuildSite: NewBuildSiteHandler(service, logger),
		BuildPage: NewBuildPageHandler(service, logger),
		DiffSite:  NewDiffSiteHandler(service, logger),
		CleanSite: NewCleanSiteHandler(service, logger),
	}
}
