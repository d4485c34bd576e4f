package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

const (
	rootModule      = "mdsite"
	markdownModule  = "mdsite.markdown"
	generatorModule = "mdsite.generator"
	commandsModule  = "mdsite.commands"
	cliModule       = "mdsite.cli"
)

const (
	fieldDocumentPath = "document_path"
	fieldOutputPath   = "output_path"
	fieldBuildID      = "build_id"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// MarkdownLogger returns the logger namespace reserved for document loading
// and rendering.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// GeneratorLogger returns the logger namespace reserved for site builds.
func GeneratorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, generatorModule)
}

// CommandsLogger returns the logger namespace reserved for command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// CLILogger returns the logger namespace reserved for the command line.
func CLILogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, cliModule)
}

// WithDocumentContext enriches logger with the source document and the
// output file it produces. Empty values are ignored.
func WithDocumentContext(logger interfaces.Logger, source, output string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(source); trimmed != "" {
		fields[fieldDocumentPath] = trimmed
	}
	if trimmed := strings.TrimSpace(output); trimmed != "" {
		fields[fieldOutputPath] = trimmed
	}
	return WithFields(logger, fields)
}

// WithBuildID tags every entry with the identifier of a generator run.
func WithBuildID(logger interfaces.Logger, buildID string) interfaces.Logger {
	if strings.TrimSpace(buildID) == "" {
		return logger
	}
	return WithFields(logger, map[string]any{fieldBuildID: buildID})
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
