package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	sitecmd "github.com/goliatone/go-mdsite/internal/commands/site"
	"github.com/goliatone/go-mdsite/internal/generator"
)

func newBuildCmd() *cobra.Command {
	var dryRun bool
	var staticOnly bool

	cmd := &cobra.Command{
		Use:   "build [base-path]",
		Short: "Render the content tree into the output directory",
		Long: "Render every markdown document under the content directory through the page template.\n" +
			"The optional base-path (e.g. /repo/) prefixes root-relative links for sites served from a sub-directory.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := getModule(cmd)
			if err != nil {
				return err
			}

			var envelope sitecmd.ResultEnvelope
			err = module.Commands().BuildSite.Execute(cmd.Context(), sitecmd.BuildSiteCommand{
				BasePath:   basePathArg(args),
				DryRun:     dryRun,
				StaticOnly: staticOnly,
				ResultCallback: func(e sitecmd.ResultEnvelope) {
					envelope = e
				},
			})
			printEnvelope(cmd.OutOrStdout(), envelope)
			return err
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&dryRun, "dry-run", false, "report what would be written without touching the output directory")
	flags.BoolVar(&staticOnly, "static-only", false, "only copy the static directory")
	flags.Bool("incremental", false, "skip pages unchanged since the last build")
	flags.Bool("include-drafts", false, "render draft documents")
	flags.Bool("fail-fast", false, "stop on the first page error")
	flags.Bool("sitemap", false, "write sitemap.xml")
	flags.Bool("robots", false, "write robots.txt")
	flags.Int("workers", 0, "concurrent page renders")
	flags.Duration("render-timeout", 0, "per-page render deadline")
	addGeneratorBindings(cmd)
	bindFlag(flags, "incremental", "generator.incremental")
	bindFlag(flags, "include-drafts", "generator.include_drafts")
	bindFlag(flags, "fail-fast", "generator.fail_fast")
	bindFlag(flags, "sitemap", "generator.generate_sitemap")
	bindFlag(flags, "robots", "generator.generate_robots")
	bindFlag(flags, "workers", "generator.workers")
	bindFlag(flags, "render-timeout", "generator.render_timeout")
	return cmd
}

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [base-path]",
		Short: "List the files a build would write",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := getModule(cmd)
			if err != nil {
				return err
			}

			var envelope sitecmd.ResultEnvelope
			err = module.Commands().DiffSite.Execute(cmd.Context(), sitecmd.DiffSiteCommand{
				BasePath: basePathArg(args),
				ResultCallback: func(e sitecmd.ResultEnvelope) {
					envelope = e
				},
			})
			out := cmd.OutOrStdout()
			if envelope.Result != nil {
				for _, page := range envelope.Result.Rendered {
					fmt.Fprintf(out, "%s -> %s\n", page.Source, page.Output)
				}
			}
			printEnvelope(out, envelope)
			return err
		},
	}
	addGeneratorBindings(cmd)
	return cmd
}

func newPageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page <source>",
		Short: "Render a single document, relative to the content directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := getModule(cmd)
			if err != nil {
				return err
			}

			var envelope sitecmd.ResultEnvelope
			err = module.Commands().BuildPage.Execute(cmd.Context(), sitecmd.BuildPageCommand{
				Source: args[0],
				ResultCallback: func(e sitecmd.ResultEnvelope) {
					envelope = e
				},
			})
			if err != nil {
				return err
			}
			printEnvelope(cmd.OutOrStdout(), envelope)
			return nil
		},
	}
	addGeneratorBindings(cmd)
	return cmd
}

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Empty the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := getModule(cmd)
			if err != nil {
				return err
			}
			if err := module.Commands().CleanSite.Execute(cmd.Context(), sitecmd.CleanSiteCommand{}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleaned %s\n", module.Config().Generator.OutputDir)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output directory")
	bindFlag(cmd.Flags(), "output", "generator.output_dir")
	return cmd
}

// addGeneratorBindings registers the layout flags shared by the build
// commands.
func addGeneratorBindings(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "output directory")
	flags.String("template", "", "page template path")
	flags.String("base-url", "", "absolute site url for sitemap.xml and robots.txt")
	bindFlag(flags, "output", "generator.output_dir")
	bindFlag(flags, "template", "generator.template_path")
	bindFlag(flags, "base-url", "generator.base_url")
}

func basePathArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func printEnvelope(out io.Writer, envelope sitecmd.ResultEnvelope) {
	switch {
	case envelope.Result != nil:
		printBuildResult(out, envelope.Result)
	case envelope.Page != nil:
		page := envelope.Page
		fmt.Fprintf(out, "%s -> %s (%s, %s)\n", page.Source, page.Output, page.Title, humanize.Bytes(uint64(len(page.HTML))))
	case envelope.Static != nil:
		fmt.Fprintf(out, "copied %d static files (%s)\n", envelope.Static.Files, humanize.Bytes(uint64(envelope.Static.Bytes)))
	}
}

func printBuildResult(out io.Writer, result *generator.BuildResult) {
	verb := "built"
	if result.DryRun {
		verb = "would build"
	}
	fmt.Fprintf(out, "%s %d pages: %d unchanged, %d drafts, %d failed\n",
		verb, result.PagesBuilt, result.PagesSkipped, result.DraftsSkipped, result.PagesFailed)
	if result.StaticFiles > 0 {
		fmt.Fprintf(out, "static files: %d\n", result.StaticFiles)
	}
	if !result.DryRun {
		fmt.Fprintf(out, "wrote %s in %s\n", humanize.Bytes(uint64(result.BytesWritten)), result.Duration.Round(time.Millisecond))
	}
	for _, diag := range result.Diagnostics {
		if diag.Err != nil {
			fmt.Fprintf(out, "failed %s: %v\n", diag.Source, diag.Err)
		}
	}
}
