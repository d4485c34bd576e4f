package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-mdsite"
	"github.com/goliatone/go-mdsite/pkg/interfaces"
)

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <file>",
		Short: "Print the HTML for a markdown file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := getModule(cmd)
			if err != nil {
				return err
			}
			source, err := afero.ReadFile(module.Container().Filesystem(), args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			html, err := module.Markdown().Render(cmd.Context(), source, interfaces.ParseOptions{})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(html))
			return nil
		},
	}
}

func newTitleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "title <file>",
		Short: `Print the text of the first "# " heading in a markdown file`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := getModule(cmd)
			if err != nil {
				return err
			}
			source, err := afero.ReadFile(module.Container().Filesystem(), args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			title, err := mdsite.ExtractTitle(string(source))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), title)
			return nil
		},
	}
}
