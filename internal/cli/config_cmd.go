package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	var comments bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if used := a.viper.ConfigFileUsed(); used != "" {
				fmt.Fprintf(out, "# config file: %s\n", used)
			}
			for _, o := range GetConfigOptions() {
				if comments {
					fmt.Fprintf(out, "# %s\n", o.Comment)
				}
				fmt.Fprintf(out, "%s = %v\n", o.Key, a.viper.Get(o.Key))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&comments, "comments", false, "include a description above each key")
	return cmd
}
