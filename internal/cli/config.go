package cli

import (
	"github.com/spf13/cobra"
)

// configCommand prints the effective configuration as TOML, suitable as a
// starting point for --config.
func (c *CLI) configCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective engine configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if check {
				source := "defaults"
				if c.configPath != "" {
					source = c.configPath
				}
				printSuccess(w, "Configuration is valid")
				printKeyValue(w, "source", source)
				return nil
			}
			return cfg.Write(w)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "only validate the configuration")

	return cmd
}
