package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/MeKo-Tech/lapwatch/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(c *cli) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and generate configuration",
		Long: `Inspect the resolved configuration or write a default configuration file.

Configuration is read from lapwatch.yaml in ., $HOME, $HOME/.config/lapwatch
or /etc/lapwatch, from LAPWATCH_* environment variables and from flags.`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(c.config)
			if err != nil {
				return fmt.Errorf("failed to render configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Print where configuration is loaded from",
		Run: func(cmd *cobra.Command, args []string) {
			c.loader.PrintConfigInfo(cmd.OutOrStdout())
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := config.ConfigFileName + ".yaml"
			if len(args) == 1 {
				filename = args[0]
			}

			force, _ := cmd.Flags().GetBool("force")
			if _, err := os.Stat(filename); err == nil && !force {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", filename)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check %s: %w", filename, err)
			}

			if err := config.GenerateDefaultConfigFile(filename); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", filename)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(showCmd, infoCmd, initCmd)
	return configCmd
}
