package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/packetgen/packetgen/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and generate packetgen configuration files",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a configuration file's shape",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return exitValidation(err)
		}
		if err := cfg.Validate(); err != nil {
			return exitValidation(err)
		}
		fmt.Println("ok:", args[0])
		return nil
	},
}

var configGenerateFlags struct {
	template string
	output   string
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a starter configuration file from a named template",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Template(configGenerateFlags.template)
		if err != nil {
			return exitValidation(err)
		}
		out := configGenerateFlags.output
		if out == "" {
			out = "packetgen.yaml"
		}
		if err := cfg.Save(out); err != nil {
			return exitRuntime(err)
		}
		fmt.Println("wrote", out)
		return nil
	},
}

func init() {
	configGenerateCmd.Flags().StringVar(&configGenerateFlags.template, "template", "basic", "template name: "+strings.Join(config.Templates, ", "))
	configGenerateCmd.Flags().StringVar(&configGenerateFlags.output, "output", "", "output path (default ./packetgen.yaml)")

	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configGenerateCmd)
}
