package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yockii/ai_report/pkg/config"
	"github.com/yockii/ai_report/pkg/logger"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reportctl",
		Short: "Generate and export AI reports",
		Long: `Streams an AI report from the generation backend and exports it
as docx, html, md, txt or json.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	rootCmd.PersistentFlags().String("config", "config.yaml", "Config file")
	rootCmd.PersistentFlags().StringP("period", "p", "", "Report period id, e.g. 2025-kw04")
	rootCmd.PersistentFlags().StringP("lang", "l", "", "Report language (default from report.default_language)")
	rootCmd.PersistentFlags().StringP("format", "f", "", "Comma separated export formats: docx,html,md,txt,json (default all)")
	rootCmd.PersistentFlags().StringP("out", "o", ".", "Output directory")
	rootCmd.PersistentFlags().String("prefix", "", "File name prefix (default from report.file_prefix)")

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newConvertCmd())
	return rootCmd
}

func initConfig(cmd *cobra.Command, _ []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	if err := config.Init(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
	}
	if f := cmd.Flags().Lookup("prefix"); f != nil && f.Changed {
		if err := config.BindPFlag("report.file_prefix", f); err != nil {
			return err
		}
	}
	logger.InitCLI()
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
