package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/githubnext/yamlctx/pkg/cli"
	"github.com/githubnext/yamlctx/pkg/console"
	"github.com/githubnext/yamlctx/pkg/constants"
	"github.com/githubnext/yamlctx/pkg/parser"
	"github.com/spf13/cobra"
)

// Build-time variables set by GoReleaser
var (
	version = "dev"
)

// Global flags
var verbose bool

var rootCmd = &cobra.Command{
	Use:   constants.CLIName,
	Short: "Locate YAML errors precisely in their source documents",
	Long: constants.CLIName + ` decodes YAML files and reports every problem with the exact
character it refers to, plus the enclosing key when the decoder names one.

Project defaults are read from ` + cli.ConfigFileName + ` in the current directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [files-or-dirs...]",
	Short: "Decode YAML files and report located errors",
	Long: `Decode YAML files and report located errors.

Directories are searched recursively for .yaml and .yml files. Markdown files
named explicitly are checked through their frontmatter.

Examples:
  ` + constants.CLIName + ` check config.yaml
  ` + constants.CLIName + ` check deploy/ --decoder yaml.v3
  ` + constants.CLIName + ` check . --schema schema.json --concurrency 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		options, err := resolveCheckOptions(cmd)
		if err != nil {
			return err
		}
		return cli.CheckFiles(args, options, cmd.OutOrStdout())
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Locate an error message reported by another tool",
	Long: `Locate an error message reported by another tool in the file it refers to.

The --format flag selects how locations are written in the message:
  libyaml   "... at line 3 column 5" (default)
  yaml.v3   "yaml: line 3: ..." or "line 3: column 5: ..."
  goccy     "[3:5] ..."

Examples:
  ` + constants.CLIName + ` analyze config.yaml --message "invalid type at line 3 column 5"
  ` + constants.CLIName + ` analyze config.yaml -m "[3:5] unexpected key" --format goccy --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := cli.LoadConfig(".")
		if err != nil {
			return err
		}
		message, _ := cmd.Flags().GetString("message")
		format, _ := cmd.Flags().GetString("format")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return cli.AnalyzeMessage(args[0], cli.AnalyzeOptions{
			Message: message,
			Format:  format,
			JSON:    jsonOutput,
			Hint:    config.Hint,
			Verbose: verbose,
		}, cmd.OutOrStdout())
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Re-check YAML files as they change",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		options, err := resolveCheckOptions(cmd)
		if err != nil {
			return err
		}
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return cli.WatchFiles(ctx, dir, options, cmd.OutOrStdout())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), console.FormatInfoMessage(fmt.Sprintf("%s version %s", constants.CLIName, version)))
	},
}

// resolveCheckOptions merges the project config with the flags that were set
func resolveCheckOptions(cmd *cobra.Command) (cli.CheckOptions, error) {
	config, err := cli.LoadConfig(".")
	if err != nil {
		return cli.CheckOptions{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("decoder") {
		config.Decoder, _ = flags.GetString("decoder")
	}
	if flags.Changed("schema") {
		config.Schema, _ = flags.GetString("schema")
	}
	if flags.Changed("concurrency") {
		config.Concurrency, _ = flags.GetInt("concurrency")
	}
	if err := config.Validate(); err != nil {
		return cli.CheckOptions{}, err
	}

	decoder, err := parser.ParseDecoder(config.Decoder)
	if err != nil {
		return cli.CheckOptions{}, err
	}

	return cli.CheckOptions{
		Decoder:     decoder,
		SchemaPath:  config.Schema,
		Concurrency: config.Concurrency,
		Hint:        config.Hint,
		Verbose:     verbose,
	}, nil
}

func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("decoder", "d", "", "YAML decoder (goccy, yaml.v3)")
	cmd.Flags().StringP("schema", "s", "", "JSON schema file (JSON or YAML) to validate documents against")
	cmd.Flags().IntP("concurrency", "j", cli.DefaultConcurrency, "Number of files checked in parallel")
}

func init() {
	// Add global verbose flag to root command
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output showing detailed information")

	addCheckFlags(checkCmd)
	addCheckFlags(watchCmd)

	analyzeCmd.Flags().StringP("message", "m", "", "Error message to locate")
	analyzeCmd.Flags().StringP("format", "f", "libyaml", "Location marker format (libyaml, yaml.v3, goccy)")
	analyzeCmd.Flags().Bool("json", false, "Print the located spans as JSON")
	_ = analyzeCmd.MarkFlagRequired("message")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		os.Exit(1)
	}
}
