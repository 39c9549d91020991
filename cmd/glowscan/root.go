package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/raine/glowscan-bot/config"
	"github.com/raine/glowscan-bot/internal/glowscan"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glowscan",
		Short: "Analyze cosmetic ingredient labels",
		Long: `glowscan extracts the ingredient list from a product label photo,
analyzes it with the GlowScan service and exports the result as PNG or PDF.

Settings are read from the environment and from the bot's config.env file;
flags take precedence.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			setupLogger(cmd.ErrOrStderr(), verbose)
		},
	}

	cmd.PersistentFlags().String("api", "", "GlowScan service URL (default $GLOWSCAN_API_URL or "+glowscan.DefaultBaseURL+")")
	cmd.PersistentFlags().StringP("type", "t", string(glowscan.DefaultProductType), "Product type")
	cmd.PersistentFlags().String("chrome", "", "Chrome executable used for exports")
	cmd.PersistentFlags().Bool("no-sandbox", false, "Disable the Chrome sandbox")
	cmd.PersistentFlags().Bool("auto-download", false, "Download Chromium when no browser is found")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(w io.Writer, verbose bool) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w}).Level(level)
}

// options is the resolved configuration of one command run.
type options struct {
	cfg         *config.Config
	productType glowscan.ProductType
}

// loadOptions merges the environment configuration with the command flags.
func loadOptions(cmd *cobra.Command) (*options, error) {
	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if api, _ := flags.GetString("api"); api != "" {
		cfg.APIURL = api
	}
	if chrome, _ := flags.GetString("chrome"); chrome != "" {
		cfg.ChromePath = chrome
	}
	if flags.Changed("no-sandbox") {
		cfg.ChromeNoSandbox, _ = flags.GetBool("no-sandbox")
	}
	if flags.Changed("auto-download") {
		cfg.ChromeAutoDownload, _ = flags.GetBool("auto-download")
	}

	typeName, _ := flags.GetString("type")
	productType, err := glowscan.ParseProductType(typeName)
	if err != nil {
		return nil, err
	}

	return &options{cfg: cfg, productType: productType}, nil
}

func (o *options) client() *glowscan.Client {
	return glowscan.NewClient(o.cfg.GlowScan("glowscan-cli/" + getVersion()))
}
