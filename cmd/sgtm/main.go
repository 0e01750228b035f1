package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Helveg/sendgrid-template-manager/internal/apperr"
	"github.com/Helveg/sendgrid-template-manager/internal/config"
	"github.com/Helveg/sendgrid-template-manager/internal/logging"
	"github.com/Helveg/sendgrid-template-manager/internal/sendgrid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	apiKey     string
	configPath string
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	cfg    = config.DefaultConfig()
	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sgtm",
	Short: "SendGrid Template Manager",
	Long: `sgtm manages SendGrid dynamic templates and marketing contacts.

Templates keep their canonical modules in a version named __content__.
"sgtm apply" merges those modules into a shared design and writes the result
as a tagged version of every template.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if apiKey != "" {
			loaded.API.Key = apiKey
		}
		if timeout > 0 {
			loaded.API.Timeout = timeout.String()
		}
		cfg = loaded

		if err := logging.Initialize(cfg.Logging, verbose); err != nil {
			return apperr.Wrap(err, apperr.CodeConfigInvalid, "invalid logging config")
		}
		logger = logging.Get(logging.CategoryCLI)
		logger.Debug("Config loaded", zap.String("path", configPath), zap.String("base_url", cfg.API.BaseURL))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging and full error messages")
	rootCmd.PersistentFlags().StringVar(&apiKey, "key", "", "SendGrid API key (or set SENDGRID_API_KEY env)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-request timeout (default from config)")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(listsCmd)
	rootCmd.AddCommand(contactsCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, exitMessage(err))
		os.Exit(apperr.ExitCodeOf(err))
	}
}

// exitMessage formats an aborting error as "<code>: <message>".
func exitMessage(err error) string {
	if appErr, ok := apperr.As(err); ok {
		return fmt.Sprintf("%s: %s", appErr.Code, err)
	}
	return err.Error()
}

// newClient validates the config and builds a SendGrid client from it.
func newClient() (*sendgrid.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return sendgrid.NewClient(sendgrid.Config{
		APIKey:        cfg.API.Key,
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.GetAPITimeout(),
		MaxConcurrent: cfg.API.MaxConcurrent,
	}, logging.Get(logging.CategoryClient)), nil
}

// commandContext returns the command's context, or a background context for
// commands run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
