package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/osvaldoandrade/visiongo/internal/tracing"
	"github.com/osvaldoandrade/visiongo/pkg/app"
	"github.com/osvaldoandrade/visiongo/pkg/config"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

// cli holds the persistent flags every subcommand resolves its client from.
type cli struct {
	ui          *ui
	profileName string
	baseURL     string
	apiKey      string
	configPath  string
	verbose     bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = tracing.ContextWithRemoteParent(ctx, os.Getenv("TRACEPARENT"), os.Getenv("TRACESTATE"))

	u := newUI()
	err := newRootCmd(u).ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, u.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

func newRootCmd(u *ui) *cobra.Command {
	c := &cli{
		ui:          u,
		profileName: getenv("VISIONGO_PROFILE", ""),
		configPath:  getenv("VISIONGO_CONFIG_PATH", ""),
	}

	root := &cobra.Command{
		Use:   "visiongo",
		Short: "visiongo CLI",
		Long:  "visiongo CLI for concepts, models, inputs and predictions.",
	}
	root.SetHelpTemplate(helpTemplate(u))
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.PersistentFlags().StringVar(&c.baseURL, "base-url", "", "API base URL")
	root.PersistentFlags().StringVar(&c.apiKey, "api-key", "", "API key")
	root.PersistentFlags().StringVar(&c.profileName, "profile", c.profileName, "Config profile")
	root.PersistentFlags().StringVar(&c.configPath, "config", c.configPath, "Client config file (yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log requests to stderr")

	root.AddCommand(initCmd(c))
	root.AddCommand(authCmd(c))
	root.AddCommand(conceptCmd(c))
	root.AddCommand(modelCmd(c))
	root.AddCommand(inputCmd(c))
	root.AddCommand(predictCmd(c))
	return root
}

// application resolves the client configuration and builds the application.
// Precedence is flag, then VISIONGO_* environment, then the active profile,
// then the config file.
func (c *cli) application(cmd *cobra.Command) (*app.Application, error) {
	cfg, err := config.LoadConfigOptional(c.configPath)
	if err != nil {
		return nil, err
	}
	prof := c.profile()

	switch {
	case c.baseURL != "":
		cfg.APIBaseURL = c.baseURL
	case os.Getenv("VISIONGO_API_BASE_URL") == "" && prof.BaseURL != "":
		cfg.APIBaseURL = prof.BaseURL
	}
	switch {
	case c.apiKey != "":
		cfg.APIKey = c.apiKey
	case os.Getenv("VISIONGO_API_KEY") == "" && prof.APIKey != "":
		cfg.APIKey = prof.APIKey
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("api key is required (run `visiongo auth set` or pass --api-key)")
	}
	if c.verbose {
		cfg.LogLevel = "debug"
	} else if os.Getenv("VISIONGO_LOG_LEVEL") == "" {
		cfg.LogLevel = "error"
	}

	return app.NewApplication(cmd.Context(), cfg, app.WithLogOutput(cmd.ErrOrStderr()))
}

// run builds the application, hands its client to fn and flushes traces
// when fn returns.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application) error) error {
	a, err := c.application(cmd)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Close(ctx)
	}()
	return fn(cmd.Context(), a)
}

func (c *cli) profile() profile {
	cfg, _, err := loadConfig()
	if err != nil {
		return profile{}
	}
	return cfg.Profiles[resolveProfileName(c.profileName, cfg)]
}

func newSpinner(w io.Writer, suffix string) *spinner.Spinner {
	spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond, spinner.WithWriter(w))
	spin.Suffix = " " + suffix
	return spin
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func helpTemplate(ui *ui) string {
	title := ui.title("visiongo")
	return fmt.Sprintf(`%s: CLI for the vision API

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Global Flags:
  {{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

Config:
  %s

Examples:
  visiongo init
  visiongo auth set --api-key $KEY
  visiongo predict aaa03c23b3724a16a56b629203edc62c https://samples.clarifai.com/metro-north.jpg
  visiongo model create pets --concepts dog,cat
  visiongo model train pets --wait

`, title, configPath())
}
