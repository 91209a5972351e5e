package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func initCmd(c *cli) *cobra.Command {
	var (
		baseURL  string
		apiKey   string
		language string
		noPrompt bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize CLI config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(c.profileName, cfg)
			prof := cfg.Profiles[active]
			out := cmd.OutOrStdout()

			if baseURL == "" {
				baseURL = prof.BaseURL
			}
			if baseURL == "" {
				baseURL = "https://api.clarifai.com"
			}
			if apiKey == "" {
				apiKey = prof.APIKey
			}
			if language == "" {
				language = prof.Language
			}

			if !noPrompt {
				reader := bufio.NewReader(cmd.InOrStdin())
				baseURL = prompt(reader, out, "Base URL", baseURL)
				if apiKey == "" {
					apiKey = prompt(reader, out, "API key (optional)", "")
				}
				language = prompt(reader, out, "Default language (optional)", language)
			}

			prof.BaseURL = strings.TrimSpace(baseURL)
			prof.APIKey = strings.TrimSpace(apiKey)
			prof.Language = strings.TrimSpace(language)
			if err := storeProfile(cfg, cfgPath, active, c.profileName != "", prof); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s Initialized profile '%s' at %s\n", c.ui.ok("[OK]"), active, cfgPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key")
	cmd.Flags().StringVar(&language, "language", "", "Default concept language")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Disable interactive prompts")
	return cmd
}

func authCmd(c *cli) *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored credentials",
	}

	var (
		apiKey   string
		noPrompt bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Store an API key in config",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(apiKey)
			if key == "" && !noPrompt {
				k, err := promptSecret(cmd.OutOrStdout(), "API key")
				if err != nil {
					return err
				}
				key = k
			}
			if key == "" {
				return errors.New("provide --api-key")
			}
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(c.profileName, cfg)
			prof := cfg.Profiles[active]
			prof.APIKey = key
			if err := storeProfile(cfg, cfgPath, active, c.profileName != "", prof); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s API key updated for '%s'\n", c.ui.ok("[OK]"), active)
			return nil
		},
	}
	set.Flags().StringVar(&apiKey, "api-key", "", "API key")
	set.Flags().BoolVar(&noPrompt, "no-prompt", false, "Disable interactive prompts")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show stored credentials (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(c.profileName, cfg)
			prof := cfg.Profiles[active]
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Profile: %s\n", c.ui.title("visiongo"), active)
			fmt.Fprintf(out, "%s Base URL: %s\n", c.ui.info("•"), emptyOr(prof.BaseURL, "<unset>"))
			fmt.Fprintf(out, "%s API Key:  %s\n", c.ui.info("•"), maskToken(prof.APIKey))
			fmt.Fprintf(out, "%s Language: %s\n", c.ui.info("•"), emptyOr(prof.Language, "<unset>"))
			if v := os.Getenv("VISIONGO_API_KEY"); v != "" {
				fmt.Fprintf(out, "%s VISIONGO_API_KEY overrides the stored key (%s)\n", c.ui.warn("!"), maskToken(v))
			}
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Clear the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(c.profileName, cfg)
			prof, ok := cfg.Profiles[active]
			if !ok {
				return fmt.Errorf("profile '%s' not found", active)
			}
			prof.APIKey = ""
			cfg.Profiles[active] = prof
			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s API key cleared for '%s'\n", c.ui.ok("[OK]"), active)
			return nil
		},
	}

	auth.AddCommand(set, show, clear)
	return auth
}
