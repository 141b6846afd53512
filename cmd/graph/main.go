package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/graph-client/cmd/graph/commands"
	"github.com/fivetwenty-io/graph-client/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "graph",
	Short: "Microsoft Graph request CLI",
	Long: `A command-line interface for building and sending OData requests
against Microsoft Graph style APIs.

Paths, query options and headers map one to one onto the request builder,
so "graph url" shows exactly what "graph get" would send.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.graph/config.yml)")
	rootCmd.PersistentFlags().StringP("base-url", "b", "", "API base URL (default https://graph.microsoft.com)")
	rootCmd.PersistentFlags().String("api-version", "", "default API version segment (default v1.0)")
	rootCmd.PersistentFlags().StringP("token", "t", "", "bearer access token")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "config profile to use")
	rootCmd.PersistentFlags().StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("cache", "", "response cache (memory, nats, none)")
	rootCmd.PersistentFlags().String("nats-url", "", "NATS server URL for --cache nats")
	rootCmd.PersistentFlags().Duration("cache-ttl", constants.DefaultCacheTTL, "how long cached responses are served")
	rootCmd.PersistentFlags().Int("rate-limit", 0, "maximum requests per second (0 disables)")
	rootCmd.PersistentFlags().Duration("timeout", constants.DefaultHTTPTimeout, "HTTP timeout")

	// Bind flags to viper
	for _, name := range []string{
		"config", "base-url", "api-version", "token", "profile", "output",
		"verbose", "cache", "cache-ttl", "nats-url", "rate-limit", "timeout",
	} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewLogoutCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewURLCommand())
	rootCmd.AddCommand(commands.NewGetCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewSendCommand())
	rootCmd.AddCommand(commands.NewBatchCommand())
	rootCmd.AddCommand(commands.NewUploadCommand())
	rootCmd.AddCommand(commands.NewDownloadCommand())
}

func initConfig() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".graph")
		if err := os.MkdirAll(configDir, constants.ConfigDirPerm); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		}

		// Search config in ~/.graph/config.yml
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// GRAPH_TOKEN, GRAPH_BASE_URL and friends
	viper.SetEnvPrefix("GRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
