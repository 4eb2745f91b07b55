package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/ifhere/internal/model"
)

// Version is set at build time
var Version = "v0.1.0"

var (
	cfgFile  string
	verbose  bool
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ifhere",
	Short: "ifhere - retell real tragedies as if they happened where you live",
	Long: `ifhere renders stories about real events for a destination country.

People, places, amounts and casualty counts in each story are markers.
Every marker is replaced with a value that fits the chosen country:
local names and places, amounts in the local currency, and death tolls
scaled by population and compared with an event the reader knows.

The original value stays attached to every substitution, so nothing is
hidden from the reader.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ifhere " + Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.ifhere/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".ifhere"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// IFHERE_CACHE_ENABLED=false overrides cache.enabled
	viper.SetEnvPrefix("IFHERE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env vars can override keys
// absent from the config file
func setDefaults(cfg *model.Config) {
	viper.SetDefault("content.dir", cfg.Content.Dir)
	viper.SetDefault("reference.path", cfg.Reference.Path)
	viper.SetDefault("reference.default_country", cfg.Reference.DefaultCountry)
	viper.SetDefault("translate.contextualize", cfg.Translate.Contextualize)
	viper.SetDefault("translate.inline_comparisons", cfg.Translate.InlineComparisons)
	viper.SetDefault("translate.default_language", cfg.Translate.DefaultLanguage)
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	viper.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)
	viper.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	viper.SetDefault("rate_limiting.requests_per_second", cfg.RateLimiting.RequestsPerSecond)
	viper.SetDefault("rate_limiting.burst_size", cfg.RateLimiting.BurstSize)
	viper.SetDefault("output.dir", cfg.Output.Dir)
	viper.SetDefault("output.formats", cfg.Output.Formats)
	viper.SetDefault("output.verbose", cfg.Output.Verbose)
	viper.SetDefault("server.addr", cfg.Server.Addr)
	viper.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	viper.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	viper.SetDefault("log.level", cfg.Log.Level)
	viper.SetDefault("log.format", cfg.Log.Format)
	viper.SetDefault("sources.primary_domains", cfg.Sources.PrimaryDomains)
	viper.SetDefault("sources.secondary_domains", cfg.Sources.SecondaryDomains)
	viper.SetDefault("sources.timeout", cfg.Sources.Timeout)
	viper.SetDefault("sources.workers", cfg.Sources.Workers)
	viper.SetDefault("sources.user_agent", cfg.Sources.UserAgent)
	viper.SetDefault("sources.respect_robots", cfg.Sources.RespectRobots)
	viper.SetDefault("sources.http_proxy", cfg.Sources.HTTPProxy)
	viper.SetDefault("sources.https_proxy", cfg.Sources.HTTPSProxy)
}

// loadConfig merges defaults, config file, env and bound flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
