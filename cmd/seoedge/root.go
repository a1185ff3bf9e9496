package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/eringen/seoedge/logging"
)

const envPrefix = "SEOEDGE"

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "seoedge",
		Short: "Bot-aware server-side rendering for a client-rendered blog",
		Long: `seoedge serves the application shell to people and pre-rendered,
cached HTML to search engines, link unfurlers and AI crawlers.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile)
		},
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./seoedge.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "log level")
	cmd.PersistentFlags().Bool("log-dev", false, "human-readable logs")
	_ = v.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.development", cmd.PersistentFlags().Lookup("log-dev"))

	cmd.AddCommand(
		newServeCmd(v),
		newAPICmd(v),
		newSeedCmd(v),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "seoedge %s\n", version)
		},
	}
}

// initConfig layers defaults, the config file, .env and the environment.
// SEOEDGE_SITE_URL sets site.url.
func initConfig(v *viper.Viper, cfgFile string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("seoedge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// bindFlags binds the running command's flags, keyed by viper key. Binding
// happens at run time because subcommands share keys.
func bindFlags(v *viper.Viper, keys map[string]string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		for key, flag := range keys {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return fmt.Errorf("bind --%s: %w", flag, err)
			}
		}
		return nil
	}
}

func newLogger(v *viper.Viper) (*zap.Logger, error) {
	return logging.New(v.GetString("log.level"), v.GetBool("log.development"))
}
