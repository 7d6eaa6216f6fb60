package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/christophergoltz/elogio-sub000/internal/config"
	"github.com/christophergoltz/elogio-sub000/internal/observability"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "elogio",
	Short:   "Command-line client for the Kelio time-tracking portal",
	Long:    `elogio talks to a browser-only Kelio deployment the way the browser does: impersonated TLS, the portal's obfuscated RPC wire format, and the full login choreography. It exposes presence sheets, absence calendars, badge punches and the team grid as plain commands.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The helper subcommand is the transport's child process; it
		// must come up even with no config file in sight.
		switch cmd.Name() {
		case "helper", "serve", "request", "version":
			return nil
		}

		if err := initializeConfig(); err != nil {
			basicLogger, _ := zap.NewDevelopment()
			basicLogger.Error("Failed to initialize configuration", zap.Error(err))
			return fmt.Errorf("failed to initialize configuration: %w", err)
		}

		if err := config.Load(viper.GetViper()); err != nil {
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "elogio"})
			return err
		}

		cfg := config.Get()
		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Debug("Starting elogio",
			zap.String("version", Version),
			zap.String("portal", cfg.Portal.BaseURL))
		return nil
	},
}

// Execute adds all child commands to the root command and runs it. It
// accepts a context passed from main.go for graceful shutdown.
func Execute(ctx context.Context) error {
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newPresenceCmd())
	rootCmd.AddCommand(newAbsencesCmd())
	rootCmd.AddCommand(newPunchCmd())
	rootCmd.AddCommand(newColleaguesCmd())
	rootCmd.AddCommand(newHelperCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			// context.Canceled during shutdown is expected, not a failure.
			if ctx.Err() == nil {
				logger.Error("Command execution failed", zap.Error(err))
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
}

// initializeConfig reads in the config file and ENV variables if set.
func initializeConfig() error {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/elogio")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ELOGIO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Credentials usually come from the environment, not the file.
	_ = viper.BindEnv("portal.username", "ELOGIO_PORTAL_USERNAME")
	_ = viper.BindEnv("portal.password", "ELOGIO_PORTAL_PASSWORD")
	_ = viper.BindEnv("portal.base_url", "ELOGIO_PORTAL_BASE_URL")

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine, a broken one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}
