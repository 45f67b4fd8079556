package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	_ "time/tzdata"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/poplog/internal/profile"
	"github.com/hrygo/poplog/internal/version"
	"github.com/hrygo/poplog/store"
	"github.com/hrygo/poplog/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "poplog",
	Short: `A bowel-movement notebook: paste free-text times, get weekly reports.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger, err := newLogger(cmd.ErrOrStderr(), viper.GetString("log-format"), viper.GetString("log-level"))
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)
	viper.SetDefault("log-format", "text")
	viper.SetDefault("log-level", "info")

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver, sqlite or postgres")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")
	rootCmd.PersistentFlags().String("timezone", "", "IANA timezone records are read in, defaults to the host zone")
	rootCmd.PersistentFlags().String("log-format", "text", "log format, text or json")
	rootCmd.PersistentFlags().String("log-level", "info", "log level, debug|info|warn|error")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn", "timezone", "log-format", "log-level"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("poplog")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(
		newServeCmd(),
		newImportCmd(),
		newAddCmd(),
		newListCmd(),
		newEditCmd(),
		newDeleteCmd(),
		newClearCmd(),
		newParseCmd(),
		newSampleCmd(),
		newStatsCmd(),
		newExportCmd(),
	)
}

func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, errors.Errorf("invalid log format %q", format)
}

func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:     viper.GetString("mode"),
		Addr:     viper.GetString("addr"),
		Port:     viper.GetInt("port"),
		Data:     viper.GetString("data"),
		Driver:   viper.GetString("driver"),
		DSN:      viper.GetString("dsn"),
		Timezone: viper.GetString("timezone"),
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	instanceProfile.Version = version.GetCurrentVersion(instanceProfile.Mode)
	return instanceProfile, nil
}

// openStore loads the profile and returns a migrated store.
func openStore(ctx context.Context) (*profile.Profile, *store.Store, error) {
	instanceProfile, err := loadProfile()
	if err != nil {
		return nil, nil, err
	}

	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create db driver")
	}
	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		storeInstance.Close()
		return nil, nil, errors.Wrap(err, "failed to migrate")
	}
	return instanceProfile, storeInstance, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
