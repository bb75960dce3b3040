package main

import (
	"codeberg.org/mutker/vupdated/internal/config"
	"codeberg.org/mutker/vupdated/internal/errors"
	"codeberg.org/mutker/vupdated/internal/hotplug"
	"codeberg.org/mutker/vupdated/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

type commandContext struct {
	configPath string
	viper      *viper.Viper
}

func (c *commandContext) source() config.FileSource {
	return config.FileSource{Path: c.configPath, Viper: c.viper}
}

// loadOrDefault returns the config file with overrides applied, or the
// defaults with overrides when there is no config file yet.
func (c *commandContext) loadOrDefault() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if errors.HasCode(err, errors.ErrMissingConfig) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, err
	}

	if err := config.ApplyOverrides(cfg, c.viper); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *commandContext) initLogger() error {
	level := config.DefaultLogLevel
	if c.viper.IsSet("log.level") {
		level = c.viper.GetString("log.level")
	}

	return logger.Init(level, logger.IsService())
}

func newRootCommand() *cobra.Command {
	cc := &commandContext{viper: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:           "vupdated",
		Short:         "Daemon for updating VU-1 dials",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return cc.initLogger()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context(), cc)
		},
	}

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&cc.configPath, "config", "c", config.DefaultConfigPath(), "Path to the config file")
	persistent.String("server", "", "VU-Server base URL")
	persistent.String("api-key", "", "VU-Server API key")
	persistent.String("log-level", config.DefaultLogLevel, "Log level (trace, debug, info, warn, error)")

	flags := rootCmd.Flags()
	flags.Bool("hotplug", false, "Pause the dials while the VU hub is unplugged and restart VU-Server when it returns (Linux only)")
	flags.String("hotplug-service", hotplug.DefaultService, "systemd unit of the VU-Server")
	flags.String("metrics-listen", "", "Serve Prometheus metrics on this address, e.g. 127.0.0.1:9105")

	cobra.CheckErr(config.BindFlags(cc.viper, persistent))
	cobra.CheckErr(config.BindFlags(cc.viper, flags))

	rootCmd.AddCommand(newGenerateCommand(cc))
	rootCmd.AddCommand(newListCommand(cc))
	rootCmd.AddCommand(newSetCommand(cc))
	rootCmd.AddCommand(newStatusCommand(cc))

	return rootCmd
}
