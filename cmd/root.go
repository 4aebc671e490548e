package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/chrisdamba/dinesim/internal/models"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *models.Config
)

var rootCmd = &cobra.Command{
	Use:   "dinesim",
	Short: "Simulates a restaurant shift with customers, waiters and cooks",
	Long: `dinesim runs a restaurant session in which customers, waiters and cooks
coordinate only through one shared state region and a bank of counting signals,
and reports how every customer left.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := models.LoadConfig(viper.GetViper(), cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		if err := setupLogging(loaded); err != nil {
			return err
		}
		if used := viper.ConfigFileUsed(); used != "" {
			log.Debugf("Using config file: %s", used)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./dinesim.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text or json)")
	rootCmd.PersistentFlags().String("arrivals-file", "customers.txt", "Arrivals file of \"id time partySize\" triples ending with -1")
	bindFlags(rootCmd.PersistentFlags())
}

// bindFlags binds every flag in fs to the config key of the same name with
// dashes turned into underscores.
func bindFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := viper.BindPFlag(key, f); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", f.Name, err))
		}
	})
}

func setupLogging(c *models.Config) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	switch c.LogFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
