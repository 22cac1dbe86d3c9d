package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/xtxerr/feedlog/internal/errors"
	"github.com/xtxerr/feedlog/internal/loader"
	"github.com/xtxerr/feedlog/internal/logging"
	"github.com/xtxerr/feedlog/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// errAllFailed makes the process exit 1 without printing anything more;
// the run already logged every failure.
var errAllFailed = errors.New("every source failed")

const defaultConfigFile = "feedlog.yaml"

var (
	cfgPath  string
	dataDir  string
	logLevel string
	logJSON  bool

	// cfg is loaded once per invocation in PersistentPreRunE.
	cfg *loader.Config
)

var rootCmd = &cobra.Command{
	Use:           "feedlog",
	Short:         "feedlog appends crypto prices, game rankings and video statistics to CSV tables.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c

		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logging.Init(level, cfg.Log.JSON)
		return loader.Validate(cfg)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgPath, "config", defaultConfigFile, "config file; a missing default file means built-in defaults")
	flags.StringVar(&dataDir, "data-dir", "", "directory holding the tables (overrides data_dir)")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides log.level)")
	flags.BoolVar(&logJSON, "log-json", false, "log as JSON (sets log.json)")
}

func loadConfig() (*loader.Config, error) {
	c, err := loader.Load(cfgPath)
	if err != nil {
		// Only the default path may be absent.
		if !errors.Is(err, fs.ErrNotExist) || cfgPath != defaultConfigFile {
			return nil, err
		}
		c = loader.DefaultConfig()
	}

	if dataDir != "" {
		c.DataDir = dataDir
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if logJSON {
		c.Log.JSON = true
	}
	return c, nil
}

func openStore() *storage.Store {
	return storage.New(cfg.DataDir)
}

// ExecuteContext runs the CLI and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errAllFailed) {
			fmt.Fprintln(os.Stderr, "feedlog:", err)
		}
		return 1
	}
	return 0
}
