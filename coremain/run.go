package coremain

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pmkol/strqueue/mlog"
)

var version = "dev"

type runFlags struct {
	c       string
	file    string
	fail    int
	verbose bool
}

var rootCmd = &cobra.Command{
	Use: "qtest",
}

func init() {
	rf := new(runFlags)
	runCmd := &cobra.Command{
		Use:   "run [-c config_file] [-f script]",
		Short: "Run queue commands from a script or stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(rf, cmd.InOrStdin(), cmd.OutOrStdout())
		},
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
	}
	rootCmd.AddCommand(runCmd)
	fs := runCmd.Flags()
	fs.StringVarP(&rf.c, "config", "c", "", "config file")
	fs.StringVarP(&rf.file, "file", "f", "", "script file, default is stdin")
	fs.IntVar(&rf.fail, "fail", -1, "percentage of allocations that fail, overrides config")
	fs.BoolVarP(&rf.verbose, "verbose", "v", false, "echo commands")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
}

func Run() error {
	return rootCmd.Execute()
}

func runConsole(rf *runFlags, stdin io.Reader, stdout io.Writer) error {
	cfg, fileUsed, err := loadConfig(rf.c)
	if err != nil {
		return fmt.Errorf("fail to load config, %w", err)
	}
	if rf.fail >= 0 {
		cfg.Harness.FailPercent = rf.fail
	}
	if rf.verbose {
		cfg.Harness.Echo = true
	}

	lg, err := mlog.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer lg.Sync()
	if len(fileUsed) > 0 {
		lg.Info("config loaded", zap.String("file", fileUsed))
	}

	in := stdin
	if len(rf.file) > 0 {
		f, err := os.Open(rf.file)
		if err != nil {
			return fmt.Errorf("failed to open script, %w", err)
		}
		defer f.Close()
		in = f
	}

	c := NewConsole(cfg.Harness, lg, stdout)
	runErr := c.Run(in)
	closeErr := c.Close()
	if err := errors.Join(runErr, closeErr); err != nil {
		return err
	}
	if n := c.Errors(); n > 0 {
		return fmt.Errorf("%d errors", n)
	}
	return nil
}

// loadConfig load a config from a file. If filePath is empty, it will
// search a file which name start with "config" in the current dir. A
// missing config is not an error in that case.
func loadConfig(filePath string) (*Config, string, error) {
	v := viper.New()
	v.SetDefault("harness.string_length", defaultStringLength)
	v.SetDefault("harness.error_limit", defaultErrorLimit)
	v.SetDefault("harness.seed", 1)

	if len(filePath) > 0 {
		v.SetConfigFile(filePath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if len(filePath) > 0 || !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("failed to read config: %w", err)
		}
	}

	decoderOpt := func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
		cfg.TagName = "yaml"
		cfg.WeaklyTypedInput = true
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg, decoderOpt); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, v.ConfigFileUsed(), nil
}
