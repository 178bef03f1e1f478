package cmd

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/recruiterlab/rankdesk/internal/gateway"
	"github.com/recruiterlab/rankdesk/internal/logger"
	"github.com/recruiterlab/rankdesk/internal/session"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	app = "rankdesk"

	defaultAPIURL = "http://localhost:8000"
)

type Config struct {
	APIURL      string      `mapstructure:"api-url"`
	SessionFile string      `mapstructure:"session-file"`
	UserAgent   string      `mapstructure:"user-agent"`
	Rank        *RankConfig `mapstructure:"rank"`
}

type RankConfig struct {
	MinScore   float64  `mapstructure:"min-score"`
	Statuses   []string `mapstructure:"statuses"`
	BudgetFits []string `mapstructure:"budget-fits"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "rankdesk is a cli for ranking uploaded resumes against job postings and triaging the results",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("session-file", "RANKDESK_SESSION_FILE"); err != nil {
		log.Fatalf("binding RANKDESK_SESSION_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("api-url", "RANKDESK_API_URL"); err != nil {
		log.Fatalf("binding RANKDESK_API_URL environment variable: %v", err)
	}

	viper.SetDefault("api-url", defaultAPIURL)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is rankdesk.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// The config file is optional; flags and env cover everything. A file
	// that exists but does not parse is still fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.APIURL == "" {
		config.APIURL = defaultAPIURL
	}

	return config, nil
}

// sessionFilePath resolves the session file location, defaulting to
// ~/.rankdesk/session.json.
func sessionFilePath(config *Config) string {
	if path := strings.TrimSpace(config.SessionFile); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", app, "session.json")
	}
	return filepath.Join(home, "."+app, "session.json")
}

// newCore builds the session manager and gateway shared by every command.
// The persisted session, if any, is restored before the first request.
func newCore(config *Config, logger *zap.Logger) (*session.Manager, *gateway.Client) {
	manager := session.NewManager(sessionFilePath(config), config.APIURL, logger)
	manager.Restore()

	gw := gateway.New(config.APIURL, manager, logger)
	if config.UserAgent != "" {
		gw.UserAgent = config.UserAgent
	}

	return manager, gw
}

func mustLogger() *zap.Logger {
	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return zlog
}

// fatalGatewayError exits with a hint when the session was invalidated
// mid-use; everything else is surfaced verbatim.
func fatalGatewayError(zlog *zap.Logger, step string, err error) {
	if errors.Is(err, gateway.ErrSessionExpired) {
		zlog.Fatal(step,
			zap.Error(err),
			zap.String("hint", "the session is no longer valid, run '"+app+" login' again"),
		)
	}
	zlog.Fatal(step, zap.Error(err))
}
