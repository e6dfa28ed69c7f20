package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"oscctl/internal/daemon"
	"oscctl/internal/logger"
	"oscctl/internal/monitoring"
	"oscctl/internal/render"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type config struct {
	Addr     string
	Port     int
	Request  string
	Timeout  time.Duration
	JSON     bool
	LogLevel string
}

var cfg config

var rootCmd = &cobra.Command{
	Use:   "oscctl",
	Short: "Query a timing daemon's monitoring socket and print its status",
	Long:  longHelp(),
	RunE:  runExchange,
}

func init() {
	rootCmd.Flags().StringVarP(&cfg.Addr, "addr", "a", "localhost", "daemon host")
	rootCmd.Flags().IntVarP(&cfg.Port, "port", "p", 0, "daemon monitoring port")
	rootCmd.Flags().StringVarP(&cfg.Request, "request", "r", "", "action to request alongside the status query")
	rootCmd.Flags().DurationVarP(&cfg.Timeout, "timeout", "t", daemon.DefaultTimeout, "exchange timeout")
	rootCmd.Flags().BoolVarP(&cfg.JSON, "json", "j", false, "Output raw daemon JSON (debug mode)")
	rootCmd.Flags().StringVarP(&cfg.LogLevel, "log-level", "l", logger.InfoLevel, "log level (debug, info, warn, error)")

	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runExchange(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(10)
	}
	if err := validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(10)
	}

	log := logger.Get(cfg.LogLevel)

	request := monitoring.CommandNone
	if cfg.Request != "" {
		var err error
		if request, err = monitoring.Resolve(cfg.Request); err != nil {
			fmt.Fprintf(os.Stderr, "config error: %v (valid requests: %s)\n",
				err, strings.Join(monitoring.Tokens(), ", "))
			os.Exit(10)
		}
		log.Infow("requesting action", "request", request.String())
	}

	client := daemon.NewClient(net.JoinHostPort(cfg.Addr, strconv.Itoa(cfg.Port)), cfg.Timeout, log)

	// JSON debug mode — print raw reply and exit
	if cfg.JSON {
		raw, err := client.Raw(request)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		var pretty json.RawMessage
		if err := json.Unmarshal(raw, &pretty); err == nil {
			formatted, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Println(string(formatted))
		} else {
			fmt.Println(string(raw))
		}
		return nil
	}

	rep, err := client.Exchange(request)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(render.Format(rep))
	return nil
}

// loadConfig merges an optional oscctl.yaml into the flag values. Flags win
// over the file, the file wins over defaults.
func loadConfig(cmd *cobra.Command) error {
	viper.SetConfigName("oscctl")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/oscctl")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	cfg.Addr = viper.GetString("addr")
	cfg.Port = viper.GetInt("port")
	cfg.Request = viper.GetString("request")
	cfg.Timeout = viper.GetDuration("timeout")
	cfg.JSON = viper.GetBool("json")
	cfg.LogLevel = viper.GetString("log-level")
	return nil
}

func validate() error {
	if cfg.Addr == "" {
		return fmt.Errorf("--addr is required")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("--port is required (1-65535)")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("--timeout must be positive")
	}
	return nil
}

func longHelp() string {
	return `Query a local timing daemon over its TCP monitoring socket and print the
reported status: disciplining, oscillator, clock, GNSS and calibration state.

An optional --request sends an action alongside the status query:

  calibration          start a calibration of the disciplining algorithm
  gnss_start           start the GNSS receiver
  gnss_stop            stop the GNSS receiver
  gnss_soft            soft reset of the GNSS receiver
  gnss_hard            hard reset of the GNSS receiver
  gnss_cold            cold start of the GNSS receiver
  read_eeprom          read disciplining parameters from EEPROM
  save_eeprom          save disciplining parameters to EEPROM
  fake_holdover_start  enter fake holdover
  fake_holdover_stop   leave fake holdover
  mro_coarse_inc       increment the oscillator coarse control
  mro_coarse_dec       decrement the oscillator coarse control`
}
