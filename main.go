package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lean_canvas_coach/config"
)

// version is set at build time via ldflags.
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "leancanvas",
	Short: "Turn a business idea into a reviewed Lean Canvas",
	Long: `leancanvas walks a founder from a few answers about their idea to a Lean
Canvas draft, a critique of that draft, a revised canvas and optional
framework analyses (Value Proposition Canvas, 4P, 3C, SWOT).

Run "leancanvas serve" for the web form, or "leancanvas run" to process an
inputs file from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A .env file is optional; variables already set win.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./leancanvas.yaml or ~/.config/leancanvas/leancanvas.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable info logs")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("leancanvas")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "leancanvas"))
		}
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			log.Printf("[cli] using config file %s", viper.ConfigFileUsed())
		}
	} else if cfgFile != "" {
		log.Printf("[cli] reading config %s: %v", cfgFile, err)
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(reportError(os.Stderr, err))
	}
}

// reportError prints err and returns the process exit code. Configuration
// problems exit with 2 and point at the config sources.
func reportError(w io.Writer, err error) int {
	if config.IsConfigurationError(err) {
		fmt.Fprintf(w, "Fatal: %v\nCheck leancanvas.yaml, the %s_* environment and .env.\n", err, config.EnvPrefix)
		return 2
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return 1
}
