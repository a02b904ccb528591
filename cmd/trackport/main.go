// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trackport CLI.
//
// trackport carries the tracked changes of an edited English document over
// to its Chinese counterpart: each revision is translated, located by fuzzy
// paragraph matching and re-applied as a tracked revision.
package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trackport/internal/logging"
	"github.com/pdiddy/trackport/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "TRACKPORT"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	// log is configured from log.level before any subcommand runs.
	log logrus.FieldLogger = logging.Discard()
)

// rootCmd runs the whole pipeline: extract from the source, apply to the target.
var rootCmd = &cobra.Command{
	Use:   "trackport [source target]",
	Short: "Carry tracked changes from an English document to its Chinese translation",
	Long: `trackport reads the tracked changes (insertions, deletions, replacements
and formatting changes) of an edited English .docx file, translates them, finds
the matching paragraph of the Chinese .docx file by fuzzy similarity and applies
each one there as a tracked revision. The result is saved next to the Chinese
file with a "_with_tracked_changes" suffix.

Without arguments both paths are asked for interactively. The extract and apply
subcommands run the two stages separately with a YAML file in between.`,
	Args:              cobra.RangeArgs(0, 2),
	PersistentPreRunE: setup,
	RunE:              runPipeline,
	SilenceUsage:      true,
}

func setup(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(viper.GetString("log.level"), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	log = logger

	s, err := secrets.Load(".secrets/", logger)
	if err != nil {
		return err
	}
	loadedSecrets = s
	if len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		logger.WithField("keys", keys).Debug("loaded secrets")
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults(viper.GetViper())

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./trackport.yaml or ~/.config/trackport/trackport.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("backend", "google", "translation backend: google or llm")
	rootCmd.PersistentFlags().Bool("no-cache", false, "do not read or write the translation cache")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("translator.backend", rootCmd.PersistentFlags().Lookup("backend"))

	addApplyFlags(rootCmd)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trackport")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "trackport"))
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
