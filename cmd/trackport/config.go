// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trackport/internal/apply"
	"github.com/pdiddy/trackport/internal/docx"
	"github.com/pdiddy/trackport/internal/secrets"
	"github.com/pdiddy/trackport/internal/store"
	"github.com/pdiddy/trackport/internal/translate"
	"github.com/pdiddy/trackport/pkg/types"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("source_lang", "en")
	v.SetDefault("target_lang", "zh-CN")
	v.SetDefault("translator.backend", string(types.BackendGoogle))
	v.SetDefault("translator.timeout", 30*time.Second)
	v.SetDefault("translator.max_retries", 3)
	v.SetDefault("translator.user_agent", "trackport/"+version)
	v.SetDefault("translator.model", translate.DefaultLLMModel)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", store.DefaultPath)
	v.SetDefault("output.suffix", apply.DefaultSuffix)
	v.SetDefault("match.min_similarity", 0.0)
	v.SetDefault("revisions.author", docx.DefaultAuthor)
	v.SetDefault("log.level", "info")
}

// loadConfig assembles the run configuration from v and the loaded secrets.
func loadConfig(v *viper.Viper, secretValues map[string]string) types.Config {
	return types.Config{
		Translator: types.TranslatorConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:    v.GetDuration("translator.timeout"),
				UserAgent:  v.GetString("translator.user_agent"),
				MaxRetries: v.GetInt("translator.max_retries"),
			},
			Backend:    types.TranslatorBackend(v.GetString("translator.backend")),
			SourceLang: v.GetString("source_lang"),
			TargetLang: v.GetString("target_lang"),
			Endpoint:   v.GetString("translator.endpoint"),
			Model:      v.GetString("translator.model"),
			BaseURL:    v.GetString("translator.base_url"),
			APIKey:     secrets.Lookup(secretValues, envPrefix, secrets.LLMAPIKey),
		},
		Cache: types.CacheConfig{
			Enabled: v.GetBool("cache.enabled"),
			Path:    v.GetString("cache.path"),
		},
		Apply: types.ApplyConfig{
			MinSimilarity: v.GetFloat64("match.min_similarity"),
			Author:        v.GetString("revisions.author"),
			OutputSuffix:  v.GetString("output.suffix"),
			Verbose:       v.GetBool("verbose"),
		},
		LogLevel: v.GetString("log.level"),
	}
}

// runConfig reads the configuration, honouring --no-cache.
func runConfig(cmd *cobra.Command) types.Config {
	cfg := loadConfig(viper.GetViper(), loadedSecrets)
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	return cfg
}

// newBackend builds the configured translation backend.
func newBackend(ctx context.Context, cfg types.TranslatorConfig) (translate.Backend, error) {
	switch cfg.Backend {
	case types.BackendGoogle, "":
		return translate.NewGoogleBackend(cfg), nil
	case types.BackendLLM:
		return translate.NewLLMBackend(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown translator backend %q: use google or llm", cfg.Backend)
}

// session holds what an apply run needs beyond the documents: the
// translator and, when enabled, the store backing its cache and the run
// history.
type session struct {
	translator *translate.Service
	store      *store.Store
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func openSession(ctx context.Context, cfg types.Config) (*session, error) {
	backend, err := newBackend(ctx, cfg.Translator)
	if err != nil {
		return nil, err
	}

	s := &session{}
	if cfg.Cache.Enabled {
		st, err := store.NewStore(cfg.Cache)
		if err != nil {
			return nil, err
		}
		s.store = st
		backend = translate.NewCachedBackend(backend, string(cfg.Translator.Backend), st, log)
	}

	svc, err := translate.NewService(backend, cfg.Translator.SourceLang, cfg.Translator.TargetLang, log)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.translator = svc
	return s, nil
}

// applyRun applies changes to target and records the run when a store is
// open. It returns the output path.
func applyRun(ctx context.Context, cfg types.Config, source, target string, changes []types.ChangeRecord, w io.Writer) (string, error) {
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer sess.Close()

	output := apply.OutputPath(target, cfg.Apply.OutputSuffix)
	run := types.RunRecord{
		Source:    source,
		Target:    target,
		Output:    output,
		Backend:   string(cfg.Translator.Backend),
		Changes:   len(changes),
		StartedAt: time.Now(),
	}

	opts := apply.FileOptions{
		Options: apply.Options{
			MinSimilarity: cfg.Apply.MinSimilarity,
			Verbose:       cfg.Apply.Verbose,
			Log:           log,
		},
		Author: cfg.Apply.Author,
	}
	counters, err := apply.ApplyFile(ctx, target, output, changes, sess.translator, opts, w)
	if err != nil {
		return "", err
	}

	run.Counters = counters
	run.FinishedAt = time.Now()
	if sess.store != nil {
		if err := sess.store.RecordRun(ctx, &run); err != nil {
			log.WithError(err).Warn("could not record run history")
		}
	}
	return output, nil
}

func addApplyFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("verbose", "v", false, "print a diff of every edited paragraph")
	cmd.Flags().Float64("min-similarity", 0, "reject paragraph matches scoring below this ratio (0-1)")
	cmd.Flags().String("author", "", "author recorded on the new revisions")
	cmd.Flags().String("suffix", "", "suffix inserted before the output file's extension")
}

// bindApplyFlags points the apply settings at cmd's flags. A flag wins over
// the config file only when set on the command line.
func bindApplyFlags(cmd *cobra.Command) {
	viper.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
	viper.BindPFlag("match.min_similarity", cmd.Flags().Lookup("min-similarity"))
	viper.BindPFlag("revisions.author", cmd.Flags().Lookup("author"))
	viper.BindPFlag("output.suffix", cmd.Flags().Lookup("suffix"))
}
