/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/impostor/internal/game"
	"github.com/Seednode/impostor/internal/protocol"
	"github.com/Seednode/impostor/internal/seal"
	"github.com/Seednode/impostor/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	eligibility    string
	envFile        string
	maxAge         time.Duration
	maxBody        int64
	mode           string
	playerTimeout  time.Duration
	port           int
	prefix         string
	profile        bool
	secret         string
	sessionTimeout time.Duration
	store          string
	strictStart    bool
	strictVersions bool
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	rules     game.Rules
	storeKind store.Kind
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.playerTimeout < 0 || c.sessionTimeout < 0 || c.maxAge < 0 {
		return errors.New("timeouts must not be negative")
	}
	if c.maxBody < 1 {
		return fmt.Errorf("invalid --max-body (must be positive): %d", c.maxBody)
	}

	var err error
	if c.storeKind, err = store.ParseKind(c.store); err != nil {
		return err
	}
	if c.rules.Mode, err = game.ParseMode(c.mode); err != nil {
		return err
	}
	if c.rules.Eligibility, err = game.ParseEligibility(c.eligibility); err != nil {
		return err
	}
	c.rules.StrictStart = c.strictStart

	if c.secret != "" && len(c.secret) < seal.MinSecretLength {
		return fmt.Errorf("--secret must be at least %d bytes", seal.MinSecretLength)
	}
	if c.strictVersions && c.storeKind != store.KindSigned {
		return errors.New("--strict-versions requires --store signed")
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func bindEnv(fs *pflag.FlagSet, v *viper.Viper) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

// loadEnvFile applies --env-file before the remaining flags are bound, so
// its values rank below both the command line and the real environment.
func loadEnvFile(cfg *Config, fs *pflag.FlagSet, v *viper.Viper) error {
	if f := fs.Lookup("env-file"); f != nil {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		cfg.envFile = v.GetString(f.Name)
	}

	if cfg.envFile != "" {
		if err := godotenv.Load(cfg.envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	bindEnv(fs, v)

	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("IMPOSTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "impostor",
		Short:         "Multiplayer server for the impostor word party game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(cfg, cmd.Flags(), v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: IMPOSTOR_BIND)")
	fs.StringVar(&cfg.eligibility, "eligibility", "", "players eligible to be impostor: alive or all (default depends on --mode) (env: IMPOSTOR_ELIGIBILITY)")
	fs.StringVar(&cfg.envFile, "env-file", "", "load environment variables from this file before reading configuration (env: IMPOSTOR_ENV_FILE)")
	fs.DurationVar(&cfg.maxAge, "max-age", 2*time.Hour, "reject signed state tokens not updated within this window, 0 to disable (env: IMPOSTOR_MAX_AGE)")
	fs.Int64Var(&cfg.maxBody, "max-body", protocol.DefaultMaxBody, "maximum request body size in bytes (env: IMPOSTOR_MAX_BODY)")
	fs.StringVar(&cfg.mode, "mode", string(game.ModeElimination), "game mode: elimination or turns (env: IMPOSTOR_MODE)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 3*time.Minute, "time before silent players are removed (env: IMPOSTOR_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: IMPOSTOR_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: IMPOSTOR_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: IMPOSTOR_PROFILE)")
	fs.StringVar(&cfg.secret, "secret", "", "signing secret for --store signed, random per process if unset (env: IMPOSTOR_SECRET)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 2*time.Hour, "time before idle game sessions are removed (env: IMPOSTOR_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.store, "store", string(store.KindMemory), "session store: memory or signed (env: IMPOSTOR_STORE)")
	fs.BoolVar(&cfg.strictStart, "strict-start", false, "refuse to start a round with fewer than 2 eligible players instead of ending the game (env: IMPOSTOR_STRICT_START)")
	fs.BoolVar(&cfg.strictVersions, "strict-versions", false, "reject signed state tokens older than the latest one issued by this process (env: IMPOSTOR_STRICT_VERSIONS)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: IMPOSTOR_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: IMPOSTOR_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: IMPOSTOR_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: IMPOSTOR_VERSION)")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("impostor v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
