package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/taurusgroup/kzg-ceremony/internal/params"
	"github.com/taurusgroup/kzg-ceremony/pkg/engine"
	"github.com/taurusgroup/kzg-ceremony/pkg/sequencer"
	"github.com/taurusgroup/kzg-ceremony/pkg/storage"
)

const envPrefix = "CEREMONY"

var (
	flagConfig string
	log        zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "ceremony",
	Short:         "Run and audit a KZG powers of tau ceremony",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level, err := zerolog.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			return err
		}
		log = log.Level(level)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func init() {
	log = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "config file (yaml, json or toml)")
	flags.String("log-level", "info", "log level")
	flags.String("store", "file", "storage backend: file or badger")
	flags.String("path", "transcript.json", "transcript file, or badger directory")
	flags.String("engine", engine.NameBoth, "verification engine: pairing, batched or both")
	flags.Int("workers", 0, "verification workers, 0 for one per CPU")
	flags.StringSlice("sizes", formatSizes(params.EthereumSizes), "transcript sizes as <G1 powers>x<G2 powers>")
	_ = viper.BindPFlags(flags)

	rootCmd.AddCommand(initCmd, contributeCmd, verifyCmd, infoCmd)
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if flagConfig != "" {
		viper.SetConfigFile(flagConfig)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal().Err(err).Str("file", flagConfig).Msg("cannot read config")
		}
	}
}

// config assembles the sequencer settings from flags, environment and config file.
func config() (sequencer.Config, error) {
	sizes, err := parseSizes(viper.GetStringSlice("sizes"))
	if err != nil {
		return sequencer.Config{}, err
	}
	cfg := sequencer.DefaultConfig()
	cfg.Sizes = sizes
	cfg.Engine = viper.GetString("engine")
	cfg.Workers = viper.GetInt("workers")
	if viper.IsSet("round-timeout") {
		cfg.RoundTimeout = viper.GetDuration("round-timeout")
	}
	cfg.RequireSignature = viper.GetBool("require-signature")
	return cfg, cfg.Validate()
}

// openStore returns the configured store and a function releasing it.
func openStore() (sequencer.Store, func(), error) {
	path := viper.GetString("path")
	switch viper.GetString("store") {
	case "file":
		return storage.NewFileStore(path), func() {}, nil
	case "badger":
		s, err := storage.OpenBadger(path, log)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Error().Err(err).Msg("closing store")
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", viper.GetString("store"))
	}
}

func parseSizes(values []string) ([]params.Size, error) {
	sizes := make([]params.Size, 0, len(values))
	for _, v := range values {
		g1, g2, ok := strings.Cut(v, "x")
		if !ok {
			return nil, fmt.Errorf("invalid size %q: expected <G1 powers>x<G2 powers>", v)
		}
		n1, err := strconv.Atoi(g1)
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", v, err)
		}
		n2, err := strconv.Atoi(g2)
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", v, err)
		}
		sizes = append(sizes, params.Size{NumG1Powers: n1, NumG2Powers: n2})
	}
	return sizes, nil
}

func formatSizes(sizes []params.Size) []string {
	out := make([]string, len(sizes))
	for i, s := range sizes {
		out[i] = fmt.Sprintf("%dx%d", s.NumG1Powers, s.NumG2Powers)
	}
	return out
}
