package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/taurusgroup/kzg-ceremony/pkg/ceremony"
	"github.com/taurusgroup/kzg-ceremony/pkg/engine"
	"github.com/taurusgroup/kzg-ceremony/pkg/pool"
	"golang.org/x/sync/errgroup"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [transcript.json...]",
	Short: "Audit ceremony transcripts from genesis",
	Long: `Audit ceremony transcripts from genesis.

Every round recorded in the witness is checked, together with the BLS signatures
of the participants. Without arguments, the configured store is audited.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().Int("parallel-files", 2, "number of files audited at the same time")
	_ = viper.BindPFlags(verifyCmd.Flags())
}

func runVerify(_ *cobra.Command, args []string) error {
	eng, err := engine.ByName(viper.GetString("engine"), nil)
	if err != nil {
		return err
	}
	pl := pool.NewPool(viper.GetInt("workers"))
	defer pl.TearDown()

	if len(args) == 0 {
		store, release, err := openStore()
		if err != nil {
			return err
		}
		defer release()
		b, err := store.Load()
		if err != nil {
			return err
		}
		return audit(viper.GetString("path"), b, eng, pl)
	}

	var g errgroup.Group
	g.SetLimit(max(viper.GetInt("parallel-files"), 1))
	for _, path := range args {
		path := path
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			b, err := ceremony.Decode(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return audit(path, b, eng, pl)
		})
	}
	return g.Wait()
}

func audit(name string, b *ceremony.BatchTranscript, eng engine.Engine, pl *pool.Pool) error {
	start := time.Now()
	if err := b.VerifyWitnesses(eng, pl); err != nil {
		log.Error().Err(err).Str("transcript", name).Bool("backend_failure", ceremony.IsBackendFailure(err)).Msg("audit failed")
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Info().
		Str("transcript", name).
		Int("participants", b.NumParticipants()).
		Dur("duration", time.Since(start)).
		Msg("transcript verified")
	return nil
}
