package cmd

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/taurusgroup/kzg-ceremony/internal/hash"
	"github.com/taurusgroup/kzg-ceremony/internal/params"
	"github.com/taurusgroup/kzg-ceremony/pkg/ecdsa"
	"github.com/taurusgroup/kzg-ceremony/pkg/engine"
	"github.com/taurusgroup/kzg-ceremony/pkg/identity"
	"github.com/taurusgroup/kzg-ceremony/pkg/sequencer"
)

var contributeCmd = &cobra.Command{
	Use:   "contribute",
	Short: "Add a contribution to the ceremony",
	Long: `Add a contribution to the ceremony.

Entropy is read from the system and mixed with the optional --entropy string.
With --key, the contribution is signed with an Ethereum key and attributed to its
address; otherwise --identity names the contributor.`,
	RunE: runContribute,
}

func init() {
	flags := contributeCmd.Flags()
	flags.String("identity", "", `contributor identity, "eth|0x…" or "git|<id>|<username>"`)
	flags.String("key", "", "hex encoded secp256k1 key signing the contribution")
	flags.String("entropy", "", "additional entropy")
	flags.Duration("round-timeout", sequencer.DefaultConfig().RoundTimeout, "maximum verification time")
	flags.Bool("require-signature", false, "reject unsigned contributions from Ethereum identities")
	_ = viper.BindPFlags(flags)
}

func runContribute(cmd *cobra.Command, _ []string) error {
	cfg, err := config()
	if err != nil {
		return err
	}
	id, key, err := contributor()
	if err != nil {
		return err
	}

	store, release, err := openStore()
	if err != nil {
		return err
	}
	defer release()
	s, err := sequencer.New(cfg, store, log, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := s.Contribution()
	if err != nil {
		return err
	}
	entropy, err := collectEntropy(viper.GetString("entropy"))
	if err != nil {
		return err
	}
	defer clear(entropy)

	eng, err := engine.ByName(cfg.Engine, nil)
	if err != nil {
		return err
	}
	if err = c.AddEntropy(eng, entropy, id, nil); err != nil {
		return fmt.Errorf("add entropy: %w", err)
	}
	if key != nil {
		c.Sign(key)
	}

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt)
	defer stop()
	if err = s.Submit(ctx, c, id); err != nil {
		return err
	}
	log.Info().Stringer("identity", id).Int("participants", s.Snapshot().NumParticipants()).Msg("contribution accepted")
	return nil
}

func contributor() (identity.Identity, *secp256k1.PrivateKey, error) {
	id, err := identity.Parse(viper.GetString("identity"))
	if err != nil {
		return identity.None, nil, err
	}
	keyHex := viper.GetString("key")
	if keyHex == "" {
		return id, nil, nil
	}
	raw, err := hexutil.Decode(keyHex)
	if err != nil {
		return identity.None, nil, fmt.Errorf("key: %w", err)
	}
	key := secp256k1.PrivKeyFromBytes(raw)
	clear(raw)
	signer := identity.Ethereum(ecdsa.Address(key.PubKey()))
	if !id.IsNone() && id != signer {
		return identity.None, nil, fmt.Errorf("key belongs to %s, not %s", signer, id)
	}
	return signer, key, nil
}

// collectEntropy hashes system randomness together with the user's input.
func collectEntropy(extra string) ([]byte, error) {
	system := make([]byte, params.MinEntropyBytes)
	if _, err := rand.Read(system); err != nil {
		return nil, err
	}
	defer clear(system)
	h := hash.New(params.DomainTau)
	if err := h.WriteAny(system, extra); err != nil {
		return nil, err
	}
	return h.Sum(), nil
}

// contextOrBackground lets commands run without cobra's context in tests.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
