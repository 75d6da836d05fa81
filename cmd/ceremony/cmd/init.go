package cmd

import (
	"github.com/spf13/cobra"
	"github.com/taurusgroup/kzg-ceremony/pkg/sequencer"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a ceremony in genesis state",
	RunE: func(*cobra.Command, []string) error {
		cfg, err := config()
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
		log.Info().Int("participants", s.Snapshot().NumParticipants()).Msg("ceremony ready")
		return nil
	},
}
