package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print a summary of the ceremony",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, release, err := openStore()
		if err != nil {
			return err
		}
		defer release()
		b, err := store.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "participants: %d\n", b.NumParticipants())
		for i, size := range b.Sizes() {
			fmt.Fprintf(out, "transcript %d: %d G1 powers, %d G2 powers\n", i, size.NumG1Powers, size.NumG2Powers)
		}
		if n := b.NumParticipants(); n > 0 {
			last := b.ParticipantIDs[n]
			fmt.Fprintf(out, "last contributor: %s\n", last)
			if sig := b.ParticipantECDSASignatures[n]; !sig.IsEmpty() {
				fmt.Fprintf(out, "last signature: %s\n", sig)
			}
		}
		return nil
	},
}
