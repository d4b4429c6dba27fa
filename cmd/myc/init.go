package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/mycelium/internal/messages"
)

func newInitCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   messages.InitUse,
		Short: messages.InitShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			store, _, err := env.store(global)
			if err != nil {
				return err
			}
			created, err := store.Init()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if created {
				_, _ = fmt.Fprintf(out, messages.InitCreatedFmt, store.Path())
				return nil
			}
			_, _ = fmt.Fprintf(out, messages.InitAlreadyExistFmt, store.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&global, flagGlobal, false, messages.GlobalFlagUsage)
	return cmd
}
