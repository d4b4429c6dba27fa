package main

import (
	"github.com/spf13/cobra"

	"github.com/conn-castle/mycelium/internal/mcp"
	"github.com/conn-castle/mycelium/internal/messages"
)

var runServer = mcp.RunServer

func newMcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   messages.McpUse,
		Short: messages.McpShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), mcp.Options{
				Version:  Version,
				Paths:    env.Paths,
				Settings: env.Settings,
				Log:      env.Log,
			})
		},
	}
}
