package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"prism/internal/gateway/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "prism",
		Short: "Multi-perspective answers from a panel of viewpoints",
		Long: `prism asks a model the same question from several fixed perspectives,
synthesizes the answers, checks the synthesis against each perspective,
mediates the conflicts and streams a final answer.

Commands:
  ask           Run one question through the pipeline
  perspectives  List the built-in or overridden perspective sets
  serve         Start the websocket / Connect gateway`,
		SilenceUsage: true,
	}
	root.AddCommand(newAskCmd(), newPerspectivesCmd(), newServeCmd())
	return root
}

// loadConfig reads .env and the environment. Flags are bound per command.
func loadConfig() *config.Config {
	_ = godotenv.Load()
	return config.FromEnv(":8081")
}
