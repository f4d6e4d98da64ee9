package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine as an MCP server over stdio, so AI agents can
start, inspect, approve and cancel workflow executions as tools.
Executors must be allow-listed with --allow.`,
	Run: func(cmd *cobra.Command, args []string) {
		executor, err := newExecutor(cmd, nil)
		if err != nil {
			log.Fatalf("Error building executor: %v", err)
		}

		dir, _ := cmd.Flags().GetString("dir")

		// Logs must stay off Stdout so they don't corrupt JSON-RPC.
		logger := logging.New(slog.LevelInfo)
		log.SetOutput(os.Stderr)

		eng := espalier.New(executor,
			espalier.WithLogger(logger),
			espalier.WithCheckpointStore(newStore(cmd, nil)),
			espalier.WithWorkDir(dir),
		)

		srv := mcp.NewServer(eng)
		slog.Info("Starting Espalier MCP Server (Stdio)...")
		if err := srv.ServeStdio(); err != nil {
			slog.Error("MCP Server execution failed", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().StringArray("allow", nil, "Allowed executor (name=command), repeatable")
}
