package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier is a declarative state machine engine for agent workflows",
	Long: `Espalier runs workflows defined as YAML state machine documents:
agent steps, conditional branching, parallel fan-out, trigger gates,
human approval gates and checkpoint/resume.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Working directory for trigger paths and checkpoints")
	rootCmd.PersistentFlags().String("checkpoint-dir", "", "Checkpoint directory (defaults to <dir>/.espalier/checkpoints)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}
