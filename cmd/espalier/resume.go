package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/espalier"
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <execution-id>",
	Short: "Resume an execution from its latest checkpoint",
	Long: `Reconstructs an interrupted execution from its checkpoint and
continues it. The checkpoint embeds the full workflow definition, so no
workflow file is needed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runResume(cmd, args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().StringArray("allow", nil, "Extra allowed executor (name=command), repeatable")
}

func runResume(cmd *cobra.Command, executionID string) error {
	store := newStore(cmd, nil)

	// Peek at the checkpoint to rebuild the executor allow-list from the
	// embedded workflow definition before the engine takes over.
	cp, err := store.Load(cmd.Context(), executionID)
	if err != nil {
		return err
	}
	executor, err := newExecutor(cmd, &cp.Workflow)
	if err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("dir")
	eng := espalier.New(executor,
		espalier.WithLogger(newLogger(cmd)),
		espalier.WithCheckpointStore(store),
		espalier.WithWorkDir(dir),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshots, err := eng.Resume(ctx, executionID)
	if err != nil {
		return err
	}
	fmt.Printf("Execution %s resumed\n", executionID)

	return streamSnapshots(snapshots)
}
