package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <workflow.yaml>",
	Short: "Run a workflow to completion",
	Long: `Loads and validates a workflow document, then executes it,
printing every runtime snapshot as the execution progresses.
Ctrl-C cancels the execution cooperatively.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runWorkflow(cmd, args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("input", "i", "", "Initial input handed to the first executor")
	runCmd.Flags().StringArray("allow", nil, "Extra allowed executor (name=command), repeatable")
}

func runWorkflow(cmd *cobra.Command, path string) error {
	wf, err := espalier.LoadFile(path)
	if err != nil {
		return err
	}

	executor, err := newExecutor(cmd, wf)
	if err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("dir")
	input, _ := cmd.Flags().GetString("input")

	eng := espalier.New(executor,
		espalier.WithLogger(newLogger(cmd)),
		espalier.WithCheckpointStore(newStore(cmd, wf)),
		espalier.WithWorkDir(dir),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executionID, snapshots, err := eng.Start(ctx, wf, input)
	if err != nil {
		return err
	}
	fmt.Printf("Execution %s started\n", executionID)

	return streamSnapshots(snapshots)
}

// streamSnapshots prints each snapshot and turns the terminal status
// into an exit decision.
func streamSnapshots(snapshots <-chan domain.RuntimeState) error {
	var last domain.RuntimeState
	for snapshot := range snapshots {
		fmt.Printf("  [%s] %s\n", snapshot.Status, snapshot.CurrentStateID)
		last = snapshot
	}

	switch last.Status {
	case domain.StatusCompleted:
		fmt.Println("Workflow completed ✅")
		return nil
	case domain.StatusFailed:
		return fmt.Errorf("workflow failed at %s: %s", last.CurrentStateID, last.ErrorMessage)
	default:
		return fmt.Errorf("workflow ended in unexpected status %q", last.Status)
	}
}
