package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/adapters/file"
	"github.com/aretw0/espalier/internal/adapters/process"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
)

func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelInfo)
}

// resolveCheckpointDir picks the checkpoint directory: the explicit flag
// wins, then the workflow's own setting, then the default, all resolved
// against the working directory.
func resolveCheckpointDir(cmd *cobra.Command, wf *domain.Workflow) string {
	dir, _ := cmd.Flags().GetString("dir")
	ckptDir, _ := cmd.Flags().GetString("checkpoint-dir")
	if ckptDir == "" {
		ckptDir = domain.DefaultCheckpointDirectory
		if wf != nil && wf.Settings.CheckpointDirectory != "" {
			ckptDir = wf.Settings.CheckpointDirectory
		}
	}
	if !filepath.IsAbs(ckptDir) {
		ckptDir = filepath.Join(dir, ckptDir)
	}
	return ckptDir
}

func newStore(cmd *cobra.Command, wf *domain.Workflow) *file.Store {
	return file.New(resolveCheckpointDir(cmd, wf))
}

// newExecutor builds the process executor for a run. The workflow's
// declared agents form the allow-list; --allow entries add or override.
func newExecutor(cmd *cobra.Command, wf *domain.Workflow) (*process.Executor, error) {
	dir, _ := cmd.Flags().GetString("dir")
	executor := process.NewExecutor(process.WithWorkDir(dir))
	if wf != nil {
		executor.RegisterWorkflowAgents(wf)
	}

	allows, _ := cmd.Flags().GetStringArray("allow")
	for _, allow := range allows {
		name, command, ok := strings.Cut(allow, "=")
		if !ok || name == "" || command == "" {
			return nil, fmt.Errorf("invalid --allow entry %q (want name=command)", allow)
		}
		parts := strings.Fields(command)
		executor.Register(name, parts[0], parts[1:]...)
	}
	return executor, nil
}
