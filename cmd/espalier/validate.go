package main

import (
	"fmt"
	"os"

	"github.com/aretw0/espalier"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow.yaml>",
	Short: "Check a workflow document for consistency",
	Long:  `Loads the document and reports structural errors (unknown transition targets, duplicate state ids) and warnings (unknown agents, missing terminal state).`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Workflow is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	wf, err := espalier.LoadFile(path)
	if err != nil {
		return err
	}

	report := espalier.Validate(wf)
	for _, warning := range report.Warnings {
		fmt.Printf("warning: %s: %s\n", warning.Code, warning.Message)
	}
	for _, issue := range report.Errors {
		fmt.Printf("error: %s: %s\n", issue.Code, issue.Message)
	}
	if !report.IsValid() {
		return fmt.Errorf("%d error(s) found", len(report.Errors))
	}
	return nil
}
