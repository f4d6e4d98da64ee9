package main

import (
	"fmt"
	"os"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <workflow.yaml>",
	Short: "Export the workflow graph visualization",
	Long:  `Loads the workflow document and outputs a Mermaid diagram (graph TD) representing its state machine.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		wf, err := espalier.LoadFile(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(graph.GenerateMermaid(wf, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
