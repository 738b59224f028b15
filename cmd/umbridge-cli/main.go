// Command umbridge-cli is a generic command-line client for any UM-Bridge
// server: it discovers a model's capabilities over the wire protocol and
// drives Evaluate/Gradient/ApplyJacobian/ApplyHessian from flag input,
// without linking against the server's model code.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/umbridge-go/umbridge/internal/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "umbridge-cli",
		Short: "Query and drive UM-Bridge models from the command line",
	}
	root.PersistentFlags().String("url", "http://localhost:4242", "base URL of the UM-Bridge server")
	root.PersistentFlags().Bool("shmem", false, "use the shared-memory fast path if the server offers it")

	root.AddCommand(
		newInfoCommand(),
		newModelInfoCommand(),
		newEvaluateCommand(),
		newGradientCommand(),
		newApplyJacobianCommand(),
		newApplyHessianCommand(),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print umbridge-cli version info",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Println(version.String())
		},
	}
}
