package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) shellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scanner := bufio.NewScanner(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			for {
				fmt.Fprint(out, "inventory> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}

				// Árbol nuevo por línea (los flags no se arrastran) sobre el mismo store.
				child := newApp(Options{
					Repository: a.repository,
					In:         cmd.InOrStdin(),
					Out:        out,
					Err:        cmd.ErrOrStderr(),
				})
				root := child.rootCommand()
				root.SetArgs(strings.Fields(line))
				if err := root.ExecuteContext(cmd.Context()); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			}
		},
	}
}
