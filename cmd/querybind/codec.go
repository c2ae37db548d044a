package main

import (
	"fmt"

	"github.com/spf13/cobra"

	qerrors "github.com/vango-dev/querybind/internal/errors"
	"github.com/vango-dev/querybind/pkg/urlparam"
)

func decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <query> <param>",
		Short: "Read a parameter from a query string",
		Long: `Print the decoded value of param in query. A missing parameter
prints an empty line.

Examples:
  querybind decode '?search=hello%20world' search`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[1] == "" {
				return qerrors.New("Q200")
			}
			fmt.Fprintln(cmd.OutOrStdout(), urlparam.Decode(args[0], args[1]))
			return nil
		},
	}
}

func encodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <param> <value>",
		Short: "Build a query string from a parameter and value",
		Long: `Print "?param=value" with value percent-encoded. An empty value
prints an empty line.

Examples:
  querybind encode search 'hello world'`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return qerrors.New("Q200")
			}
			fmt.Fprintln(cmd.OutOrStdout(), urlparam.Encode(args[0], args[1]))
			return nil
		},
	}
}

// exactArgs is cobra.ExactArgs reported as a coded error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return qerrors.New("Q400").
				WithDetail(fmt.Sprintf("%s expects %d arguments, got %d", cmd.Name(), n, len(args))).
				WithSuggestion("Usage: " + cmd.UseLine())
		}
		return nil
	}
}
