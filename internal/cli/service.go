package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewPingCmd создаёт команду проверки доступности API.
func NewPingCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := clientFn().Ping()
			if err != nil {
				return err
			}
			outputFn().Success(strings.TrimSpace(body))
			return nil
		},
	}
}

// NewWorkersCmd создаёт команду вывода зарегистрированных типов воркеров.
func NewWorkersCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "workers",
		Short: "List worker types registered on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := clientFn().ListWorkers()
			if err != nil {
				return err
			}

			rows := make([][]string, len(types))
			for i, t := range types {
				rows[i] = []string{t.Type}
			}
			outputFn().Print([]string{"TYPE"}, rows, types)
			return nil
		},
	}
}
