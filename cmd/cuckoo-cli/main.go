// Cuckoo CLI — инструмент командной строки для запуска воркеров
// через HTTP API, RabbitMQ или локально.
//
// Использование:
//
//	cuckoo [--api-url URL] [--json] <command> [flags]
//
// Команды:
//
//	trigger  Отправить запрос в API или в очередь
//	status   Состояние незавершённого запроса
//	workers  Зарегистрированные типы воркеров
//	ping     Проверка доступности API
//	run      Выполнить запрос локально
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Cuckoo/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "cuckoo",
		Short:         "Cuckoo CLI — scheduled worker launcher",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewTriggerCmd(clientFn, outputFn),
		cli.NewStatusCmd(clientFn, outputFn),
		cli.NewWorkersCmd(clientFn, outputFn),
		cli.NewPingCmd(clientFn, outputFn),
		cli.NewRunCmd(outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
