package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	yaml "go.yaml.in/yaml/v3"

	"github.com/shaiso/Cuckoo/internal/mq"
)

// NewTriggerCmd создаёт команду запуска воркеров через API или RabbitMQ.
func NewTriggerCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string
	var viaAMQP bool
	var amqpURL string

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Launch workers from a request file",
		Long: `Send a request to the API (POST /trigger) or publish it to the
triggers.pending queue with --amqp. Use -f - to read the request from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			data, err := readRequest(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			if viaAMQP {
				if err := publishTrigger(cmd.Context(), amqpURL, data); err != nil {
					return err
				}
				out.Success(fmt.Sprintf("Request published to %s", mq.QueueTriggersPending))
				return nil
			}

			resp, err := clientFn().Trigger(data)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Request launched: %s", resp.RequestID))
			printTrigger(out, resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to request JSON or YAML file, - for stdin (required)")
	cmd.Flags().BoolVar(&viaAMQP, "amqp", false, "Publish to RabbitMQ instead of calling the API")
	cmd.Flags().StringVar(&amqpURL, "amqp-url", mq.DefaultURL(), "RabbitMQ URL for --amqp")
	cmd.MarkFlagRequired("file")

	return cmd
}

// NewStatusCmd создаёт команду просмотра состояния запроса.
func NewStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status REQUEST_ID",
		Short: "Show state of a request that is still in progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := clientFn().GetRequest(args[0])
			if err != nil {
				return err
			}

			printTrigger(outputFn(), resp)
			return nil
		},
	}
}

func printTrigger(out *Output, resp *TriggerResponse) {
	out.Record([]Field{
		{"Request ID", resp.RequestID},
		{"State", resp.State},
		{"Mode", resp.Mode},
		{"Fire at", resp.FireAt},
		{"Workers", strings.Join(resp.Workers, ", ")},
	}, resp)
}

// readRequest читает запрос из файла или из stdin ("-").
// Файлы .yaml/.yml переводятся в JSON.
func readRequest(path string, stdin io.Reader) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlToJSON(data)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("request is not valid JSON")
	}
	return data, nil
}

// yamlToJSON переводит YAML-запрос в JSON того же формата, что POST /trigger.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("request is not valid YAML: %w", err)
	}

	out, err := json.Marshal(stringKeys(v))
	if err != nil {
		return nil, fmt.Errorf("convert YAML request: %w", err)
	}
	return out, nil
}

// stringKeys приводит ключи map[any]any к строкам, чтобы значение кодировалось в JSON.
func stringKeys(v any) any {
	switch x := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = stringKeys(val)
		}
		return m
	case map[string]any:
		for k, val := range x {
			x[k] = stringKeys(val)
		}
		return x
	case []any:
		for i := range x {
			x[i] = stringKeys(x[i])
		}
		return x
	default:
		return v
	}
}

// publishTrigger публикует запрос в очередь triggers.pending.
func publishTrigger(ctx context.Context, url string, data []byte) error {
	var request map[string]any
	if err := json.Unmarshal(data, &request); err != nil {
		return fmt.Errorf("request must be a JSON object: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	conn, err := mq.NewConnection(url, logger)
	if err != nil {
		return fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mq.SetupTopology(ctx, conn); err != nil {
		return fmt.Errorf("setup topology: %w", err)
	}
	return mq.NewPublisher(conn, logger).PublishTrigger(ctx, request)
}
