// shopctl - консольный клиент витрины: разбор адресов списков, загрузка страниц каталога,
// выбор варианта товара, подсказки поиска и выпуск тестовых токенов.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/athebyme/gomarket-storefront/config"
	"github.com/athebyme/gomarket-storefront/internal/adapters/logger"
	"github.com/athebyme/gomarket-storefront/internal/app"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/spf13/cobra"
)

const cliSession = "shopctl"

// cli общее состояние команд
type cli struct {
	configPath string
	verbose    bool
	memory     bool
	timeout    time.Duration

	cfg *config.Config
	log interfaces.LoggerPort
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "shopctl",
		Short: "Storefront command line client",
		Long: `shopctl drives the storefront building blocks from a terminal.

Available commands:
  query   - decode a listing address and apply filter intents to it
  list    - load a listing page from the catalog
  product - resolve a product variant and check the quantity
  suggest - type a search term and print debounced suggestions
  token   - mint a development JWT`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().BoolVar(&c.memory, "memory", true, "Use in-process cache and event bus instead of Postgres, Redis and Kafka")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 30*time.Second, "Operation timeout")

	root.AddCommand(
		c.queryCmd(),
		c.listCmd(),
		c.productCmd(),
		c.suggestCmd(),
		c.tokenCmd(),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.memory {
		cfg.Postgres.Enabled = false
		cfg.Redis.Enabled = false
		cfg.Kafka.Enabled = false
	}
	c.cfg = cfg

	if !c.verbose {
		c.log = logger.NewNop()
		return nil
	}
	log, err := logger.NewZapLogger("debug", false)
	if err != nil {
		return err
	}
	c.log = log
	return nil
}

// open поднимает зависимости и сценарии витрины; вызывающий закрывает инфраструктуру
func (c *cli) open(ctx context.Context) (*app.Infrastructure, *app.Services, error) {
	infra, err := app.NewInfrastructure(ctx, c.cfg, c.log)
	if err != nil {
		return nil, nil, err
	}
	return infra, app.NewServices(c.cfg, infra, c.log), nil
}

func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
