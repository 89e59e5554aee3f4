// Package cli es la interfaz de línea de comandos del inventario (cobra + viper).
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Lelo88/inventory-api-golang/internal/config"
	"github.com/Lelo88/inventory-api-golang/internal/db"
	"github.com/Lelo88/inventory-api-golang/internal/items"
	"github.com/Lelo88/inventory-api-golang/internal/store"
)

// Options permite inyectar el repositorio y la E/S (tests, shell).
type Options struct {
	Repository items.RepositoryAPI
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
}

type app struct {
	options    Options
	settings   *viper.Viper
	repository items.RepositoryAPI
	logger     *slog.Logger
	close      func()
}

// openPostgres abre el pool y aplica el esquema. Se reemplaza en tests.
var openPostgres = func(ctx context.Context, databaseURL string) (items.RepositoryAPI, func(), error) {
	pool, err := db.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return items.NewRepository(pool), pool.Close, nil
}

// Execute corre el CLI con los argumentos del proceso.
func Execute() error {
	return Run(context.Background(), os.Args[1:], Options{})
}

// Run arma el árbol de comandos, lo ejecuta y libera el store.
func Run(ctx context.Context, args []string, options Options) error {
	application := newApp(options)
	root := application.rootCommand()
	root.SetArgs(args)
	defer application.shutdown()
	return root.ExecuteContext(ctx)
}

func newApp(options Options) *app {
	if options.In == nil {
		options.In = os.Stdin
	}
	if options.Out == nil {
		options.Out = os.Stdout
	}
	if options.Err == nil {
		options.Err = os.Stderr
	}
	return &app{
		options:  options,
		settings: viper.New(),
		logger:   slog.New(slog.NewTextHandler(options.Err, nil)),
		close:    func() {},
	}
}

func (a *app) shutdown() {
	a.close()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "inventory",
		Short:         "Inventory of items: add, edit, list, sell",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.SetIn(a.options.In)
	root.SetOut(a.options.Out)
	root.SetErr(a.options.Err)

	flags := root.PersistentFlags()
	flags.String("store", "file", "store backend: memory|file|postgres")
	flags.String("store-file", "data/items.json", "file store path")
	flags.String("database-url", "", "PostgreSQL URL (store=postgres)")
	flags.String("config", "", "config file (yaml, json, toml)")
	flags.String("log-level", "info", "log level: debug|info|warn|error")

	for _, name := range []string{"store", "store-file", "database-url", "config", "log-level"} {
		_ = a.settings.BindPFlag(name, flags.Lookup(name))
	}
	a.settings.SetEnvPrefix("INVENTORY")
	a.settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.settings.AutomaticEnv()

	root.AddCommand(
		a.addCommand(),
		a.editCommand(),
		a.listCommand(),
		a.showCommand(),
		a.sellCommand(),
		a.deleteCommand(),
		a.exportCommand(),
		a.shellCommand(),
	)
	return root
}

// setup lee config, arma el logger y abre el store (una sola vez).
func (a *app) setup(ctx context.Context) error {
	if file := a.settings.GetString("config"); file != "" {
		a.settings.SetConfigFile(file)
		if err := a.settings.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	level, err := config.ParseLogLevel(a.settings.GetString("log-level"))
	if err != nil {
		return err
	}
	a.logger = slog.New(slog.NewTextHandler(a.options.Err, &slog.HandlerOptions{Level: level}))

	if a.repository != nil {
		return nil
	}
	if a.options.Repository != nil {
		a.repository = a.options.Repository
		return nil
	}

	kind := strings.ToLower(a.settings.GetString("store"))
	switch kind {
	case config.StorePostgres:
		databaseURL := a.settings.GetString("database-url")
		if databaseURL == "" {
			return fmt.Errorf("--database-url required for postgres store")
		}
		repository, closer, err := openPostgres(ctx, databaseURL)
		if err != nil {
			return err
		}
		a.repository = repository
		a.close = closer
	default:
		local, err := store.NewStore(kind, a.settings.GetString("store-file"))
		if err != nil {
			return err
		}
		a.repository = local
	}

	a.logger.Debug("store opened", "store", kind)
	return nil
}
