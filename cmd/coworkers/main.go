package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cnpj-cowork/internal/address"
	"github.com/cnpj-cowork/internal/cache"
	"github.com/cnpj-cowork/internal/config"
	"github.com/cnpj-cowork/internal/db"
	"github.com/cnpj-cowork/internal/export"
	"github.com/cnpj-cowork/internal/ingest"
	"github.com/cnpj-cowork/internal/logger"
	"github.com/cnpj-cowork/internal/metrics"
	"github.com/cnpj-cowork/internal/search"
	"github.com/cnpj-cowork/internal/store"
	"github.com/cnpj-cowork/internal/web"
	"github.com/cnpj-cowork/internal/web/handlers"
)

var (
	// Global application configuration, resolved before every command
	cfg *config.AppConfig
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := createRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.L().Error("command_failed", "err", err)
		os.Exit(1)
	}
}

// createRootCmd wires global flags and every subcommand
func createRootCmd() *cobra.Command {
	var (
		source   string
		dataDir  string
		dbDriver string
		dsn      string
		logLevel string
		debugOn  bool
	)

	rootCmd := &cobra.Command{
		Use:           "coworkers",
		Short:         "Find establishments sharing an address",
		Long:          `Searches Receita Federal establishment extracts for CNPJs registered at the same street, number and complement of a neighborhood`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnv(); err != nil {
				return fmt.Errorf("failed to load .env: %w", err)
			}
			cfg = config.Load()

			flags := cmd.Flags()
			if flags.Changed("source") {
				cfg.Source = source
			}
			if flags.Changed("dir") {
				cfg.Data.Dir = dataDir
			}
			if flags.Changed("db-driver") {
				cfg.Database.Driver = dbDriver
			}
			if flags.Changed("dsn") {
				cfg.Database.DSN = dsn
			}
			if flags.Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if flags.Changed("debug") {
				cfg.Debug = debugOn
			}
			if cfg.Debug {
				cfg.Log.Level = "debug"
			}

			logger.SetupWith(os.Stderr, cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&source, "source", config.SourceCSV, "record source: csv or db")
	pf.StringVar(&dataDir, "dir", "Dataframes", "directory holding the CSV extracts")
	pf.StringVar(&dbDriver, "db-driver", "postgres", "database driver: postgres or sqlite3")
	pf.StringVar(&dsn, "dsn", "", "database DSN (defaults to the PG* environment)")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.BoolVar(&debugOn, "debug", false, "enable debug output")

	rootCmd.AddCommand(createSearchCmd())
	rootCmd.AddCommand(createNeighborhoodsCmd())
	rootCmd.AddCommand(createExportCmd())
	rootCmd.AddCommand(createImportCmd())
	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createPingCmd())

	return rootCmd
}

// createSearchCmd prints the co-located establishments of a neighborhood
func createSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [bairro]",
		Short: "Search a neighborhood for shared addresses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, closeFn, err := openSource(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			service := search.NewService(src.Source, cfg.Debug)
			result, err := service.Search(cmd.Context(), args[0])
			if err != nil {
				if msg := warningFor(err); msg != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), msg)
				}
				return err
			}

			if result.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "Nenhum endereço compartilhado encontrado neste bairro.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Busca concluída: %d registros em %d logradouros (%s).\n\n",
				result.Rows, len(result.Streets), result.Duration)
			return printResult(cmd.OutOrStdout(), result)
		},
	}
}

// createNeighborhoodsCmd lists the searchable neighborhoods
func createNeighborhoodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "neighborhoods",
		Short: "List the neighborhoods present in the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, closeFn, err := openSource(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			hoods, err := src.Source.Neighborhoods(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range hoods {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

// createExportCmd writes a search result to a CSV or XLSX file
func createExportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export [bairro]",
		Short: "Export a neighborhood search to CSV or XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			src, closeFn, err := openSource(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := search.NewService(src.Source, cfg.Debug).Search(cmd.Context(), args[0])
			if err != nil {
				if msg := warningFor(err); msg != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), msg)
				}
				return err
			}

			if output == "" {
				output = fmt.Sprintf("coworkers_%s.%s", strings.ReplaceAll(result.Neighborhood, " ", "_"), f)
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := export.Write(file, f, result); err != nil {
				file.Close()
				return fmt.Errorf("failed to export %s: %w", output, err)
			}
			if err := file.Close(); err != nil {
				return err
			}

			logger.L().Info("export_written", "file", output, "rows", result.Rows, "streets", len(result.Streets))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to coworkers_<bairro>.<format>)")
	return cmd
}

// createImportCmd bulk-loads the extracts into the SQL record table
func createImportCmd() *cobra.Command {
	var truncate bool

	cmd := &cobra.Command{
		Use:   "import [dir]",
		Short: "Import CSV extracts into the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := cfg.Data.Dir
			if len(args) == 1 {
				dir = args[0]
			}

			files, err := ingest.ListFiles(dir, cfg.Data.Extensions, true)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no files matching %v under %s", cfg.Data.Extensions, dir)
			}

			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := st.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			if truncate {
				if err := st.Truncate(cmd.Context()); err != nil {
					return err
				}
			}

			stats, err := store.NewImporter(st, address.New()).ImportFiles(cmd.Context(), files)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records from %d files\n", stats.Imported, stats.Files)
			return nil
		},
	}

	cmd.Flags().BoolVar(&truncate, "truncate", false, "empty the table before importing")
	return cmd
}

// createServeCmd starts the web interface
func createServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				cfg.Web.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Web.Port = port
			}

			src, closeFn, err := openSource(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			resultCache, err := cache.New(cfg.Cache, cfg.Redis)
			if err != nil {
				return err
			}
			if rc, ok := resultCache.(*cache.Redis); ok {
				if err := rc.Ping(cmd.Context()); err != nil {
					return fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
				}
			}

			searcher := &handlers.Searcher{
				Service: search.NewService(src.Source, cfg.Debug),
				Cache:   resultCache,
				Version: src.Version,
			}
			server, err := web.NewServer(web.FromApp(cfg), searcher)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s:%d (source=%s, cache=%s, export=%v)\n",
				cfg.Web.Host, cfg.Web.Port, cfg.Source, cfg.Cache.Backend, cfg.Web.ExportEnable)
			return server.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "listen host")
	cmd.Flags().IntVar(&port, "port", 8080, "listen port")
	return cmd
}

// createPingCmd checks the configured backends
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database and cache connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if cfg.Source == config.SourceDB {
				st, closeFn, err := openStore(cmd.Context())
				if err != nil {
					return err
				}
				defer closeFn()
				fmt.Fprintln(out, "Database connection successful!")

				count, err := st.Count(cmd.Context())
				if err != nil {
					logger.L().Warn("count_failed", "err", err)
				} else {
					fmt.Fprintf(out, "Establishments loaded: %d\n", count)
				}
			} else {
				files, err := ingest.ListFiles(cfg.Data.Dir, cfg.Data.Extensions, true)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Extract files in %s: %d\n", cfg.Data.Dir, len(files))
			}

			if cfg.Cache.Backend == "redis" {
				resultCache, err := cache.New(cfg.Cache, cfg.Redis)
				if err != nil {
					return err
				}
				if err := resultCache.(*cache.Redis).Ping(cmd.Context()); err != nil {
					return fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
				}
				fmt.Fprintln(out, "Redis connection successful!")
			}
			return nil
		},
	}
}

// recordSource is an opened record source and the version of its data
type recordSource struct {
	Source  search.Source
	Version string
}

// openSource opens the configured record source
func openSource(ctx context.Context) (*recordSource, func(), error) {
	switch cfg.Source {
	case config.SourceCSV:
		loader := &ingest.Loader{
			Extensions: cfg.Data.Extensions,
			Workers:    cfg.Data.Workers,
			Parser:     address.New(),
			Debug:      cfg.Debug,
		}
		dir, err := filepath.Abs(cfg.Data.Dir)
		if err != nil {
			return nil, nil, err
		}
		ds, err := loader.Load(ctx, dir)
		if err != nil {
			return nil, nil, err
		}
		metrics.DatasetRecords.Set(float64(len(ds.Records)))
		return &recordSource{
			Source:  search.DatasetSource{Dataset: ds},
			Version: fmt.Sprintf("%d-%d", ds.LoadedAt.Unix(), len(ds.Records)),
		}, func() {}, nil

	case config.SourceDB:
		st, closeFn, err := openStore(ctx)
		if err != nil {
			return nil, nil, err
		}
		if count, err := st.Count(ctx); err == nil {
			metrics.DatasetRecords.Set(float64(count))
		}
		return &recordSource{Source: st, Version: "db"}, closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown source %q, use %s or %s", cfg.Source, config.SourceCSV, config.SourceDB)
}

// openStore connects to the configured database
func openStore(ctx context.Context) (*store.Store, func(), error) {
	conn, err := db.NewConnection(ctx, cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxConnections)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.New(conn, cfg.Database.Table)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return st, func() { conn.Close() }, nil
}

// warningFor maps query errors to the messages shown to users
func warningFor(err error) string {
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		return "Digite algo para buscar."
	case errors.Is(err, search.ErrUnknownNeighborhood):
		return "Bairro não consta no conjunto de dados."
	}
	return ""
}
