package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/r1shah/deskai-go/internal/chat"
	"github.com/r1shah/deskai-go/internal/logging"
	"github.com/r1shah/deskai-go/internal/provider"
	"github.com/r1shah/deskai-go/internal/server"
	"github.com/r1shah/deskai-go/internal/store"
	"github.com/r1shah/deskai-go/internal/tracing"
)

// NewServeCmd constructs the `deskai serve` command, which starts the HTTP
// server exposing the support-chat API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int
	var skipIndex bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the DeskAI HTTP server",
		Long: `Start the DeskAI HTTP server on localhost.

On startup every configured agent's ticket collection is checked and
populated from its data source if empty (use --skip-index to disable).
The server then exposes the chat, agent-status, reindex, and upload
endpoints for frontend integration.

Examples:
  deskai serve
  deskai serve --port 9090
  MODEL_PROVIDER=azure deskai serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			providerCfg := provider.ConfigFromEnv()
			chatModel, err := provider.New(ctx, providerCfg)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			log.Info("provider initialised", slog.String("provider", string(providerCfg.Backend)))

			stk, closeStack, err := buildStack(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer closeStack()

			// Populate empty collections before accepting traffic.
			if !skipIndex {
				counts := stk.indexer.IndexAll(ctx, false)
				for id, n := range counts {
					log.Info("startup index", slog.String("agent", id), slog.Int("tickets", n))
				}
			}

			orchestrator, err := chat.New(stk.orchestratorConfig(chatModel))
			if err != nil {
				return fmt.Errorf("serve: failed to create orchestrator: %w", err)
			}

			// Open transcript history store. DESKAI_HISTORY_DB overrides the
			// default path (~/.deskai/history.db). Set to "disabled" to turn
			// history off.
			var transcripts *store.SQLiteStore
			dbPath := os.Getenv("DESKAI_HISTORY_DB")
			if dbPath != "disabled" {
				if dbPath == "" {
					dbPath, err = store.DefaultDBPath()
					if err != nil {
						log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
					}
				}
				if dbPath != "" {
					hs, hsErr := store.Open(dbPath)
					if hsErr != nil {
						log.Warn("history: failed to open store, disabling", slog.Any("error", hsErr))
					} else {
						transcripts = hs
						defer func() { _ = hs.Close() }()
						log.Info("history: store opened", slog.String("path", dbPath))
					}
				}
			} else {
				log.Info("history: disabled via DESKAI_HISTORY_DB=disabled")
			}

			deps := &server.Deps{
				Orchestrator: orchestrator,
				Indexer:      stk.indexer,
			}
			if transcripts != nil {
				deps.Transcripts = transcripts
			}

			srv, err := server.New(deps, &server.Config{
				Host:   host,
				Port:   port,
				Logger: log,
				Pingers: []server.Pinger{
					server.NewQdrantPinger(stk.store.Client()),
					server.NewLLMPinger(chatModel, string(providerCfg.Backend)),
				},
				APIKey: os.Getenv("DESKAI_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")
	cmd.Flags().BoolVar(&skipIndex, "skip-index", false, "Skip the startup indexing pass")

	return cmd
}
