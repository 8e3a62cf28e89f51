package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/sasa-gamer47/mindclone/config"
	"github.com/sasa-gamer47/mindclone/gateway"
	"github.com/sasa-gamer47/mindclone/logger"
	"github.com/sasa-gamer47/mindclone/mcp"
	"github.com/sasa-gamer47/mindclone/memory"
	"github.com/sasa-gamer47/mindclone/migrations"
	"github.com/sasa-gamer47/mindclone/runtime"
	"github.com/sasa-gamer47/mindclone/session"
	"github.com/sasa-gamer47/mindclone/views"
)

const usageText = `Usage: mindclone [flags] <command> [args]

Commands:
  add <text>          Save a new text memory
  add-link <url>      Save a new link memory
  list                List memories, newest first
  search <term>       Search memories by text
  ask <question>      Ask a question across the whole collection
  summarize <id>      Generate a smart summary for a memory
  related <id>        Discover related memories
  insights            Show dashboard insight prompts
  serve               Serve MCP over stdio (same as --mcp)
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dbPath     = flag.String("db", "", "Path to SQLite database file (default from config)")
		configPath = flag.String("config", "", "Path to config file (default: standard config dir)")
		logFile    = flag.String("logfile", "", "Path to log file. If not set, logs to stdout/stderr")
		pretty     = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
		mcpMode    = flag.Bool("mcp", false, "Serve MCP over stdio instead of running a command")
	)
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usageText+"\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *logFile != "" && *pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}

	command := flag.Arg(0)
	if command == "serve" {
		*mcpMode = true
	}

	// Logs go to stderr or a file, so stdio MCP mode needs no special casing.
	log, err := logger.InitWithOptions(*logFile, *pretty)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = config.GetConfigPath()
	}
	appConfig, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbFile := resolveDBPath(*dbPath, appConfig)
	log.Info().Str("db", dbFile).Str("config", cfgPath).Msg("mindclone starting")

	db, err := sql.Open("sqlite3", dbFile)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck // No remedy for db close errors

	if err := migrations.RunMigrations(db, log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	client, key, err := config.NewLLMClient(appConfig, log)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	log.Info().Str("provider", key.Provider).Str("model", key.Model).Msg("LLM provider selected")

	store := memory.NewStore(db, log)
	repo, err := memory.NewRepository(context.Background(), store, log)
	if err != nil {
		return fmt.Errorf("failed to load memory repository: %w", err)
	}

	gw := gateway.New(client, key.Model, log)
	sess := session.New(repo, gw, log, session.Options{
		InferenceTimeout: inferenceTimeout(appConfig),
		Notifications:    appConfig.Notifications.Enabled,
	})

	if *mcpMode {
		return serveMCP(appConfig, sess, log)
	}
	return runCommand(context.Background(), sess, command, flag.Args())
}

// resolveDBPath prefers the -db flag; the config value (itself overridable
// via MINDCLONE_DB) is the fallback.
func resolveDBPath(flagValue string, cfg *config.AppConfig) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg.Database != "" {
		return cfg.Database
	}
	return "mindclone.db"
}

// inferenceTimeout converts the configured timeout seconds to a duration.
// Zero or negative values defer to the session's default.
func inferenceTimeout(cfg *config.AppConfig) time.Duration {
	if cfg.InferenceTimeout <= 0 {
		return 0
	}
	return time.Duration(cfg.InferenceTimeout) * time.Second
}

func serveMCP(appConfig *config.AppConfig, sess *session.Session, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !appConfig.Insights.Disabled {
		scheduler, err := runtime.NewScheduler(sess, appConfig.Insights.Schedule, log)
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		go scheduler.Start(ctx)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := mcp.NewServer(sess, log)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ServeStdio()
	}()

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
		return nil
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("mcp server error: %w", err)
		}
		return nil
	}
}

func runCommand(ctx context.Context, sess *session.Session, command string, args []string) error {
	rest := strings.Join(args[min(1, len(args)):], " ")

	switch command {
	case "add":
		if rest == "" {
			return fmt.Errorf("add requires text content")
		}
		m, err := sess.CreateMemory(ctx, memory.TypeText, rest, "")
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s", m.ID)
		if len(m.Tags) > 0 {
			fmt.Printf(" (tags: %s)", strings.Join(m.Tags, ", "))
		}
		fmt.Println()
		return nil

	case "add-link":
		if rest == "" {
			return fmt.Errorf("add-link requires a URL")
		}
		m, err := sess.CreateMemory(ctx, memory.TypeLink, rest, "")
		if err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", m.ID)
		return nil

	case "list":
		printMemories(sess.Snapshot())
		return nil

	case "search":
		if rest == "" {
			return fmt.Errorf("search requires a term")
		}
		printMemories(views.Apply(sess.Snapshot(), views.Filters{Search: rest}))
		return nil

	case "ask":
		if rest == "" {
			return fmt.Errorf("ask requires a question")
		}
		result, err := sess.QueryAll(ctx, rest)
		if err != nil {
			return err
		}
		fmt.Println(result.Text)
		if len(result.MemoryIDs) > 0 {
			fmt.Printf("\nCited: %s\n", strings.Join(result.MemoryIDs, ", "))
		}
		return nil

	case "summarize":
		if rest == "" {
			return fmt.Errorf("summarize requires a memory id")
		}
		summary, err := sess.SummarizeMemory(ctx, rest)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n%s\n", summary.Title, summary.Summary)
		for _, p := range summary.KeyPoints {
			fmt.Printf("- %s\n", p)
		}
		return nil

	case "related":
		if rest == "" {
			return fmt.Errorf("related requires a memory id")
		}
		related, err := sess.DiscoverRelated(ctx, rest)
		if err != nil {
			return err
		}
		if len(related) == 0 {
			fmt.Println("No related memories found.")
			return nil
		}
		fmt.Println(strings.Join(related, "\n"))
		return nil

	case "insights":
		for _, prompt := range sess.Insights(ctx) {
			fmt.Printf("- %s\n", prompt)
		}
		return nil

	case "":
		flag.Usage()
		return fmt.Errorf("no command given")

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printMemories(memories []memory.Memory) {
	if len(memories) == 0 {
		fmt.Println("No memories.")
		return
	}
	for _, m := range memories {
		preview := m.Content
		if m.Type == memory.TypeImage {
			preview = m.Description
		}
		if len([]rune(preview)) > 80 {
			preview = string([]rune(preview)[:80]) + "..."
		}
		fmt.Printf("%s  [%s]  %s\n", m.ID, m.Type, preview)
		if len(m.Tags) > 0 {
			fmt.Printf("    tags: %s\n", strings.Join(m.Tags, ", "))
		}
	}
}
