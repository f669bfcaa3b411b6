// Command councilflow runs a weighted reviewer debate over a proposal
// and prints the decision with its audit trace.
//
// Usage:
//
//	councilflow run --proposal "text"            # debate with default roster
//	councilflow run --config councilflow.yaml    # configured roster and rules
//	councilflow run --proposal-file draft.txt --trace json
//	councilflow version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/councilflow/councilflow/config"
	"github.com/councilflow/councilflow/debate"
	"github.com/councilflow/councilflow/internal/telemetry"
	"github.com/councilflow/councilflow/persistence"
	"github.com/councilflow/councilflow/provider"
	"github.com/councilflow/councilflow/roster"
	"github.com/councilflow/councilflow/types"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runDebate(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runDebate(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	proposalText := fs.String("proposal", "", "Proposal text to debate")
	proposalFile := fs.String("proposal-file", "", "File containing the proposal text")
	traceFormat := fs.String("trace", "text", "Trace output format: text or json")
	fs.Parse(args)

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.BuildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	otelProviders, err := telemetry.Init(telemetry.DefaultConfig(), logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer otelProviders.Shutdown(context.Background())

	content := *proposalText
	if *proposalFile != "" {
		data, err := os.ReadFile(*proposalFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read proposal file: %v\n", err)
			os.Exit(1)
		}
		content = string(data)
	}
	if content == "" {
		fmt.Fprintln(os.Stderr, "A proposal is required (--proposal or --proposal-file)")
		os.Exit(1)
	}

	reviewers := cfg.BuildRoster()
	if len(reviewers) == 0 {
		reviewers = defaultRoster()
	}
	reviewers = hydrateWeights(cfg, reviewers, logger)
	debateCfg, err := cfg.BuildDebateConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid debate config: %v\n", err)
		os.Exit(1)
	}

	store, err := persistence.NewSessionStore(cfg.BuildStoreConfig())
	if err != nil {
		logger.Warn("store unavailable, running without persistence", zap.Error(err))
		store = persistence.NewMemorySessionStore()
	}
	defer store.Close()

	heuristic := provider.NewHeuristicProvider()
	providers := make(map[string]provider.ReasoningProvider, len(reviewers))
	for _, r := range reviewers {
		providers[r.ID] = heuristic
	}

	proposal := types.Proposal{
		ID:      uuid.NewString(),
		Content: content,
	}

	session, err := debate.NewSession(proposal, reviewers, providers, debateCfg,
		debate.WithLogger(logger),
		debate.WithStore(persistence.NewRetrySessionStore(store, persistence.DefaultRetryConfig(), logger)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create session: %v\n", err)
		os.Exit(1)
	}

	decision, err := session.Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Debate failed: %v\n", err)
		os.Exit(1)
	}

	switch *traceFormat {
	case "json":
		data, err := session.Trace().JSON()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render trace: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	default:
		fmt.Print(session.Trace().Text())
	}

	fmt.Printf("\ndecision: %s (approved=%t, score %.1f, confidence %.2f)\n",
		decision.Vote, decision.Approved, decision.WeightedScore, decision.Confidence)
	if decision.Overridden() {
		fmt.Printf("overridden by hard rule: %s\n", decision.OverriddenBy)
	}
}

// hydrateWeights replaces config weights with learned weights from the
// weights database when one is configured. Any failure falls back to
// the config weights so a missing database never blocks a debate.
func hydrateWeights(cfg *config.Config, reviewers []types.Reviewer, logger *zap.Logger) []types.Reviewer {
	if cfg.Store.WeightsPath == "" {
		return reviewers
	}
	repo, err := persistence.NewGormWeightRepo(cfg.Store.WeightsPath)
	if err != nil {
		logger.Warn("weights database unavailable, using config weights", zap.Error(err))
		return reviewers
	}
	defer repo.Close()

	ws := roster.NewWeightStore(reviewers, cfg.BuildLearningConfig(), logger)
	if err := ws.LoadFrom(context.Background(), repo); err != nil {
		logger.Warn("failed to load learned weights", zap.Error(err))
		return reviewers
	}
	ids := make([]string, len(reviewers))
	for i, r := range reviewers {
		ids[i] = r.ID
	}
	return ws.Snapshot(ids)
}

// defaultRoster is the built-in council used when no config provides
// one: the roles the heuristic provider knows how to play.
func defaultRoster() []types.Reviewer {
	return []types.Reviewer{
		{ID: "risk", DisplayName: "Risk Officer", Role: "risk", BaseWeight: 0.25},
		{ID: "compliance", DisplayName: "Compliance Reviewer", Role: "compliance", BaseWeight: 0.2},
		{ID: "brand", DisplayName: "Brand Guardian", Role: "brand", BaseWeight: 0.2},
		{ID: "engagement", DisplayName: "Engagement Analyst", Role: "engagement", BaseWeight: 0.2},
		{ID: "trend", DisplayName: "Trend Scout", Role: "trend", BaseWeight: 0.15},
	}
}

func printVersion() {
	fmt.Printf("councilflow %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
}

func printUsage() {
	fmt.Println(`councilflow - weighted reviewer debate engine

Usage:
  councilflow run [flags]    Run one debate
  councilflow version        Show version information
  councilflow help           Show this help

Run flags:
  --config path        Config file (YAML)
  --proposal text      Proposal text to debate
  --proposal-file path File containing the proposal text
  --trace format       Trace output: text (default) or json`)
}
