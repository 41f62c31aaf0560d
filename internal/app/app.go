package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/vk/artifex/internal/artifact"
	"github.com/vk/artifex/internal/chain"
	"github.com/vk/artifex/internal/ctxlog"
	"github.com/vk/artifex/internal/exec"
	"github.com/vk/artifex/internal/operations"
	"github.com/vk/artifex/internal/plan"
	"github.com/vk/artifex/internal/transform"
)

// artifactCacheSize bounds the resolved-file memo per repository.
const artifactCacheSize = 128

// planCacheSize bounds the planner's node reuse cache.
const planCacheSize = 512

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	loader *chain.Loader
	steps  *transform.Registry
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and step registry.
func NewApp(outW io.Writer, cfg *Config, loader *chain.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")
	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		loader: loader,
		steps:  transform.NewRegistry(),
	}
}

// Steps returns the application's step registry. This is primarily for
// embedding tools registering additional step types.
func (a *App) Steps() *transform.Registry {
	return a.steps
}

// Run loads the chain definitions, plans the transformation graph, executes
// it, and reports the terminal subject of every chain.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.EnvFile != "" {
		if err := godotenv.Load(a.config.EnvFile); err != nil {
			return fmt.Errorf("loading env file %s: %w", a.config.EnvFile, err)
		}
		a.logger.Debug("Environment file loaded.", "path", a.config.EnvFile)
	}

	model, err := a.loader.Load(ctx, a.config.ChainPath)
	if err != nil {
		return fmt.Errorf("failed to load chain definitions: %w", err)
	}

	resolvables, err := a.buildResolvables(model)
	if err != nil {
		return err
	}

	seq := &plan.Sequence{}
	planner, err := plan.NewPlanner(seq, model.BuildPath, planCacheSize)
	if err != nil {
		return err
	}

	var planned []plannedChain
	var roots []plan.Node
	for _, c := range model.Chains {
		steps, err := a.buildSteps(c)
		if err != nil {
			return err
		}
		terminal, err := planner.Plan(plan.ChainSpec{
			Name:     c.Name,
			Artifact: resolvables[c.Input],
			Steps:    steps,
		})
		if err != nil {
			return err
		}
		planned = append(planned, plannedChain{name: c.Name, terminal: terminal})
		roots = append(roots, terminal)
		a.logger.Debug("Chain planned.", "chain", plan.DescribeChain(c.Name, terminal))
	}

	if len(roots) == 0 {
		a.logger.Warn("No chains declared, nothing to execute.")
		return nil
	}

	opExec := operations.NewExecutor()
	listener := &logListener{logger: a.logger}
	scheduler := exec.NewScheduler(a.config.WorkerCount)

	a.logger.Info("🚀 Starting concurrent execution...", "chains", len(planned), "workers", a.config.WorkerCount)
	if err := scheduler.Run(ctx, roots, plan.NewProducerResolver(), func(ctx context.Context, node plan.Node) error {
		return node.Execute(ctx, opExec, listener)
	}); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.")

	a.report(planned)
	return nil
}

// plannedChain pairs a declared chain with its terminal node.
type plannedChain struct {
	name     string
	terminal *plan.TransformationNode
}

// report prints the terminal subject of each chain. A failure subject is a
// build outcome to report, not an execution fault, so it does not affect
// the process exit code here.
func (a *App) report(planned []plannedChain) {
	for _, pc := range planned {
		subject := pc.terminal.TransformedSubject()
		if subject.Failed() {
			fmt.Fprintf(a.outW, "chain %s: FAILED at %s: %v\n", pc.name, subject.DisplayName(), subject.Failure())
			continue
		}
		fmt.Fprintf(a.outW, "chain %s: %d file(s)\n", pc.name, len(subject.Files()))
		for _, f := range subject.Files() {
			fmt.Fprintf(a.outW, "  %s\n", f)
		}
	}
}

// buildResolvables wires each declared artifact to its repository backend,
// wrapping every backend in an LRU memo so one coordinate is fetched once
// per process.
func (a *App) buildResolvables(model *chain.Model) (map[string]artifact.Resolvable, error) {
	dirRepo, err := artifact.NewCachingRepository(&artifact.DirRepository{Root: a.config.RepoRoot}, artifactCacheSize)
	if err != nil {
		return nil, err
	}

	s3Repos := make(map[string]artifact.Repository)
	out := make(map[string]artifact.Resolvable, len(model.Artifacts))
	for name, art := range model.Artifacts {
		var repo artifact.Repository
		switch art.Repo {
		case chain.RepoDir:
			repo = dirRepo
		case chain.RepoS3:
			repo = s3Repos[art.Bucket]
			if repo == nil {
				repo, err = a.newS3Repository(art.Bucket)
				if err != nil {
					return nil, err
				}
				s3Repos[art.Bucket] = repo
			}
		default:
			return nil, fmt.Errorf("artifact %q: unknown repository kind %q", name, art.Repo)
		}
		out[name] = artifact.NewResolvable(artifact.Identifier{Name: name, Coordinate: art.Coordinate}, repo)
	}
	return out, nil
}

func (a *App) newS3Repository(bucket string) (artifact.Repository, error) {
	useSSL, _ := strconv.ParseBool(os.Getenv("ARTIFEX_S3_USE_SSL"))
	downloadDir := filepath.Join(a.config.WorkDir, "downloads")
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return nil, err
	}
	repo, err := artifact.NewS3Repository(artifact.S3Config{
		Endpoint:    os.Getenv("ARTIFEX_S3_ENDPOINT"),
		AccessKey:   os.Getenv("ARTIFEX_S3_ACCESS_KEY"),
		SecretKey:   os.Getenv("ARTIFEX_S3_SECRET_KEY"),
		Bucket:      bucket,
		UseSSL:      useSSL,
		DownloadDir: downloadDir,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring s3 repository for bucket %q: %w", bucket, err)
	}
	return artifact.NewCachingRepository(repo, artifactCacheSize)
}

// buildSteps instantiates the chain's steps, each with its own work
// directory under WorkDir/<chain>/<index>-<type>.
func (a *App) buildSteps(c chain.Chain) ([]transform.Step, error) {
	steps := make([]transform.Step, 0, len(c.Steps))
	for i, use := range c.Steps {
		workDir := filepath.Join(a.config.WorkDir, c.Name, fmt.Sprintf("%02d-%s", i, use.Type))
		if err := os.MkdirAll(workDir, 0o755); err != nil {
			return nil, err
		}
		step, err := a.steps.New(use.Type, use.Arguments, workDir)
		if err != nil {
			return nil, fmt.Errorf("chain %q: %w", c.Name, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}
