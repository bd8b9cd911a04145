package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driving"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/logger"
)

// Ensure BuildPipeline implements the interface.
var _ driving.BuildOrchestrator = (*BuildPipeline)(nil)

// Pipeline defaults.
const (
	// DefaultSettleDelay is the pause between publishing and the first
	// reachability probe, giving the host time to provision the site.
	DefaultSettleDelay = 10 * time.Second

	// DefaultReachabilityWait is the poll budget for the public site.
	DefaultReachabilityWait = 120 * time.Second
)

// PipelineConfig holds tuning for pipeline runs.
type PipelineConfig struct {
	// SettleDelay is the pause before reachability polling begins.
	SettleDelay time.Duration

	// ReachabilityWait is the poll budget for the public site.
	ReachabilityWait time.Duration
}

// DefaultPipelineConfig returns the stock pipeline tuning.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		SettleDelay:      DefaultSettleDelay,
		ReachabilityWait: DefaultReachabilityWait,
	}
}

// BuildPipeline coordinates the generate-publish-confirm run for each
// admitted task. Each run is a detached unit of work: the submitter
// learns only the run identifier, every failure past admission is
// logged and absorbed, and the outcome is observable solely through
// the evaluator notification.
//
// Runs targeting the same repository are serialised so concurrent
// rounds cannot interleave their read-modify-write cycles on one
// branch.
type BuildPipeline struct {
	resolver    driven.AttachmentResolver
	host        driven.RepositoryHost
	synthesizer *AppSynthesizer
	confirmer   *DeploymentConfirmer
	config      PipelineConfig

	// Run tracking
	mu        sync.RWMutex
	closed    bool
	active    map[string]domain.BuildTask
	repoLocks map[string]*sync.Mutex
	wg        sync.WaitGroup
}

// NewBuildPipeline creates a pipeline runner. Zero config fields fall
// back to defaults.
func NewBuildPipeline(
	resolver driven.AttachmentResolver,
	host driven.RepositoryHost,
	synthesizer *AppSynthesizer,
	confirmer *DeploymentConfirmer,
	config PipelineConfig,
) *BuildPipeline {
	if config.SettleDelay <= 0 {
		config.SettleDelay = DefaultSettleDelay
	}
	if config.ReachabilityWait <= 0 {
		config.ReachabilityWait = DefaultReachabilityWait
	}
	return &BuildPipeline{
		resolver:    resolver,
		host:        host,
		synthesizer: synthesizer,
		confirmer:   confirmer,
		config:      config,
		active:      make(map[string]domain.BuildTask),
		repoLocks:   make(map[string]*sync.Mutex),
	}
}

// Submit validates and admits a task, schedules its run and returns
// the run identifier without waiting for the run.
func (p *BuildPipeline) Submit(ctx context.Context, task domain.BuildTask) (string, error) {
	if err := task.Validate(); err != nil {
		return "", err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return "", domain.ErrPipelineClosed
	}
	runID := uuid.NewString()
	p.active[runID] = task
	p.wg.Add(1)
	p.mu.Unlock()

	logger.Info("Admitted build run %s for task %s round %d", runID, task.Task, task.Round)
	go p.run(runID, task)
	return runID, nil
}

// Active returns the number of in-flight runs.
func (p *BuildPipeline) Active() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.active)
}

// Wait blocks until every in-flight run has completed, or the context
// is cancelled.
func (p *BuildPipeline) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Shutdown stops admission and waits for in-flight runs to drain.
func (p *BuildPipeline) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.Wait(ctx)
}

// run executes one pipeline run. Submission already returned, so
// failures here have nowhere to surface but the log.
func (p *BuildPipeline) run(runID string, task domain.BuildTask) {
	defer p.wg.Done()
	defer p.clearRun(runID)

	// Runs outlive the admitting request, so they carry their own
	// context rather than the caller's.
	ctx := context.Background()

	if err := p.process(ctx, task); err != nil {
		logger.Error("Build run %s for task %s round %d failed: %v", runID, task.Task, task.Round, err)
		return
	}
	logger.Info("Build run %s for task %s round %d complete", runID, task.Task, task.Round)
}

//nolint:gocyclo // Orchestration function with necessary sequential steps
func (p *BuildPipeline) process(ctx context.Context, task domain.BuildTask) error {
	// 1. Resolve attachments
	attachments, err := p.resolver.Resolve(ctx, task.Attachments)
	if err != nil {
		return fmt.Errorf("resolve attachments: %w", err)
	}

	// 2. Serialise runs that target the same repository
	name := task.RepositoryName()
	release := p.lockRepository(name)
	defer release()

	// 3. Look up the current repository state
	ref, err := p.host.Get(ctx, name)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get repository: %w", err)
	}

	// 4. Generate a fresh application, or update the existing one.
	// The repository is only created after generation succeeded, so a
	// failed first round leaves nothing behind.
	var files domain.FileSet
	if task.Round == 1 || ref == nil {
		files, err = p.synthesizer.Generate(ctx, task, attachments)
		if err != nil {
			return fmt.Errorf("generate application: %w", err)
		}
		if ref == nil {
			ref, err = p.host.Ensure(ctx, name, "Application for task: "+task.Task)
			if err != nil {
				return fmt.Errorf("create repository: %w", err)
			}
		}
	} else {
		existing, filesErr := p.host.Files(ctx, ref)
		if filesErr != nil {
			logger.Warn("Fetch existing files for %s: %v", ref.FullName, filesErr)
			existing = domain.FileSet{}
		}
		files, err = p.synthesizer.Update(ctx, task, existing, attachments)
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}
	}

	// 5. Publish the file set as one commit
	files.SetRound(task.Round)
	commit, err := p.host.Publish(ctx, ref, files)
	if err != nil {
		return fmt.Errorf("publish files: %w", err)
	}
	logger.Info("Published %d files to %s at %s", len(files.Paths()), ref.FullName, commit.SHA)

	// 6. Enable static hosting. Best-effort: the site URL is derived
	// from account and repository name either way.
	if err := p.host.EnablePages(ctx, ref); err != nil {
		logger.Warn("Enable pages for %s: %v", ref.FullName, err)
	}
	pagesURL := p.host.PagesURL(ref)

	// 7. Give the host a moment to provision the site
	if err := wait(ctx, p.config.SettleDelay); err != nil {
		return err
	}

	// 8. Confirm reachability, then notify the evaluator. The
	// notification is sent whether or not the site answered in time.
	notification := task.Notification(ref.URL, commit.SHA, pagesURL)
	reachable := p.confirmer.AwaitReachable(ctx, pagesURL, p.config.ReachabilityWait)
	if !reachable {
		logger.Warn("Notifying evaluator although %s never answered", pagesURL)
	}
	if err := p.confirmer.Notify(ctx, task.EvaluationURL, notification); err != nil {
		return fmt.Errorf("notify evaluator: %w", err)
	}
	return nil
}

// lockRepository acquires the per-repository lock, creating it on first
// use, and returns the release function.
func (p *BuildPipeline) lockRepository(name string) func() {
	p.mu.Lock()
	lock, ok := p.repoLocks[name]
	if !ok {
		lock = &sync.Mutex{}
		p.repoLocks[name] = lock
	}
	p.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (p *BuildPipeline) clearRun(runID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, runID)
}
