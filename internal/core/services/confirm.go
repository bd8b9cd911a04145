package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/domain"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/core/ports/driven"
	"github.com/Srivastava-Shrestha/AIDeployer/internal/logger"
)

// Confirmation defaults.
const (
	// DefaultPollInterval is the fixed pause between reachability
	// probes.
	DefaultPollInterval = 5 * time.Second

	// DefaultNotifyAttempts is how many deliveries are made before a
	// notification is dead-lettered.
	DefaultNotifyAttempts = 5

	// DefaultNotifyBackoff is the wait before the first redelivery.
	DefaultNotifyBackoff = 1 * time.Second

	// DefaultNotifyBackoffCap bounds the growing redelivery wait.
	DefaultNotifyBackoffCap = 8 * time.Second
)

// ConfirmConfig holds tuning for deployment confirmation.
type ConfirmConfig struct {
	// PollInterval is the pause between reachability probes.
	PollInterval time.Duration

	// NotifyAttempts is the delivery bound for one notification.
	NotifyAttempts int

	// NotifyBackoff is the wait before the first redelivery. It
	// doubles after each failure.
	NotifyBackoff time.Duration

	// NotifyBackoffCap bounds the doubled wait.
	NotifyBackoffCap time.Duration
}

// DefaultConfirmConfig returns the stock confirmation tuning.
func DefaultConfirmConfig() ConfirmConfig {
	return ConfirmConfig{
		PollInterval:     DefaultPollInterval,
		NotifyAttempts:   DefaultNotifyAttempts,
		NotifyBackoff:    DefaultNotifyBackoff,
		NotifyBackoffCap: DefaultNotifyBackoffCap,
	}
}

// DeploymentConfirmer observes a published site and reports the outcome
// to the evaluator. Reachability is advisory: an unreachable site is a
// reportable result, not a failure. Notification delivery is retried,
// and a delivery that exhausts every attempt is recorded as a dead
// letter so it can be redelivered later.
type DeploymentConfirmer struct {
	prober   driven.SiteProber
	notifier driven.EvaluationNotifier
	letters  driven.DeadLetterStore
	config   ConfirmConfig
}

// NewDeploymentConfirmer creates a confirmer. Zero config fields fall
// back to defaults.
func NewDeploymentConfirmer(
	prober driven.SiteProber,
	notifier driven.EvaluationNotifier,
	letters driven.DeadLetterStore,
	config ConfirmConfig,
) *DeploymentConfirmer {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.NotifyAttempts <= 0 {
		config.NotifyAttempts = DefaultNotifyAttempts
	}
	if config.NotifyBackoff <= 0 {
		config.NotifyBackoff = DefaultNotifyBackoff
	}
	if config.NotifyBackoffCap <= 0 {
		config.NotifyBackoffCap = DefaultNotifyBackoffCap
	}
	return &DeploymentConfirmer{
		prober:   prober,
		notifier: notifier,
		letters:  letters,
		config:   config,
	}
}

// AwaitReachable polls the site at the fixed interval until a probe
// succeeds or the wait budget elapses. Returns true only when a probe
// succeeded; it never returns an error.
func (c *DeploymentConfirmer) AwaitReachable(ctx context.Context, url string, maxWait time.Duration) bool {
	deadline := time.Now().Add(maxWait)

	for time.Now().Before(deadline) {
		err := c.prober.Probe(ctx, url)
		if err == nil {
			logger.Info("Site %s is reachable", url)
			return true
		}
		logger.Debug("Site %s not reachable yet: %v", url, err)

		if err := wait(ctx, c.config.PollInterval); err != nil {
			return false
		}
	}

	logger.Warn("Site %s was not reachable within %s", url, maxWait)
	return false
}

// Notify delivers the completion payload, resending the identical
// payload with exponential backoff on failure. Exhausting every
// attempt records a dead letter and returns domain.ErrNotifyFailed.
func (c *DeploymentConfirmer) Notify(ctx context.Context, endpoint string, n domain.EvaluationNotification) error {
	backoff := c.config.NotifyBackoff
	attempts := 0
	var lastErr error

	for attempts < c.config.NotifyAttempts {
		attempts++
		err := c.notifier.Notify(ctx, endpoint, n)
		if err == nil {
			logger.Info("Evaluation notification delivered for task %s round %d", n.Task, n.Round)
			return nil
		}
		lastErr = err
		logger.Warn("Notify attempt %d/%d for task %s failed: %v", attempts, c.config.NotifyAttempts, n.Task, err)

		if attempts == c.config.NotifyAttempts {
			break
		}
		if err := wait(ctx, backoff); err != nil {
			lastErr = err
			break
		}
		backoff *= 2
		if backoff > c.config.NotifyBackoffCap {
			backoff = c.config.NotifyBackoffCap
		}
	}

	c.recordDeadLetter(endpoint, n, attempts, lastErr)
	return fmt.Errorf("%w: %w", domain.ErrNotifyFailed, lastErr)
}

// Redeliver makes one delivery attempt for a stored dead letter and
// removes it on success.
func (c *DeploymentConfirmer) Redeliver(ctx context.Context, id string) error {
	if c.letters == nil {
		return fmt.Errorf("no dead letter store configured")
	}

	letter, err := c.letters.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get dead letter: %w", err)
	}

	var n domain.EvaluationNotification
	if err := json.Unmarshal(letter.Payload, &n); err != nil {
		return fmt.Errorf("decode dead letter payload: %w", err)
	}

	if err := c.notifier.Notify(ctx, letter.Endpoint, n); err != nil {
		return fmt.Errorf("redeliver notification: %w", err)
	}

	if err := c.letters.Delete(ctx, letter.ID); err != nil {
		return fmt.Errorf("delete dead letter: %w", err)
	}
	logger.Info("Redelivered dead letter %s for task %s round %d", letter.ID, n.Task, n.Round)
	return nil
}

func (c *DeploymentConfirmer) recordDeadLetter(endpoint string, n domain.EvaluationNotification, attempts int, cause error) {
	if c.letters == nil {
		logger.Error("No dead letter store, notification for task %s round %d is lost: %v", n.Task, n.Round, cause)
		return
	}

	// The run context may already be cancelled; the record must still
	// land, so the store write gets its own context.
	ctx := context.Background()

	payload, err := json.Marshal(n)
	if err != nil {
		logger.Error("Marshal dead letter payload for task %s: %v", n.Task, err)
		return
	}

	letter := domain.DeadLetter{
		ID:        uuid.NewString(),
		Endpoint:  endpoint,
		Payload:   payload,
		Attempts:  attempts,
		LastError: cause.Error(),
		CreatedAt: time.Now().UTC(),
	}
	if err := c.letters.Save(ctx, letter); err != nil {
		logger.Error("Save dead letter for task %s: %v", n.Task, err)
		return
	}
	logger.Info("Recorded dead letter %s for task %s round %d", letter.ID, n.Task, n.Round)
}
