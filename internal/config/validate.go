package config

import (
	"errors"
	"fmt"

	"clipseek/internal/models"
)

// Validate checks that every field the commands rely on is usable. The API
// key is checked separately by commands that actually talk to the provider,
// so offline commands (videos, cost) work without one.
func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return errors.New("provider.base_url is required")
	}
	if c.Provider.Timeout <= 0 {
		return errors.New("provider.timeout must be positive")
	}
	if c.Index.Name == "" {
		return errors.New("index.name is required")
	}
	if c.Registry.Path == "" {
		return errors.New("registry.path is required")
	}

	if c.Polling.Interval <= 0 {
		return errors.New("polling.interval must be positive")
	}
	if c.Polling.MaxWait < c.Polling.Interval {
		return fmt.Errorf("polling.max_wait (%s) must be at least polling.interval (%s)",
			c.Polling.MaxWait, c.Polling.Interval)
	}
	if c.Polling.TransientRetries < 0 {
		return errors.New("polling.transient_retries must be non-negative")
	}

	if c.Search.DefaultLimit <= 0 {
		return errors.New("search.default_limit must be positive")
	}
	if tier := models.NormalizeConfidence(c.Search.Threshold); tier == models.ConfidenceNone {
		return fmt.Errorf("search.threshold %q is not one of high, medium, low", c.Search.Threshold)
	}

	if c.Cost.VideoPerMinute < 0 || c.Cost.SearchPerQuery < 0 {
		return errors.New("cost rates must be non-negative")
	}

	if c.Worker.Concurrency <= 0 {
		return errors.New("worker.concurrency must be a positive integer")
	}
	for name, priority := range c.Worker.Queues {
		if name == "" {
			return errors.New("worker.queues contains an empty queue name")
		}
		if priority <= 0 {
			return fmt.Errorf("worker.queues priority for queue '%s' must be positive", name)
		}
	}

	return nil
}
