package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/tvbatch/pkg/logger"
)

// scheduleParser accepts 6-field expressions (with seconds) and descriptors like @daily
var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler manages scheduled jobs
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron      *cron.Cron
	logger    *logger.Logger
	jobs      map[string]Job
	entries   map[string]cron.EntryID
	schedules map[string]cron.Schedule
	history   map[string]*JobHistory
	mu        sync.RWMutex

	// ctx is cancelled by Stop so running jobs wind down
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Retry configuration
	maxRetries int
	retryDelay time.Duration
}

// New creates a new scheduler
func New(log *logger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(cron.WithParser(scheduleParser)),
		logger:     log,
		jobs:       make(map[string]Job),
		entries:    make(map[string]cron.EntryID),
		schedules:  make(map[string]cron.Schedule),
		history:    make(map[string]*JobHistory),
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: 3,
		retryDelay: 1 * time.Minute,
	}
}

// WithRetry overrides the retry policy (maxRetries extra attempts, delay between them)
func (s *Scheduler) WithRetry(maxRetries int, delay time.Duration) *Scheduler {
	s.maxRetries = maxRetries
	s.retryDelay = delay
	return s
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobName := job.Name()

	if _, exists := s.jobs[jobName]; exists {
		return fmt.Errorf("job %s already exists", jobName)
	}

	schedule, err := scheduleParser.Parse(job.Schedule())
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", jobName, err)
	}
	id := s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.runJob(job)
	}))

	s.jobs[jobName] = job
	s.entries[jobName] = id
	s.schedules[jobName] = schedule
	s.history[jobName] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      jobName,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob removes a job from the scheduler; its history is kept
func (s *Scheduler) RemoveJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobName]; !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	s.cron.Remove(s.entries[jobName])
	delete(s.jobs, jobName)
	delete(s.entries, jobName)
	delete(s.schedules, jobName)
	s.logger.WithField("job", jobName).Info("Job removed from scheduler")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop stops the scheduler, cancels running jobs and waits for them.
// cron.Stop covers scheduled activations; wg covers RunJob.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// NextRun returns the next activation time of a job.
// Computed from the schedule, so it is valid before Start.
func (s *Scheduler) NextRun(jobName string) (time.Time, error) {
	s.mu.RLock()
	schedule, exists := s.schedules[jobName]
	s.mu.RUnlock()

	if !exists {
		return time.Time{}, fmt.Errorf("job %s not found", jobName)
	}
	return schedule.Next(time.Now()), nil
}

// RunJob runs a specific job immediately (outside of schedule)
func (s *Scheduler) RunJob(jobName string) error {
	s.mu.RLock()
	job, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(job)
	}()
	return nil
}

// runJob executes a job with retry logic
func (s *Scheduler) runJob(job Job) {
	jobName := job.Name()
	startTime := time.Now()
	log := s.logger.WithField("job", jobName)

	log.Info("Job started")

	var lastErr error
	var success, skipped bool
	attempts := 0

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		attempts++
		err := job.Run(s.ctx)
		if err == nil {
			success = true
			break
		}

		lastErr = err
		if errors.Is(err, ErrSkipped) {
			skipped = true
			break
		}
		if s.ctx.Err() != nil {
			break
		}

		log.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"error":   err.Error(),
		}).Warn("Job execution failed, retrying")

		// Wait before retry (except on last attempt)
		if attempt < s.maxRetries {
			select {
			case <-s.ctx.Done():
			case <-time.After(s.retryDelay):
			}
		}
	}

	endTime := time.Now()
	duration := endTime.Sub(startTime)

	result := JobResult{
		JobName:   jobName,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  duration,
		Attempts:  attempts,
		Success:   success,
		Skipped:   skipped,
	}
	if !success && lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	if history, exists := s.history[jobName]; exists {
		history.AddResult(result)
	}
	s.mu.Unlock()

	switch {
	case success:
		log.WithField("duration", duration).Info("Job completed successfully")
	case skipped:
		log.WithField("reason", lastErr.Error()).Info("Job skipped")
	default:
		log.WithFields(map[string]interface{}{
			"duration": duration,
			"error":    lastErr.Error(),
		}).Error("Job failed after all retries")
	}
}

// GetJobHistory returns a copy of the history for a specific job
func (s *Scheduler) GetJobHistory(jobName string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.history[jobName]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}

	return &JobHistory{Results: append([]JobResult(nil), history.Results...)}, nil
}

// GetAllJobs returns all registered jobs, sorted by name
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.jobs))
	for jobName := range s.jobs {
		jobs = append(jobs, jobName)
	}
	sort.Strings(jobs)

	return jobs
}

// GetJobStats returns statistics for all registered jobs
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats)

	for jobName, job := range s.jobs {
		history := s.history[jobName]
		latestResults := history.GetLatestResults(10)
		failedResults := history.GetFailedResults()

		var lastRun *time.Time
		var lastSuccess *time.Time
		var lastFailure *time.Time

		if len(latestResults) > 0 {
			lastResult := latestResults[len(latestResults)-1]
			lastRun = &lastResult.StartTime

			if lastResult.Success {
				lastSuccess = &lastResult.StartTime
			} else if !lastResult.Skipped {
				lastFailure = &lastResult.StartTime
			}
		}

		skipped := 0
		for _, r := range history.Results {
			if r.Skipped {
				skipped++
			}
		}

		stats[jobName] = JobStats{
			JobName:      jobName,
			Schedule:     job.Schedule(),
			TotalRuns:    len(history.Results),
			SuccessCount: len(history.Results) - len(failedResults) - skipped,
			FailureCount: len(failedResults),
			SkippedCount: skipped,
			SuccessRate:  history.GetSuccessRate(),
			LastRun:      lastRun,
			LastSuccess:  lastSuccess,
			LastFailure:  lastFailure,
		}
	}

	return stats
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SkippedCount int        `json:"skipped_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}
