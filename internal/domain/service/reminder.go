package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/domain"
	"github.com/diegoclair/course-reminder-bot/internal/domain/contract"
	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
	"github.com/diegoclair/course-reminder-bot/internal/metrics"
	apperrors "github.com/diegoclair/course-reminder-bot/pkg/errors"
)

// RegistryOptions carries the scheduling settings from config.
type RegistryOptions struct {
	Location        *time.Location
	DailySpec       string
	DeliveryTimeout time.Duration
}

// oneShot is a cron.Schedule that activates exactly once.
type oneShot struct {
	at time.Time
}

func (o oneShot) Next(t time.Time) time.Time {
	if o.at.After(t) {
		return o.at
	}
	return time.Time{}
}

type registration struct {
	entryID cron.EntryID
	token   uint64
	job     entity.ReminderJob
}

type reminderRegistry struct {
	mu          sync.Mutex
	cron        *cron.Cron
	opts        RegistryOptions
	messenger   contract.Messenger
	broadcaster contract.BroadcastService
	entries     map[string]registration
	dailyID     cron.EntryID
	hasDaily    bool
	seq         uint64
	running     bool
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

func newReminderRegistry(messenger contract.Messenger, opts RegistryOptions, m *metrics.Metrics, logger *zap.Logger) *reminderRegistry {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.DailySpec == "" {
		opts.DailySpec = domain.DefaultDailySpec
	}

	r := &reminderRegistry{
		opts:      opts,
		messenger: messenger,
		entries:   make(map[string]registration),
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
	r.cron = r.newCron()
	return r
}

// SetBroadcaster wires the daily job to the broadcast driver.
func (r *reminderRegistry) SetBroadcaster(b contract.BroadcastService) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcaster = b
}

func (r *reminderRegistry) newCron() *cron.Cron {
	cl := cronLogger{r.logger.Sugar()}
	return cron.New(
		cron.WithLocation(r.opts.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)
}

// Schedule registers a one-shot reminder for the subscriber. A pending job
// with the same id is replaced. Fire times that are not after now are
// rejected with ErrPastDue.
func (r *reminderRegistry) Schedule(subscriber *entity.Subscriber, fireAt time.Time, reminderTime, text string) (entity.ReminderJob, error) {
	if !fireAt.After(r.now()) {
		return entity.ReminderJob{}, apperrors.ErrPastDue
	}

	job := entity.ReminderJob{
		ID:     entity.ReminderJobID(subscriber.UserID, reminderTime),
		UserID: subscriber.UserID,
		Target: subscriber.DeliveryTarget,
		FireAt: fireAt,
		Text:   text,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.entries[job.ID]; ok {
		r.cron.Remove(prev.entryID)
		delete(r.entries, job.ID)
	}

	r.seq++
	token := r.seq
	entryID := r.cron.Schedule(oneShot{at: fireAt}, cron.FuncJob(func() {
		r.fire(job.ID, token)
	}))
	r.entries[job.ID] = registration{entryID: entryID, token: token, job: job}
	r.updatePending()

	r.logger.Info("reminder scheduled",
		zap.String("job_id", job.ID),
		zap.Time("fire_at", fireAt))

	return job, nil
}

// fire delivers a reminder and retires it. A job that was replaced or
// dropped since it was scheduled is ignored.
func (r *reminderRegistry) fire(jobID string, token uint64) {
	r.mu.Lock()
	reg, ok := r.entries[jobID]
	r.mu.Unlock()
	if !ok || reg.token != token {
		return
	}

	ctx, cancel := withTimeout(context.Background(), r.opts.DeliveryTimeout)
	err := r.messenger.SendText(ctx, reg.job.Target, reg.job.Text)
	cancel()

	if err != nil {
		r.metrics.RemindersFired.WithLabelValues(metrics.ResultFailed).Inc()
		r.logger.Error("failed to deliver reminder", zap.String("job_id", jobID), zap.Error(err))
	} else {
		r.metrics.RemindersFired.WithLabelValues(metrics.ResultSucceeded).Inc()
		r.logger.Info("reminder delivered", zap.String("job_id", jobID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entries[jobID]; ok && cur.token == token {
		r.cron.Remove(cur.entryID)
		delete(r.entries, jobID)
		r.updatePending()
	}
}

// CancelUser drops every pending reminder of the user and returns how many
// were dropped.
func (r *reminderRegistry) CancelUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for id, reg := range r.entries {
		if reg.job.UserID != userID {
			continue
		}
		r.cron.Remove(reg.entryID)
		delete(r.entries, id)
		dropped++
	}

	if dropped > 0 {
		r.updatePending()
		r.logger.Info("reminders cancelled", zap.String("user_id", userID), zap.Int("count", dropped))
	}
	return dropped
}

// List returns the pending reminders ordered by fire time, then id.
func (r *reminderRegistry) List() []entity.ReminderJob {
	r.mu.Lock()
	jobs := make([]entity.ReminderJob, 0, len(r.entries))
	for _, reg := range r.entries {
		jobs = append(jobs, reg.job)
	}
	r.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].FireAt.Equal(jobs[j].FireAt) {
			return jobs[i].FireAt.Before(jobs[j].FireAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
	return jobs
}

// NextDaily reports when the daily broadcast runs next.
func (r *reminderRegistry) NextDaily() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running || !r.hasDaily {
		return time.Time{}, false
	}
	next := r.cron.Entry(r.dailyID).Next
	return next, !next.IsZero()
}

// Start runs the scheduler and makes sure the daily broadcast is
// registered. Calling it on a running registry does nothing.
func (r *reminderRegistry) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}

	now := r.now()
	for id, reg := range r.entries {
		if !reg.job.FireAt.After(now) {
			r.cron.Remove(reg.entryID)
			delete(r.entries, id)
		}
	}

	if !r.hasDaily {
		id, err := r.cron.AddFunc(r.opts.DailySpec, r.runDaily)
		if err != nil {
			return fmt.Errorf("failed to add daily job %s: %w", domain.DailyBroadcastJobID, err)
		}
		r.dailyID = id
		r.hasDaily = true
	}

	r.cron.Start()
	r.running = true
	r.updatePending()

	r.logger.Info("scheduler started",
		zap.String("daily_spec", r.opts.DailySpec),
		zap.String("timezone", r.opts.Location.String()))
	return nil
}

// Stop halts the scheduler and drops every job, pending reminders included.
func (r *reminderRegistry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		r.cron.Stop()
	}
	r.cron = r.newCron()
	r.entries = make(map[string]registration)
	r.hasDaily = false
	r.running = false
	r.updatePending()

	r.logger.Info("scheduler stopped")
}

func (r *reminderRegistry) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *reminderRegistry) runDaily() {
	r.mu.Lock()
	b := r.broadcaster
	r.mu.Unlock()

	if b == nil {
		r.logger.Warn("daily job fired without a broadcaster", zap.String("job_id", domain.DailyBroadcastJobID))
		return
	}

	if _, err := b.Run(context.Background()); err != nil {
		r.logger.Error("daily broadcast failed", zap.Error(err))
	}
}

// updatePending must be called with r.mu held.
func (r *reminderRegistry) updatePending() {
	r.metrics.ReminderJobsPending.Set(float64(len(r.entries)))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
