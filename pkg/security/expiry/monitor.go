package expiry

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	securityTLS "mercator-hq/keyport/pkg/security/tls"
)

// Recorder receives the certificate's expiry time after every check.
type Recorder interface {
	SetCertificateExpiry(notAfter time.Time)
}

// Config configures a Monitor.
type Config struct {
	// Schedule is a cron expression, e.g. "0 6 * * *" or "@daily".
	Schedule string

	// WarnDays is how many days before expiry warnings start.
	WarnDays int
}

// Result is the outcome of a single check.
type Result struct {
	DaysUntilExpiry int
	Warning         string
}

// Monitor checks a certificate's expiry on a schedule.
type Monitor struct {
	cfg      Config
	leaf     *x509.Certificate
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewMonitor creates a monitor for leaf. recorder and logger may be nil.
func NewMonitor(cfg Config, leaf *x509.Certificate, recorder Recorder, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		cfg:      cfg,
		leaf:     leaf,
		recorder: recorder,
		logger:   logger.With("component", "certificate.expiry"),
		now:      time.Now,
		cron:     cron.New(),
	}
}

// Check evaluates the certificate once.
func (m *Monitor) Check() Result {
	days, warning := securityTLS.CheckCertificateExpiration(m.leaf, m.cfg.WarnDays, m.now())

	if m.recorder != nil {
		m.recorder.SetCertificateExpiry(m.leaf.NotAfter)
	}

	if warning != "" {
		m.logger.Warn(warning,
			"subject", m.leaf.Subject.String(),
			"not_after", m.leaf.NotAfter,
			"days_until_expiry", days,
		)
	} else {
		m.logger.Debug("certificate expiry checked",
			"subject", m.leaf.Subject.String(),
			"days_until_expiry", days,
		)
	}

	return Result{DaysUntilExpiry: days, Warning: warning}
}

// Start checks the certificate immediately and then on the configured
// schedule until ctx is done or Stop is called.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.leaf == nil {
		return errors.New("no certificate to monitor")
	}
	if m.running {
		return errors.New("expiry monitor already running")
	}

	// Validate cron expression
	if _, err := cron.ParseStandard(m.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", m.cfg.Schedule, err)
	}

	if _, err := m.cron.AddFunc(m.cfg.Schedule, func() { m.Check() }); err != nil {
		return fmt.Errorf("failed to schedule expiry check: %w", err)
	}

	m.Check()

	m.cron.Start()
	m.running = true

	m.logger.Info("certificate expiry monitor started",
		"schedule", m.cfg.Schedule,
		"warn_days", m.cfg.WarnDays,
	)

	// Wait for context cancellation in background
	go func() {
		<-ctx.Done()
		m.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running check to complete.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		<-m.cron.Stop().Done()
		m.running = false
		m.logger.Info("certificate expiry monitor stopped")
	}
}

// IsRunning returns true if the monitor is scheduled.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.running
}

// NextRun returns the next scheduled check, or nil when not scheduled.
func (m *Monitor) NextRun() *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.cron.Entries()
	if !m.running || len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
