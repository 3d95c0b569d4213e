// Package jobs runs floord's periodic work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gastroflow/ledger/product"
)

// AlertSource is the ledger read the stock sweep needs.
type AlertSource interface {
	StockAlerts(ctx context.Context, tenantID string) ([]*product.Product, error)
}

// Alert summarizes one tenant's stock alerts from a sweep.
type Alert struct {
	TenantID string
	Low      []string
	Out      []string
}

// Scheduler owns the cron runner and the registered jobs.
type Scheduler struct {
	cron    *cron.Cron
	source  AlertSource
	tenants []string
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	running bool
	last    []Alert
}

// NewScheduler creates a scheduler sweeping tenants for stock alerts.
func NewScheduler(source AlertSource, tenants []string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		source:  source,
		tenants: tenants,
		logger:  logger,
		timeout: time.Minute,
	}
}

// ScheduleStockSweep registers the sweep under spec, a standard five-field
// cron expression or a descriptor such as "@every 15m".
func (s *Scheduler) ScheduleStockSweep(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.SweepStock(ctx)
	}); err != nil {
		return fmt.Errorf("jobs: schedule stock sweep %q: %w", spec, err)
	}
	s.logger.Info("jobs: stock sweep scheduled", "spec", spec, "tenants", len(s.tenants))
	return nil
}

// Start runs the cron loop in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop halts scheduling and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("jobs: stopped before running jobs finished")
	}
}

// SweepStock reads the stock alerts of every tenant and logs those that
// have any. A failing tenant is logged and skipped.
func (s *Scheduler) SweepStock(ctx context.Context) []Alert {
	var alerts []Alert
	for _, tenantID := range s.tenants {
		products, err := s.source.StockAlerts(ctx, tenantID)
		if err != nil {
			s.logger.Error("jobs: stock sweep failed", "tenant_id", tenantID, "error", err)
			continue
		}
		if len(products) == 0 {
			continue
		}
		a := Alert{TenantID: tenantID}
		for _, p := range products {
			if p.StockState() == product.StockOut {
				a.Out = append(a.Out, p.Name)
			} else {
				a.Low = append(a.Low, p.Name)
			}
		}
		s.logger.Warn("jobs: stock alerts",
			"tenant_id", tenantID,
			"low", a.Low,
			"out", a.Out,
		)
		alerts = append(alerts, a)
	}

	s.mu.Lock()
	s.last = alerts
	s.mu.Unlock()
	return alerts
}

// LastSweep returns the result of the most recent stock sweep.
func (s *Scheduler) LastSweep() []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
