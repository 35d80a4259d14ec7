package feed

import (
	"context"
	"fmt"
	"sync"

	"cryptoalert/api"
)

// MonitoringAPI is the alert job part of the backend. *api.Client
// implements it.
type MonitoringAPI interface {
	MonitoringStatus(ctx context.Context) (*api.MonitoringStatus, error)
	StartMonitoring(ctx context.Context) error
	StopMonitoring(ctx context.Context) error
}

// Monitor tracks the last known state of the backend alert job.
type Monitor struct {
	api MonitoringAPI

	mu     sync.Mutex
	active bool
	known  bool
}

func NewMonitor(backend MonitoringAPI) *Monitor {
	return &Monitor{api: backend}
}

// Check asks the backend whether alerting is running.
func (m *Monitor) Check(ctx context.Context) (bool, error) {
	status, err := m.api.MonitoringStatus(ctx)
	if err != nil {
		return false, fmt.Errorf("monitoring status: %w", err)
	}

	m.mu.Lock()
	m.active, m.known = status.Active, true
	m.mu.Unlock()
	return status.Active, nil
}

// Toggle starts the job when it is not known to run, stops it otherwise.
func (m *Monitor) Toggle(ctx context.Context) (bool, error) {
	m.mu.Lock()
	active := m.active && m.known
	m.mu.Unlock()

	if active {
		if err := m.api.StopMonitoring(ctx); err != nil {
			return true, fmt.Errorf("stop monitoring: %w", err)
		}
	} else {
		if err := m.api.StartMonitoring(ctx); err != nil {
			return false, fmt.Errorf("start monitoring: %w", err)
		}
	}

	m.mu.Lock()
	m.active, m.known = !active, true
	m.mu.Unlock()
	return !active, nil
}
