// Package admin holds the oversight operations available only to
// administrator sessions.
package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vendhub/vendhub/internal/account"
	"github.com/vendhub/vendhub/internal/machine"
	"github.com/vendhub/vendhub/internal/machinelog"
)

// Statistic holds the global store counts. The three counts are independent
// reads; there is no snapshot guarantee across them.
type Statistic struct {
	MachineCount int `json:"machineCount"`
	UserCount    int `json:"userCount"`
	LogCount     int `json:"logCount"`
}

// Service provides admin oversight over users, machines, and logs.
type Service struct {
	users    account.UserRepository
	machines machine.Repository
	logs     machinelog.Repository
}

// NewService creates a new admin Service.
func NewService(users account.UserRepository, machines machine.Repository, logs machinelog.Repository) *Service {
	return &Service{users: users, machines: machines, logs: logs}
}

// GetStatistic returns the global machine, user, and log counts.
func (s *Service) GetStatistic(ctx context.Context) (*Statistic, error) {
	machineCount, err := s.machines.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting machines: %w", err)
	}
	userCount, err := s.users.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}
	logCount, err := s.logs.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting logs: %w", err)
	}

	return &Statistic{
		MachineCount: machineCount,
		UserCount:    userCount,
		LogCount:     logCount,
	}, nil
}

// DeleteMachine removes a machine and all of its logs. Logs go first: if
// the machine delete then fails, the system is left with a log-less machine
// rather than logs pointing at nothing. The log deletion is never rolled
// back.
func (s *Service) DeleteMachine(ctx context.Context, macID string) error {
	m, err := s.machines.GetByMacID(ctx, macID)
	if err != nil {
		return err
	}

	deleted, err := s.logs.DeleteByMacID(ctx, m.MacID)
	if err != nil {
		return err
	}

	if err := s.machines.DeleteByMacID(ctx, m.MacID); err != nil {
		slog.Error("machine delete failed after log deletion", "macId", macID, "logsDeleted", deleted, "error", err)
		return err
	}

	slog.Info("machine deleted", "macId", macID, "logsDeleted", deleted)
	return nil
}

// DeleteUser removes a user account by email.
func (s *Service) DeleteUser(ctx context.Context, email string) error {
	return s.users.DeleteByEmail(ctx, email)
}
