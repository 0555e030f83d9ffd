package storage

import (
	"context"
	"testing"
)

func TestSchedulerEmptyScheduleIsNoop(t *testing.T) {
	p := NewPruner(NewMemoryStore(), &RetentionConfig{RetentionDays: 30}, nil)
	s := NewScheduler(p, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if s.IsRunning() {
		t.Error("IsRunning() = true with no schedule")
	}
}

func TestSchedulerInvalidSchedule(t *testing.T) {
	p := NewPruner(NewMemoryStore(), &RetentionConfig{PruneSchedule: "not a cron"}, nil)
	s := NewScheduler(p, nil)

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start() = nil error for invalid schedule")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	p := NewPruner(NewMemoryStore(), &RetentionConfig{PruneSchedule: "0 3 * * *"}, nil)
	s := NewScheduler(p, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if !s.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if s.NextRun() == nil {
		t.Error("NextRun() = nil while scheduled")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}
