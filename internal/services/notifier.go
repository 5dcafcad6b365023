package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"immitrack/internal/models"
)

// Notifier delivers completion notices and deadline digests.
type Notifier interface {
	TaskCompleted(ctx context.Context, task models.Task) error
	Digest(ctx context.Context, d Digest) error
}

type DigestItem struct {
	Task          models.Task
	DaysRemaining int
}

type Digest struct {
	GeneratedAt time.Time
	HorizonDays int
	Late        []DigestItem
	Upcoming    []DigestItem
	Stats       models.Stats
}

func (d Digest) Empty() bool {
	return len(d.Late) == 0 && len(d.Upcoming) == 0
}

// BuildDigest lists incomplete tasks that are past due or due within horizonDays.
func BuildDigest(tasks []models.Task, now time.Time, horizonDays int, fundsTaskID string) Digest {
	d := Digest{
		GeneratedAt: now,
		HorizonDays: horizonDays,
		Late:        []DigestItem{},
		Upcoming:    []DigestItem{},
		Stats:       ComputeStats(tasks, fundsTaskID),
	}
	for _, t := range tasks {
		if t.Complete() {
			continue
		}
		days, ok := t.DaysRemaining(now)
		if !ok {
			continue
		}
		item := DigestItem{Task: t, DaysRemaining: days}
		switch {
		case days < 0:
			d.Late = append(d.Late, item)
		case days <= horizonDays:
			d.Upcoming = append(d.Upcoming, item)
		}
	}
	byDays := func(items []DigestItem) {
		sort.SliceStable(items, func(i, j int) bool { return items[i].DaysRemaining < items[j].DaysRemaining })
	}
	byDays(d.Late)
	byDays(d.Upcoming)
	return d
}

// MultiNotifier fans out to every notifier; one failing doesn't stop the others.
type MultiNotifier []Notifier

func (m MultiNotifier) TaskCompleted(ctx context.Context, task models.Task) error {
	var errs []error
	for _, n := range m {
		if err := n.TaskCompleted(ctx, task); err != nil {
			log.Printf("[notify][completed][err] id=%s: %v", task.ID, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiNotifier) Digest(ctx context.Context, d Digest) error {
	var errs []error
	for _, n := range m {
		if err := n.Digest(ctx, d); err != nil {
			log.Printf("[notify][digest][err] %v", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func deadlineLabel(t models.Task) string {
	if t.Deadline == "" {
		return "—"
	}
	if t.IsDateTentative {
		return "~" + t.Deadline
	}
	return t.Deadline
}
