package calendar

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"immitrack/internal/models"
)

// taskIDProperty is the private extended property linking an event to its task.
const taskIDProperty = "immitrack_task_id"

const (
	colorCritical = "11" // tomato
	colorDone     = "2"  // sage
)

// eventStore is the slice of the Calendar API the sync needs.
type eventStore interface {
	FindByTaskID(ctx context.Context, taskID string) (*gcal.Event, error)
	Insert(ctx context.Context, ev *gcal.Event) (*gcal.Event, error)
	Patch(ctx context.Context, eventID string, patch *gcal.Event) (*gcal.Event, error)
}

type SyncResult struct {
	Created   int
	Updated   int
	Unchanged int
	Skipped   int
}

// Syncer mirrors task deadlines as all-day calendar events.
type Syncer struct {
	store    eventStore
	timeZone string // IANA name stamped on event dates, empty for the calendar default
}

// NewSyncer authenticates with a service-account key file. The calendar must
// be shared with the service account's address.
func NewSyncer(ctx context.Context, credentialsFile, calendarID, timeZone string) (*Syncer, error) {
	if timeZone != "" {
		if _, err := time.LoadLocation(timeZone); err != nil {
			return nil, fmt.Errorf("calendar time zone %q: %w", timeZone, err)
		}
	}
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	cfg, err := google.JWTConfigFromJSON(b, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account key: %w", err)
	}
	srv, err := gcal.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Calendar client: %w", err)
	}
	return &Syncer{store: &googleStore{srv: srv, calendarID: calendarID}, timeZone: timeZone}, nil
}

// Sync creates or patches one event per dated task. Per-task failures are
// collected; the remaining tasks are still synced.
func (s *Syncer) Sync(ctx context.Context, tasks []models.Task) (SyncResult, error) {
	var res SyncResult
	var errs []error
	for _, t := range tasks {
		target, ok := EventFor(t)
		if ok && s.timeZone != "" {
			target.Start.TimeZone = s.timeZone
			target.End.TimeZone = s.timeZone
		}
		if !ok {
			res.Skipped++
			continue
		}
		existing, err := s.store.FindByTaskID(ctx, t.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("task %s: search: %w", t.ID, err))
			continue
		}
		if existing == nil {
			if _, err := s.store.Insert(ctx, target); err != nil {
				errs = append(errs, fmt.Errorf("task %s: insert: %w", t.ID, err))
				continue
			}
			res.Created++
			continue
		}
		patch := eventNeedsUpdate(existing, target)
		if patch == nil {
			res.Unchanged++
			continue
		}
		if _, err := s.store.Patch(ctx, existing.Id, patch); err != nil {
			errs = append(errs, fmt.Errorf("task %s: patch: %w", t.ID, err))
			continue
		}
		res.Updated++
	}
	log.Printf("[calendar][sync] created=%d updated=%d unchanged=%d skipped=%d errors=%d",
		res.Created, res.Updated, res.Unchanged, res.Skipped, len(errs))
	return res, errors.Join(errs...)
}

// EventFor converts a task into its all-day event. Tasks without a valid
// deadline have no event.
func EventFor(t models.Task) (*gcal.Event, bool) {
	day, err := t.DeadlineTime()
	if err != nil {
		return nil, false
	}
	summary := t.Title
	if t.Complete() {
		summary = "✔ " + summary
	}
	color := ""
	switch {
	case t.Complete():
		color = colorDone
	case t.Critical:
		color = colorCritical
	}
	return &gcal.Event{
		Summary:      summary,
		Description:  eventDescription(t),
		ColorId:      color,
		Transparency: "transparent",
		Start:        &gcal.EventDateTime{Date: day.Format(models.DateLayout)},
		End:          &gcal.EventDateTime{Date: day.AddDate(0, 0, 1).Format(models.DateLayout)},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{taskIDProperty: t.ID},
		},
	}, true
}

func eventDescription(t models.Task) string {
	var b strings.Builder
	b.WriteString(t.Description)
	if t.Details != "" {
		b.WriteString("\n\n" + t.Details)
	}
	if t.IsDateTentative {
		b.WriteString("\n\nDate à confirmer.")
	}
	if len(t.Subtasks) > 0 {
		b.WriteString("\n")
		for _, s := range t.Subtasks {
			box := "☐"
			if s.Completed {
				box = "☑"
			}
			b.WriteString("\n" + box + " " + s.Text)
		}
	}
	if t.Cost > 0 {
		b.WriteString("\n\nCoût : " + models.FormatCost(t.Cost))
	}
	return b.String()
}

// eventNeedsUpdate returns a patch with the fields that differ, or nil.
func eventNeedsUpdate(existing, target *gcal.Event) *gcal.Event {
	patch := &gcal.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		if target.ColorId == "" {
			patch.NullFields = append(patch.NullFields, "ColorId")
		}
		needsUpdate = true
	}
	if eventDate(existing.Start) != eventDate(target.Start) || eventDate(existing.End) != eventDate(target.End) {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch
	}
	return nil
}

func eventDate(d *gcal.EventDateTime) string {
	if d == nil {
		return ""
	}
	if d.Date != "" {
		return d.Date
	}
	if t, err := time.Parse(time.RFC3339, d.DateTime); err == nil {
		return t.Format(models.DateLayout)
	}
	return ""
}

type googleStore struct {
	srv        *gcal.Service
	calendarID string
}

func (g *googleStore) FindByTaskID(ctx context.Context, taskID string) (*gcal.Event, error) {
	events, err := g.srv.Events.List(g.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", taskIDProperty, taskID)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

func (g *googleStore) Insert(ctx context.Context, ev *gcal.Event) (*gcal.Event, error) {
	return g.srv.Events.Insert(g.calendarID, ev).Context(ctx).Do()
}

func (g *googleStore) Patch(ctx context.Context, eventID string, patch *gcal.Event) (*gcal.Event, error) {
	return g.srv.Events.Patch(g.calendarID, eventID, patch).Context(ctx).Do()
}
