package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/parivartan/hub/internal/app/models"
	"github.com/parivartan/hub/internal/pkg/apperrors"
	"github.com/parivartan/hub/internal/pkg/dberrors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Policy decides what a failed collection fetch does to the bulk load.
type Policy string

const (
	// PolicyTolerant leaves a failed collection empty and loads the rest.
	PolicyTolerant Policy = "tolerant"
	// PolicyAllOrNothing aborts on the first failure and applies nothing.
	PolicyAllOrNothing Policy = "all_or_nothing"
)

// ParsePolicy defaults to PolicyTolerant.
func ParsePolicy(s string) Policy {
	if Policy(strings.ToLower(strings.TrimSpace(s))) == PolicyAllOrNothing {
		return PolicyAllOrNothing
	}
	return PolicyTolerant
}

// Sources has one fetch per collection. A nil source loads as empty.
type Sources struct {
	Users         func(ctx context.Context) ([]models.User, error)
	Posts         func(ctx context.Context) ([]models.Post, error)
	Comments      func(ctx context.Context) ([]models.Comment, error)
	Reactions     func(ctx context.Context) ([]models.Reaction, error)
	Announcements func(ctx context.Context) ([]models.Announcement, error)
	Achievements  func(ctx context.Context) ([]models.Achievement, error)
	Events        func(ctx context.Context) ([]models.Event, error)
	Attendees     func(ctx context.Context) ([]models.EventAttendee, error)
	Campaigns     func(ctx context.Context) ([]models.Campaign, error)
	Donors        func(ctx context.Context) ([]models.Donor, error)
	Chat          func(ctx context.Context) ([]models.ChatMessage, error)
	Tasks         func(ctx context.Context) ([]models.Task, error)
	Badges        func(ctx context.Context) ([]models.UserBadge, error)
	Slideshow     func(ctx context.Context) ([]models.SlideshowItem, error)
	Popup         func(ctx context.Context) (*models.PopupMessage, error)
}

// LoadReport describes the outcome of a bulk load.
type LoadReport struct {
	Failed      map[string]error
	SetupNeeded bool
}

// OK reports a load with no failed collection.
func (r *LoadReport) OK() bool {
	return len(r.Failed) == 0
}

// FailedCollections lists failed collection names, sorted.
func (r *LoadReport) FailedCollections() []string {
	names := make([]string, 0, len(r.Failed))
	for name := range r.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Loader populates a Store with one concurrent fetch per collection.
type Loader struct {
	sources Sources
	policy  Policy
	logger  zerolog.Logger
}

// NewLoader creates a Loader.
func NewLoader(sources Sources, policy Policy, logger zerolog.Logger) *Loader {
	return &Loader{sources: sources, policy: policy, logger: logger}
}

// Policy returns the configured load policy.
func (l *Loader) Policy() Policy {
	return l.policy
}

type fetchJob struct {
	name string
	run  func(ctx context.Context) error
}

func fetch[T any](name string, src func(context.Context) ([]T, error), dst *[]T) fetchJob {
	return fetchJob{name: name, run: func(ctx context.Context) error {
		if src == nil {
			return nil
		}
		items, err := src(ctx)
		if err != nil {
			return err
		}
		*dst = items
		return nil
	}}
}

func (l *Loader) jobs(data *Snapshot) []fetchJob {
	src := l.sources
	return []fetchJob{
		fetch("users", src.Users, &data.Users),
		fetch("posts", src.Posts, &data.Posts),
		fetch("comments", src.Comments, &data.Comments),
		fetch("reactions", src.Reactions, &data.Reactions),
		fetch("announcements", src.Announcements, &data.Announcements),
		fetch("achievements", src.Achievements, &data.Achievements),
		fetch("events", src.Events, &data.Events),
		fetch("attendees", src.Attendees, &data.Attendees),
		fetch("campaigns", src.Campaigns, &data.Campaigns),
		fetch("donors", src.Donors, &data.Donors),
		fetch("chat", src.Chat, &data.Chat),
		fetch("tasks", src.Tasks, &data.Tasks),
		fetch("badges", src.Badges, &data.Badges),
		fetch("slideshow", src.Slideshow, &data.Slideshow),
		{name: "popup", run: func(ctx context.Context) error {
			if src.Popup == nil {
				return nil
			}
			p, err := src.Popup(ctx)
			if err != nil {
				return err
			}
			data.Popup = p
			return nil
		}},
	}
}

// Load fetches every collection concurrently and applies the result to s.
//
// Under PolicyTolerant the returned error is always nil; failures are in the
// report and their collections are left empty. Under PolicyAllOrNothing the
// first failure cancels the remaining fetches, s keeps its previous content
// and the failure is returned.
func (l *Loader) Load(ctx context.Context, s *Store) (*LoadReport, error) {
	if l.policy == PolicyAllOrNothing {
		return l.loadAllOrNothing(ctx, s)
	}
	return l.loadTolerant(ctx, s), nil
}

func (l *Loader) loadTolerant(ctx context.Context, s *Store) *LoadReport {
	var data Snapshot
	report := &LoadReport{Failed: map[string]error{}}
	var mu sync.Mutex

	var g errgroup.Group
	for _, job := range l.jobs(&data) {
		g.Go(func() error {
			if err := job.run(ctx); err != nil {
				l.logger.Error().Err(err).Str("collection", job.name).Msg("Failed to load collection")
				mu.Lock()
				report.Failed[job.name] = err
				if isSchemaMissing(err) {
					report.SetupNeeded = true
				}
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	data.SetupNeeded = report.SetupNeeded
	s.replace(data)
	l.logger.Info().Int("failed", len(report.Failed)).Bool("setupNeeded", report.SetupNeeded).Msg("Domain store loaded")
	return report
}

func (l *Loader) loadAllOrNothing(ctx context.Context, s *Store) (*LoadReport, error) {
	var data Snapshot
	report := &LoadReport{Failed: map[string]error{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range l.jobs(&data) {
		g.Go(func() error {
			if err := job.run(gctx); err != nil {
				mu.Lock()
				report.Failed[job.name] = err
				mu.Unlock()
				return fmt.Errorf("loading %s: %w", job.name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		l.logger.Error().Err(err).Msg("Domain store load aborted")
		if isSchemaMissing(err) {
			report.SetupNeeded = true
			s.markSetupNeeded()
		}
		return report, err
	}

	s.replace(data)
	l.logger.Info().Msg("Domain store loaded")
	return report, nil
}

func isSchemaMissing(err error) bool {
	return errors.Is(err, apperrors.ErrSchemaMissing) || dberrors.IsSchemaMissing(err)
}
