package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/yourname/moodlog/internal"
	"github.com/yourname/moodlog/internal/csvio"
	"github.com/yourname/moodlog/internal/history"
	"github.com/yourname/moodlog/internal/notify"
	"github.com/yourname/moodlog/internal/storage"
)

// EntryRequest is the body of POST and PUT /health.
type EntryRequest struct {
	ID       string          `json:"id"`
	Date     string          `json:"date"`
	Status   internal.Status `json:"status" validate:"omitempty,status"`
	Rating   int             `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Comment  string          `json:"comment"`
	Keywords []string        `json:"keywords"`
	Factor   string          `json:"factor"`
}

func ValidateEntryRequest(body *EntryRequest) error {
	if err := validate.Struct(body); err != nil {
		return fmt.Errorf("%v: %w", err, internal.ErrValidation)
	}
	return nil
}

type EntryService struct {
	entries    storage.EntryRepository
	notifier   notify.Notifier
	aggregator *history.Aggregator
	logger     internal.Logger
	now        func() time.Time

	idMu   sync.Mutex
	lastID int64
}

type EntryOption func(*EntryService)

func WithClock(now func() time.Time) EntryOption {
	return func(s *EntryService) { s.now = now }
}

func WithAggregator(a *history.Aggregator) EntryOption {
	return func(s *EntryService) { s.aggregator = a }
}

func NewEntryService(entries storage.EntryRepository, notifier notify.Notifier, logger internal.Logger, opts ...EntryOption) *EntryService {
	s := &EntryService{
		entries:    entries,
		notifier:   notifier,
		aggregator: history.New(logger),
		logger:     logger,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// nextID returns the current Unix milliseconds, bumped past the previous id
// so that two entries created in the same millisecond differ.
func (s *EntryService) nextID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return strconv.FormatInt(id, 10)
}

func (s *EntryService) List(ctx context.Context, userID string) ([]internal.HealthEntry, error) {
	return s.entries.ListEntries(ctx, userID)
}

// Create stores a new entry at the front of the user's collection and
// announces it. A missing date is stamped with the current time; any other
// date is stored as given and readers skip it if it does not parse.
func (s *EntryService) Create(ctx context.Context, userID string, req *EntryRequest) (*internal.HealthEntry, error) {
	date := req.Date
	if date == "" {
		date = internal.FormatISO(s.now())
	} else {
		s.warnUnparseableDate(userID, date)
	}

	entry := &internal.HealthEntry{
		ID:       s.nextID(),
		Date:     date,
		Status:   req.Status,
		Rating:   req.Rating,
		Comment:  req.Comment,
		Keywords: req.Keywords,
		Factor:   req.Factor,
		UserID:   userID,
	}
	if err := s.entries.AppendEntry(ctx, userID, entry); err != nil {
		return nil, err
	}
	s.notifier.NotifyEntry(*entry)
	return entry, nil
}

// Update replaces the entry with req.ID, or failing that the first one with
// the same date, and marks it edited.
func (s *EntryService) Update(ctx context.Context, userID string, req *EntryRequest) (*internal.HealthEntry, error) {
	if req.ID == "" {
		return nil, fmt.Errorf("entry id: %w", internal.ErrValidation)
	}
	s.warnUnparseableDate(userID, req.Date)
	entry := &internal.HealthEntry{
		ID:       req.ID,
		Date:     req.Date,
		Status:   req.Status,
		Rating:   req.Rating,
		Comment:  req.Comment,
		Keywords: req.Keywords,
		Factor:   req.Factor,
		UserID:   userID,
		Edited:   true,
		EditedAt: internal.FormatDisplayISO(s.now()),
	}
	if err := s.entries.UpdateEntry(ctx, userID, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *EntryService) warnUnparseableDate(userID, date string) {
	if date == "" {
		return
	}
	if _, err := internal.ParseTimestamp(date); err != nil {
		s.logger.Warnf("entry for %s has unparseable date %q, storing as given", userID, date)
	}
}

// Import merges the entries in csvText into the user's collection and
// reports how many rows were read.
func (s *EntryService) Import(ctx context.Context, userID, csvText string) (int, error) {
	parsed, err := csvio.Decode(csvText, s.now())
	if err != nil {
		return 0, err
	}
	for i := range parsed {
		parsed[i].UserID = userID
	}
	n, err := s.entries.MergeEntries(ctx, userID, parsed)
	if err != nil {
		return 0, err
	}
	s.logger.Infof("imported %d entries for user %s", n, userID)
	return n, nil
}

func (s *EntryService) Export(ctx context.Context, userID string) (string, error) {
	entries, err := s.entries.ListEntries(ctx, userID)
	if err != nil {
		return "", err
	}
	return csvio.Encode(entries), nil
}

const (
	ViewList     = "list"
	ViewCalendar = "calendar"
	ViewChart    = "chart"
)

type HistoryView struct {
	View      string
	Month     string
	PrevMonth string
	NextMonth string
	Days      []history.Day
	Calendar  []history.CalendarDay
	Points    []history.ChartPoint
}

// History builds one of the history views for month (YYYY-MM). The calendar
// and chart default to the current month; the list shows everything when no
// month is given.
func (s *EntryService) History(ctx context.Context, userID, view, month string) (*HistoryView, error) {
	if view == "" {
		view = ViewList
	}
	if view != ViewList && view != ViewCalendar && view != ViewChart {
		return nil, fmt.Errorf("view %q: %w", view, internal.ErrValidation)
	}
	if month == "" && view != ViewList {
		month = history.CurrentMonth(s.now())
	}

	out := &HistoryView{View: view, Month: month}
	if month != "" {
		var err error
		if out.PrevMonth, err = history.ShiftMonth(month, -1); err != nil {
			return nil, err
		}
		if out.NextMonth, err = history.ShiftMonth(month, 1); err != nil {
			return nil, err
		}
	}

	entries, err := s.entries.ListEntries(ctx, userID)
	if err != nil {
		s.logger.Warnf("history: listing entries for %s failed, showing none: %v", userID, err)
		entries = nil
	}

	switch view {
	case ViewCalendar:
		out.Calendar = s.aggregator.Calendar(entries, month)
	case ViewChart:
		out.Points = s.aggregator.Chart(entries, month)
	default:
		out.Days = s.aggregator.List(entries, month)
	}
	return out, nil
}
