package watcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/stockwatch/internal/domain/stock"
	apperrors "github.com/yanqian/stockwatch/pkg/errors"
)

func TestRunCycleNotifiesOnIncrease(t *testing.T) {
	source := &stubSource{payloads: []stock.AllData{
		{Gear: []stock.Item{{Name: "Trowel", Quantity: 2}}},
		{Gear: []stock.Item{{Name: "Trowel", Quantity: 5}}},
	}}
	notifier := &stubNotifier{}
	cue := &stubCue{}
	history := &stubHistory{}
	w := newWatcherUnderTest(source, PermissionGranted, notifier, cue, history)

	first, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	require.False(t, first.Baseline)
	require.Equal(t, 1, first.Notified)

	second, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, []stock.Change{{Category: stock.CategoryGear, Item: "Trowel", Previous: 2, Quantity: 5}}, second.Changes)
	require.Equal(t, 1, second.Notified)
	require.Len(t, notifier.sent, 2)
	require.Equal(t, "gear restocked", notifier.sent[1].Title)
	require.Equal(t, "Trowel: 5", notifier.sent[1].Body)
	require.Equal(t, 2, cue.plays)
	require.Len(t, history.events, 2)
	require.True(t, history.events[1].Notified)
}

func TestRunCycleFirstPayloadCountsFromZero(t *testing.T) {
	source := &stubSource{payloads: []stock.AllData{
		{Eggs: []stock.Item{{Name: "Bug Egg", Quantity: 3}}},
	}}
	notifier := &stubNotifier{}
	history := &stubHistory{}
	w := newWatcherUnderTest(source, PermissionGranted, notifier, &stubCue{}, history)

	res, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	require.False(t, res.Baseline)
	require.Equal(t, []stock.Change{{Category: stock.CategoryEggs, Item: "Bug Egg", Previous: 0, Quantity: 3}}, res.Changes)
	require.Equal(t, 1, res.Notified)
	require.Len(t, notifier.sent, 1)
	require.Equal(t, "Bug Egg: 3", notifier.sent[0].Body)
	require.Len(t, history.events, 1)
}

func TestRunCycleBaselineFirstCycleOptIn(t *testing.T) {
	source := &stubSource{payloads: []stock.AllData{
		{Gear: []stock.Item{{Name: "Trowel", Quantity: 2}}},
		{Gear: []stock.Item{{Name: "Trowel", Quantity: 5}}},
	}}
	notifier := &stubNotifier{}
	history := &stubHistory{}
	w := newWatcherUnderTest(source, PermissionGranted, notifier, nil, history)
	w.cfg.BaselineFirstCycle = true

	first, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	require.True(t, first.Baseline)
	require.Len(t, first.Changes, 1)
	require.Empty(t, notifier.sent)
	require.Empty(t, history.events)

	second, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	require.False(t, second.Baseline)
	require.Equal(t, 1, second.Notified)
	require.Equal(t, "Trowel: 5", notifier.sent[0].Body)
}

func TestRunCycleIdenticalPayloadReportsNothing(t *testing.T) {
	data := stock.AllData{Seeds: []stock.Item{{Name: "Carrot", Quantity: 10}}}
	source := &stubSource{payloads: []stock.AllData{data, data}}
	notifier := &stubNotifier{}
	w := newWatcherUnderTest(source, PermissionGranted, notifier, &stubCue{}, &stubHistory{})

	first, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Changes, 1)

	second, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	require.Empty(t, second.Changes)
	require.Len(t, notifier.sent, 1)
}

func TestRunCycleNewItemTriggersNotification(t *testing.T) {
	source := &stubSource{payloads: []stock.AllData{
		{Eggs: []stock.Item{{Name: "Common Egg", Quantity: 1}}},
		{Eggs: []stock.Item{{Name: "Common Egg", Quantity: 1}, {Name: "Bug Egg", Quantity: 3}}},
	}}
	notifier := &stubNotifier{}
	w := newWatcherUnderTest(source, PermissionGranted, notifier, nil, nil)

	_, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	res, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Notified)
	require.Len(t, notifier.sent, 2)
	require.Equal(t, "Bug Egg", notifier.sent[1].Change.Item)
	require.Equal(t, 0, notifier.sent[1].Change.Previous)
	require.Equal(t, 3, notifier.sent[1].Change.Quantity)
}

func TestRunCycleWithoutPermissionRecordsButDoesNotNotify(t *testing.T) {
	for _, state := range []PermissionState{PermissionUnrequested, PermissionDenied} {
		source := &stubSource{payloads: []stock.AllData{
			{Honey: []stock.Item{{Name: "Honey Comb", Quantity: 1}}},
			{Honey: []stock.Item{{Name: "Honey Comb", Quantity: 2}}},
		}}
		notifier := &stubNotifier{}
		cue := &stubCue{}
		history := &stubHistory{}
		w := newWatcherUnderTest(source, state, notifier, cue, history)

		_, _ = w.RunCycle(context.Background())
		res, err := w.RunCycle(context.Background())
		require.NoError(t, err)
		require.Len(t, res.Changes, 1)
		require.Zero(t, res.Notified)
		require.Empty(t, notifier.sent)
		require.Zero(t, cue.plays)
		require.Len(t, history.events, 2)
		require.False(t, history.events[0].Notified)
		require.False(t, history.events[1].Notified)
	}
}

func TestRunCycleMissingCategoryNeverNotifies(t *testing.T) {
	source := &stubSource{payloads: []stock.AllData{
		{Gear: []stock.Item{{Name: "Trowel", Quantity: 2}}},
		{},
	}}
	notifier := &stubNotifier{}
	w := newWatcherUnderTest(source, PermissionGranted, notifier, nil, nil)

	_, _ = w.RunCycle(context.Background())
	res, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	require.Empty(t, res.Changes)
	require.Len(t, notifier.sent, 1)

	dash := w.Status().Dashboard
	require.NotNil(t, dash)
	require.True(t, dash.Sections[0].NoData)
	require.Equal(t, stock.NoDataText, dash.Sections[0].Placeholder)
}

func TestRunCycleFailureKeepsBaseline(t *testing.T) {
	upstreamErr := apperrors.Wrap(stock.CodeNetworkError, "upstream request failed", errors.New("connection refused"))
	source := &stubSource{
		payloads: []stock.AllData{
			{Gear: []stock.Item{{Name: "Trowel", Quantity: 2}}},
			{},
			{Gear: []stock.Item{{Name: "Trowel", Quantity: 3}}},
		},
		errs: map[int]error{1: upstreamErr},
	}
	notifier := &stubNotifier{}
	alerter := &stubAlerter{}
	w := newWatcherUnderTest(source, PermissionGranted, notifier, nil, nil)
	w.alerter = alerter

	_, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	before := w.Status().Dashboard

	_, err = w.RunCycle(context.Background())
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, stock.CodeNetworkError))
	require.Len(t, alerter.errs, 1)
	status := w.Status()
	require.Contains(t, status.LastError, "connection refused")
	require.Equal(t, before, status.Dashboard)

	res, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Changes[0].Previous)
	require.Empty(t, w.Status().LastError)
	require.EqualValues(t, 1, w.Status().Stats.Failed)
}

func TestRunCycleCueFailureIsSwallowed(t *testing.T) {
	source := &stubSource{payloads: []stock.AllData{
		{Gear: []stock.Item{{Name: "Trowel", Quantity: 2}}},
		{Gear: []stock.Item{{Name: "Trowel", Quantity: 4}}},
	}}
	cue := &stubCue{err: errors.New("no audio device")}
	w := newWatcherUnderTest(source, PermissionGranted, &stubNotifier{}, cue, nil)

	_, _ = w.RunCycle(context.Background())
	res, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Notified)
	require.Equal(t, 2, cue.plays)
}

func TestRunCycleSkipsWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	source := &blockingSource{started: started, release: release}
	w := newWatcherUnderTest(source, PermissionGranted, &stubNotifier{}, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := w.RunCycle(context.Background())
		done <- err
	}()
	<-started

	_, err := w.RunCycle(context.Background())
	require.ErrorIs(t, err, ErrCycleInFlight)

	close(release)
	require.NoError(t, <-done)
	require.EqualValues(t, 1, w.Status().Stats.Skipped)
	require.EqualValues(t, 1, w.Status().Stats.Succeeded)
}

func TestRunCycleArchivesRawPayload(t *testing.T) {
	source := &stubSource{payloads: []stock.AllData{{Gear: []stock.Item{{Name: "Trowel", Quantity: 2}}}}}
	archive := &stubArchive{}
	w := newWatcherUnderTest(source, PermissionGranted, nil, nil, nil)
	w.archive = archive

	_, err := w.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, archive.keys, 1)
	require.Equal(t, "alldata/2025-06-01/1748779200000.json", archive.keys[0])
}

func TestRunStopsOnCancel(t *testing.T) {
	source := &stubSource{payloads: []stock.AllData{{}}}
	w := newWatcherUnderTest(source, PermissionGranted, nil, nil, nil)
	w.cfg.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return w.Status().Stats.Succeeded == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func newWatcherUnderTest(source Source, state PermissionState, notifier Notifier, cue Cue, history HistoryStore) *Watcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := NewWatcher(Config{Interval: time.Second, SourceName: "test"}, source, stock.NewRenderer(""), NewPermission(state), nil, nil, nil, nil, logger)
	if notifier != nil {
		w.notifier = notifier
	}
	if cue != nil {
		w.cue = cue
	}
	if history != nil {
		w.history = history
	}
	w.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	w.newID = func() uuid.UUID { return uuid.MustParse("7f0c4a4e-2f7a-4ec0-9d53-5f4c0d8b2a11") }
	return w
}

type stubSource struct {
	mu       sync.Mutex
	payloads []stock.AllData
	errs     map[int]error
	calls    int
}

func (s *stubSource) FetchAllData(ctx context.Context) (stock.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	if err, ok := s.errs[idx]; ok {
		return stock.Payload{}, err
	}
	if idx >= len(s.payloads) {
		idx = len(s.payloads) - 1
	}
	return stock.Payload{Data: s.payloads[idx], Raw: []byte(`{}`)}, nil
}

type blockingSource struct {
	started chan struct{}
	release chan struct{}
}

func (s *blockingSource) FetchAllData(ctx context.Context) (stock.Payload, error) {
	close(s.started)
	<-s.release
	return stock.Payload{}, nil
}

type stubNotifier struct {
	sent []Notification
	err  error
}

func (s *stubNotifier) Notify(ctx context.Context, n Notification) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

type stubCue struct {
	plays int
	err   error
}

func (s *stubCue) Play(ctx context.Context) error {
	s.plays++
	return s.err
}

type stubAlerter struct {
	errs []error
}

func (s *stubAlerter) Alert(ctx context.Context, err error) {
	s.errs = append(s.errs, err)
}

type stubHistory struct {
	events []ChangeEvent
}

func (s *stubHistory) Append(ctx context.Context, events []ChangeEvent) error {
	s.events = append(s.events, events...)
	return nil
}

func (s *stubHistory) Recent(ctx context.Context, limit int) ([]ChangeEvent, error) {
	return s.events, nil
}

type stubArchive struct {
	keys []string
}

func (s *stubArchive) Put(ctx context.Context, key string, raw []byte) error {
	s.keys = append(s.keys, key)
	return nil
}
