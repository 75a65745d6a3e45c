package fleet

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sailboard/dashboard/internal/api"
	"github.com/sailboard/dashboard/internal/mode"
	"github.com/sailboard/dashboard/internal/transform"
	"github.com/sailboard/dashboard/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(imo string) (*core.StatisticsResponse, error)
}

func (f *fakeSource) ShipStatistics(_ context.Context, imo string, _ core.TimeWindow) (*core.StatisticsResponse, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[imo]++
	f.mu.Unlock()
	return f.fn(imo)
}

func withData(imo, name string) *core.StatisticsResponse {
	ws := 5.0
	return &core.StatisticsResponse{
		IMO:  imo,
		Name: name,
		Timed: []core.TimedResult{
			{Timestamp: 1741281633, SailData: []core.SailData{{WindSpeed: &ws}}},
			{Timestamp: 1741281693, SailData: []core.SailData{{WindSpeed: &ws}}},
		},
		Aggregated: core.ResultsAggregated{Avg: map[string]float64{"wind_speed": ws}},
	}
}

var abc = []Tracked{{IMO: "A", Name: "Alpha"}, {IMO: "B", Name: "Bravo"}, {IMO: "C", Name: "Charlie"}}

func newAssembler(t *testing.T, src Source, opts ...Option) *Assembler {
	t.Helper()
	a, err := New(src, transform.New(transform.WithSeed(1)), opts...)
	require.NoError(t, err)
	return a
}

func networkErr(imo string) error {
	return &api.NetworkError{Method: "GET", Path: "/data/ships/" + imo, Err: errors.New("connection refused")}
}

func TestGetFleet_PartialFailure(t *testing.T) {
	src := &fakeSource{fn: func(imo string) (*core.StatisticsResponse, error) {
		if imo == "B" {
			return nil, networkErr(imo)
		}
		return withData(imo, "Ship "+imo), nil
	}}
	a := newAssembler(t, src, WithTracked(abc))

	ships, err := a.GetFleet(context.Background(), mode.Live)
	require.NoError(t, err)
	require.Len(t, ships, 3)

	byID := map[string]core.Ship{}
	for _, s := range ships {
		byID[s.ID] = s
	}
	assert.True(t, byID["A"].HasData)
	assert.False(t, byID["B"].HasData)
	assert.True(t, byID["C"].HasData)
	assert.Equal(t, "Unknown", byID["B"].Status)
	assert.Equal(t, "Bravo", byID["B"].Name)

	// data-bearing first
	assert.False(t, ships[2].HasData)
}

func TestGetFleet_LengthAlwaysMatchesTracked(t *testing.T) {
	failures := []func(imo string) (*core.StatisticsResponse, error){
		func(imo string) (*core.StatisticsResponse, error) { return nil, errors.New("boom") },
		func(imo string) (*core.StatisticsResponse, error) { return &core.StatisticsResponse{IMO: imo}, nil },
		func(imo string) (*core.StatisticsResponse, error) { return nil, nil },
		func(imo string) (*core.StatisticsResponse, error) { panic("unexpected payload") },
		func(imo string) (*core.StatisticsResponse, error) {
			return &core.StatisticsResponse{IMO: imo, Name: "Empty"}, nil
		},
	}
	for i, fn := range failures {
		a := newAssembler(t, &fakeSource{fn: fn}, WithTracked(abc))
		ships, _ := a.GetFleet(context.Background(), mode.Live)
		require.Len(t, ships, len(abc), "case %d", i)

		ids := map[string]bool{}
		for _, s := range ships {
			assert.False(t, s.HasData, "case %d", i)
			ids[s.ID] = true
		}
		assert.Len(t, ids, len(abc), "ids must be unique, case %d", i)
	}
}

func TestGetFleet_WholeBatchUnavailable(t *testing.T) {
	src := &fakeSource{fn: func(imo string) (*core.StatisticsResponse, error) {
		return nil, networkErr(imo)
	}}
	a := newAssembler(t, src, WithTracked(abc))

	ships, err := a.GetFleet(context.Background(), mode.Live)
	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 3, ue.Attempted)
	assert.Contains(t, ue.UserMessage(), "mock mode")
	assert.Len(t, ships, 3)
	assert.True(t, api.IsNetwork(err))
}

func TestGetFleet_AllServerErrors(t *testing.T) {
	src := &fakeSource{fn: func(imo string) (*core.StatisticsResponse, error) {
		return nil, &api.ServerError{Status: 502, Message: "bad gateway"}
	}}
	a := newAssembler(t, src, WithTracked(abc))

	ships, err := a.GetFleet(context.Background(), mode.Live)
	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 3, ue.Attempted)
	var se *api.ServerError
	assert.ErrorAs(t, err, &se)
	assert.Len(t, ships, 3)
}

func TestGetFleet_MixedFailuresUnavailable(t *testing.T) {
	src := &fakeSource{fn: func(imo string) (*core.StatisticsResponse, error) {
		switch imo {
		case "A":
			return nil, networkErr(imo)
		case "B":
			return nil, nil
		default:
			return &core.StatisticsResponse{IMO: imo}, nil
		}
	}}
	a := newAssembler(t, src, WithTracked([]Tracked{{IMO: "A"}, {IMO: "B"}, {IMO: "C"}}))

	_, err := a.GetFleet(context.Background(), mode.Live)
	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
}

func TestGetFleet_NoSamplesIsNotAFailure(t *testing.T) {
	src := &fakeSource{fn: func(imo string) (*core.StatisticsResponse, error) {
		return &core.StatisticsResponse{IMO: imo, Name: "Ship " + imo}, nil
	}}
	a := newAssembler(t, src, WithTracked(abc))

	ships, err := a.GetFleet(context.Background(), mode.Live)
	require.NoError(t, err)
	for _, s := range ships {
		assert.False(t, s.HasData)
	}
}

func TestGetFleet_AuthErrorPropagates(t *testing.T) {
	src := &fakeSource{fn: func(imo string) (*core.StatisticsResponse, error) {
		if imo == "A" {
			return nil, &api.AuthError{Status: 401}
		}
		return withData(imo, imo), nil
	}}
	a := newAssembler(t, src, WithTracked(abc))

	ships, err := a.GetFleet(context.Background(), mode.Live)
	assert.True(t, api.IsAuth(err))
	assert.Len(t, ships, 3)
}

func TestGetFleet_RequestedIMOWins(t *testing.T) {
	src := &fakeSource{fn: func(imo string) (*core.StatisticsResponse, error) {
		return withData("same-imo-from-backend", "Twin"), nil
	}}
	a := newAssembler(t, src, WithTracked(abc))

	ships, err := a.GetFleet(context.Background(), mode.Live)
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, s := range ships {
		ids[s.ID] = true
	}
	assert.Equal(t, map[string]bool{"A": true, "B": true, "C": true}, ids)
}

func TestGetFleet_MockNeverCallsSource(t *testing.T) {
	src := &fakeSource{fn: func(imo string) (*core.StatisticsResponse, error) {
		t.Fatal("mock mode must not fetch")
		return nil, nil
	}}
	a := newAssembler(t, src)

	ships, err := a.GetFleet(context.Background(), mode.Mock)
	require.NoError(t, err)
	require.Len(t, ships, len(mockVoyages))
	for _, s := range ships {
		assert.True(t, s.HasData)
		assert.Len(t, s.Path, len(s.Samples))
		assert.Greater(t, s.Statistics.WindSpeed.Avg, 0.0)
	}
	assert.Empty(t, src.calls)
}

func TestGetFleet_MockIsDeterministic(t *testing.T) {
	a := newAssembler(t, nil)
	first, err := a.GetFleet(context.Background(), mode.Mock)
	require.NoError(t, err)
	second, err := a.GetFleet(context.Background(), mode.Mock)
	require.NoError(t, err)

	for i := range first {
		assert.Equal(t, first[i].Samples, second[i].Samples)
		assert.Equal(t, first[i].Statistics, second[i].Statistics)
	}
}

func TestGetFleet_LiveWithoutSource(t *testing.T) {
	_, err := newAssembler(t, nil).GetFleet(context.Background(), mode.Live)
	assert.Error(t, err)
}

func TestGetFleet_EmptyTracked(t *testing.T) {
	a := newAssembler(t, &fakeSource{fn: func(string) (*core.StatisticsResponse, error) { return nil, nil }}, WithTracked(nil))
	ships, err := a.GetFleet(context.Background(), mode.Live)
	require.NoError(t, err)
	assert.Empty(t, ships)
}

func TestWithTracked_Dedupes(t *testing.T) {
	a := newAssembler(t, nil, WithTracked([]Tracked{{IMO: "1"}, {IMO: "1"}, {IMO: ""}, {IMO: "2"}}))
	assert.Equal(t, []Tracked{{IMO: "1"}, {IMO: "2"}}, a.Tracked())
}

func TestGetShip(t *testing.T) {
	src := &fakeSource{fn: func(imo string) (*core.StatisticsResponse, error) {
		r := withData(imo, "")
		return r, nil
	}}
	a := newAssembler(t, src, WithTracked(abc))

	ship, err := a.GetShip(context.Background(), mode.Live, "B", core.TimeWindow{Start: 1, End: 2})
	require.NoError(t, err)
	assert.Equal(t, "Bravo", ship.Name, "name falls back to the tracked name")
	assert.True(t, ship.HasData)

	src.fn = func(imo string) (*core.StatisticsResponse, error) { return nil, networkErr(imo) }
	_, err = a.GetShip(context.Background(), mode.Live, "B", core.TimeWindow{})
	assert.True(t, api.IsNetwork(err))

	mockShip, err := a.GetShip(context.Background(), mode.Mock, "9512331", core.TimeWindow{})
	require.NoError(t, err)
	assert.Equal(t, "NBA Magritte", mockShip.Name)

	_, err = a.GetShip(context.Background(), mode.Mock, "nope", core.TimeWindow{})
	assert.ErrorIs(t, err, ErrUnknownShip)
}

func TestSortForSelection(t *testing.T) {
	ships := []core.Ship{
		{Name: "Zulu", HasData: false},
		{Name: "Mike", HasData: true},
		{Name: "Alpha", HasData: false},
		{Name: "Bravo", HasData: true},
	}
	SortForSelection(ships)
	var names []string
	for _, s := range ships {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Bravo", "Mike", "Alpha", "Zulu"}, names)
}

func TestPoller_PublishesUntilCancelled(t *testing.T) {
	src := &fakeSource{fn: func(imo string) (*core.StatisticsResponse, error) {
		return withData(imo, "Alpha"), nil
	}}
	a := newAssembler(t, src, WithTracked(abc))
	flag := mode.NewFlag()
	flag.Set(mode.Live)

	now := time.Unix(1741300000, 0)
	p := NewPoller(a, flag, "A", WithInterval(10*time.Millisecond), WithPollClock(func() time.Time { return now }))

	ctx, cancel := context.WithCancel(context.Background())
	var count atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, func(u ShipUpdate) {
			assert.NoError(t, u.Err)
			assert.Equal(t, "A", u.Ship.ID)
			if count.Add(1) == 3 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
	assert.GreaterOrEqual(t, count.Load(), int32(3))
}

func TestPoller_FollowsModeFlag(t *testing.T) {
	src := &fakeSource{fn: func(imo string) (*core.StatisticsResponse, error) {
		return nil, networkErr(imo)
	}}
	a := newAssembler(t, src)
	flag := mode.NewFlag()

	p := NewPoller(a, flag, "9996903")
	var got []ShipUpdate
	p.poll(context.Background(), func(u ShipUpdate) { got = append(got, u) })
	flag.Set(mode.Live)
	p.poll(context.Background(), func(u ShipUpdate) { got = append(got, u) })

	require.Len(t, got, 2)
	assert.NoError(t, got[0].Err)
	assert.True(t, got[0].Ship.HasData)
	assert.True(t, api.IsNetwork(got[1].Err))
}
