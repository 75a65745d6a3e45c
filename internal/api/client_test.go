// internal/api/client_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sailboard/dashboard/internal/session"
	"github.com/sailboard/dashboard/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedIn(t *testing.T, token string) *session.MemoryStore {
	t.Helper()
	s := session.NewMemoryStore()
	require.NoError(t, s.Save(&core.Session{Token: token, User: core.User{ID: "1", Role: core.RoleAdmin}}))
	return s
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://localhost:5000/", nil)
	assert.Equal(t, "http://localhost:5000", c.baseURL)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
	assert.Equal(t, HealthTimeout, c.healthClient.Timeout)
}

func TestHealthcheck(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	assert.True(t, New(ok.URL, nil).Healthcheck(context.Background()))

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	assert.False(t, New(failing.URL, nil).Healthcheck(context.Background()))

	assert.False(t, New("http://127.0.0.1:1", nil).Healthcheck(context.Background()))
}

func TestHealthcheck_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()

	c := New(slow.URL, nil, WithHealthTimeout(20*time.Millisecond))
	assert.False(t, c.Healthcheck(context.Background()))
}

func TestDo_AttachesBearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, loggedIn(t, "tok"))
	data, err := c.Do(context.Background(), http.MethodGet, "analytics/totals", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
	assert.Equal(t, "Bearer tok", auth)
}

func TestDo_NoTokenWhenLoggedOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	data, err := New(srv.URL, nil).Do(context.Background(), http.MethodDelete, "/users/1", nil)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestDo_ExpiredTokenIsDropped(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": now.Add(-time.Minute).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	store := loggedIn(t, tok)
	c := New(srv.URL, store, WithClock(func() time.Time { return now }))
	_, err = c.Do(context.Background(), http.MethodGet, "/x", nil)
	require.NoError(t, err)

	s, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestDo_AuthErrorClearsSession(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"token revoked"}`))
		}))

		store := loggedIn(t, "tok")
		_, err := New(srv.URL, store).Do(context.Background(), http.MethodGet, "/analytics/users", nil)
		srv.Close()

		var ae *AuthError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, status, ae.Status)
		assert.Equal(t, "token revoked", ae.Message)
		assert.True(t, IsAuth(err))

		s, loadErr := store.Load()
		require.NoError(t, loadErr)
		assert.Nil(t, s, "session must be cleared on %d", status)
	}
}

func TestDo_ServerErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"imo already exists"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Do(context.Background(), http.MethodPost, "/data/ships", map[string]string{})
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.Status)
	assert.Equal(t, "imo already exists", UserMessage(err))
}

func TestDo_ServerErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Do(context.Background(), http.MethodGet, "/x", nil)
	var se *ServerError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.UserMessage(), "502")
}

func TestDo_NetworkError(t *testing.T) {
	_, err := New("http://127.0.0.1:1", nil).Do(context.Background(), http.MethodGet, "/x", nil)
	assert.True(t, IsNetwork(err))
	assert.Contains(t, UserMessage(err), "mock mode")
}

func TestDo_TimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil, WithTimeout(20*time.Millisecond)).Do(context.Background(), http.MethodGet, "/x", nil)
	assert.True(t, IsNetwork(err))
}

func TestDo_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.URL, nil).Do(ctx, http.MethodGet, "/x", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNormalizeUnixSeconds(t *testing.T) {
	assert.Equal(t, int64(1741281633), NormalizeUnixSeconds(1741281633))
	assert.Equal(t, int64(1741281633), NormalizeUnixSeconds(1741281633000))
	assert.Equal(t, int64(0), NormalizeUnixSeconds(0))
}

func TestShipStatistics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/ships/9512331/statistics", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("start_time"))
		assert.Equal(t, "200", r.URL.Query().Get("end_time"))
		_, _ = w.Write([]byte(`{
			"imo": "9512331",
			"name": "NBA Magritte",
			"results_meta": {"data_points_collected": 2},
			"results_aggregated": {
				"aggregation_min": {"wind_speed": 1},
				"aggregation_max": {"wind_speed": 9},
				"aggregation_avg": {"wind_speed": 5}
			},
			"results_timed": [
				{"timestamp": 1741281633000, "sailData": [{"windSpeed": 0}]},
				{"timestamp": 1741281693, "sailData": [{"fanSpeed": 3}]}
			]
		}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL, nil).ShipStatistics(context.Background(), "9512331", core.TimeWindow{Start: 100, End: 200})
	require.NoError(t, err)
	assert.Equal(t, "NBA Magritte", resp.Name)
	assert.Equal(t, 2, resp.Meta.DataPointsCollected)
	assert.Equal(t, 5.0, resp.Aggregated.Avg["wind_speed"])
	require.Len(t, resp.Timed, 2)
	assert.Equal(t, int64(1741281633), resp.Timed[0].Timestamp)
	assert.Equal(t, int64(1741281693), resp.Timed[1].Timestamp)

	// absent and zero stay distinguishable
	require.NotNil(t, resp.Timed[0].SailData[0].WindSpeed)
	assert.Equal(t, 0.0, *resp.Timed[0].SailData[0].WindSpeed)
	assert.Nil(t, resp.Timed[0].SailData[0].FanSpeed)
	assert.Nil(t, resp.Timed[0].ShipData)
}

func TestShipStatistics_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).ShipStatistics(context.Background(), "1", core.TimeWindow{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestSubmitShipData(t *testing.T) {
	var got shipRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/data/ships", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	now := time.Unix(1741300000, 0)
	c := New(srv.URL, nil, WithClock(func() time.Time { return now }))
	_, err := c.SubmitShipData(context.Background(), core.ShipSubmission{
		IMO:       "9996903",
		Name:      "Amadeus Saffier",
		Position:  core.Location{Latitude: 51.9, Longitude: 4.4},
		WindSpeed: 12,
		Course:    90,
		Speed:     7,
	})
	require.NoError(t, err)

	assert.Equal(t, "9996903", got.IMO)
	require.Len(t, got.Data, 1)
	point := got.Data[0]
	assert.NotEmpty(t, point.UUID)
	assert.Equal(t, now.Unix(), point.Timestamp)
	require.Len(t, point.SailData, 1)
	assert.Equal(t, "1", point.SailData[0].SailID)
	assert.Equal(t, 90.0, *point.SailData[0].WindAngle, "wind angle falls back to course")
	assert.Equal(t, 12.0, *point.SailData[0].WindSpeed)
	assert.Equal(t, 51.9, point.ShipData.Location.Latitude)
	assert.Equal(t, 7.0, *point.ShipData.SOG)
}

func TestSubmitShipData_RequiresIMO(t *testing.T) {
	_, err := New("http://unused", nil).SubmitShipData(context.Background(), core.ShipSubmission{})
	assert.Error(t, err)
}

func TestLoginStoresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/dashboard-login", r.URL.Path)
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "ada@example.com", creds.Email)
		_, _ = w.Write([]byte(`{"token":"abc","user":{"id":"7","name":"Ada","email":"ada@example.com","role":"admin"}}`))
	}))
	defer srv.Close()

	store := session.NewMemoryStore()
	c := New(srv.URL, store)
	assert.False(t, c.IsAuthenticated())

	s, err := c.Login(context.Background(), Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "abc", s.Token)
	assert.True(t, c.IsAuthenticated())
	assert.True(t, c.IsAdmin())

	require.NoError(t, c.Logout())
	assert.False(t, c.IsAuthenticated())
	assert.False(t, c.IsAdmin())
}

func TestLogin_MissingCredentials(t *testing.T) {
	_, err := New("http://unused", nil).Login(context.Background(), Credentials{Email: "a"})
	assert.Error(t, err)
}

func TestRegister_WithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		_, _ = w.Write([]byte(`{"message":"created"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	s, err := c.Register(context.Background(), Registration{Name: "Ada", Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.False(t, c.IsAuthenticated())
}

func TestResourceQueries(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.RequestURI())
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	ctx := context.Background()
	_, err := c.ListUsers(ctx, UserQuery{Page: 2, Limit: 10, Role: "admin"})
	require.NoError(t, err)
	_, err = c.SetUserRole(ctx, "42", "user")
	require.NoError(t, err)
	_, err = c.ListPayments(ctx, PaymentQuery{UserID: "42"})
	require.NoError(t, err)
	_, err = c.ListCVs(ctx, DocumentQuery{})
	require.NoError(t, err)
	require.NoError(t, c.DeleteUser(ctx, "42"))

	assert.Equal(t, []string{
		"GET /users?limit=10&page=2&role=admin",
		"PATCH /users/42/role",
		"GET /payments?userId=42",
		"GET /cvs",
		"DELETE /users/42",
	}, paths)
}

func TestAnalyticsEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/analytics/users":
			_, _ = w.Write([]byte(`{"totalUsers":10,"monthlyActiveUsers":[1,2]}`))
		case "/analytics/totals":
			_, _ = w.Write([]byte(`{"users":10,"cvs":4}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	users, err := c.UserAnalytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, users.TotalUsers)
	assert.Equal(t, []float64{1, 2}, users.MonthlyActiveUsers)

	totals, err := c.AnalyticsTotals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4.0, totals["cvs"])

	_, err = c.RevenueAnalytics(context.Background())
	var se *ServerError
	assert.ErrorAs(t, err, &se)
}
