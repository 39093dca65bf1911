package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var session = attendance.Session{Token: "tok-123", EmployeeID: "emp-1"}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)
	return c
}

func writeEnvelope(w http.ResponseWriter, status, flag int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  status,
		"flag":    flag,
		"message": message,
		"data":    data,
	})
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", 0)
	assert.Error(t, err)

	_, err = NewClient("://bad", 0)
	assert.Error(t, err)
}

func TestFetchPunch(t *testing.T) {
	tests := []struct {
		name string
		data interface{}
		want attendance.PunchRecord
	}{
		{
			name: "empty data is NONE",
			data: []interface{}{},
			want: attendance.PunchRecord{Status: attendance.PunchStatusNone},
		},
		{
			name: "null data is NONE",
			data: nil,
			want: attendance.PunchRecord{Status: attendance.PunchStatusNone},
		},
		{
			name: "checked in",
			data: []map[string]string{{"status": "IN", "time_in": "09:00:00"}},
			want: attendance.PunchRecord{Status: attendance.PunchStatusIn, TimeIn: "09:00:00"},
		},
		{
			name: "checked out",
			data: []map[string]string{{"status": "OUT", "time_in": "09:00:00", "time_out": "17:00:00"}},
			want: attendance.PunchRecord{Status: attendance.PunchStatusOut, TimeIn: "09:00:00", TimeOut: "17:00:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/v1/attendance/status", r.URL.Path)
				assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
				_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
				assert.NoError(t, err)
				writeEnvelope(w, http.StatusOK, attendance.FlagSuccess, "", tt.data)
			})

			got, err := c.FetchPunch(context.Background(), session)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchPunch_MalformedRecord(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, attendance.FlagSuccess, "",
			[]map[string]string{{"status": "IN", "time_in": "09:00:00", "time_out": "10:00:00"}})
	})

	_, err := c.FetchPunch(context.Background(), session)
	assert.ErrorIs(t, err, attendance.ErrNetwork)
	assert.ErrorIs(t, err, attendance.ErrMalformedRecord)
}

func TestFetchBreak(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/attendance/break-status", r.URL.Path)
		writeEnvelope(w, http.StatusOK, attendance.FlagSuccess, "",
			[]map[string]string{{"status": "BREAK_ENDED", "break_start": "12:00:00", "break_end": "12:30:00"}})
	})

	got, err := c.FetchBreak(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, attendance.BreakRecord{
		Status:     attendance.BreakStatusEnded,
		BreakStart: "12:00:00",
		BreakEnd:   "12:30:00",
	}, got)
}

func TestFetchBreak_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, attendance.FlagSuccess, "", []interface{}{})
	})

	got, err := c.FetchBreak(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, attendance.BreakStatusNone, got.Status)
}

func TestPostAttendance(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/attendance", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "IN", body["punch_type"])
		assert.Equal(t, "2025-03-14", body["date"])
		assert.Equal(t, "09:00:00", body["time"])
		assert.Equal(t, "Head Office", body["location"])
		assert.InDelta(t, -6.2, body["latitude"], 1e-9)
		assert.NotContains(t, body, "EmployeeID")

		writeEnvelope(w, http.StatusOK, attendance.FlagSuccess, "Check-in recorded", []interface{}{})
	})

	resp, err := c.PostAttendance(context.Background(), session, attendance.CreateAttendanceRequest{
		Latitude:   -6.2,
		Longitude:  106.8,
		Time:       "09:00:00",
		Date:       "2025-03-14",
		PunchType:  "IN",
		Location:   "Head Office",
		EmployeeID: "should-not-be-sent",
	})
	require.NoError(t, err)
	assert.Equal(t, "Check-in recorded", resp.Message)
}

func TestPostBreak_BusinessRejection(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/attendance/break", r.URL.Path)
		writeEnvelope(w, http.StatusOK, attendance.FlagFailure, "a break is already in progress", []interface{}{})
	})

	_, err := c.PostBreak(context.Background(), session, attendance.CreateBreakRequest{PunchType: "START"})
	require.Error(t, err)
	assert.ErrorIs(t, err, attendance.ErrServerRejected)
	assert.NotErrorIs(t, err, attendance.ErrNetwork)

	var rejection *attendance.BusinessRejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, "a break is already in progress", rejection.Message)
}

func TestDo_NonSuccessStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, attendance.FlagFailure, "token expired", nil)
	})

	_, err := c.FetchPunch(context.Background(), session)
	require.Error(t, err)
	assert.ErrorIs(t, err, attendance.ErrNetwork)

	var fetchErr *attendance.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusUnauthorized, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "token expired")
}

func TestDo_InvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway</html>"))
	})

	_, err := c.FetchPunch(context.Background(), session)
	assert.ErrorIs(t, err, attendance.ErrNetwork)
}

func TestDo_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(srv.URL, 50*time.Millisecond)
	require.NoError(t, err)

	_, err = c.FetchPunch(context.Background(), session)
	assert.ErrorIs(t, err, attendance.ErrNetwork)
}

func TestDo_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, time.Second)
	require.NoError(t, err)

	_, err = c.PostAttendance(context.Background(), session, attendance.CreateAttendanceRequest{})
	assert.ErrorIs(t, err, attendance.ErrNetwork)
}
