package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/moodlog/internal"
	"github.com/yourname/moodlog/internal/storage"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMessage(t *testing.T) {
	e := internal.HealthEntry{Status: internal.StatusGood, Rating: 4, Comment: "ok"}
	assert.Equal(t, ":smile: *aliceさんの体調報告* 4/5\n>ok", Message(e, "alice"))

	e = internal.HealthEntry{Status: internal.StatusSunny}
	assert.Equal(t, ":memo: *匿名ユーザーさんの体調報告* \n>", Message(e, anonymousUser))
}

type recorded struct {
	auth string
	body postMessageRequest
}

func slackServer(t *testing.T, status int, reply string) (*httptest.Server, func() []recorded) {
	var mu sync.Mutex
	var got []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body postMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		got = append(got, recorded{auth: r.Header.Get("Authorization"), body: body})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), got...)
	}
}

func TestSlackNotifier_Posts(t *testing.T) {
	srv, calls := slackServer(t, http.StatusOK, `{"ok":true}`)
	users := storage.NewMemoryStorage()
	require.NoError(t, users.CreateUser(context.Background(), &internal.User{ID: "u1", Username: "alice"}))

	n := NewSlackNotifier("xoxb-token", "mood", srv.URL, time.Second, users, internal.NopLogger())
	n.NotifyEntry(internal.HealthEntry{ID: "1", UserID: "u1", Status: internal.StatusExcellent, Rating: 5, Comment: "great"})
	n.NotifyEntry(internal.HealthEntry{ID: "2", UserID: "ghost", Status: internal.StatusPoor, Rating: 1, Comment: "meh"})
	n.Wait()
	n.HTTPClient.CloseIdleConnections()

	got := calls()
	require.Len(t, got, 2)
	texts := map[string]bool{}
	for _, c := range got {
		assert.Equal(t, "Bearer xoxb-token", c.auth)
		assert.Equal(t, "mood", c.body.Channel)
		texts[c.body.Text] = true
	}
	assert.True(t, texts[":star-struck: *aliceさんの体調報告* 5/5\n>great"])
	assert.True(t, texts[":face_with_thermometer: *匿名ユーザーさんの体調報告* 1/5\n>meh"])
}

func TestSlackNotifier_FailuresAreLogged(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
	}{
		{"api error", http.StatusOK, `{"ok":false,"error":"channel_not_found"}`},
		{"http error", http.StatusInternalServerError, `oops`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := slackServer(t, tt.status, tt.reply)
			core, logs := observer.New(zapcore.ErrorLevel)
			n := NewSlackNotifier("t", "general", srv.URL, time.Second, nil, internal.NewZapLogger(zap.New(core).Sugar()))

			n.NotifyEntry(internal.HealthEntry{ID: "1", Status: internal.StatusGood})
			n.Wait()
			n.HTTPClient.CloseIdleConnections()

			assert.Equal(t, 1, logs.Len())
		})
	}
}

func TestSlackNotifier_DoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewSlackNotifier("t", "general", srv.URL, 5*time.Second, nil, internal.NopLogger())
	start := time.Now()
	n.NotifyEntry(internal.HealthEntry{ID: "1", Status: internal.StatusGood})
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
	n.Wait()
	n.HTTPClient.CloseIdleConnections()
}

func TestSlackNotifier_WaitIsBoundedByTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	core, logs := observer.New(zapcore.ErrorLevel)
	n := NewSlackNotifier("t", "c", srv.URL, 50*time.Millisecond, nil, internal.NewZapLogger(zap.New(core).Sugar()))

	start := time.Now()
	n.NotifyEntry(internal.HealthEntry{ID: "1"})
	n.Wait()
	n.HTTPClient.CloseIdleConnections()

	assert.Less(t, time.Since(start), 2*time.Second, "a hung endpoint cannot stall shutdown")
	assert.Equal(t, 1, logs.Len())
}
