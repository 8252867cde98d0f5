package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(handler))
}

// TestChatHistory_BearerToken verifies the token is attached as a bearer
// header on every fetch.
func TestChatHistory_BearerToken(t *testing.T) {
	var gotAuth string
	srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": true, "message": "ok", "data": []interface{}{}, "error": nil,
		})
	})
	defer srv.Close()

	c := NewClient(srv.URL, "tok-123", nil)
	_, err := c.ChatHistory(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestChatHistory_Array(t *testing.T) {
	srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages/u2", r.URL.Path)
		w.Write([]byte(`{
			"status": true,
			"message": "ok",
			"data": [
				{"_id":"m1","sender":"u2","receiver":"u1","message":"hey","read":false,"createdAt":"2026-01-02T15:04:05Z"},
				{"_id":"m2","sender":"u1","receiver":"u2","message":"hi","read":true,"createdAt":"2026-01-02T15:05:05Z"}
			],
			"error": null
		}`))
	})
	defer srv.Close()

	c := NewClient(srv.URL, "tok", nil)
	msgs, err := c.ChatHistory(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "hey", msgs[0].Body)
	assert.True(t, msgs[1].Read)
}

// TestChatHistory_SingleNormalized verifies a single-message data field is
// normalized to a one-element slice.
func TestChatHistory_SingleNormalized(t *testing.T) {
	srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": true,
			"message": "ok",
			"data": {"_id":"m1","sender":"u2","receiver":"u1","message":"solo","createdAt":"2026-01-02T15:04:05Z"},
			"error": null
		}`))
	})
	defer srv.Close()

	c := NewClient(srv.URL, "tok", nil)
	msgs, err := c.ChatHistory(context.Background(), "u2")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "solo", msgs[0].Body)
}

func TestChatHistory_NullData(t *testing.T) {
	srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": true, "message": "ok", "data": null, "error": null}`))
	})
	defer srv.Close()

	c := NewClient(srv.URL, "tok", nil)
	msgs, err := c.ChatHistory(context.Background(), "u2")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestGroupHistory_Path(t *testing.T) {
	srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages/group/g1", r.URL.Path)
		w.Write([]byte(`{
			"status": true, "message": "ok",
			"data": [{"_id":"m1","sender":"u2","senderUsername":"bob","group":"g1","message":"yo","readBy":["u2"],"createdAt":"2026-01-02T15:04:05Z"}],
			"error": null
		}`))
	})
	defer srv.Close()

	c := NewClient(srv.URL, "tok", nil)
	msgs, err := c.GroupHistory(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "g1", msgs[0].GroupID)
	assert.True(t, msgs[0].HasReader("u2"))
}

// TestNoToken_ShortCircuits verifies auth absence is detected before any
// network action.
func TestNoToken_ShortCircuits(t *testing.T) {
	hit := false
	srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) { hit = true })
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	_, err := c.ChatHistory(context.Background(), "u2")
	assert.ErrorIs(t, err, ErrNoToken)
	assert.False(t, hit, "no request may leave the client without a token")
}

func TestGet_Non200(t *testing.T) {
	srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})
	defer srv.Close()

	c := NewClient(srv.URL, "tok", nil)
	_, err := c.ChatHistory(context.Background(), "u2")
	assert.Error(t, err)
}

func TestUsersAndGroups(t *testing.T) {
	srv := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users":
			w.Write([]byte(`{"status": true, "message": "ok", "data": [{"_id":"u2","username":"bob","online":true}], "error": null}`))
		case "/groups":
			w.Write([]byte(`{"status": true, "message": "ok", "data": [{"_id":"g1","name":"devs"}], "error": null}`))
		default:
			http.NotFound(w, r)
		}
	})
	defer srv.Close()

	c := NewClient(srv.URL, "tok", nil)

	users, err := c.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)
	assert.True(t, users[0].Online)

	groups, err := c.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "devs", groups[0].Name)
}
