package authstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Thierryn8n/MetalFly/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL, "anon-key", "access-tok", "refresh-tok")
}

func TestClientGetUser(t *testing.T) {
	id := uuid.New()
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer access-tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(Identity{ID: id, Email: "ana@example.com"})
	})

	identity, err := client.GetUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, id, identity.ID)
}

func TestClientGetUserUnauthorizedIsAnonymous(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"msg":"invalid JWT"}`))
	})

	identity, err := client.GetUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestClientGetSessionWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected without an access token")
	}))
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, "anon-key", "", "")

	session, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestClientGetProfile(t *testing.T) {
	id := uuid.New()
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/profiles", r.URL.Path)
		assert.Equal(t, "eq."+id.String(), r.URL.Query().Get("id"))
		json.NewEncoder(w).Encode([]models.Profile{{ID: id, Email: "ana@example.com", Role: models.RoleAdmin}})
	})

	profile, err := client.GetProfile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, profile.Role)
}

func TestClientGetProfileEmptyResultIsNotFound(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	})

	_, err := client.GetProfile(context.Background(), uuid.New())
	assert.True(t, IsNotFound(err))
}

func TestClientErrorEnvelope(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code":"42P17","message":"infinite recursion detected in policy for relation \"profiles\""}`))
	})

	_, err := client.GetProfile(context.Background(), uuid.New())
	assert.True(t, IsPolicyRecursion(err))
	assert.True(t, IsTransient(err))
}

func TestClientUpsertProfileSendsMergePreference(t *testing.T) {
	var prefer string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		prefer = r.Header.Get("Prefer")
		w.WriteHeader(http.StatusCreated)
	})

	err := client.UpsertProfile(context.Background(), &models.Profile{ID: uuid.New(), Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "resolution=merge-duplicates", prefer)
}

func TestClientRefreshSessionRotatesTokens(t *testing.T) {
	id := uuid.New()
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-tok", body["refresh_token"])

		json.NewEncoder(w).Encode(Session{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			User:         Identity{ID: id, Email: "ana@example.com"},
		})
	})

	session, err := client.RefreshSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", session.AccessToken)
	assert.Equal(t, "access-2", client.token())

	select {
	case ev := <-client.AuthEvents():
		assert.Equal(t, EventTokenRefreshed, ev.Kind)
	default:
		t.Fatal("expected a token-refreshed event")
	}
}

func TestClientSignOutClearsTokensEvenOnError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := client.SignOut(context.Background())
	assert.Error(t, err)
	assert.Empty(t, client.token())

	select {
	case ev := <-client.AuthEvents():
		assert.Equal(t, EventSignedOut, ev.Kind)
	default:
		t.Fatal("expected a signed-out event")
	}
}

func TestClientBypassRPC(t *testing.T) {
	id := uuid.New()
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/rpc/get_user_profile_bypass", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, id.String(), body["p_user_id"])

		json.NewEncoder(w).Encode([]models.Profile{{ID: id, Email: "ana@example.com", Role: models.RoleAdminMaster}})
	})

	profile, err := client.GetProfileBypass(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdminMaster, profile.Role)
}

func TestClientCancellationMapsToContextError(t *testing.T) {
	block := make(chan struct{})
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(block) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetProfile(ctx, uuid.New())
	assert.True(t, IsCanceled(err))
}

func TestIdentityDisplayName(t *testing.T) {
	i := &Identity{Email: "ana.souza@example.com"}
	assert.Equal(t, "ana.souza", i.DisplayName())

	i.Metadata = map[string]any{"full_name": "Ana Souza"}
	assert.Equal(t, "Ana Souza", i.DisplayName())

	empty := &Identity{}
	assert.Equal(t, "Novo Usuario", empty.DisplayName())
}
