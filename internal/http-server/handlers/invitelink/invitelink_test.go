package invitelink

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doorlist/invite"
	"doorlist/lib/api/response"
)

func resolve(t *testing.T, query url.Values) inviter {
	t.Helper()
	req := httptest.NewRequest("GET", "/api/invite?"+query.Encode(), nil)
	rr := httptest.NewRecorder()
	Resolve(slog.New(slog.NewTextHandler(io.Discard, nil)))(rr, req)
	require.Equal(t, 200, rr.Code)

	var resp response.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result inviter
	require.NoError(t, json.Unmarshal(data, &result))
	return result
}

func TestResolveToken(t *testing.T) {
	result := resolve(t, url.Values{
		"token": {invite.Encode("Raphael", "501234567")},
	})
	assert.Equal(t, "Raphael", result.Name)
	assert.Equal(t, "501234567", result.Phone)
	assert.Equal(t, "Raphael", result.DisplayName)
}

func TestResolveSlug(t *testing.T) {
	result := resolve(t, url.Values{
		"slug": {"raphael-de-souza-1718000000000"},
	})
	assert.Equal(t, "Raphael De Souza", result.DisplayName)
	assert.Empty(t, result.Phone)
}

func TestResolveBadTokenIsNotAnError(t *testing.T) {
	result := resolve(t, url.Values{"token": {"garbage"}})
	assert.Empty(t, result.Name)
	assert.Empty(t, result.DisplayName)
}
