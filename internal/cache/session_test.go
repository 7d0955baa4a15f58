package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "lecturebot:session:9665", sessionKey("9665"))
}

func TestDecodeState(t *testing.T) {
	raw := []byte(`{"user_id":"u1","chat_id":"c1","workflow_id":"upload","current_step":"pick_section",
"data":{"lectureNumber":"3","page":2},"options":[{"id":"s1","text":"هندسة"}],"updated_at":"2026-03-01T12:00:00Z"}`)

	state, err := decodeState(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", state.UserID)
	assert.Equal(t, "3", state.GetString("lectureNumber"))
	assert.Equal(t, 2, state.GetInt("page"))
	require.Len(t, state.Options, 1)
	assert.Equal(t, "s1", state.Options[0].ID)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), state.UpdatedAt)
}

func TestDecodeState_NilData(t *testing.T) {
	state, err := decodeState([]byte(`{"user_id":"u1"}`))
	require.NoError(t, err)
	assert.NotNil(t, state.Data)
}

func TestDecodeState_Invalid(t *testing.T) {
	_, err := decodeState([]byte(`{`))
	assert.Error(t, err)
}

func TestNewSessionRepository_TTL(t *testing.T) {
	r := NewSessionRepository(nil, 5*time.Minute)
	assert.Equal(t, 10*time.Minute, r.ttl)
}
