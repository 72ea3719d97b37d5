package common

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunID(t *testing.T) {
	a := NewRunID()
	b := NewRunID()

	assert.True(t, a.Valid())
	assert.NotEqual(t, a, b)
	assert.False(t, RunID("not-a-uuid").Valid())
	assert.Equal(t, string(a), a.String())
}

func TestAPIResponse_OmitsEmptyError(t *testing.T) {
	resp := APIResponse[string]{Success: true, Data: "ok", Timestamp: time.Unix(0, 0).UTC()}

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"error"`)
	assert.Contains(t, string(raw), `"data":"ok"`)
}

//Personal.AI order the ending
