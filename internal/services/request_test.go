package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	cases := map[string]ID{
		`{"post_id":7}`:    7,
		`{"post_id":"7"}`:  7,
		`{"post_id":null}`: 0,
		`{"post_id":""}`:   0,
		`{}`:               0,
	}
	for body, want := range cases {
		var req CreateCommentRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req), body)
		assert.Equal(t, want, req.PostID, body)
	}

	for _, body := range []string{`{"post_id":"seven"}`, `{"post_id":-1}`, `{"post_id":1.5}`} {
		var req CreateCommentRequest
		assert.Error(t, json.Unmarshal([]byte(body), &req), body)
	}
}
