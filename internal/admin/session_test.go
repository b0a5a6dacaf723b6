package admin

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "empty", value: "", want: 0},
		{name: "seconds", value: "120", want: 2 * time.Minute},
		{name: "padded seconds", value: " 30 ", want: 30 * time.Second},
		{name: "zero seconds", value: "0", want: 0},
		{name: "negative seconds", value: "-5", want: 0},
		{name: "garbage", value: "soon", want: 0},
		{name: "past date", value: "Mon, 02 Jan 2006 15:04:05 GMT", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRetryAfter(tt.value))
		})
	}
}

func TestParseRetryAfterHTTPDate(t *testing.T) {
	at := time.Now().Add(90 * time.Second).UTC()
	wait := parseRetryAfter(at.Format(http.TimeFormat))
	assert.Greater(t, wait, 80*time.Second)
	assert.LessOrEqual(t, wait, 90*time.Second)
}

func TestIssueTokenRequiresCredentials(t *testing.T) {
	_, err := issueToken(Credentials{ClientSecret: "s"}, time.Minute)
	assert.Error(t, err)

	_, err = issueToken(Credentials{ClientID: "ops"}, time.Minute)
	assert.Error(t, err)

	token, err := issueToken(Credentials{ClientID: "ops", ClientSecret: "s"}, time.Minute)
	assert.NoError(t, err)
	assert.NoError(t, VerifyToken([]byte("s"), token))
	assert.Error(t, VerifyToken([]byte("wrong"), token))
}
