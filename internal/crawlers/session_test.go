package crawlers

import (
	"context"
	"testing"
	"time"

	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPrompter struct {
	messages []string
}

func (p *recordingPrompter) Wait(message string) error {
	p.messages = append(p.messages, message)
	return nil
}

func TestSession_RequiresOpen(t *testing.T) {
	prompter := &recordingPrompter{}
	s := NewSession(models.BrowserConfig{}, prompter, "", "")

	_, err := s.Navigate(context.Background(), "https://www.parentzone.me/gallery", 0)
	assert.ErrorIs(t, err, ErrSessionNotOpen)

	_, err = s.Cookies(context.Background())
	assert.ErrorIs(t, err, ErrSessionNotOpen)

	// 未打开时关闭不应panic
	s.Close()

	require.NoError(t, s.Prompt("继续?"))
	assert.Equal(t, []string{"继续?"}, prompter.messages)
}

func TestToHTTPCookies(t *testing.T) {
	expires := time.Unix(1760000000, 0)
	cookies := toHTTPCookies([]*proto.NetworkCookie{
		{
			Name:     "sid",
			Value:    "abc",
			Domain:   ".parentzone.me",
			Path:     "/",
			Expires:  proto.TimeSinceEpoch(expires.Unix()),
			Secure:   true,
			HTTPOnly: true,
		},
		{
			Name:    "session-only",
			Value:   "1",
			Domain:  "www.parentzone.me",
			Path:    "/",
			Expires: -1,
		},
	})

	require.Len(t, cookies, 2)

	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.Equal(t, ".parentzone.me", cookies[0].Domain)
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Expires.Equal(expires))

	assert.True(t, cookies[1].Expires.IsZero())
}
