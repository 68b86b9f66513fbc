package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunebot/tunebot/internal/pipeline"
	"github.com/tunebot/tunebot/internal/storage"
	"github.com/tunebot/tunebot/internal/telemetry"
)

const testChatID = int64(100)

type fakeClient struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
}

func (c *fakeClient) Send(m tgbotapi.Chattable) (tgbotapi.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sendErr != nil {
		return tgbotapi.Message{}, c.sendErr
	}

	c.sent = append(c.sent, m)

	return tgbotapi.Message{
		MessageID: len(c.sent),
		Chat:      &tgbotapi.Chat{ID: testChatID},
	}, nil
}

func (c *fakeClient) Request(m tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, m)

	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (c *fakeClient) sentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.sent)
}

// texts flattens the plain-text payload of every sent message or edit,
// in send order.
func (c *fakeClient) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []string

	for _, m := range c.sent {
		switch v := m.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, v.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, v.Text)
		}
	}

	return out
}

type fakeRunner struct {
	mu      sync.Mutex
	calls   int
	outcome pipeline.Outcome
}

func (r *fakeRunner) Run(_ context.Context, _ pipeline.Request) pipeline.Outcome {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	return r.outcome
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.calls
}

type fakeUsers struct {
	blocked    bool
	blockedErr error
}

func (u *fakeUsers) RecordUser(context.Context, int64, string, string, string) error { return nil }
func (u *fakeUsers) IncrementDownloadCount(context.Context, int64) error             { return nil }

func (u *fakeUsers) GetUserStats(context.Context, int64) (*storage.UserStats, error) {
	return nil, storage.ErrUserNotFound
}

func (u *fakeUsers) GetAdminStats(context.Context) (*storage.AdminStats, error) {
	return &storage.AdminStats{}, nil
}

func (u *fakeUsers) IsBlocked(context.Context, int64) (bool, error) {
	return u.blocked, u.blockedErr
}

type fakeDownloads struct{}

func (d *fakeDownloads) LogDownload(context.Context, int64, string, string, int64, bool) error {
	return nil
}

func (d *fakeDownloads) GetHistory(context.Context, int64, int) ([]storage.DownloadRecord, error) {
	return nil, nil
}

func newTestBot(client sender, pipe runner, users storage.UserRepository, maxParallel int) *Bot {
	return &Bot{
		client:    client,
		pipe:      pipe,
		users:     users,
		downloads: &fakeDownloads{},
		telemetry: &telemetry.Telemetry{},
		admins:    map[int64]struct{}{},
		sem:       make(chan struct{}, maxParallel),
	}
}

func linkMessage(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 7, UserName: "sam"},
		Chat:      &tgbotapi.Chat{ID: testChatID},
		Text:      text,
	}
}

func TestHandleLink_NoticePrecedesSlotWait(t *testing.T) {
	client := &fakeClient{}
	pipe := &fakeRunner{}
	b := newTestBot(client, pipe, &fakeUsers{}, 1)

	// Occupy the only conversion slot so handleLink has to queue.
	b.sem <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)
		b.handleLink(ctx, linkMessage("https://www.youtube.com/watch?v=abcdefghijk"))
	}()

	require.Eventually(t, func() bool { return client.sentCount() == 1 },
		time.Second, 5*time.Millisecond,
		"the processing notice must reach the user while the run is still queued")
	assert.Equal(t, []string{msgProcessing}, client.texts())
	assert.Equal(t, 0, pipe.callCount())

	cancel()
	<-done

	assert.Equal(t, 0, pipe.callCount())
}

func TestHandleLink_NoticeSendFailureAborts(t *testing.T) {
	client := &fakeClient{sendErr: errors.New("telegram unreachable")}
	pipe := &fakeRunner{}
	b := newTestBot(client, pipe, &fakeUsers{}, 1)

	b.handleLink(context.Background(), linkMessage("https://www.youtube.com/watch?v=abcdefghijk"))

	assert.Equal(t, 0, pipe.callCount())
}

func TestHandleLink_BlockedUser(t *testing.T) {
	client := &fakeClient{}
	pipe := &fakeRunner{}
	b := newTestBot(client, pipe, &fakeUsers{blocked: true}, 1)

	b.handleLink(context.Background(), linkMessage("https://youtu.be/abcdefghijk"))

	assert.Equal(t, []string{msgBlocked}, client.texts())
	assert.Equal(t, 0, pipe.callCount())
}

func TestHandleLink_BlockCheckFailureIsOpen(t *testing.T) {
	client := &fakeClient{}
	pipe := &fakeRunner{outcome: pipeline.Outcome{
		Code:   pipeline.OutcomeFailed,
		Reason: pipeline.ReasonInvalidURL,
	}}
	b := newTestBot(client, pipe, &fakeUsers{blockedErr: errors.New("db locked")}, 1)

	b.handleLink(context.Background(), linkMessage("not a link"))

	assert.Equal(t, 1, pipe.callCount())
}

func TestHandleLink_FailureEditsNotice(t *testing.T) {
	client := &fakeClient{}
	outcome := pipeline.Outcome{Code: pipeline.OutcomeTooLong, Title: "Mahler Symphony No. 3"}
	pipe := &fakeRunner{outcome: outcome}
	b := newTestBot(client, pipe, &fakeUsers{}, 1)

	b.handleLink(context.Background(), linkMessage("https://www.youtube.com/watch?v=abcdefghijk"))

	assert.Equal(t, 1, pipe.callCount())
	assert.Equal(t, []string{msgProcessing, MessageFor(outcome)}, client.texts())
	assert.Empty(t, client.requests)
}

func TestHandleLink_SuccessDeliversAndCleansUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	require.NoError(t, os.WriteFile(path, []byte("mp3"), 0o644))

	client := &fakeClient{}
	pipe := &fakeRunner{outcome: pipeline.Outcome{
		Code:     pipeline.OutcomeSuccess,
		FilePath: path,
		Title:    "Never Gonna Give You Up",
		FileSize: 3,
	}}
	b := newTestBot(client, pipe, &fakeUsers{}, 1)

	b.handleLink(context.Background(), linkMessage("https://www.youtube.com/watch?v=abcdefghijk"))

	texts := client.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, msgProcessing, texts[0])
	assert.Equal(t, msgUploading, texts[1])

	var audio *tgbotapi.AudioConfig

	client.mu.Lock()
	for _, m := range client.sent {
		if a, ok := m.(tgbotapi.AudioConfig); ok {
			audio = &a
		}
	}
	client.mu.Unlock()

	require.NotNil(t, audio, "expected an audio upload")
	assert.Equal(t, "Never Gonna Give You Up", audio.Title)

	require.Len(t, client.requests, 1)
	assert.IsType(t, tgbotapi.DeleteMessageConfig{}, client.requests[0])

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "delivered file must be removed")
}
