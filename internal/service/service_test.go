package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/cities_manager/internal/db"
	"github.com/Skotchmaster/cities_manager/internal/repo"
	"github.com/Skotchmaster/cities_manager/internal/tokens"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type publishedEvent struct {
	Topic string
	Key   string
	Event interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event.(map[string]interface{})["type"].(string))
	}
	return out
}

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, "sqlite:file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return &repo.GormRepo{DB: gdb}
}

type authFixture struct {
	svc    *AuthService
	repo   *repo.GormRepo
	clock  *testClock
	events *recordingPublisher
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	clock := &testClock{now: time.Now()}
	tokenSvc, err := tokens.NewService(tokens.Config{
		Key:        []byte("0123456789abcdef0123456789abcdef"),
		Issuer:     "cities-api",
		Audience:   "cities-client",
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}, tokens.WithClock(clock.Now))
	require.NoError(t, err)

	r := newTestRepo(t)
	events := &recordingPublisher{}
	return &authFixture{
		svc: &AuthService{
			Users:    r,
			Sessions: r,
			Tokens:   tokenSvc,
			Events:   events,
		},
		repo:   r,
		clock:  clock,
		events: events,
	}
}

func (f *authFixture) register(t *testing.T, email string) *tokens.Session {
	t.Helper()
	session, err := f.svc.Register(context.Background(), RegisterInput{
		PersonName:      "Alice",
		Email:           email,
		PhoneNumber:     "5551234",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	return session
}
