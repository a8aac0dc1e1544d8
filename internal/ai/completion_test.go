package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeRuntime struct {
	mu    sync.Mutex
	calls []GenerateRequest
	err   error
}

func (f *fakeRuntime) Generate(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &GenerateResponse{
		Model:   "gpt-3.5-turbo-0125",
		Choices: []Choice{{Message: Message{Role: "assistant", Content: "Response"}}},
		Usage:   Usage{PromptTokens: 10000, CompletionTokens: 2000, TotalTokens: 12000},
	}, nil
}

func (f *fakeRuntime) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestService(rt Runtime, clock *fakeClock) *Service {
	return NewService(rt, ServiceOptions{Cache: NewResponseCache(DefaultCacheTTL, clock.Now)})
}

var testMessages = []Message{{Role: "user", Content: "Test"}}

func TestCacheKey(t *testing.T) {
	params := map[string]any{"temperature": 0.7, "max_tokens": 100}
	k1, err := CacheKey("gpt-3.5-turbo", testMessages, params)
	if err != nil {
		t.Fatalf("CacheKey: %v", err)
	}
	k2, _ := CacheKey("gpt-3.5-turbo", []Message{{Role: "user", Content: "Test"}}, map[string]any{"max_tokens": 100, "temperature": 0.7})
	if k1 != k2 {
		t.Fatalf("identical calls produced different keys")
	}
	variants := []struct {
		name     string
		model    string
		messages []Message
		params   map[string]any
	}{
		{"temperature", "gpt-3.5-turbo", testMessages, map[string]any{"temperature": 0.8, "max_tokens": 100}},
		{"max tokens", "gpt-3.5-turbo", testMessages, map[string]any{"temperature": 0.7, "max_tokens": 101}},
		{"extra param", "gpt-3.5-turbo", testMessages, map[string]any{"temperature": 0.7, "max_tokens": 100, "top_p": 1}},
		{"message", "gpt-3.5-turbo", []Message{{Role: "user", Content: "Test!"}}, params},
		{"role", "gpt-3.5-turbo", []Message{{Role: "system", Content: "Test"}}, params},
		{"model", "gpt-4", testMessages, params},
	}
	for _, v := range variants {
		k, _ := CacheKey(v.model, v.messages, v.params)
		if k == k1 {
			t.Errorf("%s change did not change the key", v.name)
		}
	}
	a, _ := CacheKey("m", []Message{{Role: "user", Content: "a"}, {Role: "user", Content: "b"}}, nil)
	b, _ := CacheKey("m", []Message{{Role: "user", Content: "b"}, {Role: "user", Content: "a"}}, nil)
	if a == b {
		t.Fatalf("message order must change the key")
	}
}

func TestCompleteCachesResponses(t *testing.T) {
	clock := newFakeClock()
	rt := &fakeRuntime{}
	svc := newTestService(rt, clock)
	req := CompletionRequest{Messages: testMessages, Temperature: DefaultTemperature, MaxTokens: 2000}

	first, err := svc.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if first.Cached || first.Content != "Response" || first.Model != "gpt-3.5-turbo-0125" {
		t.Fatalf("first = %+v", first)
	}
	if first.Usage != (TokenUsage{InputTokens: 10000, OutputTokens: 2000, TotalTokens: 12000}) {
		t.Fatalf("usage = %+v", first.Usage)
	}
	if first.Cost != 0.008 {
		t.Fatalf("cost = %v, want 0.008", first.Cost)
	}

	clock.Advance(23 * time.Hour)
	second, err := svc.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !second.Cached || second.Content != "Response" {
		t.Fatalf("second = %+v", second)
	}
	if rt.count() != 1 {
		t.Fatalf("upstream called %d times, want 1", rt.count())
	}

	clock.Advance(time.Hour)
	third, err := svc.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if third.Cached {
		t.Fatalf("expired entry served from cache")
	}
	if rt.count() != 2 {
		t.Fatalf("upstream called %d times, want 2", rt.count())
	}
}

func TestCompleteSkipCache(t *testing.T) {
	clock := newFakeClock()
	rt := &fakeRuntime{}
	svc := newTestService(rt, clock)
	req := CompletionRequest{Messages: testMessages, Temperature: DefaultTemperature, SkipCache: true}
	for i := 0; i < 2; i++ {
		if _, err := svc.Complete(context.Background(), req); err != nil {
			t.Fatalf("Complete: %v", err)
		}
	}
	if rt.count() != 2 {
		t.Fatalf("upstream called %d times, want 2", rt.count())
	}
	if st := svc.CacheStats(); st.TotalEntries != 0 {
		t.Fatalf("uncached calls stored entries: %+v", st)
	}
}

func TestCompleteWrapsUpstreamErrors(t *testing.T) {
	upstream := &AuthError{APIError: &APIError{StatusCode: 401, Message: "invalid key"}}
	svc := newTestService(&fakeRuntime{err: upstream}, newFakeClock())
	_, err := svc.Complete(context.Background(), CompletionRequest{Messages: testMessages})
	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("err = %T, want *ServiceError", err)
	}
	if !strings.HasPrefix(err.Error(), "completion service error: ") || !strings.Contains(err.Error(), "invalid key") {
		t.Fatalf("message = %q", err.Error())
	}
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("original error not reachable through the wrapper")
	}
}

func TestHealthCheck(t *testing.T) {
	rt := &fakeRuntime{}
	svc := newTestService(rt, newFakeClock())
	if !svc.HealthCheck(context.Background()) {
		t.Fatalf("healthy runtime reported unhealthy")
	}
	if rt.calls[0].MaxTokens != HealthCheckTokens {
		t.Fatalf("health check max tokens = %d", rt.calls[0].MaxTokens)
	}
	if !svc.HealthCheck(context.Background()) || rt.count() != 2 {
		t.Fatalf("health check must bypass the cache")
	}
	rt.err = errors.New("API Error")
	if svc.HealthCheck(context.Background()) {
		t.Fatalf("failing runtime reported healthy")
	}
}

func TestCacheStatsAndClear(t *testing.T) {
	clock := newFakeClock()
	cache := NewResponseCache(24*time.Hour, clock.Now)
	if st := cache.Stats(); st != (CacheStats{}) {
		t.Fatalf("empty stats = %+v", st)
	}
	cache.Put("old", CompletionResult{Content: "a"})
	clock.Advance(23 * time.Hour)
	cache.Put("new", CompletionResult{Content: "b"})
	clock.Advance(2 * time.Hour)

	st := cache.Stats()
	if st.TotalEntries != 2 || st.ValidEntries != 1 || st.ExpiredEntries != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if _, ok := cache.Get("old"); ok {
		t.Fatalf("expired entry returned")
	}
	if st := cache.Stats(); st.TotalEntries != 2 {
		t.Fatalf("lookup purged an expired entry: %+v", st)
	}
	cache.Clear()
	if st := cache.Stats(); st.TotalEntries != 0 || st.Misses != 1 {
		t.Fatalf("stats after clear = %+v", st)
	}
}

func TestCacheExpiryIsStrict(t *testing.T) {
	clock := newFakeClock()
	cache := NewResponseCache(time.Hour, clock.Now)
	cache.Put("k", CompletionResult{})
	clock.Advance(time.Hour - time.Nanosecond)
	if _, ok := cache.Get("k"); !ok {
		t.Fatalf("entry expired early")
	}
	clock.Advance(time.Nanosecond)
	if _, ok := cache.Get("k"); ok {
		t.Fatalf("entry valid at its expiry instant")
	}
	if st := cache.Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("hits=%d misses=%d", st.Hits, st.Misses)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	cache := NewResponseCache(0, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Put("k", CompletionResult{Content: "v"})
				cache.Get("k")
				cache.Stats()
			}
		}()
	}
	wg.Wait()
	if st := cache.Stats(); st.TotalEntries != 1 {
		t.Fatalf("stats = %+v", st)
	}
}
