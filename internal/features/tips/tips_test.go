package tips

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	calls atomic.Int32
	tip   string
	err   error
	delay time.Duration
}

func (f *fakeProvider) Tip(ctx context.Context, _ int) (string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.tip, f.err
}

const fallback = "Продолжай! Большой приз уже ждёт тебя."

func TestService_CachesPerDay(t *testing.T) {
	p := &fakeProvider{tip: "  Ты молодец!  "}
	s := NewService(p, fallback, "", time.Second)

	assert.Equal(t, "Ты молодец!", s.Tip(context.Background(), 3))
	assert.Equal(t, "Ты молодец!", s.Tip(context.Background(), 3))
	assert.EqualValues(t, 1, p.calls.Load())

	s.Tip(context.Background(), 4)
	assert.EqualValues(t, 2, p.calls.Load())

	s.Forget()
	s.Tip(context.Background(), 3)
	assert.EqualValues(t, 3, p.calls.Load())
}

func TestService_Fallback(t *testing.T) {
	s := NewService(&fakeProvider{err: errors.New("quota")}, fallback, "", time.Second)
	assert.Equal(t, fallback, s.Tip(context.Background(), 3))

	s = NewService(&fakeProvider{tip: "   "}, fallback, "", time.Second)
	assert.Equal(t, fallback, s.Tip(context.Background(), 3))
}

func TestService_EmptyTipFallback(t *testing.T) {
	const empty = "Ещё чуть-чуть, и большой приз твой!"

	s := NewService(&fakeProvider{tip: "   "}, fallback, empty, time.Second)
	assert.Equal(t, empty, s.Tip(context.Background(), 3))

	s = NewService(&fakeProvider{err: errors.New("quota")}, fallback, empty, time.Second)
	assert.Equal(t, fallback, s.Tip(context.Background(), 3))

	s = NewService(&fakeProvider{err: fmt.Errorf("parse: %w", ErrEmptyTip)}, fallback, empty, time.Second)
	assert.Equal(t, empty, s.Tip(context.Background(), 3))
}

func TestService_Timeout(t *testing.T) {
	p := &fakeProvider{tip: "поздно", delay: time.Second}
	s := NewService(p, fallback, "", 20*time.Millisecond)

	start := time.Now()
	assert.Equal(t, fallback, s.Tip(context.Background(), 5))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestService_CancelledCallerGetsFallback(t *testing.T) {
	p := &fakeProvider{tip: "ок", delay: 100 * time.Millisecond}
	s := NewService(p, fallback, "", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, fallback, s.Tip(ctx, 2))

	// Общий запрос не прерван: следующий вызов получает ответ генератора
	assert.Equal(t, "ок", s.Tip(context.Background(), 2))
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestService_CancelDoesNotAffectOtherWaiters(t *testing.T) {
	p := &fakeProvider{tip: "вместе", delay: 100 * time.Millisecond}
	s := NewService(p, fallback, "", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan string, 1)
	go func() { first <- s.Tip(ctx, 6) }()
	time.Sleep(20 * time.Millisecond)

	second := make(chan string, 1)
	go func() { second <- s.Tip(context.Background(), 6) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.Equal(t, fallback, <-first)
	assert.Equal(t, "вместе", <-second)
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestService_Singleflight(t *testing.T) {
	p := &fakeProvider{tip: "вместе", delay: 50 * time.Millisecond}
	s := NewService(p, fallback, "", time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "вместе", s.Tip(context.Background(), 6))
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestService_FetchAsync(t *testing.T) {
	s := NewService(&fakeProvider{tip: "асинхронно"}, fallback, "", time.Second)

	got := make(chan string, 1)
	s.FetchAsync(1, func(tip string) { got <- tip })

	select {
	case tip := <-got:
		assert.Equal(t, "асинхронно", tip)
	case <-time.After(time.Second):
		t.Fatal("tip not delivered")
	}
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(7)
	ctx := context.Background()

	tip, err := p.Tip(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Ещё 4 дня до большого приза!", tip)

	tip, _ = p.Tip(ctx, 2)
	assert.Equal(t, "Ещё 5 дней до большого приза!", tip)
	tip, _ = p.Tip(ctx, 6)
	assert.Equal(t, "Остался всего 1 день до большого приза!", tip)
	tip, _ = p.Tip(ctx, 7)
	assert.Equal(t, "Сегодня день большого приза — не пропусти!", tip)
}

func TestGenerativeProvider(t *testing.T) {
	var gotBody, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Ещё чуть-чуть!"}]}}]}`))
	}))
	defer srv.Close()

	p := NewGenerativeProvider(srv.URL, "secret")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	tip, err := p.Tip(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Ещё чуть-чуть!", tip)
	assert.Equal(t, "secret", gotKey)
	assert.Contains(t, gotBody, `"contents"`)
	assert.Contains(t, gotBody, "3-м дне")
}

func TestGenerativeProvider_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewGenerativeProvider(srv.URL, "").Tip(context.Background(), 1)
	assert.Error(t, err)
}

func TestParseTip(t *testing.T) {
	tip, err := parseTip([]byte(`{"text":" плоский ответ "}`))
	require.NoError(t, err)
	assert.Equal(t, "плоский ответ", tip)

	_, err = parseTip([]byte(`{"candidates":[]}`))
	assert.ErrorIs(t, err, ErrEmptyTip)

	_, err = parseTip([]byte(`not json`))
	assert.Error(t, err)
}
