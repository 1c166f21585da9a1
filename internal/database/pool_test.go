// internal/database/pool_test.go
//
// Unit-tests for the lazy Pool using sqlmock.
//
// Run: go test ./internal/database -v

package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/spahost/internal/config"
)

type fakeSettings struct {
	s   *config.DBSettings
	err error
}

func (f fakeSettings) Settings(context.Context) (*config.DBSettings, error) { return f.s, f.err }

var testSettings = &config.DBSettings{Host: "localhost", Name: "blog_db", User: "blog_user", Password: "pw"}

func mockOpener(t *testing.T, calls *int) (openFunc, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	var mu sync.Mutex
	return func(_ context.Context, dsn string, _ Options) (*sqlx.DB, error) {
		mu.Lock()
		*calls++
		mu.Unlock()
		if dsn != testSettings.DSN() {
			t.Errorf("dsn = %q, want %q", dsn, testSettings.DSN())
		}
		return sqlx.NewDb(db, "sqlmock"), nil
	}, mock
}

func TestPool_AcquireMemoises(t *testing.T) {
	var calls int
	open, mock := mockOpener(t, &calls)
	p := NewPool(fakeSettings{s: testSettings}, DefaultOptions)
	p.open = open

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Fatalf("open called %d times, want 1", calls)
	}

	mock.ExpectClose()
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := p.Acquire(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Acquire after Close = %v, want ErrClosed", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestPool_SettingsErrorIsNotMemoised(t *testing.T) {
	var calls int
	open, _ := mockOpener(t, &calls)
	src := &switchingSettings{err: errors.New("missing DB_NAME")}
	p := NewPool(src, DefaultOptions)
	p.open = open

	if _, err := p.Acquire(context.Background()); err == nil {
		t.Fatal("expected settings error")
	}
	if calls != 0 {
		t.Fatalf("open called %d times after settings error", calls)
	}

	src.err = nil
	if _, err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire after recovery: %v", err)
	}
	if calls != 1 {
		t.Fatalf("open called %d times, want 1", calls)
	}
}

func TestPool_OpenErrorIsNotMemoised(t *testing.T) {
	p := NewPool(fakeSettings{s: testSettings}, DefaultOptions)
	fail := true
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	p.open = func(context.Context, string, Options) (*sqlx.DB, error) {
		if fail {
			return nil, errors.New("connection refused")
		}
		return sqlx.NewDb(db, "sqlmock"), nil
	}

	if _, err := p.Acquire(context.Background()); err == nil {
		t.Fatal("expected open error")
	}
	fail = false
	if _, err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire after recovery: %v", err)
	}
}

type switchingSettings struct{ err error }

func (s *switchingSettings) Settings(context.Context) (*config.DBSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	return testSettings, nil
}

type resettableSettings struct {
	fakeSettings
	resets int
}

func (r *resettableSettings) Reset() { r.resets++ }

func TestPool_ResetDropsPoolAndSettings(t *testing.T) {
	var calls int
	open, mock := mockOpener(t, &calls)
	src := &resettableSettings{fakeSettings: fakeSettings{s: testSettings}}
	p := NewPool(src, DefaultOptions)
	p.open = open

	first, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	mock.ExpectClose()
	if err := p.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if src.resets != 1 {
		t.Fatalf("settings resets = %d, want 1", src.resets)
	}

	second, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after Reset: %v", err)
	}
	if calls != 2 || second == first {
		t.Fatalf("open calls = %d, same pool = %v; want a fresh open", calls, second == first)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestPool_ResetInvalidatesRegistry(t *testing.T) {
	for _, k := range []string{"DB_NAME", "DB_USER", "DB_PASSWORD", "DB_HOST"} {
		t.Setenv(k, "")
	}
	t.Setenv("DB_NAME", "blog_db")
	t.Setenv("DB_USER", "blog_user")
	t.Setenv("DB_PASSWORD", "pw")

	reg := config.NewRegistry(config.Production, nil)
	var dsns []string
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	p := NewPool(reg, DefaultOptions)
	p.open = func(_ context.Context, dsn string, _ Options) (*sqlx.DB, error) {
		dsns = append(dsns, dsn)
		return sqlx.NewDb(db, "sqlmock"), nil
	}

	if _, err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	t.Setenv("DB_NAME", "other_db")
	_ = p.Reset()
	if _, err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire after Reset: %v", err)
	}

	if len(dsns) != 2 || dsns[0] == dsns[1] {
		t.Fatalf("dsns = %q, want two distinct opens", dsns)
	}
}
