package redisclient

import (
    "context"
    "errors"
    "testing"
    "time"

    redismock "github.com/go-redis/redismock/v8"
)

// TestSetEx_Success verifies that SetEx writes the key on first attempt.
func TestSetEx_Success(t *testing.T) {
    db, mock := redismock.NewClientMock()
    client := NewFromRedis(db)

    mock.ExpectSet("k", "v", time.Minute).SetVal("OK")

    if err := client.SetEx(context.Background(), "k", "v", time.Minute); err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unfulfilled expectations: %v", err)
    }
}

// TestSetEx_RetryOnError ensures SetEx retries on a transient Redis error.
func TestSetEx_RetryOnError(t *testing.T) {
    db, mock := redismock.NewClientMock()
    client := NewFromRedis(db)

    mock.ExpectSet("k", "v", time.Minute).SetErr(errors.New("connection reset"))
    mock.ExpectSet("k", "v", time.Minute).SetVal("OK")

    if err := client.SetEx(context.Background(), "k", "v", time.Minute); err != nil {
        t.Fatalf("expected success after retry, got %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unfulfilled expectations: %v", err)
    }
}

func TestGet_NotFound(t *testing.T) {
    db, mock := redismock.NewClientMock()
    client := NewFromRedis(db)

    mock.ExpectGet("missing").RedisNil()

    _, err := client.Get(context.Background(), "missing")
    if !errors.Is(err, ErrNotFound) {
        t.Fatalf("err = %v; want ErrNotFound", err)
    }
    if client.state != stateClosed {
        t.Errorf("a miss must not trip the breaker")
    }
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
    db, mock := redismock.NewClientMock()
    client := NewFromRedis(db)

    for i := 0; i < failureThreshold; i++ {
        mock.ExpectGet("k").SetErr(errors.New("down"))
    }
    for i := 0; i < failureThreshold; i++ {
        client.Get(context.Background(), "k")
    }

    if _, err := client.Get(context.Background(), "k"); !errors.Is(err, ErrCircuitBreakerOpen) {
        t.Fatalf("err = %v; want ErrCircuitBreakerOpen", err)
    }
}

func TestKeys_Paginates(t *testing.T) {
    db, mock := redismock.NewClientMock()
    client := NewFromRedis(db)

    mock.ExpectScan(0, "quote:*", 100).SetVal([]string{"quote:a"}, 7)
    mock.ExpectScan(7, "quote:*", 100).SetVal([]string{"quote:b"}, 0)

    keys, err := client.Keys(context.Background(), "quote:*")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if len(keys) != 2 {
        t.Errorf("keys = %v; want 2", keys)
    }
}

func TestHalfOpenAdmitsOneProbe(t *testing.T) {
    db, _ := redismock.NewClientMock()
    client := NewFromRedis(db)
    client.state = stateOpen
    client.lastFailure = time.Now().Add(-2 * openCooldown).Unix()

    if !client.allow() {
        t.Fatal("first caller after cooldown should be admitted as the probe")
    }
    if client.allow() {
        t.Error("second caller must be refused while the probe is in flight")
    }

    client.checkCircuitBreaker(nil)
    if !client.allow() {
        t.Error("a successful probe should close the breaker")
    }
}

func TestHalfOpenProbeFailureReopens(t *testing.T) {
    db, mock := redismock.NewClientMock()
    client := NewFromRedis(db)
    client.state = stateOpen
    client.lastFailure = time.Now().Add(-2 * openCooldown).Unix()

    mock.ExpectGet("k").SetErr(errors.New("still down"))
    client.Get(context.Background(), "k")

    if _, err := client.Get(context.Background(), "k"); !errors.Is(err, ErrCircuitBreakerOpen) {
        t.Fatalf("err = %v; want ErrCircuitBreakerOpen after a failed probe", err)
    }
}

func TestSetEx_StopsRetryingWhenBreakerOpens(t *testing.T) {
    db, mock := redismock.NewClientMock()
    client := NewFromRedis(db)
    client.failureCount = failureThreshold - 1

    mock.ExpectSet("k", "v", time.Minute).SetErr(errors.New("connection refused"))

    start := time.Now()
    err := client.SetEx(context.Background(), "k", "v", time.Minute)
    if !errors.Is(err, ErrCircuitBreakerOpen) {
        t.Fatalf("err = %v; want ErrCircuitBreakerOpen", err)
    }
    if el := time.Since(start); el > 2*time.Second {
        t.Errorf("SetEx took %v; retries should stop once the breaker opens", el)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Errorf("unfulfilled expectations: %v", err)
    }
}
