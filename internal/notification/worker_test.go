package notification

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stable-reserve-backend/internal/model"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper to create an in-memory database seeded with one facility and one
// subscription to it.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Facility{}, &model.Horse{}, &model.Reservation{}, &model.PushSubscription{}))
	return db
}

func seedSubscription(t *testing.T, db *gorm.DB, endpoint string, facilityID int64) {
	t.Helper()

	facility := model.Facility{ID: facilityID, Name: fmt.Sprintf("Arena %d", facilityID), MaxCapacity: 2}
	require.NoError(t, db.FirstOrCreate(&facility).Error)

	sub := model.PushSubscription{Endpoint: endpoint, P256DH: "test_p256dh", Auth: "test_auth"}
	require.NoError(t, db.Create(&sub).Error)
	require.NoError(t, db.Model(&sub).Association("Facilities").Replace(&facility))
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	// Dispatch a job without starting workers.
	wp.Dispatch(123)

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, int64(123), job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_SendsAvailabilityAlert(t *testing.T) {
	db := newTestDB(t)
	seedSubscription(t, db, "https://example.com/push", 7)

	wp := NewWorkerPool(1, db, &webpush.Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			assert.Equal(t, "https://example.com/push", sub.Endpoint)
			assert.Equal(t, "Capacity has opened up at Arena 7!", string(payload))
			wg.Done()
			return &http.Response{
				StatusCode: http.StatusCreated,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(7)
	wg.Wait()
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	db := newTestDB(t)
	seedSubscription(t, db, "https://example.com/expired", 8)

	wp := NewWorkerPool(1, db, &webpush.Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			defer wg.Done()
			return &http.Response{
				StatusCode: http.StatusGone,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(8)
	wg.Wait()

	// The 410 response triggers deletion; poll briefly since it happens
	// after the sender returns.
	deadline := time.Now().Add(2 * time.Second)
	for {
		var count int64
		require.NoError(t, db.Model(&model.PushSubscription{}).Count(&count).Error)
		if count == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expired subscription was not deleted")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
