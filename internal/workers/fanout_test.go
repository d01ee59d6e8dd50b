package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// mockRenameStore records rename calls and serves a fixed number of rows
// so batch looping can be exercised without a database.
type mockRenameStore struct {
	mu               sync.Mutex
	postRows         int
	notificationRows int
	postBatches      int
	notifBatches     int
	lastUsername     string
	lastUserID       uuid.UUID
	done             chan struct{}
	closeOnce        sync.Once
}

func newMockRenameStore(postRows, notificationRows int) *mockRenameStore {
	return &mockRenameStore{
		postRows:         postRows,
		notificationRows: notificationRows,
		done:             make(chan struct{}),
	}
}

func (m *mockRenameStore) RenamePostAuthors(ctx context.Context, userID uuid.UUID, username string, batchSize int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postBatches++
	m.lastUserID = userID
	m.lastUsername = username

	n := batchSize
	if m.postRows < batchSize {
		n = m.postRows
	}
	m.postRows -= n
	return n, nil
}

func (m *mockRenameStore) RenameNotificationSenders(ctx context.Context, userID uuid.UUID, username string, batchSize int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifBatches++

	n := batchSize
	if m.notificationRows < batchSize {
		n = m.notificationRows
	}
	m.notificationRows -= n
	if m.notificationRows == 0 && n < batchSize {
		m.closeOnce.Do(func() { close(m.done) })
	}
	return n, nil
}

func TestFanoutRewritesAllBatches(t *testing.T) {
	// 1200 posts at batch size 500 needs three post batches (500/500/200),
	// then notification batches run to exhaustion.
	store := newMockRenameStore(1200, 10)
	q := NewFanoutQueue(store)
	defer q.Stop()

	userID := uuid.New()
	q.EnqueueUsernameChange(userID, "renamed_user")

	select {
	case <-store.done:
	case <-time.After(5 * time.Second):
		t.Fatal("fan-out did not finish in time")
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if store.postBatches != 3 {
		t.Errorf("expected 3 post batches, got %d", store.postBatches)
	}
	if store.postRows != 0 {
		t.Errorf("expected all post rows rewritten, %d left", store.postRows)
	}
	if store.lastUserID != userID {
		t.Errorf("rename targeted wrong user: %s", store.lastUserID)
	}
	if store.lastUsername != "renamed_user" {
		t.Errorf("rename carried wrong username: %q", store.lastUsername)
	}
}

func TestFanoutHandlesZeroRows(t *testing.T) {
	// A user with no posts still completes cleanly in one batch per table.
	store := newMockRenameStore(0, 0)
	q := NewFanoutQueue(store)
	defer q.Stop()

	q.EnqueueUsernameChange(uuid.New(), "nobody")

	select {
	case <-store.done:
	case <-time.After(5 * time.Second):
		t.Fatal("fan-out did not finish in time")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.postBatches != 1 || store.notifBatches != 1 {
		t.Errorf("expected single empty batch per table, got posts=%d notifs=%d",
			store.postBatches, store.notifBatches)
	}
}
