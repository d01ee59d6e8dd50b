package workers

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RenameStore is the slice of the data layer the fan-out worker needs:
// rewrite denormalized usernames in bounded batches, reporting how many
// rows each batch touched.
type RenameStore interface {
	RenamePostAuthors(ctx context.Context, userID uuid.UUID, username string, batchSize int) (int, error)
	RenameNotificationSenders(ctx context.Context, userID uuid.UUID, username string, batchSize int) (int, error)
}

type renameJob struct {
	userID   uuid.UUID
	username string
}

// FanoutQueue propagates a username change to every denormalized copy
// (posts, notifications) in the background. Profile updates enqueue and
// return immediately; workers chew through batches so a rename never
// blocks a request on a full table scan.
type FanoutQueue struct {
	store     RenameStore
	batchSize int
	jobs      chan renameJob
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

func NewFanoutQueue(store RenameStore) *FanoutQueue {
	q := &FanoutQueue{
		store:     store,
		batchSize: 500,
		jobs:      make(chan renameJob, 64),
		stopChan:  make(chan struct{}),
	}

	// Two workers keep renames strictly background work without hammering
	// the pool.
	for i := 0; i < 2; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	return q
}

// EnqueueUsernameChange schedules the fan-out for one renamed user.
func (q *FanoutQueue) EnqueueUsernameChange(userID uuid.UUID, username string) {
	job := renameJob{userID: userID, username: username}

	select {
	case q.jobs <- job:
		log.Printf("Fanout: queued username rewrite for user %s", userID)
	case <-time.After(5 * time.Second):
		log.Printf("Fanout: queue full, dropping rewrite for user %s (reconciled on next rename)", userID)
	}
}

func (q *FanoutQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case job := <-q.jobs:
			q.process(job)
		case <-q.stopChan:
			return
		}
	}
}

func (q *FanoutQueue) process(job renameJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	total := 0
	for {
		n, err := q.store.RenamePostAuthors(ctx, job.userID, job.username, q.batchSize)
		if err != nil {
			log.Printf("Fanout: post rename batch failed for user %s: %v", job.userID, err)
			return
		}
		total += n
		if n < q.batchSize {
			break
		}
	}

	for {
		n, err := q.store.RenameNotificationSenders(ctx, job.userID, job.username, q.batchSize)
		if err != nil {
			log.Printf("Fanout: notification rename batch failed for user %s: %v", job.userID, err)
			return
		}
		total += n
		if n < q.batchSize {
			break
		}
	}

	if total > 0 {
		log.Printf("Fanout: rewrote %d denormalized rows for user %s", total, job.userID)
	}
}

// Stop drains the workers. Queued jobs that have not started are dropped;
// the next rename for the same user repairs any remainder.
func (q *FanoutQueue) Stop() {
	close(q.stopChan)
	q.wg.Wait()
}
