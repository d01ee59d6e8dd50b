package services

import (
	"context"
	"log"
	"sync"
	"time"

	"sipReelAPI/internal/types/notification"
)

type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]string) error
}

// NotificationDispatcher pushes persisted notifications out-of-band so
// the social action that triggered them never waits on FCM.
type NotificationDispatcher struct {
	service      *NotificationService
	pushProvider PushNotificationProvider
	workers      int
	jobQueue     chan *DispatchJob
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

type DispatchJob struct {
	Notification *notification.Notification
	Tokens       []notification.DeviceToken
}

func NewNotificationDispatcher(service *NotificationService) *NotificationDispatcher {
	dispatcher := &NotificationDispatcher{
		service:  service,
		workers:  5,
		jobQueue: make(chan *DispatchJob, 100),
		stopChan: make(chan struct{}),
	}

	dispatcher.startWorkers()

	go dispatcher.cleanupLoop()

	return dispatcher
}

func (d *NotificationDispatcher) SetPushProvider(provider PushNotificationProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobQueue:
			d.processJob(job)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) processJob(job *DispatchJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notif := job.Notification

	if d.pushProvider == nil || len(job.Tokens) == 0 {
		return
	}

	data := map[string]string{
		"kind":            string(notif.Kind),
		"notification_id": notif.ID.String(),
	}
	if notif.PostID != nil {
		data["post_id"] = notif.PostID.String()
	}

	if err := d.pushProvider.SendPush(ctx, job.Tokens, "sipReel", notif.Message(), data); err != nil {
		log.Printf("Push failed for recipient %s: %v", notif.RecipientID, err)
	}
}

// Dispatch queues a notification for push delivery. Non-blocking with a
// timeout; a full queue drops the push, never the stored notification.
func (d *NotificationDispatcher) Dispatch(notif *notification.Notification, tokens []notification.DeviceToken) {
	job := &DispatchJob{
		Notification: notif,
		Tokens:       tokens,
	}

	select {
	case d.jobQueue <- job:
	case <-time.After(5 * time.Second):
		log.Printf("Failed to queue push for notification %s: queue full", notif.ID)
	}
}

// cleanupLoop prunes stale device tokens once a day.
func (d *NotificationDispatcher) cleanupLoop() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			n, err := d.service.pruneStaleDevices(ctx)
			cancel()
			if err != nil {
				log.Printf("Device token cleanup failed: %v", err)
			} else if n > 0 {
				log.Printf("Pruned %d stale device tokens", n)
			}
		case <-d.stopChan:
			return
		}
	}
}

// Stop shuts the worker pool down gracefully.
func (d *NotificationDispatcher) Stop() {
	log.Println("Stopping notification dispatcher...")
	close(d.stopChan)
	d.wg.Wait()
	log.Println("Notification dispatcher stopped")
}
