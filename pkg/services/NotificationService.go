package services

import (
	"slices"
	"sync"
	"time"

	"github.com/adampresley/photogallery/pkg/models"
)

const (
	DefaultDismissAfter = 3000 * time.Millisecond
)

/*
Notifier receives events meant for transient display.
*/
type Notifier interface {
	Notify(kind models.NotificationKind, message string)
}

type NotificationServicer interface {
	Notifier
	Close()
	Subscribe() (<-chan models.Notification, func())
	Visible() []models.Notification
}

type NotificationServiceConfig struct {
	DismissAfter time.Duration
	Now          func() time.Time
}

/*
NotificationService holds at most one visible notification per kind.
A new notification of a kind replaces the previous one and restarts its
dismiss timer. Subscribers get every notification as it is raised.
*/
type NotificationService struct {
	dismissAfter time.Duration
	now          func() time.Time
	state        *notificationState
}

type notificationState struct {
	sync.Mutex
	closed      bool
	sequence    uint64
	subscribers map[uint64]chan models.Notification
	visible     map[models.NotificationKind]*visibleNotification
}

type visibleNotification struct {
	notification models.Notification
	sequence     uint64
	timer        *time.Timer
}

func NewNotificationService(config NotificationServiceConfig) NotificationService {
	if config.DismissAfter <= 0 {
		config.DismissAfter = DefaultDismissAfter
	}

	if config.Now == nil {
		config.Now = time.Now
	}

	return NotificationService{
		dismissAfter: config.DismissAfter,
		now:          config.Now,
		state: &notificationState{
			subscribers: map[uint64]chan models.Notification{},
			visible:     map[models.NotificationKind]*visibleNotification{},
		},
	}
}

func (s NotificationService) Notify(kind models.NotificationKind, message string) {
	s.state.Lock()
	defer s.state.Unlock()

	if s.state.closed {
		return
	}

	if existing, ok := s.state.visible[kind]; ok {
		existing.timer.Stop()
	}

	s.state.sequence++
	sequence := s.state.sequence

	notification := models.Notification{
		Kind:      kind,
		Message:   message,
		CreatedAt: s.now(),
	}

	s.state.visible[kind] = &visibleNotification{
		notification: notification,
		sequence:     sequence,
		timer: time.AfterFunc(s.dismissAfter, func() {
			s.dismiss(kind, sequence)
		}),
	}

	for _, subscriber := range s.state.subscribers {
		select {
		case subscriber <- notification:
		default:
		}
	}
}

/*
Visible returns the notifications that have not been dismissed yet,
oldest first.
*/
func (s NotificationService) Visible() []models.Notification {
	s.state.Lock()
	defer s.state.Unlock()

	result := make([]models.Notification, 0, len(s.state.visible))

	for _, v := range s.state.visible {
		result = append(result, v.notification)
	}

	slices.SortFunc(result, func(a, b models.Notification) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		if a.Kind < b.Kind {
			return -1
		}

		if a.Kind > b.Kind {
			return 1
		}

		return 0
	})

	return result
}

/*
Subscribe returns a channel receiving every new notification and a
function to stop the subscription. Slow subscribers miss notifications
rather than block the sender.
*/
func (s NotificationService) Subscribe() (<-chan models.Notification, func()) {
	s.state.Lock()
	defer s.state.Unlock()

	ch := make(chan models.Notification, 16)

	if s.state.closed {
		close(ch)
		return ch, func() {}
	}

	s.state.sequence++
	id := s.state.sequence
	s.state.subscribers[id] = ch

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			s.state.Lock()
			defer s.state.Unlock()

			if subscriber, ok := s.state.subscribers[id]; ok {
				delete(s.state.subscribers, id)
				close(subscriber)
			}
		})
	}
}

/*
Close dismisses everything and closes all subscriber channels.
*/
func (s NotificationService) Close() {
	s.state.Lock()
	defer s.state.Unlock()

	if s.state.closed {
		return
	}

	s.state.closed = true

	for kind, v := range s.state.visible {
		v.timer.Stop()
		delete(s.state.visible, kind)
	}

	for id, subscriber := range s.state.subscribers {
		delete(s.state.subscribers, id)
		close(subscriber)
	}
}

func (s NotificationService) dismiss(kind models.NotificationKind, sequence uint64) {
	s.state.Lock()
	defer s.state.Unlock()

	if v, ok := s.state.visible[kind]; ok && v.sequence == sequence {
		delete(s.state.visible, kind)
	}
}
