// SPDX-License-Identifier: EPL-2.0

package server

import (
	"sync"

	"github.com/zeebo/xxh3"
)

// ErrorNotification is a user-facing report of a failure the server hit
// while scanning, reading or loading. ID is stable per (kind, subject)
// so repeated errors about the same asset collapse.
type ErrorNotification struct {
	ID      uint64
	Title   string
	Message string
	Err     error
}

// ErrorSink receives notifications. Implementations must be safe for
// concurrent use; Publish is called from the server goroutine and from
// worker goroutines.
type ErrorSink interface {
	Publish(ErrorNotification)
}

// notificationID derives a stable id from an error kind and the subject
// it concerns.
func notificationID(kind, key string) uint64 {
	return xxh3.HashString(kind + "\x00" + key)
}

// NotificationList is a mutex-guarded ErrorSink that keeps the latest
// notification per id.
type NotificationList struct {
	mu    sync.Mutex
	byID  map[uint64]int
	items []ErrorNotification
}

func NewNotificationList() *NotificationList {
	return &NotificationList{byID: make(map[uint64]int)}
}

func (l *NotificationList) Publish(n ErrorNotification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i, ok := l.byID[n.ID]; ok {
		l.items[i] = n
		return
	}
	l.byID[n.ID] = len(l.items)
	l.items = append(l.items, n)
}

// Items returns a snapshot of the current notifications.
func (l *NotificationList) Items() []ErrorNotification {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ErrorNotification, len(l.items))
	copy(out, l.items)
	return out
}

// Dismiss removes the notification with the given id, if present.
func (l *NotificationList) Dismiss(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.byID[id]
	if !ok {
		return
	}
	delete(l.byID, id)
	l.items = append(l.items[:i], l.items[i+1:]...)
	for j := i; j < len(l.items); j++ {
		l.byID[l.items[j].ID] = j
	}
}
