// SPDX-License-Identifier: EPL-2.0

package server

import (
	"sync/atomic"
	"testing"
)

func TestRefCounted(t *testing.T) {
	t.Parallel()

	var refs atomic.Int32
	zeroed := 0
	value := "payload"

	h := newRefCounted(&value, &refs, func() { zeroed++ })
	if refs.Load() != 1 {
		t.Fatalf("refs = %d, want 1", refs.Load())
	}
	if *h.Get() != "payload" {
		t.Fatalf("Get = %q", *h.Get())
	}

	h2 := h.Retain()
	if refs.Load() != 2 {
		t.Fatalf("refs after Retain = %d, want 2", refs.Load())
	}

	h.Release()
	if refs.Load() != 1 || zeroed != 0 {
		t.Fatalf("refs = %d zeroed = %d after first release", refs.Load(), zeroed)
	}

	// Double release of the same handle is a no-op.
	h.Release()
	if refs.Load() != 1 || zeroed != 0 {
		t.Fatalf("refs = %d zeroed = %d after double release", refs.Load(), zeroed)
	}

	h2.Release()
	if refs.Load() != 0 {
		t.Fatalf("refs = %d, want 0", refs.Load())
	}
	if zeroed != 1 {
		t.Fatalf("zeroed = %d, want 1", zeroed)
	}
}

func TestNotificationList(t *testing.T) {
	t.Parallel()

	l := NewNotificationList()
	l.Publish(ErrorNotification{ID: 1, Title: "a"})
	l.Publish(ErrorNotification{ID: 2, Title: "b"})
	// Same id replaces rather than appends.
	l.Publish(ErrorNotification{ID: 1, Title: "a2"})

	items := l.Items()
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].Title != "a2" {
		t.Errorf("items[0].Title = %q, want a2", items[0].Title)
	}

	l.Dismiss(1)
	items = l.Items()
	if len(items) != 1 || items[0].ID != 2 {
		t.Fatalf("after dismiss: %+v", items)
	}
}

func TestNotificationID_Stable(t *testing.T) {
	t.Parallel()

	a := notificationID("read-library", "/x/y.mdata")
	b := notificationID("read-library", "/x/y.mdata")
	c := notificationID("scan-folder", "/x/y.mdata")
	if a != b {
		t.Error("same kind and key should hash identically")
	}
	if a == c {
		t.Error("different kinds should hash differently")
	}
}
