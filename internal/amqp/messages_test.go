package amqp

import (
	"testing"
	"time"
)

func TestNewChangeEvent(t *testing.T) {
	event := NewChangeEvent(EventCreated, "ws-1", []string{"t1", "t2"})

	if event.Kind != EventCreated {
		t.Errorf("Kind = %v, want %v", event.Kind, EventCreated)
	}
	if event.WorkspaceID != "ws-1" {
		t.Errorf("WorkspaceID = %v, want ws-1", event.WorkspaceID)
	}
	if len(event.IDs) != 2 {
		t.Errorf("IDs = %v, want two entries", event.IDs)
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestChangeEventFromJSON_Invalid(t *testing.T) {
	if _, err := ChangeEventFromJSON([]byte(`{"ids": "not_a_list"}`)); err == nil {
		t.Error("ChangeEventFromJSON() should fail with invalid JSON")
	}
}

func TestNotificationFromJSON_Invalid(t *testing.T) {
	if _, err := NotificationFromJSON([]byte(`{"amount_cents": "abc"}`)); err == nil {
		t.Error("NotificationFromJSON() should fail with invalid JSON")
	}
}
