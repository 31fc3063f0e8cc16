package model

import (
	"testing"
	"time"
)

func TestReminderTriggerAt_Absolute(t *testing.T) {
	at := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	r := Reminder{ScheduledAt: &at}

	trigger, ok := r.TriggerAt(
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC),
	)
	if !ok {
		t.Fatalf("absolute reminder must have a trigger")
	}
	if !trigger.Equal(at) {
		t.Fatalf("expected %v, got %v", at, trigger)
	}
}

func TestReminderTriggerAt_RelativeOffsets(t *testing.T) {
	start := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		r    Reminder
		want time.Time
	}{
		{
			name: "30 minutes before start",
			r:    Reminder{OffsetType: ReminderBeforeStart, Amount: 30, Unit: UnitMinute},
			want: time.Date(2024, 1, 5, 11, 30, 0, 0, time.UTC),
		},
		{
			name: "2 hours before end",
			r:    Reminder{OffsetType: ReminderBeforeEnd, Amount: 2, Unit: UnitHour},
			want: time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "1 day before end",
			r:    Reminder{OffsetType: ReminderBeforeEnd, Amount: 1, Unit: UnitDay},
			want: time.Date(2024, 1, 9, 12, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger, ok := tt.r.TriggerAt(start, end)
			if !ok {
				t.Fatalf("expected a trigger")
			}
			if !trigger.Equal(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, trigger)
			}
		})
	}
}

func TestReminderTriggerAt_Malformed(t *testing.T) {
	start := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	if _, ok := (Reminder{}).TriggerAt(start, end); ok {
		t.Fatalf("empty reminder must not have a trigger")
	}
	if _, ok := (Reminder{OffsetType: ReminderBeforeEnd, Amount: 5, Unit: "week"}).TriggerAt(start, end); ok {
		t.Fatalf("unknown unit must not have a trigger")
	}
}
