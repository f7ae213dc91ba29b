package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var testWeek = WeekHours{
	Weekday:  Hours{Start: "08:00", End: "19:00", Interval: 30 * time.Minute},
	Saturday: Hours{Start: "08:00", End: "12:00", Interval: 30 * time.Minute},
}

// 2026-09-02 is a Wednesday.
func wednesday(hour, minute int) time.Time {
	return time.Date(2026, 9, 2, hour, minute, 0, 0, time.Local)
}

func TestAvailableSlotsFullGrid(t *testing.T) {
	slots := AvailableSlots(wednesday(0, 0), testWeek, nil)
	if len(slots) != 22 {
		t.Fatalf("weekday grid = %d slots, want 22", len(slots))
	}
	if !slots[0].Equal(wednesday(8, 0)) {
		t.Errorf("first slot = %v, want 08:00", slots[0])
	}
	if !slots[len(slots)-1].Equal(wednesday(18, 30)) {
		t.Errorf("last slot = %v, want 18:30", slots[len(slots)-1])
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i].After(slots[i-1]) {
			t.Fatal("slots must be strictly ascending")
		}
	}
}

func TestAvailableSlotsBookingBlocksFullHour(t *testing.T) {
	slots := AvailableSlots(wednesday(0, 0), testWeek, []time.Time{wednesday(10, 0)})

	blockedAt := map[string]bool{}
	for _, s := range slots {
		blockedAt[s.Format("15:04")] = true
	}
	if blockedAt["10:00"] || blockedAt["10:30"] {
		t.Error("a 10:00 booking must block 10:00 and 10:30")
	}
	if !blockedAt["09:30"] || !blockedAt["11:00"] {
		t.Error("09:30 and 11:00 must remain free around a 10:00 booking")
	}
	if len(slots) != 20 {
		t.Errorf("got %d slots, want 20", len(slots))
	}
}

func TestAvailableSlotsSundayClosed(t *testing.T) {
	sunday := time.Date(2026, 9, 6, 0, 0, 0, 0, time.Local)
	if slots := AvailableSlots(sunday, testWeek, nil); len(slots) != 0 {
		t.Fatalf("sunday must be closed, got %d slots", len(slots))
	}
}

func TestAvailableSlotsSaturdayWindow(t *testing.T) {
	saturday := time.Date(2026, 9, 5, 0, 0, 0, 0, time.Local)
	slots := AvailableSlots(saturday, testWeek, nil)
	if len(slots) != 8 {
		t.Fatalf("saturday grid = %d slots, want 8", len(slots))
	}
	if got := slots[len(slots)-1].Format("15:04"); got != "11:30" {
		t.Errorf("last saturday slot = %s, want 11:30", got)
	}
}

func TestAvailableSlotsFullyBooked(t *testing.T) {
	bookings := make([]time.Time, 0, 11)
	for h := 8; h < 19; h++ {
		bookings = append(bookings, wednesday(h, 0))
	}
	if slots := AvailableSlots(wednesday(0, 0), testWeek, bookings); len(slots) != 0 {
		t.Fatalf("fully booked day must be empty, got %d slots", len(slots))
	}
}

func TestAvailablePairSlotsPriority(t *testing.T) {
	first := Professor{ID: uuid.New(), Name: "Ana", Priority: 1}
	second := Professor{ID: uuid.New(), Name: "Bruno", Priority: 2}

	profBookings := map[uuid.UUID][]time.Time{
		first.ID: {wednesday(10, 0)},
	}

	pairs := AvailablePairSlots(wednesday(0, 0), testWeek, []Professor{second, first}, profBookings, nil)

	byClock := map[string]PairSlot{}
	for _, p := range pairs {
		byClock[p.Start.Format("15:04")] = p
	}

	if got := byClock["09:00"]; got.ProfessorID != first.ID {
		t.Errorf("09:00 professor = %s, want the lowest priority (Ana)", got.ProfessorName)
	}
	// While Ana is in her 10:00 visit, Bruno covers the slot.
	if got := byClock["10:30"]; got.ProfessorID != second.ID {
		t.Errorf("10:30 professor = %s, want Bruno", got.ProfessorName)
	}
}

func TestAvailablePairSlotsRoomBlocksBoth(t *testing.T) {
	prof := Professor{ID: uuid.New(), Name: "Ana", Priority: 1}

	pairs := AvailablePairSlots(wednesday(0, 0), testWeek, []Professor{prof}, nil, []time.Time{wednesday(8, 0)})
	for _, p := range pairs {
		clock := p.Start.Format("15:04")
		if clock == "08:00" || clock == "08:30" {
			t.Fatalf("room booking at 08:00 must block the pair at %s", clock)
		}
	}
}

func TestAvailablePairSlotsNoProfessorFree(t *testing.T) {
	prof := Professor{ID: uuid.New(), Name: "Ana", Priority: 1}
	profBookings := map[uuid.UUID][]time.Time{prof.ID: {wednesday(9, 0)}}

	pairs := AvailablePairSlots(wednesday(0, 0), testWeek, []Professor{prof}, profBookings, nil)
	for _, p := range pairs {
		clock := p.Start.Format("15:04")
		if clock == "09:00" || clock == "09:30" {
			t.Fatalf("slot %s has no free professor and must be dropped", clock)
		}
	}
}
