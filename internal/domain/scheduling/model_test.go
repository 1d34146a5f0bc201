package scheduling

import (
	"encoding/json"
	"testing"
)

func TestCanTransition(t *testing.T) {
	legal := map[Status][]Status{
		StatusPending:   {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusCancelled, StatusCompleted},
	}
	all := []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, s := range legal[from] {
				if s == to {
					want = true
				}
			}
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestStatus_Active(t *testing.T) {
	if !StatusPending.Active() || !StatusConfirmed.Active() {
		t.Error("pending and confirmed are active")
	}
	if StatusCancelled.Active() || StatusCompleted.Active() {
		t.Error("cancelled and completed are not active")
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-06-03")
	if err != nil {
		t.Fatal(err)
	}

	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2024-06-03"` {
		t.Errorf("marshal: got %s", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != d {
		t.Errorf("round trip: got %v, want %v", back, d)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "03-06-2024", "2024/06/03", "not a date"} {
		if _, err := ParseDate(s); err == nil {
			t.Errorf("ParseDate(%q): expected error", s)
		}
	}
}
