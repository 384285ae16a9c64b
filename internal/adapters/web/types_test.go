package web

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFlexString(t *testing.T) {
	cases := map[string]string{
		`5`:      "5",
		`5.5`:    "5.5",
		`"8"`:    "8",
		`" 6mm"`: "6mm",
		`null`:   "",
	}
	for in, want := range cases {
		var f flexString
		if err := json.Unmarshal([]byte(in), &f); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if string(f) != want {
			t.Errorf("%s: got %q, want %q", in, f, want)
		}
	}

	var f flexString
	if err := json.Unmarshal([]byte(`true`), &f); err == nil {
		t.Error("expected an error for a boolean")
	}
}

func TestDateValue(t *testing.T) {
	var body struct {
		A *dateValue `json:"a"`
		B *dateValue `json:"b"`
		C *dateValue `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a":"2026-03-01","b":"2026-03-01T10:30:00Z","c":null}`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.A.Time.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("a = %v", body.A.Time)
	}
	if body.B.Hour() != 10 {
		t.Errorf("b = %v", body.B.Time)
	}
	if body.C.ptr() != nil {
		t.Error("null date should be nil")
	}

	var d dateValue
	if err := json.Unmarshal([]byte(`"01/03/2026"`), &d); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}
