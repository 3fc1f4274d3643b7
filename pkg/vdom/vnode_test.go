package vdom

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindElement, "Element"},
		{KindText, "Text"},
		{Kind(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
	if Div().Kind() != KindElement || Text("x").Kind() != KindText {
		t.Error("Kind() mismatch")
	}
}

func TestAttrValue(t *testing.T) {
	tests := []struct {
		name     string
		v        AttrValue
		set      bool
		presence bool
		str      bool
		debug    string
	}{
		{"absent", Absent, false, false, false, "absent"},
		{"zero", AttrValue{}, false, false, false, "absent"},
		{"true", Bool(true), true, true, false, "true"},
		{"false", Bool(false), false, false, false, "false"},
		{"string", String("x"), true, false, true, `"x"`},
		{"empty string", String(""), true, false, true, `""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsSet(); got != tt.set {
				t.Errorf("IsSet() = %v, want %v", got, tt.set)
			}
			if got := tt.v.IsPresence(); got != tt.presence {
				t.Errorf("IsPresence() = %v, want %v", got, tt.presence)
			}
			if got := tt.v.IsString(); got != tt.str {
				t.Errorf("IsString() = %v, want %v", got, tt.str)
			}
			if got := tt.v.String(); got != tt.debug {
				t.Errorf("String() = %q, want %q", got, tt.debug)
			}
		})
	}

	if String("a") != String("a") || String("a") == String("b") || String("") == Bool(true) {
		t.Error("AttrValue equality is not by kind and text")
	}
}

func TestAttrsKeys(t *testing.T) {
	a := Attrs{"b": String("1"), "a": Bool(false), "c": Absent}
	got := a.Keys()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("Keys() = %v, want [a b c]", got)
	}
	if !a.Has("c") || a.Has("d") {
		t.Error("Has() mismatch")
	}
	if a.Get("d") != Absent {
		t.Error("Get of a missing key is not Absent")
	}
}

func TestHandlerCall(t *testing.T) {
	var got Event
	h := Handle(func(ev Event) { got = ev })
	h.Call(Event{Type: "click", Data: map[string]string{"k": "v"}})
	if got.Type != "click" || got.Data["k"] != "v" {
		t.Errorf("handler received %+v", got)
	}

	var nilH *Handler
	nilH.Call(Event{Type: "click"})

	if HandleFunc(func() {}) == HandleFunc(func() {}) {
		t.Error("distinct Handle calls share an identity")
	}
}

func TestStats(t *testing.T) {
	a := Stats{Created: 2, AttrSets: 3, Disposed: 1}
	b := Stats{Created: 1, Unlistens: 4}
	sum := a.Add(b)
	if sum.Created != 3 || sum.Unlistens != 4 || sum.Disposed != 1 {
		t.Errorf("Add() = %+v", sum)
	}
	if got := sum.Mutations(); got != 10 {
		t.Errorf("Mutations() = %d, want 10", got)
	}
}
