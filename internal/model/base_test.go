package model

import "testing"

func TestUUIDBaseBeforeCreateFillsID(t *testing.T) {
	a := &Achievement{}
	if err := a.BeforeCreate(nil); err != nil {
		t.Fatal(err)
	}
	if a.ID == "" {
		t.Error("ID not generated on create")
	}
	if len(a.ID) != 36 {
		t.Errorf("ID = %q, want 36-char UUID", a.ID)
	}
}

func TestUUIDBaseBeforeCreateKeepsExistingID(t *testing.T) {
	a := &Achievement{UUIDBase: UUIDBase{ID: "fixed-id"}}
	if err := a.BeforeCreate(nil); err != nil {
		t.Fatal(err)
	}
	if a.ID != "fixed-id" {
		t.Errorf("ID = %q, want existing id preserved", a.ID)
	}
}
