package store

import (
	"testing"

	"github.com/marcinz606/NegPy/config"
)

var _ EditStore = (*MemStore)(nil)

func TestMemStoreSaveLoadDelete(t *testing.T) {
	s := NewMemStore()

	if _, ok, err := s.Load("roll1/f01"); err != nil || ok {
		t.Fatalf("expected miss on empty store, got ok=%v err=%v", ok, err)
	}

	rec := Record{FileKey: "roll1/f01", Config: config.Default(), Thumbnail: []byte{1, 2, 3}}
	if err := s.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := s.Load("roll1/f01")
	if err != nil || !ok {
		t.Fatalf("expected hit after Save, got ok=%v err=%v", ok, err)
	}
	if got.FileKey != rec.FileKey || len(got.Thumbnail) != 3 {
		t.Fatalf("unexpected record: %+v", got)
	}

	keys, err := s.Keys()
	if err != nil || len(keys) != 1 || keys[0] != "roll1/f01" {
		t.Fatalf("unexpected keys: %v, err=%v", keys, err)
	}

	if err := s.Delete("roll1/f01"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Load("roll1/f01"); ok {
		t.Fatal("expected miss after Delete")
	}
}
