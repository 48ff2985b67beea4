package storage

import (
	"bytes"
	"errors"
	"testing"
)

func TestPrefixDBIsolation(t *testing.T) {
	inner := NewMemory()
	a := NewPrefixDB(inner, []byte("a/"))
	b := NewPrefixDB(inner, []byte("b/"))

	if err := a.Put([]byte("key"), []byte("from-a")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if err := b.Put([]byte("key"), []byte("from-b")); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, err := a.Get([]byte("key"))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !bytes.Equal(got, []byte("from-a")) {
		t.Errorf("a.Get() = %q, want %q", got, "from-a")
	}

	// The raw key must carry the prefix in the underlying DB.
	raw, err := inner.Get([]byte("a/key"))
	if err != nil {
		t.Fatalf("inner Get() error: %v", err)
	}
	if !bytes.Equal(raw, []byte("from-a")) {
		t.Errorf("inner value = %q, want %q", raw, "from-a")
	}
}

func TestPrefixDBDeleteAndHas(t *testing.T) {
	inner := NewMemory()
	p := NewPrefixDB(inner, []byte("ns/"))

	p.Put([]byte("k"), []byte("v"))
	ok, err := p.Has([]byte("k"))
	if err != nil || !ok {
		t.Fatalf("Has() = %v, %v, want true, nil", ok, err)
	}

	if err := p.Delete([]byte("k")); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := p.Get([]byte("k")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete = %v, want ErrNotFound", err)
	}
}
