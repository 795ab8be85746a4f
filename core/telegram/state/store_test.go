package state

import "testing"

func TestStoreReplaceAndDelete(t *testing.T) {
	s := NewStore[string]()
	if s.InProgress(1) {
		t.Fatal("fresh store should have no sessions")
	}

	s.Put(1, "first")
	s.Put(1, "second")
	if got, ok := s.Get(1); !ok || got != "second" {
		t.Fatalf("Get = %q, %v; want second, true", got, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}

	s.Delete(1)
	if s.InProgress(1) {
		t.Fatal("session should be gone after Delete")
	}
	if _, ok := s.Get(1); ok {
		t.Fatal("Get should miss after Delete")
	}
}

func TestStoreIsolatedPerUser(t *testing.T) {
	s := NewStore[int]()
	s.Put(1, 10)
	s.Put(2, 20)
	s.Delete(1)
	if got, ok := s.Get(2); !ok || got != 20 {
		t.Fatalf("Get(2) = %d, %v; want 20, true", got, ok)
	}
}
