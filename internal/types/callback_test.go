package types_test

import (
	"testing"

	"github.com/ghettovoice/gograce/internal/types"
)

func TestCallbackManager_AddRemove(t *testing.T) {
	t.Parallel()

	var m types.CallbackManager[int]

	remove1 := m.Add(1)
	m.Add(2)
	m.Add(3)

	if got := m.Len(); got != 3 {
		t.Fatalf("m.Len() = %d, want 3", got)
	}

	remove1()
	remove1() // idempotent

	if got := m.Len(); got != 2 {
		t.Fatalf("m.Len() = %d, want 2 after remove", got)
	}

	got := m.Drain()
	want := []int{2, 3}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("m.Drain() = %v, want %v", got, want)
	}
}

func TestCallbackManager_Drain(t *testing.T) {
	t.Parallel()

	var m types.CallbackManager[string]

	removeA := m.Add("a")
	m.Add("b")

	drained := m.Drain()
	if len(drained) != 2 || drained[0] != "a" || drained[1] != "b" {
		t.Fatalf("m.Drain() = %v, want [a b]", drained)
	}

	if got := m.Len(); got != 0 {
		t.Fatalf("m.Len() = %d, want 0 after drain", got)
	}

	// Removing a drained registration is a no-op.
	removeA()

	if got := m.Drain(); got != nil {
		t.Fatalf("second m.Drain() = %v, want nil", got)
	}
}

func TestCallbackManager_Nil(t *testing.T) {
	t.Parallel()

	var m *types.CallbackManager[int]

	if got := m.Len(); got != 0 {
		t.Fatalf("nil manager Len() = %d, want 0", got)
	}
	if got := m.Drain(); got != nil {
		t.Fatalf("nil manager Drain() = %v, want nil", got)
	}
}
