package guard

import (
	"sync/atomic"
	"testing"
)

// recorder is a Terminator implementation that records the payloads it
// terminates.
type recorder struct {
	got   *[]int
	calls *int32
}

func (r recorder) Terminate(payload int) {
	atomic.AddInt32(r.calls, 1)
	*r.got = append(*r.got, payload)
}

func TestScopedTerminator_TerminatorReceivesPayload(t *testing.T) {
	var calls int32
	var got int

	func() {
		st := NewScopedFunc(42, func(v int) {
			atomic.AddInt32(&calls, 1)
			got = v
		})
		defer st.Finalize()
	}()

	if calls != 1 {
		t.Fatalf("expected exactly 1 terminate call, got %d", calls)
	}
	if got != 42 {
		t.Errorf("terminator received %d, want 42", got)
	}
}

func TestScopedTerminator_ReleaseDisarms(t *testing.T) {
	var calls int32

	func() {
		st := NewScopedFunc("payload", func(string) { atomic.AddInt32(&calls, 1) })
		defer st.Finalize()

		v, _ := st.Release()
		if v != "payload" {
			t.Errorf("Release payload = %q, want %q", v, "payload")
		}
	}()

	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Errorf("terminator ran after Release: %d calls", got)
	}
}

func TestScopedTerminator_PairFidelity(t *testing.T) {
	var calls int32
	var got int

	st := NewScopedFunc(7, func(v int) {
		atomic.AddInt32(&calls, 1)
		got = v
	})

	v, f := st.Release()
	if v != 7 {
		t.Fatalf("Release payload = %d, want 7", v)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("Release executed the terminator")
	}

	// The returned terminator stays usable after extraction.
	f.Terminate(v)
	if atomic.LoadInt32(&calls) != 1 || got != 7 {
		t.Errorf("returned terminator: calls=%d got=%d, want 1 and 7", calls, got)
	}
}

func TestScopedTerminator_MutationThroughRef(t *testing.T) {
	var got int

	func() {
		st := NewScopedFunc(1, func(v int) { got = v })
		defer st.Finalize()

		*st.Ref() = 10
		*st.Ref() += 5

		if v := st.Get(); v != 15 {
			t.Errorf("Get after mutation = %d, want 15", v)
		}
	}()

	if got != 15 {
		t.Errorf("terminator received %d, want mutated value 15", got)
	}
}

func TestScopedTerminator_ReleaseReturnsMutatedValue(t *testing.T) {
	st := NewScopedFunc([]string{"a"}, func([]string) {})
	*st.Ref() = append(*st.Ref(), "b")

	v, _ := st.Release()
	if len(v) != 2 || v[1] != "b" {
		t.Errorf("Release returned %v, want mutated [a b]", v)
	}
}

func TestScopedTerminator_DoubleFinalizeIsNoop(t *testing.T) {
	var calls int32

	st := NewScopedFunc(0, func(int) { atomic.AddInt32(&calls, 1) })
	st.Finalize()
	st.Finalize()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 terminate call after repeated Finalize, got %d", got)
	}
}

func TestScopedTerminator_FinalizeOnPanicPath(t *testing.T) {
	var calls int32

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic to propagate")
			}
		}()

		st := NewScopedFunc(1, func(int) { atomic.AddInt32(&calls, 1) })
		defer st.Finalize()
		panic("unwinding")
	}()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected terminate on panic path, got %d calls", got)
	}
}

func TestScopedTerminator_CustomTerminatorType(t *testing.T) {
	var calls int32
	var got []int
	r := recorder{got: &got, calls: &calls}

	func() {
		st := NewScoped(13, r)
		defer st.Finalize()
	}()

	if calls != 1 || len(got) != 1 || got[0] != 13 {
		t.Errorf("recorder terminator: calls=%d got=%v, want one call with 13", calls, got)
	}
}

func TestScopedTerminator_String(t *testing.T) {
	st := NewScopedFunc(42, func(int) {})
	defer st.Finalize()

	if s := st.String(); s != "42" {
		t.Errorf("String() = %q, want %q (payload only)", s, "42")
	}
}

func TestTerminatorFunc_Terminate(t *testing.T) {
	var got string
	TerminatorFunc[string](func(v string) { got = v }).Terminate("x")

	if got != "x" {
		t.Errorf("TerminatorFunc.Terminate: got %q, want %q", got, "x")
	}
}
