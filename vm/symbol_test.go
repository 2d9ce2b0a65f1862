package vm

import "testing"

func TestSymbolTableEnsure(t *testing.T) {
	st := NewSymbolTable()
	if id := st.Ensure("add "); id != 0 {
		t.Errorf("first Ensure = %d, want 0", id)
	}
	if id := st.Ensure("count"); id != 1 {
		t.Errorf("second Ensure = %d, want 1", id)
	}
	if id := st.Ensure("add "); id != 0 {
		t.Errorf("repeated Ensure = %d, want 0", id)
	}
	if st.Count() != 2 {
		t.Errorf("Count = %d, want 2", st.Count())
	}
}

func TestSymbolTableFind(t *testing.T) {
	st := NewSymbolTable()
	st.Ensure("toString")
	if id := st.Find("toString"); id != 0 {
		t.Errorf("Find(toString) = %d, want 0", id)
	}
	if id := st.Find("missing"); id != -1 {
		t.Errorf("Find(missing) = %d, want -1", id)
	}
}

func TestSymbolTableName(t *testing.T) {
	st := NewSymbolTable()
	st.Ensure("iterate ")
	if name := st.Name(0); name != "iterate " {
		t.Errorf("Name(0) = %q, want %q", name, "iterate ")
	}
	if name := st.Name(7); name != "" {
		t.Errorf("Name(7) = %q, want empty", name)
	}
	if name := st.Name(-1); name != "" {
		t.Errorf("Name(-1) = %q, want empty", name)
	}
}

func TestSymbolTableNamesIsACopy(t *testing.T) {
	st := NewSymbolTable()
	st.Ensure("a")
	st.Ensure("b")
	names := st.Names()
	names[0] = "mutated"
	if st.Name(0) != "a" {
		t.Error("mutating Names() result changed the table")
	}
}
