package vm

// SymbolTable interns strings to stable small integer ids. Method names
// and global variable names each get their own table. Ids are dense and
// never reused, so they index directly into method tables and the globals
// slice.
//
// The table is not synchronized; the VM is single-threaded by contract.
type SymbolTable struct {
	byName map[string]int
	byID   []string
}

// NewSymbolTable creates an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: make(map[string]int)}
}

// Ensure returns the id for name, interning it if needed.
func (st *SymbolTable) Ensure(name string) int {
	if id, ok := st.byName[name]; ok {
		return id
	}
	id := len(st.byID)
	st.byName[name] = id
	st.byID = append(st.byID, name)
	return id
}

// Find returns the id for name, or -1 if it was never interned.
func (st *SymbolTable) Find(name string) int {
	if id, ok := st.byName[name]; ok {
		return id
	}
	return -1
}

// Name returns the string for an id, or "" if the id is invalid.
func (st *SymbolTable) Name(id int) string {
	if id < 0 || id >= len(st.byID) {
		return ""
	}
	return st.byID[id]
}

// Count returns how many symbols are interned.
func (st *SymbolTable) Count() int {
	return len(st.byID)
}

// Names returns a copy of all interned names in id order.
func (st *SymbolTable) Names() []string {
	names := make([]string, len(st.byID))
	copy(names, st.byID)
	return names
}
