package vm

import "testing"

func TestSignature(t *testing.T) {
	tests := []struct {
		name    string
		numArgs int
		want    string
	}{
		{"count", 0, "count"},
		{"add", 1, "add "},
		{"new", 2, "new  "},
		{"+", 1, "+ "},
		{"call", 0, "call"},
		{"call", 3, "call   "},
	}
	for _, tt := range tests {
		if got := Signature(tt.name, tt.numArgs); got != tt.want {
			t.Errorf("Signature(%q, %d) = %q, want %q", tt.name, tt.numArgs, got, tt.want)
		}
	}
}

func TestSubscriptSignature(t *testing.T) {
	tests := []struct {
		numIndices int
		setter     bool
		want       string
	}{
		{1, false, "[ ]"},
		{1, true, "[ ]="},
		{2, false, "[  ]"},
		{2, true, "[  ]="},
	}
	for _, tt := range tests {
		if got := SubscriptSignature(tt.numIndices, tt.setter); got != tt.want {
			t.Errorf("SubscriptSignature(%d, %v) = %q, want %q", tt.numIndices, tt.setter, got, tt.want)
		}
	}
}

func TestSignatureArity(t *testing.T) {
	tests := []struct {
		signature string
		wantName  string
		wantArity int
	}{
		{"count", "count", 0},
		{"add ", "add", 1},
		{"new  ", "new", 2},
		{"+ ", "+", 1},
		{"[ ]", "[ ]", 1},
		{"[ ]=", "[ ]=", 2},
		{"[  ]", "[  ]", 2},
		{"[  ]=", "[  ]=", 3},
	}
	for _, tt := range tests {
		name, arity := SignatureArity(tt.signature)
		if name != tt.wantName || arity != tt.wantArity {
			t.Errorf("SignatureArity(%q) = %q, %d, want %q, %d",
				tt.signature, name, arity, tt.wantName, tt.wantArity)
		}
	}
}
