package compiler

import (
	"testing"
)

func FuzzLexer(f *testing.F) {
	seeds := []string{
		"var x = 42",
		`"a string with \n escapes"`,
		"1..5 0...n 3.14.floor",
		"/* nested /* comments */ here */",
		"// line comment\nnext",
		"class Foo is Bar {\nm(a, b) { a + b }\n}",
		"\"unterminated",
		"0xFF 1e10 1.5e-3",
		"héllo wörld",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		tokens := Tokenize(input)
		if len(tokens) == 0 {
			t.Fatalf("Tokenize(%q) returned no tokens", input)
		}
		last := tokens[len(tokens)-1]
		if last.Type != TokenEOF && last.Type != TokenError {
			t.Errorf("Tokenize(%q) ended with %v, want EOF or ERROR", input, last.Type)
		}
	})
}

func FuzzParse(f *testing.F) {
	seeds := []string{
		"var x = 1 + 2 * 3",
		"class Point {\nnew(x, y) {\n_x = x\n_y = y\n}\n}",
		"for (i in 1..10) {\nif (i % 2 == 0) sum = sum + i\n}",
		"var f = {|a| a * 2 }",
		"list.map {|x| x }.where {|x| x > 1 }",
		"new Fiber {\nFiber.yield(1)\n}",
		"while (true) break",
		"a[0] = b[1, 2]",
		"return",
		"{",
		"1 +",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		prog, err := Parse(input)
		if err != nil {
			return
		}
		if prog == nil {
			t.Fatalf("Parse(%q) returned nil program without error", input)
		}
		// Whatever parses must also survive analysis.
		Analyze(prog)
	})
}
