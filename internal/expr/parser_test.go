package expr

import "testing"

func TestParseArithmeticPrecedence(t *testing.T) {
	n, err := Parse("1 + 2 * 3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if n.Kind != KBinary || n.Op != TokPlus {
		t.Fatalf("expected top-level +, got %+v", n)
	}
	if n.Y.Kind != KBinary || n.Y.Op != TokStar {
		t.Fatalf("expected right side to be *, got %+v", n.Y)
	}
}

func TestParseTernary(t *testing.T) {
	n, err := Parse("version >= 2 ? 1 : 0")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if n.Kind != KTernary {
		t.Fatalf("expected ternary, got %+v", n)
	}
}

func TestParseNodeReference(t *testing.T) {
	n, err := Parse("nodeLength(#data_field) + 1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if n.Kind != KBinary || n.X.Kind != KCall || n.X.Func != "nodeLength" {
		t.Fatalf("unexpected AST: %+v", n)
	}
	if len(n.X.Args) != 1 || n.X.Args[0].Kind != KString || n.X.Args[0].StrLit != "data_field" {
		t.Fatalf("expected preprocessed reference arg, got %+v", n.X.Args)
	}
}

func TestParseSyntaxError(t *testing.T) {
	if _, err := Parse("1 + "); err == nil {
		t.Fatal("expected syntax error")
	}
}

func TestPreprocessLeavesQuotedHashAlone(t *testing.T) {
	got := Preprocess("hashOf(#x, '#notaref')")
	want := "hashOf('x', '#notaref')"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
