package symtab

import "testing"

func TestValTypePredicates(t *testing.T) {
	cases := []struct {
		name       string
		t          ValType
		variable   bool
		callable   bool
		function   bool
		procedure  bool
	}{
		{"integer", TypeInteger, true, false, false, false},
		{"boolean array", TypeBoolean.SetArray(), true, false, false, false},
		{"procedure", ValType(0).SetCallable(), false, true, false, true},
		{"integer function", TypeInteger.SetCallable(), false, true, true, false},
	}

	for _, c := range cases {
		if got := c.t.IsVariable(); got != c.variable {
			t.Errorf("%s: IsVariable() = %v, want %v", c.name, got, c.variable)
		}
		if got := c.t.IsCallable(); got != c.callable {
			t.Errorf("%s: IsCallable() = %v, want %v", c.name, got, c.callable)
		}
		if got := c.t.IsFunction(); got != c.function {
			t.Errorf("%s: IsFunction() = %v, want %v", c.name, got, c.function)
		}
		if got := c.t.IsProcedure(); got != c.procedure {
			t.Errorf("%s: IsProcedure() = %v, want %v", c.name, got, c.procedure)
		}
	}
}

func TestValTypeString(t *testing.T) {
	if got := TypeInteger.String(); got != "integer" {
		t.Errorf("got %q, want integer", got)
	}
	if got := TypeBoolean.SetArray().String(); got != "boolean array" {
		t.Errorf("got %q, want \"boolean array\"", got)
	}
}
