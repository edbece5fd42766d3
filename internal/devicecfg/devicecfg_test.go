package devicecfg

import "testing"

func TestNameForRecognizedProduct(t *testing.T) {
	if got := NameFor(0x0850); got == "" {
		t.Fatalf("expected a name for product 0x0850, got empty string")
	}
}

func TestNameForUnknownProductIsEmpty(t *testing.T) {
	if got := NameFor(0xFFFF); got != "" {
		t.Fatalf("expected empty name for unrecognized product, got %q", got)
	}
}

func TestKnownReturnsACopy(t *testing.T) {
	a := Known()
	if len(a) == 0 {
		t.Fatal("expected at least one known product")
	}
	a[0].Name = "mutated"
	b := Known()
	if b[0].Name == "mutated" {
		t.Fatal("Known() must return an independent copy")
	}
}
