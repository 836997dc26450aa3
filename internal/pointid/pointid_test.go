package pointid

import (
	"testing"

	"github.com/google/uuid"
)

func TestFor(t *testing.T) {
	id1 := For("5b0c7a7e-3e0e-4d43-9c51-0b5f9f6f3a11")
	id2 := For("5b0c7a7e-3e0e-4d43-9c51-0b5f9f6f3a11")
	if id1 != id2 {
		t.Errorf("same product id should give same point id: %q vs %q", id1, id2)
	}
	u, err := uuid.Parse(id1)
	if err != nil {
		t.Fatalf("point id is not a UUID: %v", err)
	}
	if u.Version() != 5 {
		t.Errorf("version = %d, want 5", u.Version())
	}
}

func TestFor_differentIDs(t *testing.T) {
	if For("a") == For("b") {
		t.Error("different product ids should give different point ids")
	}
}

func TestFor_trimsWhitespace(t *testing.T) {
	if For(" abc ") != For("abc") {
		t.Error("surrounding whitespace should not change the point id")
	}
}

func TestFor_notIdentity(t *testing.T) {
	id := "5b0c7a7e-3e0e-4d43-9c51-0b5f9f6f3a11"
	if For(id) == id {
		t.Error("point id should not equal the product id")
	}
}

func TestValid(t *testing.T) {
	if !Valid(For("x")) {
		t.Error("generated id should be valid")
	}
	if Valid("file:abc") {
		t.Error("non-UUID should be invalid")
	}
}
