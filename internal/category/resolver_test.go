package category

import (
	"reflect"
	"testing"
)

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(nil)
	tests := []struct {
		query  string
		want   string
		wantOK bool
	}{
		{"gold necklace", "jewelry", true},
		{"Blue JEANS for men", "clothing", true},
		{"cheap pant", "clothing", true},
		{"new smartphone", "electronics", true},
		{"noise cancelling headphones", "electronics", true},
		{"red dress", "clothing", true},
		{"something nice", "", false},
		{"", "", false},
		// jewelry precedes clothing in table order
		{"dress with matching earrings", "jewelry", true},
		// whole-word matching: "earrings" does not imply "ring", "headphones" not "phone"
		{"earrings", "jewelry", true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := r.Resolve(tt.query)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.query, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolver_customRules(t *testing.T) {
	r := NewResolver([]Rule{
		{Category: "toys", Keywords: []string{"lego"}},
		{Category: "bricks", Keywords: []string{"lego", "brick"}},
	})
	if got, _ := r.Resolve("lego set"); got != "toys" {
		t.Errorf("first rule should win, got %q", got)
	}
	if _, ok := r.Resolve("necklace"); ok {
		t.Error("custom rules should replace the defaults")
	}
}

func TestCaseVariants(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"rings", []string{"Rings", "RINGS"}},
		{"Rings", []string{"rings", "RINGS"}},
		{"RINGS", []string{"Rings", "rings"}},
		{"hOme DECOR", []string{"Home decor", "home decor", "HOME DECOR"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := CaseVariants(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("CaseVariants(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestProductType(t *testing.T) {
	tests := []struct {
		query string
		want  string
		ok    bool
	}{
		{"gold necklace", "necklace", true},
		{"red dress", "dress", true},
		{"dress with a gold chain", "chain", true},
		{"wireless headphones", "headphones", true},
		{"android smartphone", "smartphone", true},
		{"garden hose", "", false},
	}
	for _, tt := range tests {
		got, ok := ProductType(tt.query)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ProductType(%q) = %q, %v; want %q, %v", tt.query, got, ok, tt.want, tt.ok)
		}
	}
}
