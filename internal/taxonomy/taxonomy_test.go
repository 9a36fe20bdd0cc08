package taxonomy

import (
	"image/color"
	"testing"

	"thermaldetect/internal/config"
)

func TestMapClass(t *testing.T) {
	tax := Default()

	tests := []struct {
		classID  int
		expected Class
	}{
		{0, ClassPerson},
		{2, ClassCar},
		{3, ClassCar}, // motorcycle collapses to car
		{5, ClassCar}, // bus collapses to car
		{7, ClassCar}, // truck collapses to car
		{1, ClassUnknown},
		{4, ClassUnknown},
		{16, ClassUnknown},
		{-1, ClassUnknown},
		{999, ClassUnknown},
	}

	for _, tt := range tests {
		if got := tax.MapClass(tt.classID); got != tt.expected {
			t.Errorf("MapClass(%d) = %q, expected %q", tt.classID, got, tt.expected)
		}
	}
}

func TestEnabled(t *testing.T) {
	tax := Default()

	tests := []struct {
		name     string
		class    Class
		person   bool
		car      bool
		expected bool
	}{
		{"person enabled", ClassPerson, true, false, true},
		{"person disabled", ClassPerson, false, true, false},
		{"car enabled", ClassCar, false, true, true},
		{"car disabled", ClassCar, true, false, false},
		{"unknown never enabled", ClassUnknown, true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &config.RunOptions{DetectPerson: tt.person, DetectCar: tt.car}
			if got := tax.Enabled(tt.class, opts); got != tt.expected {
				t.Errorf("Enabled(%q) = %v, expected %v", tt.class, got, tt.expected)
			}
		})
	}
}

func TestColor(t *testing.T) {
	tax := Default()

	person := tax.Color(ClassPerson)
	car := tax.Color(ClassCar)
	unknown := tax.Color(ClassUnknown)

	if person == car {
		t.Error("person and car must have distinct colors")
	}
	if unknown != (color.RGBA{R: 0, G: 140, B: 255}) {
		t.Errorf("unknown class should fall back to the default color, got %v", unknown)
	}
}

func TestCustomTaxonomy(t *testing.T) {
	tax := New(
		map[int]Class{10: ClassPerson},
		map[Class]color.RGBA{ClassPerson: {R: 1}},
		color.RGBA{},
	)

	if got := tax.MapClass(10); got != ClassPerson {
		t.Errorf("MapClass(10) = %q, expected person", got)
	}
	if got := tax.MapClass(0); got != ClassUnknown {
		t.Errorf("MapClass(0) = %q, expected unknown in the custom taxonomy", got)
	}
}
