package taxonomy

import (
	"image/color"

	"thermaldetect/internal/config"
)

// Class is a domain detection class.
type Class string

const (
	ClassPerson  Class = "person"
	ClassCar     Class = "car"
	ClassUnknown Class = "unknown"
)

// Taxonomy collapses the detector's native class vocabulary onto the domain
// classes and carries the per-class annotation colors. It is constructed once
// at startup and passed to the components that need it.
type Taxonomy struct {
	classes      map[int]Class
	colors       map[Class]color.RGBA
	defaultColor color.RGBA
}

// New builds a taxonomy from an explicit class map and color table.
func New(classes map[int]Class, colors map[Class]color.RGBA, defaultColor color.RGBA) *Taxonomy {
	return &Taxonomy{
		classes:      classes,
		colors:       colors,
		defaultColor: defaultColor,
	}
}

// Default returns the thermal taxonomy: COCO person stays person, the COCO
// vehicle classes (car, motorcycle, bus, truck) all collapse to car.
func Default() *Taxonomy {
	return New(
		map[int]Class{
			0: ClassPerson,
			2: ClassCar,
			3: ClassCar,
			5: ClassCar,
			7: ClassCar,
		},
		map[Class]color.RGBA{
			ClassPerson: {R: 255, G: 107, B: 53},
			ClassCar:    {R: 0, G: 255, B: 65},
		},
		color.RGBA{R: 0, G: 140, B: 255},
	)
}

// MapClass resolves a detector-native class id to a domain class.
func (t *Taxonomy) MapClass(classID int) Class {
	if class, ok := t.classes[classID]; ok {
		return class
	}
	return ClassUnknown
}

// Enabled reports whether detections of the given class should be kept under
// the supplied run options. Unknown is never enabled.
func (t *Taxonomy) Enabled(class Class, opts *config.RunOptions) bool {
	switch class {
	case ClassPerson:
		return opts.DetectPerson
	case ClassCar:
		return opts.DetectCar
	default:
		return false
	}
}

// Color returns the annotation color for a class.
func (t *Taxonomy) Color(class Class) color.RGBA {
	if c, ok := t.colors[class]; ok {
		return c
	}
	return t.defaultColor
}
