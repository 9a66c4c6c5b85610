package grid

import "gonum.org/v1/gonum/spatial/r3"

// ScalarField is anything that can be evaluated at a point.
type ScalarField interface {
	Sample(x r3.Vec) float64
}

// VectorField is a vector-valued field.
type VectorField interface {
	Sample(x r3.Vec) r3.Vec
}

// ConstantScalarField returns the same value everywhere.
type ConstantScalarField float64

func (c ConstantScalarField) Sample(r3.Vec) float64 {
	return float64(c)
}

// ConstantVectorField returns the same vector everywhere.
type ConstantVectorField r3.Vec

func (c ConstantVectorField) Sample(r3.Vec) r3.Vec {
	return r3.Vec(c)
}

// ScalarFieldFunc adapts a function to ScalarField.
type ScalarFieldFunc func(r3.Vec) float64

func (f ScalarFieldFunc) Sample(x r3.Vec) float64 {
	return f(x)
}

// VectorFieldFunc adapts a function to VectorField.
type VectorFieldFunc func(r3.Vec) r3.Vec

func (f VectorFieldFunc) Sample(x r3.Vec) r3.Vec {
	return f(x)
}
