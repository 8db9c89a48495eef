// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ir

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/gx-org/tlc/base/stringseq"
	"github.com/gx-org/tlc/build/ir/irkind"
)

type (
	// Type of a value.
	// The set of types is closed: only types defined in this package implement the interface.
	Type interface {
		// Kind of the type.
		Kind() irkind.Kind

		// Equal returns true if other is structurally the same type.
		Equal(Type) bool

		// String representation of the type.
		String() string

		// typeKey returns a string uniquely identifying the type structure.
		typeKey() string
	}

	// ScalarType is a numeric, boolean or index type.
	ScalarType struct {
		knd irkind.Kind
	}

	// ComplexType is a complex number type.
	ComplexType struct {
		knd irkind.Kind
	}

	// Axis of a tensor.
	// An axis is either static (Param is invalid and Len is the length of the axis)
	// or symbolic (its length is the value of the integer parameter Param).
	Axis struct {
		Len   int64
		Param VarID
		// Name of the parameter, used for printing only.
		Name string
	}

	// TensorType is a tensor of scalar elements.
	TensorType struct {
		Elem Type
		Axes []Axis
	}

	// Field of a structure.
	Field struct {
		Name string
		Type Type
	}

	// StructType is a structure with ordered named fields.
	StructType struct {
		Name   string
		Fields []Field
	}

	// TupleType is the type of a multi-index construct.
	TupleType struct {
		Elems []Type
	}

	// OpaqueType is a user type only known by its name.
	OpaqueType struct {
		Name string
	}

	// VoidType is the type of statements.
	VoidType struct{}

	invalidType struct{}
)

var (
	_ Type = (*ScalarType)(nil)
	_ Type = (*ComplexType)(nil)
	_ Type = (*TensorType)(nil)
	_ Type = (*StructType)(nil)
	_ Type = (*TupleType)(nil)
	_ Type = (*OpaqueType)(nil)
	_ Type = VoidType{}
	_ Type = invalidType{}
)

var scalarTypes = func() map[irkind.Kind]Type {
	m := make(map[irkind.Kind]Type)
	for knd := irkind.Invalid + 1; knd < irkind.Max; knd++ {
		switch {
		case irkind.IsComplex(knd):
			m[knd] = &ComplexType{knd: knd}
		case irkind.IsScalar(knd):
			m[knd] = &ScalarType{knd: knd}
		}
	}
	return m
}()

// Scalar returns the scalar type of a given kind.
// Returns an invalid type if the kind is not a scalar kind.
func Scalar(knd irkind.Kind) Type {
	typ, ok := scalarTypes[knd]
	if !ok {
		return InvalidType()
	}
	return typ
}

// IndexType returns the type of loop indices.
func IndexType() Type { return Scalar(irkind.Index) }

// Float32Type returns the float32 type.
func Float32Type() Type { return Scalar(irkind.Float32) }

// Float64Type returns the float64 type.
func Float64Type() Type { return Scalar(irkind.Float64) }

// Int64Type returns the int64 type.
func Int64Type() Type { return Scalar(irkind.Int64) }

// BoolType returns the boolean type.
func BoolType() Type { return Scalar(irkind.Bool) }

// InvalidType returns a type for expressions that cannot be typed.
func InvalidType() Type { return invalidType{} }

func equalTypes(x Type, y Type) bool {
	if x == nil || y == nil {
		return x == y
	}
	return x.typeKey() == y.typeKey()
}

// Kind of the type.
func (t *ScalarType) Kind() irkind.Kind { return t.knd }

// Equal returns true if other is the same scalar type.
func (t *ScalarType) Equal(other Type) bool { return equalTypes(t, other) }

// DType returns the backend data type of the scalar.
func (t *ScalarType) DType() dtype.DataType { return t.knd.DType() }

func (t *ScalarType) typeKey() string { return t.knd.String() }

// String representation of the type.
func (t *ScalarType) String() string { return t.knd.String() }

// Kind of the type.
func (t *ComplexType) Kind() irkind.Kind { return t.knd }

// Equal returns true if other is the same complex type.
func (t *ComplexType) Equal(other Type) bool { return equalTypes(t, other) }

func (t *ComplexType) typeKey() string { return t.knd.String() }

// String representation of the type.
func (t *ComplexType) String() string { return t.knd.String() }

// StaticAxis returns an axis with a static length.
func StaticAxis(n int64) Axis {
	return Axis{Len: n}
}

// ParamAxis returns an axis with a length given by an integer parameter.
func ParamAxis(decl *VarDecl) Axis {
	return Axis{Param: decl.ID, Name: decl.Name}
}

// IsStatic returns true if the length of the axis is known at compile time.
func (ax Axis) IsStatic() bool {
	return !ax.Param.IsValid()
}

func (ax Axis) key() string {
	if ax.IsStatic() {
		return strconv.FormatInt(ax.Len, 10)
	}
	return ax.Param.String()
}

// String representation of the axis.
func (ax Axis) String() string {
	if ax.IsStatic() {
		return strconv.FormatInt(ax.Len, 10)
	}
	return ax.Name
}

// Tensor returns a tensor type.
func Tensor(elem Type, axes ...Axis) *TensorType {
	return &TensorType{Elem: elem, Axes: axes}
}

// Kind of the type.
func (t *TensorType) Kind() irkind.Kind { return irkind.Tensor }

// Equal returns true if other is a tensor with the same element type and axes.
func (t *TensorType) Equal(other Type) bool { return equalTypes(t, other) }

// Rank returns the number of axes of the tensor.
func (t *TensorType) Rank() int { return len(t.Axes) }

// Sub returns the type obtained after subscripting n axes of the tensor.
// Subscripting all the axes returns the element type.
func (t *TensorType) Sub(n int) Type {
	switch {
	case n > len(t.Axes):
		return InvalidType()
	case n == len(t.Axes):
		return t.Elem
	}
	return &TensorType{Elem: t.Elem, Axes: t.Axes[n:]}
}

// Shape returns the static shape of the tensor or nil if one of its axes is symbolic.
func (t *TensorType) Shape() *shape.Shape {
	lens := make([]int, len(t.Axes))
	for i, ax := range t.Axes {
		if !ax.IsStatic() {
			return nil
		}
		lens[i] = int(ax.Len)
	}
	return &shape.Shape{
		DType:       t.Elem.Kind().DType(),
		AxisLengths: lens,
	}
}

func (t *TensorType) typeKey() string {
	return fmt.Sprintf("[%s]%s", stringseq.JoinFunc(slices.Values(t.Axes), Axis.key, ","), t.Elem.typeKey())
}

// String representation of the type.
func (t *TensorType) String() string {
	return fmt.Sprintf("[%s]%s", stringseq.JoinStringer(slices.Values(t.Axes), ","), t.Elem.String())
}

// Kind of the type.
func (t *StructType) Kind() irkind.Kind { return irkind.Struct }

// Equal returns true if other is a structure with the same name and fields.
func (t *StructType) Equal(other Type) bool { return equalTypes(t, other) }

// Field returns the index of a field given its name or -1 if the field does not exist.
func (t *StructType) Field(name string) int {
	for i, field := range t.Fields {
		if field.Name == name {
			return i
		}
	}
	return -1
}

func (t *StructType) typeKey() string {
	return fmt.Sprintf("struct %s{%s}", t.Name, stringseq.JoinFunc(slices.Values(t.Fields), func(f Field) string {
		return f.Name + " " + f.Type.typeKey()
	}, ";"))
}

// String representation of the type.
func (t *StructType) String() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("struct{%s}", stringseq.JoinFunc(slices.Values(t.Fields), func(f Field) string {
		return f.Name + " " + f.Type.String()
	}, "; "))
}

// Tuple returns a tuple type.
func Tuple(elems ...Type) *TupleType {
	return &TupleType{Elems: elems}
}

// Kind of the type.
func (t *TupleType) Kind() irkind.Kind { return irkind.Tuple }

// Equal returns true if other is a tuple with the same element types.
func (t *TupleType) Equal(other Type) bool { return equalTypes(t, other) }

func (t *TupleType) typeKey() string {
	return "(" + stringseq.JoinFunc(slices.Values(t.Elems), Type.typeKey, ",") + ")"
}

// String representation of the type.
func (t *TupleType) String() string {
	return "(" + stringseq.JoinStringer(slices.Values(t.Elems), ", ") + ")"
}

// Kind of the type.
func (t *OpaqueType) Kind() irkind.Kind { return irkind.Opaque }

// Equal returns true if other is an opaque type with the same name.
func (t *OpaqueType) Equal(other Type) bool { return equalTypes(t, other) }

func (t *OpaqueType) typeKey() string { return "opaque " + t.Name }

// String representation of the type.
func (t *OpaqueType) String() string { return t.Name }

// Kind of the type.
func (VoidType) Kind() irkind.Kind { return irkind.Void }

// Equal returns true if other is the void type.
func (t VoidType) Equal(other Type) bool { return equalTypes(t, other) }

func (VoidType) typeKey() string { return "void" }

// String representation of the type.
func (VoidType) String() string { return "void" }

func (invalidType) Kind() irkind.Kind { return irkind.Invalid }

func (invalidType) Equal(Type) bool { return false }

func (invalidType) typeKey() string { return "invalid" }

func (invalidType) String() string { return "invalid" }

// ElementType returns the scalar type of the elements of a type.
// Returns the type itself if it is not a tensor.
func ElementType(typ Type) Type {
	tensor, ok := typ.(*TensorType)
	if !ok {
		return typ
	}
	return tensor.Elem
}

// IsStatement returns true if the type is the type of a statement.
func IsStatement(typ Type) bool {
	return typ.Kind() == irkind.Void
}
