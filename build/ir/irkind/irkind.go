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

// Package irkind defines the kinds of the types of the tensor IR.
package irkind

import "github.com/gx-org/backend/dtype"

// Kind of a type.
type Kind uint

// Kind of data supported by the IR.
const (
	Invalid = Kind(dtype.Invalid)

	Bool     = Kind(dtype.Bool)
	Int32    = Kind(dtype.Int32)
	Int64    = Kind(dtype.Int64)
	Uint32   = Kind(dtype.Uint32)
	Uint64   = Kind(dtype.Uint64)
	Bfloat16 = Kind(dtype.Bfloat16)
	Float32  = Kind(dtype.Float32)
	Float64  = Kind(dtype.Float64)

	// Index is the kind of loop indices.
	Index = Kind(iota + dtype.MaxDataType)
	Complex64
	Complex128

	Tensor
	Struct
	Tuple
	// Opaque is a user type only known by its name.
	Opaque
	// Void is the kind of statements.
	Void

	// Max value for a Kind constant.
	Max
)

// IndexKind is the scalar kind used to store loop indices.
const IndexKind = Int64

// String returns a string representation of a kind.
func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Bfloat16:
		return "bfloat16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Index:
		return "index"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	case Tensor:
		return "tensor"
	case Struct:
		return "struct"
	case Tuple:
		return "tuple"
	case Opaque:
		return "opaque"
	case Void:
		return "void"
	}
	return "invalid"
}

// DType converts a kind into an array data type.
// Returns dtype.Invalid if the kind has no data type in the backend.
func (k Kind) DType() dtype.DataType {
	if k == Index {
		return IndexKind.DType()
	}
	if k >= dtype.MaxDataType {
		return dtype.Invalid
	}
	return dtype.DataType(k)
}

// KindFromString returns a kind given an identifier.
// It only works for scalar kinds.
func KindFromString(ident string) Kind {
	switch ident {
	case "bool":
		return Bool
	case "int32":
		return Int32
	case "int64":
		return Int64
	case "uint32":
		return Uint32
	case "uint64":
		return Uint64
	case "bfloat16":
		return Bfloat16
	case "float32":
		return Float32
	case "float64":
		return Float64
	case "index":
		return Index
	case "complex64":
		return Complex64
	case "complex128":
		return Complex128
	}
	return Invalid
}

// IsScalar returns true if a kind is a scalar kind, including indices and complex numbers.
func IsScalar(k Kind) bool {
	return k == Bool || IsInteger(k) || IsFloat(k) || IsComplex(k)
}

// IsInteger returns true if kind is an integer.
func IsInteger(k Kind) bool {
	switch k {
	case Index, Int32, Int64, Uint32, Uint64:
		return true
	}
	return false
}

// IsFloat returns true if kind is a float.
func IsFloat(k Kind) bool {
	switch k {
	case Bfloat16, Float32, Float64:
		return true
	}
	return false
}

// IsComplex returns true if kind is a complex number.
func IsComplex(k Kind) bool {
	return k == Complex64 || k == Complex128
}
