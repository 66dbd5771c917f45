package render

import (
	"strconv"

	"github.com/motif-lang/motif/template"
	"github.com/motif-lang/motif/value"
)

// coerce converts v to the declared type of a Description Variable,
// following the conversion matrix: boolean<->number via zero-test,
// number<->string via decimal formatting/parsing, null to the zero value
// of the target type, string to bool via the literal "true", and a fixed
// set of meaningless conversions that are errors.
func coerce(v value.JV, target template.VarType) (value.JV, error) {
	if v.IsNull() {
		return zeroValue(target), nil
	}
	switch target {
	case template.VarTypeBool:
		switch {
		case v.IsBool():
			return v, nil
		case v.IsNumber():
			return value.Bool(v.Float64() != 0), nil
		case v.IsString():
			return value.Bool(v.AsString() == "true"), nil
		}
	case template.VarTypeInteger:
		switch {
		case v.IsNumber():
			return value.Int(v.Int64()), nil
		case v.IsBool():
			if v.Bool() {
				return value.Int(1), nil
			}
			return value.Int(0), nil
		case v.IsString():
			n, err := strconv.ParseInt(v.AsString(), 10, 64)
			if err != nil {
				return value.Null(), &DataError{Message: "cannot coerce string to integer: " + v.AsString()}
			}
			return value.Int(n), nil
		}
	case template.VarTypeDouble:
		switch {
		case v.IsNumber():
			return value.Float(v.Float64()), nil
		case v.IsString():
			f, err := strconv.ParseFloat(v.AsString(), 64)
			if err != nil {
				return value.Null(), &DataError{Message: "cannot coerce string to double: " + v.AsString()}
			}
			return value.Float(f), nil
		}
	case template.VarTypeString:
		switch {
		case v.IsString():
			return v, nil
		case v.IsNumber(), v.IsBool(), v.IsArray(), v.IsObject():
			return value.String(v.String()), nil
		}
	case template.VarTypeArray:
		if v.IsArray() {
			return v, nil
		}
	case template.VarTypeObject:
		if v.IsObject() {
			return v, nil
		}
	case template.VarTypeNull, template.VarTypeNone:
		return v, nil
	}
	return value.Null(), &DataError{Message: "cannot coerce " + v.Kind().String() + " to " + target.String()}
}

func zeroValue(target template.VarType) value.JV {
	switch target {
	case template.VarTypeBool:
		return value.Bool(false)
	case template.VarTypeInteger:
		return value.Int(0)
	case template.VarTypeDouble:
		return value.Float(0)
	case template.VarTypeString:
		return value.String("")
	case template.VarTypeArray:
		return value.Array(nil)
	case template.VarTypeObject:
		return value.ObjectValue(value.NewObject())
	default:
		return value.Null()
	}
}
