package template

import (
	"fmt"

	"github.com/motif-lang/motif/value"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// VarType is a Variable's declared JSON type, for the description schema
// ("null"/"bool"/"integer"/"double"/"string"/"array"/"object"). VarTypeNone
// means the extractor recorded the variable without inferring a type.
type VarType int

const (
	VarTypeNone VarType = iota
	VarTypeNull
	VarTypeBool
	VarTypeInteger
	VarTypeDouble
	VarTypeString
	VarTypeArray
	VarTypeObject
)

var varTypeNames = map[VarType]string{
	VarTypeNull:    "null",
	VarTypeBool:    "bool",
	VarTypeInteger: "integer",
	VarTypeDouble:  "double",
	VarTypeString:  "string",
	VarTypeArray:   "array",
	VarTypeObject:  "object",
}

func (t VarType) String() string {
	if s, ok := varTypeNames[t]; ok {
		return s
	}
	return ""
}

// ParseVarType resolves a schema type name to a VarType, erroring on any
// name outside the declared set.
func ParseVarType(name string) (VarType, error) {
	for t, s := range varTypeNames {
		if s == name {
			return t, nil
		}
	}
	return VarTypeNone, fmt.Errorf("template: unknown variable type %q", name)
}

// Variable is one entry of a Description's variable table.
type Variable struct {
	Name        string
	Description string
	Type        VarType
	Required    bool
	HasDefault  bool
	Default     value.JV
	Variables   *orderedmap.OrderedMap[string, *Variable]
}

// NewVariable returns a Variable with an empty nested-variable table.
func NewVariable(name string) *Variable {
	return &Variable{Name: name, Variables: orderedmap.New[string, *Variable]()}
}

// Description is a template's extracted or user-authored metadata: a human
// description, the ordered set of top-level variables it references, and
// the set of nested template names it applies.
type Description struct {
	Template    string
	Description string
	Variables   *orderedmap.OrderedMap[string, *Variable]
	Templates   *orderedmap.OrderedMap[string, struct{}]
}

// NewDescription returns an empty Description for the named template.
func NewDescription(templateName string) *Description {
	return &Description{
		Template:  templateName,
		Variables: orderedmap.New[string, *Variable](),
		Templates: orderedmap.New[string, struct{}](),
	}
}

// AddTemplate records a nested template name, ignoring duplicates.
func (d *Description) AddTemplate(name string) {
	d.Templates.Set(name, struct{}{})
}

// TemplateNames returns the nested template names in first-seen order.
func (d *Description) TemplateNames() []string {
	out := make([]string, 0, d.Templates.Len())
	for pair := d.Templates.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// ToJV renders the Description into its canonical JSON schema:
// {template, description, variables: [...], templates: [...]}.
func (d *Description) ToJV() value.JV {
	obj := value.NewObject()
	obj.Set("template", value.String(d.Template))
	obj.Set("description", value.String(d.Description))

	vars := make([]value.JV, 0, d.Variables.Len())
	for pair := d.Variables.Oldest(); pair != nil; pair = pair.Next() {
		vars = append(vars, variableToJV(pair.Value))
	}
	obj.Set("variables", value.Array(vars))

	names := d.TemplateNames()
	tpls := make([]value.JV, len(names))
	for i, n := range names {
		tpls[i] = value.String(n)
	}
	obj.Set("templates", value.Array(tpls))

	return value.ObjectValue(obj)
}

func variableToJV(v *Variable) value.JV {
	obj := value.NewObject()
	obj.Set("name", value.String(v.Name))
	if v.Description != "" {
		obj.Set("description", value.String(v.Description))
	}
	if v.Type != VarTypeNone {
		obj.Set("type", value.String(v.Type.String()))
	}
	if v.Required {
		obj.Set("required", value.Bool(true))
	}
	if v.HasDefault {
		obj.Set("default", v.Default)
	}
	if v.Variables.Len() > 0 {
		nested := make([]value.JV, 0, v.Variables.Len())
		for pair := v.Variables.Oldest(); pair != nil; pair = pair.Next() {
			nested = append(nested, variableToJV(pair.Value))
		}
		obj.Set("variables", value.Array(nested))
	}
	return value.ObjectValue(obj)
}

// FindVariable resolves a dotted-path variable declaration by descending
// through nested Variables tables, for the renderer's typed-variable
// handling: the default/required fallback when DataNode resolution finds
// nothing, and type coercion when it finds a value.
func (d *Description) FindVariable(parts []string) (*Variable, bool) {
	if len(parts) == 0 {
		return nil, false
	}
	table := d.Variables
	var v *Variable
	for i, part := range parts {
		var ok bool
		v, ok = table.Get(part)
		if !ok {
			return nil, false
		}
		if i < len(parts)-1 {
			table = v.Variables
		}
	}
	return v, true
}

// JSON renders the Description as pretty-printed JSON text, via
// value.JV.PrettyJSON (tidwall/pretty).
func (d *Description) JSON() string {
	return d.ToJV().PrettyJSON()
}

// DescriptionFromJV parses the canonical schema (the inverse of ToJV) back
// into a Description, for engine.DescribeFromFile-style round trips and for
// user-authored description JSON driving typed-variable coercion.
func DescriptionFromJV(v value.JV) (*Description, error) {
	if !v.IsObject() {
		return nil, fmt.Errorf("template: description must be a JSON object")
	}
	obj := v.AsObject()
	name, _ := obj.Get("template")
	desc := NewDescription(name.AsString())
	if d, ok := obj.Get("description"); ok {
		desc.Description = d.AsString()
	}
	if vars, ok := obj.Get("variables"); ok && vars.IsArray() {
		for _, raw := range vars.AsArray() {
			variable, err := variableFromJV(raw)
			if err != nil {
				return nil, err
			}
			desc.Variables.Set(variable.Name, variable)
		}
	}
	if tpls, ok := obj.Get("templates"); ok && tpls.IsArray() {
		for _, raw := range tpls.AsArray() {
			desc.AddTemplate(raw.AsString())
		}
	}
	return desc, nil
}

func variableFromJV(v value.JV) (*Variable, error) {
	if !v.IsObject() {
		return nil, fmt.Errorf("template: variable entry must be a JSON object")
	}
	obj := v.AsObject()
	name, ok := obj.Get("name")
	if !ok {
		return nil, fmt.Errorf("template: variable entry missing name")
	}
	variable := NewVariable(name.AsString())
	if d, ok := obj.Get("description"); ok {
		variable.Description = d.AsString()
	}
	if t, ok := obj.Get("type"); ok {
		vt, err := ParseVarType(t.AsString())
		if err != nil {
			return nil, err
		}
		variable.Type = vt
	}
	if r, ok := obj.Get("required"); ok {
		variable.Required = r.Truthy()
	}
	if def, ok := obj.Get("default"); ok {
		variable.HasDefault = true
		variable.Default = def
	}
	if nested, ok := obj.Get("variables"); ok && nested.IsArray() {
		for _, raw := range nested.AsArray() {
			child, err := variableFromJV(raw)
			if err != nil {
				return nil, err
			}
			variable.Variables.Set(child.Name, child)
		}
	}
	return variable, nil
}
