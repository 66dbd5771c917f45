// Package ast defines the template engine's abstract syntax tree: a sum
// type of node variants produced by the parser and walked by the
// description extractor and the renderer. Grounded on zipreport/miya's
// parser/ast.go Node hierarchy, narrowed and reshaped to the node set this
// engine's grammar actually needs.
package ast

import "github.com/motif-lang/motif/value"

// Kind tags which variant a Node holds.
type Kind int

const (
	KindBlock Kind = iota
	KindText
	KindComment
	KindLiteral
	KindData
	KindFunction
	KindExpressionWrapper
	KindIf
	KindForArray
	KindForObject
	KindFile
	KindApplyTemplate
	KindSet
)

var kindNames = [...]string{
	KindBlock:             "Block",
	KindText:              "Text",
	KindComment:           "Comment",
	KindLiteral:           "Literal",
	KindData:              "Data",
	KindFunction:          "Function",
	KindExpressionWrapper: "ExpressionWrapper",
	KindIf:                "If",
	KindForArray:          "ForArray",
	KindForObject:         "ForObject",
	KindFile:              "File",
	KindApplyTemplate:     "ApplyTemplate",
	KindSet:               "Set",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Node is the common interface every AST variant satisfies. Offset is the
// byte position in the owning Template's source used for error reporting.
type Node interface {
	Kind() Kind
	Offset() int
}

type base struct {
	offset int
}

func (b base) Offset() int { return b.offset }

// Block is an ordered sequence of child nodes; it is the root of every
// parsed template and the body of every compound statement.
type Block struct {
	base
	Children []Node
}

func NewBlock(offset int) *Block { return &Block{base: base{offset}} }
func (*Block) Kind() Kind        { return KindBlock }

// Text is a verbatim span of source bytes, [Offset, Offset+Length).
type Text struct {
	base
	Length int
}

func (*Text) Kind() Kind { return KindText }

// Comment is a retained comment span (only present in the tree when the
// parser was configured to keep comments).
type Comment struct {
	base
	Length int
}

func (*Comment) Kind() Kind { return KindComment }

// Literal wraps an already-parsed JSON value: boolean/number/string/array/
// object literals all resolve to one of these at parse time.
type Literal struct {
	base
	Value value.JV
}

func (*Literal) Kind() Kind { return KindLiteral }

// Data is a dotted-name variable reference, e.g. "person.age".
type Data struct {
	base
	Name  string
	Parts []string
}

func (*Data) Kind() Kind { return KindData }

// Operation tags a Function node with which built-in operator or named
// function it invokes, or OpCallback for a user-registered callback.
type Operation int

const (
	OpCallback Operation = iota
	OpNot
	OpAnd
	OpOr
	OpIn
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpAdd
	OpSubtract
	OpMultiplication
	OpDivision
	OpPower
	OpModulo
	OpAtId

	OpAt
	OpDefault
	OpDivisibleBy
	OpEven
	OpExists
	OpExistsIn
	OpFirst
	OpFloat
	OpInt
	OpLast
	OpLength
	OpLower
	OpMax
	OpMin
	OpOdd
	OpRange
	OpRound
	OpSort
	OpUpper
	OpIsBoolean
	OpIsNumber
	OpIsInteger
	OpIsFloat
	OpIsObject
	OpIsArray
	OpIsString
	OpJoin
	OpSplit
)

// Associativity of an operator for Shunting-Yard precedence resolution.
type Associativity int

const (
	LeftAssoc Associativity = iota
	RightAssoc
)

// Function is a call to a built-in operator, a built-in named function, or
// a user callback, over its argument sub-expressions.
type Function struct {
	base
	Op            Operation
	Name          string
	Arity         int
	Precedence    int
	Associativity Associativity
	Args          []Node
	Invocable     Invocable
}

func (*Function) Kind() Kind { return KindFunction }

// ExpressionWrapper wraps a single expression root at a statement/block
// boundary ({{ expr }}, or the expression of an if/for/file/set statement).
type ExpressionWrapper struct {
	base
	Root Node
}

func (*ExpressionWrapper) Kind() Kind { return KindExpressionWrapper }

// If is one link of an if / else-if / else chain. IsNested marks a node
// created to represent a chained "else if" so endif can pop the whole
// chain atomically.
type If struct {
	base
	Condition *ExpressionWrapper
	True      *Block
	False     *Block
	HasFalse  bool
	IsNested  bool

	parent *Block
}

func (*If) Kind() Kind { return KindIf }

// ForArray is "for value in expr".
type ForArray struct {
	base
	ValueName string
	Condition *ExpressionWrapper
	Body      *Block

	parent *Block
}

func (*ForArray) Kind() Kind { return KindForArray }

// ForObject is "for key, value in expr".
type ForObject struct {
	base
	KeyName   string
	ValueName string
	Condition *ExpressionWrapper
	Body      *Block

	parent *Block
}

func (*ForObject) Kind() Kind { return KindForObject }

// File is "file <expr> ... endfile"; Filename is an expression evaluated
// at render time.
type File struct {
	base
	Filename *ExpressionWrapper
	Body     *Block

	parent *Block
}

func (*File) Kind() Kind { return KindFile }

// ApplyTemplate is "apply-template NAME FIELD".
type ApplyTemplate struct {
	base
	TemplateName string
	Field        string
	FieldPointer string
}

func (*ApplyTemplate) Kind() Kind { return KindApplyTemplate }

// Set is "set KEY = EXPR"; Key may be dotted.
type Set struct {
	base
	Key        string
	Expression *ExpressionWrapper
}

func (*Set) Kind() Kind { return KindSet }

// Parent-block accessors/mutators used only during construction, per the
// node table's note that back-references exist solely to enable
// block-switching on else/endif/endfor/endfile.

func (n *If) Parent() *Block         { return n.parent }
func (n *If) SetParent(b *Block)     { n.parent = b }
func (n *ForArray) Parent() *Block     { return n.parent }
func (n *ForArray) SetParent(b *Block) { n.parent = b }
func (n *ForObject) Parent() *Block     { return n.parent }
func (n *ForObject) SetParent(b *Block) { n.parent = b }
func (n *File) Parent() *Block     { return n.parent }
func (n *File) SetParent(b *Block) { n.parent = b }

// NewText, NewComment, etc. are small constructors so parser code reads
// as a sequence of "append(parent, NewX(...))" calls.

func NewText(offset, length int) *Text       { return &Text{base: base{offset}, Length: length} }
func NewComment(offset, length int) *Comment { return &Comment{base: base{offset}, Length: length} }
func NewLiteral(offset int, v value.JV) *Literal {
	return &Literal{base: base{offset}, Value: v}
}
func NewData(offset int, name string, parts []string) *Data {
	return &Data{base: base{offset}, Name: name, Parts: parts}
}
func NewExpressionWrapper(offset int, root Node) *ExpressionWrapper {
	return &ExpressionWrapper{base: base{offset}, Root: root}
}

func NewIf(offset int, condition *ExpressionWrapper, trueBlock *Block, isNested bool) *If {
	return &If{base: base{offset}, Condition: condition, True: trueBlock, IsNested: isNested}
}

func NewForArray(offset int, valueName string, condition *ExpressionWrapper, body *Block) *ForArray {
	return &ForArray{base: base{offset}, ValueName: valueName, Condition: condition, Body: body}
}

func NewForObject(offset int, keyName, valueName string, condition *ExpressionWrapper, body *Block) *ForObject {
	return &ForObject{base: base{offset}, KeyName: keyName, ValueName: valueName, Condition: condition, Body: body}
}

func NewFile(offset int, filename *ExpressionWrapper, body *Block) *File {
	return &File{base: base{offset}, Filename: filename, Body: body}
}

func NewApplyTemplate(offset int, templateName, field, fieldPointer string) *ApplyTemplate {
	return &ApplyTemplate{base: base{offset}, TemplateName: templateName, Field: field, FieldPointer: fieldPointer}
}

func NewSet(offset int, key string, expr *ExpressionWrapper) *Set {
	return &Set{base: base{offset}, Key: key, Expression: expr}
}
