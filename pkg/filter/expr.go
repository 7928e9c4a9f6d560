package filter

import (
	"github.com/cuemby/aeroclient/pkg/aerotypes"
	"github.com/cuemby/aeroclient/pkg/cdt"
)

// Op identifies a node in the expression tree.
type Op int

const (
	OpConst Op = iota
	OpEq
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
	OpAnd
	OpOr
	OpNot
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpBinInt
	OpBinStr
	OpBinMap
	OpBinBlob
	OpBinExists
	OpCDTRead
	OpCDTModify
)

// Expr is one node of a filter-expression tree. Leaf nodes are OpConst
// (a literal), one of the OpBin* readers (a bin reference), or OpCDTRead;
// all other ops combine their Args.
type Expr struct {
	Op       Op
	Args     []Expr
	Const    aerotypes.Value
	BinName  string
	CDTSteps cdt.Context
}

// Const builds a literal leaf.
func Const(v aerotypes.Value) Expr { return Expr{Op: OpConst, Const: v} }

// BinInt reads an integer bin.
func BinInt(name string) Expr { return Expr{Op: OpBinInt, BinName: name} }

// BinStr reads a string bin.
func BinStr(name string) Expr { return Expr{Op: OpBinStr, BinName: name} }

// BinMap reads a map bin.
func BinMap(name string) Expr { return Expr{Op: OpBinMap, BinName: name} }

// BinBlob reads a blob bin.
func BinBlob(name string) Expr { return Expr{Op: OpBinBlob, BinName: name} }

// BinExists reports whether a bin is present on the record.
func BinExists(name string) Expr { return Expr{Op: OpBinExists, BinName: name} }

// Eq, Ne, Gt, Ge, Lt, Le build binary comparisons.
func Eq(a, b Expr) Expr { return Expr{Op: OpEq, Args: []Expr{a, b}} }
func Ne(a, b Expr) Expr { return Expr{Op: OpNe, Args: []Expr{a, b}} }
func Gt(a, b Expr) Expr { return Expr{Op: OpGt, Args: []Expr{a, b}} }
func Ge(a, b Expr) Expr { return Expr{Op: OpGe, Args: []Expr{a, b}} }
func Lt(a, b Expr) Expr { return Expr{Op: OpLt, Args: []Expr{a, b}} }
func Le(a, b Expr) Expr { return Expr{Op: OpLe, Args: []Expr{a, b}} }

// And, Or combine any number of sub-expressions; Not negates one.
func And(args ...Expr) Expr { return Expr{Op: OpAnd, Args: args} }
func Or(args ...Expr) Expr  { return Expr{Op: OpOr, Args: args} }
func Not(a Expr) Expr       { return Expr{Op: OpNot, Args: []Expr{a}} }

// Add, Sub, Mul, Div build arithmetic over two or more operands.
func Add(args ...Expr) Expr { return Expr{Op: OpAdd, Args: args} }
func Sub(args ...Expr) Expr { return Expr{Op: OpSub, Args: args} }
func Mul(args ...Expr) Expr { return Expr{Op: OpMul, Args: args} }
func Div(args ...Expr) Expr { return Expr{Op: OpDiv, Args: args} }

// CDTRead embeds a read-only CDT sub-expression scoped by ctx.
func CDTRead(binName string, ctx cdt.Context) Expr {
	return Expr{Op: OpCDTRead, BinName: binName, CDTSteps: ctx}
}

// CDTModify embeds a CDT sub-expression that can mutate, scoped by ctx.
func CDTModify(binName string, ctx cdt.Context, args ...Expr) Expr {
	return Expr{Op: OpCDTModify, BinName: binName, CDTSteps: ctx, Args: args}
}
