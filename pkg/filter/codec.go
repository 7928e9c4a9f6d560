package filter

import (
	"bytes"
	"encoding/base64"

	"github.com/ugorji/go/codec"

	"github.com/cuemby/aeroclient/pkg/aeroerr"
	"github.com/cuemby/aeroclient/pkg/aerotypes"
	"github.com/cuemby/aeroclient/pkg/cdt"
)

var exprHandle = newExprHandle()

func newExprHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	h.RawToString = true
	return h
}

// fixedArity gives the operand count for every op whose arity doesn't
// depend on how it was constructed; variadic ops (And, Or, Add, Sub,
// Mul, Div, CDTModify) instead carry an explicit count in their command.
var fixedArity = map[Op]int{
	OpConst:     0,
	OpBinInt:    0,
	OpBinStr:    0,
	OpBinMap:    0,
	OpBinBlob:   0,
	OpBinExists: 0,
	OpEq:        2,
	OpNe:        2,
	OpGt:        2,
	OpGe:        2,
	OpLt:        2,
	OpLe:        2,
	OpNot:       1,
	OpCDTRead:   0,
}

func isVariadic(op Op) bool {
	switch op {
	case OpAnd, OpOr, OpAdd, OpSub, OpMul, OpDiv, OpCDTModify:
		return true
	}
	return false
}

// Marshal flattens e into its postfix command list and msgpack-encodes
// the result.
func Marshal(e Expr) ([]byte, error) {
	var commands []interface{}
	if err := flatten(e, &commands); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, exprHandle)
	if err := enc.Encode(commands); err != nil {
		return nil, aeroerr.Wrap(aeroerr.ClientError, err, "filter: msgpack encode failed")
	}
	return buf.Bytes(), nil
}

// Base64 renders e as base64 text for a FieldFilterExpr field.
func Base64(e Expr) (string, error) {
	raw, err := Marshal(e)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// FromBase64 reconstructs an expression tree from Base64's output.
func FromBase64(s string) (Expr, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Expr{}, aeroerr.Wrap(aeroerr.ClientError, err, "filter: base64 decode failed")
	}
	return Unmarshal(raw)
}

func flatten(e Expr, out *[]interface{}) error {
	for _, arg := range e.Args {
		if err := flatten(arg, out); err != nil {
			return err
		}
	}
	cmd, err := encodeNode(e)
	if err != nil {
		return err
	}
	*out = append(*out, cmd)
	return nil
}

func encodeNode(e Expr) ([]interface{}, error) {
	switch e.Op {
	case OpConst:
		wire, err := constToWire(e.Const)
		if err != nil {
			return nil, err
		}
		return []interface{}{int64(e.Op), wire}, nil
	case OpBinInt, OpBinStr, OpBinMap, OpBinBlob, OpBinExists:
		return []interface{}{int64(e.Op), e.BinName}, nil
	case OpCDTRead:
		b64, err := e.CDTSteps.Base64()
		if err != nil {
			return nil, err
		}
		return []interface{}{int64(e.Op), e.BinName, b64}, nil
	case OpCDTModify:
		b64, err := e.CDTSteps.Base64()
		if err != nil {
			return nil, err
		}
		return []interface{}{int64(e.Op), e.BinName, b64, int64(len(e.Args))}, nil
	default:
		if isVariadic(e.Op) {
			return []interface{}{int64(e.Op), int64(len(e.Args))}, nil
		}
		return []interface{}{int64(e.Op)}, nil
	}
}

func constToWire(v aerotypes.Value) (interface{}, error) {
	switch val := v.(type) {
	case nil, aerotypes.NullValue:
		return nil, nil
	case aerotypes.IntegerValue:
		return int64(val), nil
	case aerotypes.FloatValue:
		return float64(val), nil
	case aerotypes.BoolValue:
		return bool(val), nil
	case aerotypes.StringValue:
		return string(val), nil
	case aerotypes.BytesValue:
		return []byte(val), nil
	default:
		return nil, aeroerr.New(aeroerr.ClientError, "filter: unsupported constant type %T", v)
	}
}

func wireToConst(generic interface{}) (aerotypes.Value, error) {
	switch v := generic.(type) {
	case nil:
		return aerotypes.NullValue{}, nil
	case int64:
		return aerotypes.IntegerValue(v), nil
	case uint64:
		return aerotypes.IntegerValue(int64(v)), nil
	case float64:
		return aerotypes.FloatValue(v), nil
	case bool:
		return aerotypes.BoolValue(v), nil
	case string:
		return aerotypes.StringValue(v), nil
	case []byte:
		return aerotypes.BytesValue(append([]byte(nil), v...)), nil
	default:
		return nil, aeroerr.New(aeroerr.ClientError, "filter: undecodable constant of type %T", generic)
	}
}

// Unmarshal parses raw msgpack bytes (Marshal's output) back into an
// expression tree, evaluating the postfix command list against a stack.
func Unmarshal(raw []byte) (Expr, error) {
	var commands []interface{}
	dec := codec.NewDecoder(bytes.NewReader(raw), exprHandle)
	if err := dec.Decode(&commands); err != nil {
		return Expr{}, aeroerr.Wrap(aeroerr.ClientError, err, "filter: msgpack decode failed")
	}

	var stack []Expr
	for _, cmdGeneric := range commands {
		cmd, ok := cmdGeneric.([]interface{})
		if !ok || len(cmd) == 0 {
			return Expr{}, aeroerr.New(aeroerr.ClientError, "filter: malformed command entry")
		}
		opVal, ok := cmd[0].(int64)
		if !ok {
			return Expr{}, aeroerr.New(aeroerr.ClientError, "filter: command missing op code")
		}
		op := Op(opVal)

		node, arity, err := decodeNode(op, cmd)
		if err != nil {
			return Expr{}, err
		}
		if arity > len(stack) {
			return Expr{}, aeroerr.New(aeroerr.TruncatedField, "filter: op %d needs %d operands, stack has %d", op, arity, len(stack))
		}
		if arity > 0 {
			node.Args = append([]Expr(nil), stack[len(stack)-arity:]...)
			stack = stack[:len(stack)-arity]
		}
		stack = append(stack, node)
	}
	if len(stack) != 1 {
		return Expr{}, aeroerr.New(aeroerr.ClientError, "filter: postfix stream left %d values on the stack, expected 1", len(stack))
	}
	return stack[0], nil
}

func decodeNode(op Op, cmd []interface{}) (Expr, int, error) {
	switch op {
	case OpConst:
		if len(cmd) < 2 {
			return Expr{}, 0, aeroerr.New(aeroerr.TruncatedField, "filter: const command missing value")
		}
		v, err := wireToConst(cmd[1])
		if err != nil {
			return Expr{}, 0, err
		}
		return Expr{Op: op, Const: v}, 0, nil
	case OpBinInt, OpBinStr, OpBinMap, OpBinBlob, OpBinExists:
		name, err := stringArg(cmd, 1, "bin name")
		if err != nil {
			return Expr{}, 0, err
		}
		return Expr{Op: op, BinName: name}, 0, nil
	case OpCDTRead:
		name, err := stringArg(cmd, 1, "bin name")
		if err != nil {
			return Expr{}, 0, err
		}
		b64, err := stringArg(cmd, 2, "context")
		if err != nil {
			return Expr{}, 0, err
		}
		ctx, err := cdt.FromBase64(b64)
		if err != nil {
			return Expr{}, 0, err
		}
		return Expr{Op: op, BinName: name, CDTSteps: ctx}, 0, nil
	case OpCDTModify:
		name, err := stringArg(cmd, 1, "bin name")
		if err != nil {
			return Expr{}, 0, err
		}
		b64, err := stringArg(cmd, 2, "context")
		if err != nil {
			return Expr{}, 0, err
		}
		ctx, err := cdt.FromBase64(b64)
		if err != nil {
			return Expr{}, 0, err
		}
		count, err := intArg(cmd, 3, "arg count")
		if err != nil {
			return Expr{}, 0, err
		}
		return Expr{Op: op, BinName: name, CDTSteps: ctx}, count, nil
	default:
		if isVariadic(op) {
			count, err := intArg(cmd, 1, "arg count")
			if err != nil {
				return Expr{}, 0, err
			}
			return Expr{Op: op}, count, nil
		}
		arity, ok := fixedArity[op]
		if !ok {
			return Expr{}, 0, aeroerr.New(aeroerr.ClientError, "filter: unknown op code %d", op)
		}
		return Expr{Op: op}, arity, nil
	}
}

func stringArg(cmd []interface{}, idx int, field string) (string, error) {
	if idx >= len(cmd) {
		return "", aeroerr.New(aeroerr.TruncatedField, "filter: command missing %s", field)
	}
	s, ok := cmd[idx].(string)
	if !ok {
		return "", aeroerr.New(aeroerr.ClientError, "filter: %s is not a string", field)
	}
	return s, nil
}

func intArg(cmd []interface{}, idx int, field string) (int, error) {
	if idx >= len(cmd) {
		return 0, aeroerr.New(aeroerr.TruncatedField, "filter: command missing %s", field)
	}
	switch v := cmd[idx].(type) {
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	default:
		return 0, aeroerr.New(aeroerr.ClientError, "filter: %s is not an integer", field)
	}
}
