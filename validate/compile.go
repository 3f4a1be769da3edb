package validate

import (
	"github.com/cottand/typeguard/typemodel"
	"github.com/pkg/errors"
	"strings"
)

// Compile turns a resolved TypeNode into a Validator.
// Every nameable node of the tree must carry a handle.
func Compile(node *typemodel.TypeNode, host Host) (Validator, error) {
	if node.Shape.Nameable() && !node.Resolved() {
		return nil, errors.Errorf("type '%s' was not resolved", node.Kind)
	}
	switch node.Shape {
	case typemodel.ShapeBasic:
		return Basic{Handle: node.Metadata.Handle}, nil
	case typemodel.ShapeGeneric:
		children, err := compileAll(node.Children, host)
		if err != nil {
			return nil, errors.Wrapf(err, "in generic '%s'", node.Kind)
		}
		return Generic{Handle: node.Metadata.Handle, Elements: children}, nil
	case typemodel.ShapeFixed:
		children, err := compileAll(node.Children, host)
		if err != nil {
			return nil, errors.Wrapf(err, "in fixed '%s'", node.Kind)
		}
		return Fixed{Handle: node.Metadata.Handle, Positions: children}, nil
	case typemodel.ShapeHash, typemodel.ShapeFixedHash:
		keys, err := compileAll(node.Keys, host)
		if err != nil {
			return nil, errors.Wrapf(err, "in keys of '%s'", node.Kind)
		}
		values, err := compileAll(node.Values, host)
		if err != nil {
			return nil, errors.Wrapf(err, "in values of '%s'", node.Kind)
		}
		return HashOf{Handle: node.Metadata.Handle, Keys: keys, Values: values}, nil
	case typemodel.ShapeUnion:
		children, err := compileAll(node.Children, host)
		if err != nil {
			return nil, err
		}
		return AnyOf(children), nil
	case typemodel.ShapeLiteral:
		switch node.Kind {
		case typemodel.LiteralNil:
			return Nil{}, nil
		case typemodel.LiteralSelf, typemodel.LiteralVoid:
			return Untyped{Label: node.Kind}, nil
		default:
			return Literal{Name: node.Kind}, nil
		}
	case typemodel.ShapeDuck:
		if host == nil {
			return nil, errors.Errorf("duck-type '%s' needs a host to check capabilities against", node.Kind)
		}
		return Duck{Host: host, Method: strings.TrimPrefix(node.Kind, "#")}, nil
	case typemodel.ShapeUntyped:
		return Untyped{}, nil
	default:
		return nil, errors.Errorf("unknown shape %s of '%s'", node.Shape, node.Kind)
	}
}

func compileAll(nodes []*typemodel.TypeNode, host Host) ([]Validator, error) {
	validators := make([]Validator, 0, len(nodes))
	for _, n := range nodes {
		v, err := Compile(n, host)
		if err != nil {
			return nil, err
		}
		validators = append(validators, v)
	}
	return validators, nil
}

// ForTypes compiles the declared types of a parameter or return site. No
// types accept anything, several types accept any value one of them accepts.
func ForTypes(nodes []*typemodel.TypeNode, host Host) (Validator, error) {
	switch len(nodes) {
	case 0:
		return Untyped{}, nil
	case 1:
		return Compile(nodes[0], host)
	default:
		validators, err := compileAll(nodes, host)
		if err != nil {
			return nil, err
		}
		return AnyOf(validators), nil
	}
}
