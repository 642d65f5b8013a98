package model

import (
	"strconv"
	"strings"
)

const signatureSourceCap = 30

// Signature is the identity tuple a node is matched by. Two nodes with equal
// signatures are considered the same construct at their level; bodies and
// right-hand sides are deliberately excluded so that a changed implementation
// still matches its counterpart.
type Signature struct {
	Tag    string
	Fields []string
}

// NewSignature builds a signature from a tag and identity fields
func NewSignature(tag string, fields ...string) Signature {
	return Signature{Tag: tag, Fields: fields}
}

// Key returns a canonical comparable form of the signature. The tag and every
// field are quoted, so separator characters inside a value cannot collide.
func (s Signature) Key() string {
	var builder strings.Builder
	builder.WriteString(strconv.Quote(s.Tag))
	for _, field := range s.Fields {
		builder.WriteByte(',')
		builder.WriteString(strconv.Quote(field))
	}
	return builder.String()
}

// Equal reports whether two signatures are value-equal
func (s Signature) Equal(other Signature) bool {
	return s.Key() == other.Key()
}

// IsZero reports whether the signature is unset
func (s Signature) IsZero() bool {
	return s.Tag == "" && len(s.Fields) == 0
}

// String renders the signature in tuple form for diagnostics
func (s Signature) String() string {
	return "(" + s.Tag + ", " + strings.Join(s.Fields, ", ") + ")"
}

// SignatureOutcome is the result of a user signature generator. Exactly one
// interpretation applies:
//   - Signature non-nil: use it verbatim;
//   - Node non-nil: fall through to the default table with the substitute;
//   - both nil: fall through to the default table with the original node.
type SignatureOutcome struct {
	Signature *Signature
	Node      *Node
}

// SignatureGenerator customizes signature derivation for selected nodes while
// deferring the rest to the default table via the fallthrough contract.
type SignatureGenerator func(node *Node) SignatureOutcome

// NodeSignature derives the default signature of a node per the per-kind
// identity table.
func NodeSignature(node *Node) Signature {
	switch node.Kind {
	case KindMethod:
		fields := append([]string{node.Name}, node.Params...)
		return NewSignature("def", fields...)
	case KindClass:
		return NewSignature("class", node.ConstantPath)
	case KindModule:
		return NewSignature("module", node.ConstantPath)
	case KindSingletonClass:
		expr := node.ConstantPath
		if expr == "" {
			expr = "self"
		}
		return NewSignature("singleton_class", expr)
	case KindConstantAssign, KindPathConstantAssign:
		return NewSignature("const", node.Name)
	case KindLocalAssign:
		return NewSignature("lasgn", node.Name)
	case KindInstanceAssign:
		return NewSignature("iasgn", node.Name)
	case KindClassVarAssign:
		return NewSignature("cvasgn", node.Name)
	case KindGlobalAssign:
		return NewSignature("gvasgn", node.Name)
	case KindMultiAssign:
		return NewSignature("masgn", node.Name)
	case KindConditional:
		return NewSignature(node.Keyword, node.Condition)
	case KindCase:
		return NewSignature("case", node.Condition)
	case KindCaseMatch:
		return NewSignature("case_match", node.Condition)
	case KindLoop:
		if node.Keyword == "for" {
			return NewSignature("for", node.IndexSource, node.CollectSource)
		}
		return NewSignature(node.Keyword, node.Condition)
	case KindBeginRescue:
		return NewSignature("begin", capSource(node.InnerSource))
	case KindCall:
		tag := "call"
		if node.HasBlock {
			tag = "call_with_block"
		}
		if strings.HasSuffix(node.Name, "=") {
			// Setter calls match by name and receiver; the assigned value is
			// the merge decision, not the identity.
			return NewSignature(tag, node.Name, node.Receiver)
		}
		return NewSignature(tag, node.Name, node.FirstArg)
	case KindSuper:
		if node.HasBlock {
			return NewSignature("super", "with_block")
		}
		return NewSignature("super", "no_block")
	case KindLambda:
		return NewSignature("lambda", node.LambdaParams)
	case KindPreExec:
		return NewSignature("pre_execution", strconv.Itoa(node.StartLine))
	case KindPostExec:
		return NewSignature("post_execution", strconv.Itoa(node.StartLine))
	case KindParens:
		return NewSignature("parens", capSource(node.InnerSource))
	case KindEmbeddedStmt:
		return NewSignature("embedded", node.InnerSource)
	}
	return NewSignature("other", node.RawKind, strconv.Itoa(node.StartLine))
}

// DeriveSignature resolves a node's signature honoring a user generator's
// fallthrough contract.
func DeriveSignature(node *Node, generator SignatureGenerator) Signature {
	if generator != nil {
		outcome := generator(node)
		if outcome.Signature != nil {
			return *outcome.Signature
		}
		if outcome.Node != nil {
			node = outcome.Node
		}
	}
	return NodeSignature(node)
}

func capSource(source string) string {
	source = strings.TrimSpace(source)
	if idx := strings.IndexByte(source, '\n'); idx >= 0 {
		source = source[:idx]
	}
	if len(source) > signatureSourceCap {
		return source[:signatureSourceCap]
	}
	return source
}
