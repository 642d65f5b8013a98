package model

// Kind discriminates node variants relevant to structural matching
type Kind int

const (
	// KindOther is any statement not covered by a dedicated kind
	KindOther Kind = iota
	// KindMethod is a method definition
	KindMethod
	// KindClass is a class definition
	KindClass
	// KindModule is a module definition
	KindModule
	// KindSingletonClass is a class << expr definition
	KindSingletonClass
	// KindConstantAssign is an assignment to a constant
	KindConstantAssign
	// KindPathConstantAssign is an assignment to a scoped constant path
	KindPathConstantAssign
	// KindLocalAssign is an assignment to a local variable
	KindLocalAssign
	// KindInstanceAssign is an assignment to an instance variable
	KindInstanceAssign
	// KindClassVarAssign is an assignment to a class variable
	KindClassVarAssign
	// KindGlobalAssign is an assignment to a global variable
	KindGlobalAssign
	// KindMultiAssign is a multiple assignment
	KindMultiAssign
	// KindConditional is an if or unless statement
	KindConditional
	// KindCase is a case/when statement
	KindCase
	// KindCaseMatch is a case/in pattern match
	KindCaseMatch
	// KindLoop is a while, until or for loop
	KindLoop
	// KindBeginRescue is a begin/rescue/ensure block
	KindBeginRescue
	// KindCall is a method call, with or without a block
	KindCall
	// KindSuper is a super invocation
	KindSuper
	// KindLambda is a stabby lambda literal
	KindLambda
	// KindPreExec is a BEGIN { } block
	KindPreExec
	// KindPostExec is an END { } block
	KindPostExec
	// KindParens is a parenthesized statement group
	KindParens
	// KindEmbeddedStmt is an embedded statement expression
	KindEmbeddedStmt
)

var kindNames = map[Kind]string{
	KindOther:              "other",
	KindMethod:             "def",
	KindClass:              "class",
	KindModule:             "module",
	KindSingletonClass:     "singleton_class",
	KindConstantAssign:     "const",
	KindPathConstantAssign: "const_path",
	KindLocalAssign:        "lasgn",
	KindInstanceAssign:     "iasgn",
	KindClassVarAssign:     "cvasgn",
	KindGlobalAssign:       "gvasgn",
	KindMultiAssign:        "masgn",
	KindConditional:        "conditional",
	KindCase:               "case",
	KindCaseMatch:          "case_match",
	KindLoop:               "loop",
	KindBeginRescue:        "begin",
	KindCall:               "call",
	KindSuper:              "super",
	KindLambda:             "lambda",
	KindPreExec:            "pre_execution",
	KindPostExec:           "post_execution",
	KindParens:             "parens",
	KindEmbeddedStmt:       "embedded",
}

// String returns the kind's tag name
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "other"
}

// Node represents a single statement with its source range, identity fields
// and attached comments. Identity fields are populated per kind by the parser
// binding; only the fields a kind's signature consumes are meaningful.
type Node struct {
	Kind Kind

	StartLine int // 1-based first line of the statement itself
	EndLine   int // 1-based last line (closing keyword for compounds)
	StartByte int
	EndByte   int

	// OpeningLine is the line of the header or block-opening token. For a
	// class/module/method it is the header line; for a call with a do block
	// it is the line carrying the `do`.
	OpeningLine int

	Name          string   // Method name, call method name, assignment target
	Params        []string // Method parameter names in declaration order
	ConstantPath  string   // Class/module constant path or singleton expression
	Receiver      string   // Call receiver source
	FirstArg      string   // Call first-argument value (see signature table)
	HasBlock      bool     // Call or super carries a block
	Condition     string   // Conditional/loop condition or case predicate
	Keyword       string   // "if", "unless", "while", "until", "for"
	IndexSource   string   // For-loop index expression source
	CollectSource string   // For-loop collection expression source
	InnerSource   string   // Begin/parens first inner or embedded inner source
	LambdaParams  string   // Lambda parameter list source
	RawKind       string   // Concrete grammar node type, for KindOther
	RHSIsLambda   bool     // Local assignment whose right side is a lambda

	Body []*Node // Body statements for compound kinds

	LeadingComments  []*Comment
	TrailingComments []*Comment

	// MergeType is an optional label attached by a node-typing strategy and
	// used to look up a per-type preference.
	MergeType string
}

// LeadStartLine returns the node's start line extended over its leading
// comment block
func (n *Node) LeadStartLine() int {
	start := n.StartLine
	for _, comment := range n.LeadingComments {
		if comment.Line < start {
			start = comment.Line
		}
	}
	return start
}

// FrozenOn reports whether the node's leading comments carry a freeze marker
// for the given token
func (n *Node) FrozenOn(freezeToken string) bool {
	for _, comment := range n.LeadingComments {
		if comment.IsFreeze(freezeToken) {
			return true
		}
	}
	return false
}

// IsCompound reports whether the node kind owns a body that the merge may
// recurse into
func (n *Node) IsCompound() bool {
	switch n.Kind {
	case KindClass, KindModule, KindSingletonClass:
		return true
	case KindCall:
		return n.HasBlock
	}
	return false
}

// IsEncompassing reports whether the node may legitimately wrap a freeze
// region without being inside it: containers whose body is re-analyzed on
// recursion.
func (n *Node) IsEncompassing() bool {
	switch n.Kind {
	case KindClass, KindModule, KindSingletonClass, KindMethod, KindLambda:
		return true
	case KindCall:
		return n.HasBlock
	case KindLocalAssign:
		return n.RHSIsLambda
	}
	return false
}

// IsMergeable reports whether the statement participates in structural
// matching, as opposed to a bare literal or expression.
func (n *Node) IsMergeable() bool {
	switch n.Kind {
	case KindOther, KindEmbeddedStmt:
		return false
	}
	return true
}

// NodeTransform optionally rewrites or tags a node before signature
// derivation. Returning nil keeps the original node.
type NodeTransform func(node *Node) *Node
