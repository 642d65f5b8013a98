package ruby

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/structmerge/merge/model"
)

// convertNode maps a concrete grammar node onto the merge data model,
// extracting the identity fields its kind's signature consumes.
func (p *Parser) convertNode(node *sitter.Node) *model.Node {
	result := &model.Node{
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		StartByte: int(node.StartByte()),
		EndByte:   int(node.EndByte()),
		RawKind:   node.Type(),
		Kind:      model.KindOther,
	}
	result.OpeningLine = result.StartLine

	switch node.Type() {
	case "method", "singleton_method":
		result.Kind = model.KindMethod
		result.Name = p.fieldContent(node, "name")
		result.Params = p.parameterNames(node.ChildByFieldName("parameters"))
		result.Body = p.convertBody(node.ChildByFieldName("body"))

	case "class":
		result.Kind = model.KindClass
		result.ConstantPath = p.fieldContent(node, "name")
		result.Body = p.convertBody(node.ChildByFieldName("body"))

	case "module":
		result.Kind = model.KindModule
		result.ConstantPath = p.fieldContent(node, "name")
		result.Body = p.convertBody(node.ChildByFieldName("body"))

	case "singleton_class":
		result.Kind = model.KindSingletonClass
		result.ConstantPath = p.fieldContent(node, "value")
		result.Body = p.convertBody(node.ChildByFieldName("body"))

	case "assignment", "operator_assignment":
		p.convertAssignment(node, result)

	case "if", "unless":
		result.Kind = model.KindConditional
		result.Keyword = node.Type()
		result.Condition = p.fieldContent(node, "condition")

	case "case":
		result.Kind = model.KindCase
		result.Condition = p.fieldContent(node, "value")

	case "case_match":
		result.Kind = model.KindCaseMatch
		result.Condition = p.fieldContent(node, "value")

	case "while", "until":
		result.Kind = model.KindLoop
		result.Keyword = node.Type()
		result.Condition = p.fieldContent(node, "condition")

	case "for":
		result.Kind = model.KindLoop
		result.Keyword = "for"
		result.IndexSource = p.fieldContent(node, "pattern")
		result.CollectSource = p.fieldContent(node, "value")

	case "begin":
		result.Kind = model.KindBeginRescue
		result.InnerSource = p.firstInnerStatementSource(node)

	case "call":
		p.convertCall(node, result)

	case "super":
		result.Kind = model.KindSuper

	case "lambda":
		result.Kind = model.KindLambda
		result.LambdaParams = p.fieldContent(node, "parameters")
		result.Body = p.convertBody(node.ChildByFieldName("body"))

	case "begin_block":
		result.Kind = model.KindPreExec

	case "end_block":
		result.Kind = model.KindPostExec

	case "parenthesized_statements":
		result.Kind = model.KindParens
		result.InnerSource = p.firstInnerStatementSource(node)

	case "interpolation":
		result.Kind = model.KindEmbeddedStmt
		result.InnerSource = p.firstInnerStatementSource(node)
	}

	return result
}

// convertAssignment dispatches on the assignment target to pick the node kind
func (p *Parser) convertAssignment(node *sitter.Node, result *model.Node) {
	left := node.ChildByFieldName("left")
	if left == nil {
		return
	}
	right := node.ChildByFieldName("right")

	switch left.Type() {
	case "constant":
		result.Kind = model.KindConstantAssign
		result.Name = left.Content(p.source)
	case "scope_resolution":
		result.Kind = model.KindPathConstantAssign
		result.Name = left.Content(p.source)
	case "identifier":
		result.Kind = model.KindLocalAssign
		result.Name = left.Content(p.source)
		result.RHSIsLambda = right != nil && right.Type() == "lambda"
	case "instance_variable":
		result.Kind = model.KindInstanceAssign
		result.Name = left.Content(p.source)
	case "class_variable":
		result.Kind = model.KindClassVarAssign
		result.Name = left.Content(p.source)
	case "global_variable":
		result.Kind = model.KindGlobalAssign
		result.Name = left.Content(p.source)
	case "left_assignment_list":
		result.Kind = model.KindMultiAssign
		result.Name = left.Content(p.source)
	case "call":
		// Attribute writes like `config.name = x` are setter calls matched
		// by method name and receiver; the assigned value is ignored.
		result.Kind = model.KindCall
		result.Name = p.fieldContent(left, "method") + "="
		result.Receiver = p.fieldContent(left, "receiver")
	case "element_reference":
		result.Kind = model.KindCall
		result.Name = "[]="
		result.Receiver = p.fieldContent(left, "object")
	}
}

// convertCall extracts call identity: method name, receiver, first argument
// and block presence
func (p *Parser) convertCall(node *sitter.Node, result *model.Node) {
	methodNode := node.ChildByFieldName("method")
	if methodNode != nil && methodNode.Type() == "super" {
		result.Kind = model.KindSuper
		result.HasBlock = node.ChildByFieldName("block") != nil
		return
	}

	result.Kind = model.KindCall
	if methodNode != nil {
		result.Name = methodNode.Content(p.source)
	}
	result.Receiver = p.fieldContent(node, "receiver")
	result.FirstArg = p.firstArgumentValue(node.ChildByFieldName("arguments"))

	if block := node.ChildByFieldName("block"); block != nil {
		result.HasBlock = true
		result.OpeningLine = int(block.StartPoint().Row) + 1
		result.Body = p.convertBody(blockBody(block))
	}
}

// blockBody returns the body_statement of a brace or do block
func blockBody(block *sitter.Node) *sitter.Node {
	if body := block.ChildByFieldName("body"); body != nil {
		return body
	}
	for i := 0; i < int(block.NamedChildCount()); i++ {
		child := block.NamedChild(i)
		if child.Type() == "body_statement" || child.Type() == "block_body" {
			return child
		}
	}
	return nil
}

// convertBody converts the named statement children of a body node
func (p *Parser) convertBody(body *sitter.Node) []*model.Node {
	if body == nil {
		return nil
	}
	var statements []*model.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "comment", "rescue", "ensure", "else", "block_parameters":
			continue
		}
		if node := p.convertNode(child); node != nil {
			statements = append(statements, node)
		}
	}
	return statements
}

// parameterNames extracts parameter names in declaration order
func (p *Parser) parameterNames(params *sitter.Node) []string {
	if params == nil {
		return nil
	}
	var names []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		var name string
		switch param.Type() {
		case "identifier":
			name = param.Content(p.source)
		case "optional_parameter", "keyword_parameter", "rest_parameter",
			"splat_parameter", "hash_splat_parameter", "block_parameter":
			if nameNode := param.ChildByFieldName("name"); nameNode != nil {
				name = nameNode.Content(p.source)
			}
		default:
			name = strings.TrimSpace(param.Content(p.source))
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// firstArgumentValue derives the first-argument identity of a call: the
// unescaped text for a string literal, the bare symbol for a symbol literal,
// otherwise the argument's source slice.
func (p *Parser) firstArgumentValue(arguments *sitter.Node) string {
	if arguments == nil || arguments.NamedChildCount() == 0 {
		return ""
	}
	first := arguments.NamedChild(0)
	switch first.Type() {
	case "string":
		return unescapeString(first, p.source)
	case "simple_symbol":
		return strings.TrimPrefix(first.Content(p.source), ":")
	}
	return first.Content(p.source)
}

// unescapeString returns the content of a string literal without its quotes
func unescapeString(node *sitter.Node, src []byte) string {
	var builder strings.Builder
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "string_content":
			builder.WriteString(child.Content(src))
		case "escape_sequence":
			sequence := child.Content(src)
			if decoded, err := strconv.Unquote(`"` + sequence + `"`); err == nil {
				sequence = decoded
			}
			builder.WriteString(sequence)
		}
	}
	if builder.Len() > 0 {
		return builder.String()
	}
	content := node.Content(src)
	content = strings.TrimPrefix(content, `"`)
	content = strings.TrimPrefix(content, `'`)
	content = strings.TrimSuffix(content, `"`)
	content = strings.TrimSuffix(content, `'`)
	return content
}

// firstInnerStatementSource returns the source of the first statement child
func (p *Parser) firstInnerStatementSource(node *sitter.Node) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "comment", "rescue", "ensure", "else":
			continue
		}
		return child.Content(p.source)
	}
	return ""
}

// fieldContent returns the source content of a named field child, or ""
func (p *Parser) fieldContent(node *sitter.Node, field string) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Content(p.source)
}
