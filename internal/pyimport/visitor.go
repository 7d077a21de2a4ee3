package pyimport

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// visitor walks a parsed tree-sitter Python AST collecting raw import
// targets. It mirrors the reference ImportExtractor: import_statement and
// import_from_statement contribute dotted import targets (the parent
// package, plus one entry per imported name, so a symbol-only import
// still registers a dependency edge on the containing module); nested
// statement bodies are only descended into when deep is set; a
// TYPE_CHECKING-guarded if statement is skipped entirely unless
// includeTypeChecking is set; and any reference to the bare identifier
// __import__, or a call to importlib.import_module/builtins.__import__,
// is recorded as the sentinel "__import__" import so dynamic-import call
// sites can be flagged even though their actual target usually can't be
// resolved statically — except when that call's single argument is a
// string literal, in which case the literal's value is emitted too, as a
// resolvable import target alongside the sentinel.
type visitor struct {
	content             []byte
	module              string
	deep                bool
	includeTypeChecking bool

	imports []string
}

func (v *visitor) text(n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(v.content[n.StartByte():n.EndByte()])
}

func (v *visitor) walkBody(root *tree_sitter.Node) {
	if root == nil {
		return
	}
	for i := uint(0); i < root.ChildCount(); i++ {
		v.visitStmt(root.Child(i))
	}
}

func (v *visitor) visitStmt(stmt *tree_sitter.Node) {
	if stmt == nil {
		return
	}
	switch stmt.Kind() {
	case "import_statement":
		v.visitImportStatement(stmt)
		return
	case "import_from_statement":
		v.visitImportFromStatement(stmt)
		return
	}

	if !v.deep {
		v.visitExprsIn(stmt)
		return
	}

	if stmt.Kind() == "if_statement" {
		cond := stmt.ChildByFieldName("condition")
		condText := v.text(cond)
		if (condText == "TYPE_CHECKING" || condText == "typing.TYPE_CHECKING") && !v.includeTypeChecking {
			return
		}
	}

	v.visitExprsIn(stmt)
	v.walkNestedBodies(stmt)
}

// walkNestedBodies descends into every statement-bearing child block
// (if/elif/else, for/while bodies, try/except/finally, with-blocks,
// function and class bodies) so module-level deep imports are found
// regardless of nesting, matching walk_stmt's generic statement
// recursion in the reference visitor.
func (v *visitor) walkNestedBodies(stmt *tree_sitter.Node) {
	for i := uint(0); i < stmt.ChildCount(); i++ {
		child := stmt.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "block":
			for j := uint(0); j < child.ChildCount(); j++ {
				v.visitStmt(child.Child(j))
			}
		case "elif_clause", "else_clause", "except_clause", "finally_clause":
			v.walkNestedBodies(child)
		}
	}
}

// visitExprsIn scans every descendant expression of stmt (without
// descending into nested statement blocks, which visitStmt/walkNestedBodies
// already handle separately) looking for __import__ references and
// importlib.import_module calls.
func (v *visitor) visitExprsIn(stmt *tree_sitter.Node) {
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "block":
			// statement body: handled by the caller's own recursion, not here.
			return
		case "identifier":
			if v.text(n) == "__import__" {
				v.imports = append(v.imports, "__import__")
			}
		case "call":
			isDynamicImportCall := false
			if fn := n.ChildByFieldName("function"); fn != nil {
				switch fn.Kind() {
				case "identifier":
					isDynamicImportCall = v.text(fn) == "__import__"
				case "attribute":
					obj, attr := v.text(fn.ChildByFieldName("object")), v.text(fn.ChildByFieldName("attribute"))
					isDynamicImportCall = (obj == "importlib" && attr == "import_module") ||
						(obj == "builtins" && attr == "__import__")
				}
			}
			if isDynamicImportCall {
				v.imports = append(v.imports, "__import__")
				if lit, ok := soleStringArg(v, n.ChildByFieldName("arguments")); ok {
					v.imports = append(v.imports, lit)
				}
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	for i := uint(0); i < stmt.ChildCount(); i++ {
		walk(stmt.Child(i))
	}
}

func (v *visitor) visitImportStatement(stmt *tree_sitter.Node) {
	for i := uint(0); i < stmt.ChildCount(); i++ {
		child := stmt.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			v.imports = append(v.imports, v.text(child))
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				v.imports = append(v.imports, v.text(name))
			}
		}
	}
}

func (v *visitor) visitImportFromStatement(stmt *tree_sitter.Node) {
	modNode := stmt.ChildByFieldName("module_name")
	if modNode == nil {
		for i := uint(0); i < stmt.ChildCount(); i++ {
			child := stmt.Child(i)
			if child != nil && (child.Kind() == "dotted_name" || child.Kind() == "relative_import") {
				modNode = child
				break
			}
		}
	}

	level := 0
	rawModule := v.text(modNode)
	trimmed := strings.TrimLeft(rawModule, ".")
	level = len(rawModule) - len(trimmed)

	var target string
	if level > 0 {
		parent, _ := SplitAtDepth(v.module, '.', level)
		target = parent
	}
	if trimmed != "" {
		if target != "" {
			target += "."
		}
		target += trimmed
	}
	v.imports = append(v.imports, target)

	for i := uint(0); i < stmt.ChildCount(); i++ {
		child := stmt.Child(i)
		if child == nil || (modNode != nil && child.StartByte() == modNode.StartByte() && child.EndByte() == modNode.EndByte()) {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			v.imports = append(v.imports, joinTarget(target, v.text(child)))
		case "aliased_import":
			if name := child.ChildByFieldName("name"); name != nil {
				v.imports = append(v.imports, joinTarget(target, v.text(name)))
			}
		case "wildcard_import":
			v.imports = append(v.imports, target+".*")
		case "import_list":
			for j := uint(0); j < child.ChildCount(); j++ {
				item := child.Child(j)
				if item == nil {
					continue
				}
				switch item.Kind() {
				case "dotted_name":
					v.imports = append(v.imports, joinTarget(target, v.text(item)))
				case "aliased_import":
					if name := item.ChildByFieldName("name"); name != nil {
						v.imports = append(v.imports, joinTarget(target, v.text(name)))
					}
				}
			}
		}
	}
}

func joinTarget(target, name string) string {
	if target == "" {
		return name
	}
	return target + "." + name
}

// soleStringArg returns the decoded value of args' only argument, if args
// (a call's "arguments" field) holds exactly one argument and it's a plain
// string literal. Anything else — no arguments, more than one, a
// keyword/starred argument, an f-string, a concatenation — returns false,
// since the call's target isn't statically determinable in those cases.
func soleStringArg(v *visitor, args *tree_sitter.Node) (string, bool) {
	if args == nil {
		return "", false
	}
	var sole *tree_sitter.Node
	for i := uint(0); i < args.ChildCount(); i++ {
		child := args.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		if sole != nil {
			return "", false
		}
		sole = child
	}
	if sole == nil || sole.Kind() != "string" {
		return "", false
	}
	return stringLiteralValue(v.text(sole))
}

// stringLiteralValue strips the quote delimiters off a Python string
// literal's source text. Only plain single/double and triple-quoted forms
// are handled; string prefixes (f, r, b, u and combinations) are rejected
// since an f-string's value isn't known until runtime and the others don't
// apply to a dynamic-import target.
func stringLiteralValue(raw string) (string, bool) {
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) && len(raw) >= 2*len(q) {
			return raw[len(q) : len(raw)-len(q)], true
		}
	}
	return "", false
}
