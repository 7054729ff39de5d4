package analyzer

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// GoAnalyzer extracts structure from Go sources using the native AST.
// Go is the one language where a full parser is always available, so there
// is no heuristic tier: even on syntax errors the parser yields a partial
// AST and the result degrades instead of falling back to text matching.
type GoAnalyzer struct{}

// Analyze parses content as a Go source file. On a syntax error it returns
// whatever the partial AST yields together with the error, letting the
// dispatch mark the result degraded.
func (g *GoAnalyzer) Analyze(content []byte) (*Payload, error) {
	fset := token.NewFileSet()
	file, parseErr := parser.ParseFile(fset, "", content, parser.ParseComments)
	if file == nil {
		return nil, fmt.Errorf("parsing go source: %w", parseErr)
	}

	payload := &Payload{}
	if file.Doc != nil {
		payload.Description = strings.TrimSpace(file.Doc.Text())
	}

	for _, imp := range file.Imports {
		payload.Imports = append(payload.Imports, strings.Trim(imp.Path.Value, `"`))
	}

	// First pass: type declarations and top-level values.
	classes := make(map[string]*Class)
	var classOrder []string

	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		switch genDecl.Tok {
		case token.TYPE:
			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				class := goClassFromType(fset, typeSpec, genDecl)
				if class == nil {
					continue
				}
				classes[class.Name] = class
				classOrder = append(classOrder, class.Name)
			}
		case token.VAR, token.CONST:
			for _, spec := range genDecl.Specs {
				valueSpec, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for _, name := range valueSpec.Names {
					if name.Name == "_" {
						continue
					}
					payload.Variables = append(payload.Variables, name.Name)
				}
			}
		}
	}

	// Second pass: functions, attaching methods to their receiver type.
	for _, decl := range file.Decls {
		funcDecl, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		fn := goFunction(fset, funcDecl)

		if funcDecl.Recv != nil && len(funcDecl.Recv.List) > 0 {
			recvName := receiverTypeName(funcDecl.Recv.List[0].Type)
			if class, ok := classes[recvName]; ok {
				class.Methods = append(class.Methods, fn)
				continue
			}
			// Method on a type declared in another file of the package:
			// keep it as a standalone function so nothing is lost.
		}
		payload.Functions = append(payload.Functions, fn)
	}

	for _, name := range classOrder {
		payload.Classes = append(payload.Classes, *classes[name])
	}

	if parseErr != nil {
		return payload, fmt.Errorf("partial go parse: %w", parseErr)
	}
	return payload, nil
}

// goClassFromType maps a struct or interface type declaration to a Class.
// Other type declarations (aliases, named basics) are recorded without
// members.
func goClassFromType(fset *token.FileSet, typeSpec *ast.TypeSpec, genDecl *ast.GenDecl) *Class {
	class := &Class{
		Name: typeSpec.Name.Name,
		Line: fset.Position(typeSpec.Pos()).Line,
	}
	if typeSpec.Doc != nil {
		class.Doc = strings.TrimSpace(typeSpec.Doc.Text())
	} else if genDecl.Doc != nil && len(genDecl.Specs) == 1 {
		class.Doc = strings.TrimSpace(genDecl.Doc.Text())
	}

	switch t := typeSpec.Type.(type) {
	case *ast.StructType:
		for _, field := range t.Fields.List {
			if len(field.Names) == 0 {
				// Embedded field: treat as a base type.
				if name := receiverTypeName(field.Type); name != "" {
					class.Bases = append(class.Bases, name)
				}
				continue
			}
			for _, name := range field.Names {
				class.Properties = append(class.Properties, name.Name)
			}
		}
	case *ast.InterfaceType:
		for _, method := range t.Methods.List {
			if len(method.Names) == 0 {
				if name := receiverTypeName(method.Type); name != "" {
					class.Bases = append(class.Bases, name)
				}
				continue
			}
			for _, name := range method.Names {
				fn := Function{Name: name.Name, Line: fset.Position(method.Pos()).Line}
				if funcType, ok := method.Type.(*ast.FuncType); ok {
					fn.Args = paramNames(funcType)
					fn.ReturnType = resultTypes(funcType)
				}
				class.Methods = append(class.Methods, fn)
			}
		}
	}
	return class
}

// goFunction extracts name, parameters, results, and doc from a declaration.
func goFunction(fset *token.FileSet, funcDecl *ast.FuncDecl) Function {
	fn := Function{
		Name: funcDecl.Name.Name,
		Line: fset.Position(funcDecl.Pos()).Line,
	}
	if funcDecl.Doc != nil {
		fn.Doc = strings.TrimSpace(funcDecl.Doc.Text())
	}
	if funcDecl.Type != nil {
		fn.Args = paramNames(funcDecl.Type)
		fn.ReturnType = resultTypes(funcDecl.Type)
	}
	return fn
}

// paramNames returns the parameter names of a function type. Unnamed
// parameters contribute their type instead.
func paramNames(funcType *ast.FuncType) []string {
	if funcType.Params == nil {
		return nil
	}
	var names []string
	for _, field := range funcType.Params.List {
		if len(field.Names) == 0 {
			names = append(names, typeString(field.Type))
			continue
		}
		for _, name := range field.Names {
			names = append(names, name.Name)
		}
	}
	return names
}

// resultTypes renders a function's result list as a single string.
func resultTypes(funcType *ast.FuncType) string {
	if funcType.Results == nil || len(funcType.Results.List) == 0 {
		return ""
	}
	var parts []string
	for _, field := range funcType.Results.List {
		text := typeString(field.Type)
		for i := 0; i < len(field.Names); i++ {
			parts = append(parts, text)
		}
		if len(field.Names) == 0 {
			parts = append(parts, text)
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// receiverTypeName unwraps pointers, generics, and selectors down to the
// base type identifier.
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	default:
		return ""
	}
}

// typeString renders common type expressions compactly; rarely seen shapes
// fall back to a generic placeholder rather than printing the whole AST.
func typeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + typeString(t.X)
	case *ast.SelectorExpr:
		return typeString(t.X) + "." + t.Sel.Name
	case *ast.ArrayType:
		return "[]" + typeString(t.Elt)
	case *ast.MapType:
		return "map[" + typeString(t.Key) + "]" + typeString(t.Value)
	case *ast.Ellipsis:
		return "..." + typeString(t.Elt)
	case *ast.ChanType:
		return "chan " + typeString(t.Value)
	case *ast.FuncType:
		return "func"
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.StructType:
		return "struct{}"
	case *ast.IndexExpr:
		return typeString(t.X) + "[" + typeString(t.Index) + "]"
	default:
		return "?"
	}
}
