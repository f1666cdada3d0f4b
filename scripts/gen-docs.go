//go:build ignore

// gen-docs writes docs/craft-job.md, the field reference of the CraftJob file
// format, from the struct tags and doc comments in apis/v1.
//
//	go run ./scripts/gen-docs.go
package main

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"golang.org/x/tools/go/packages"
)

const rootType = "CraftJob"

type field struct {
	key      string
	typ      string
	ref      string
	doc      string
	required bool
	template bool
	enum     []string
}

type section struct {
	name   string
	doc    string
	fields []field
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gen-docs: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	pkgs, err := packages.Load(&packages.Config{
		Mode: packages.NeedName | packages.NeedSyntax | packages.NeedTypes,
		Dir:  root,
	}, "./apis/v1")
	if err != nil {
		return fmt.Errorf("failed to load apis/v1: %w", err)
	}
	if packages.PrintErrors(pkgs) > 0 || len(pkgs) != 1 {
		return fmt.Errorf("apis/v1 did not load cleanly")
	}
	pkg := pkgs[0]

	sections, err := walk(pkg.Types, comments(pkg.Syntax))
	if err != nil {
		return err
	}

	out := filepath.Join(root, "docs", "craft-job.md")
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(out, []byte(render(sections)), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d types)\n", out, len(sections))
	return nil
}

// comments maps "Type" and "Type.Field" to their doc comments.
func comments(files []*ast.File) map[string]string {
	docs := make(map[string]string)
	for _, file := range files {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(gen.Specs) == 1 {
					doc = gen.Doc
				}
				docs[ts.Name.Name] = text(doc)

				st, ok := ts.Type.(*ast.StructType)
				if !ok {
					continue
				}
				for _, f := range st.Fields.List {
					fdoc := f.Doc
					if fdoc == nil {
						fdoc = f.Comment
					}
					for _, name := range f.Names {
						docs[ts.Name.Name+"."+name.Name] = text(fdoc)
					}
				}
			}
		}
	}
	return docs
}

func text(g *ast.CommentGroup) string {
	if g == nil {
		return ""
	}
	return strings.Join(strings.Fields(g.Text()), " ")
}

// walk visits the struct types reachable from rootType, breadth first.
func walk(pkg *types.Package, docs map[string]string) ([]section, error) {
	var sections []section
	queue := []string{rootType}
	seen := map[string]bool{rootType: true}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		obj, ok := pkg.Scope().Lookup(name).(*types.TypeName)
		if !ok {
			return nil, fmt.Errorf("type %s not found", name)
		}
		st, ok := obj.Type().Underlying().(*types.Struct)
		if !ok {
			return nil, fmt.Errorf("type %s is not a struct", name)
		}

		s := section{name: name, doc: docs[name]}
		for i := range st.NumFields() {
			v := st.Field(i)
			if !v.Exported() {
				continue
			}
			f := describe(v, reflect.StructTag(st.Tag(i)), pkg)
			f.doc = docs[name+"."+v.Name()]
			if f.ref != "" && !seen[f.ref] {
				seen[f.ref] = true
				queue = append(queue, f.ref)
			}
			s.fields = append(s.fields, f)
		}
		sections = append(sections, s)
	}
	return sections, nil
}

func describe(v *types.Var, tag reflect.StructTag, pkg *types.Package) field {
	f := field{key: v.Name()}
	if key, _, _ := strings.Cut(tag.Get("yaml"), ","); key != "" {
		f.key = key
	}
	_, f.template = tag.Lookup("template")

	for _, rule := range strings.Split(tag.Get("validate"), ",") {
		switch {
		case rule == "required":
			f.required = true
		case strings.HasPrefix(rule, "oneof="):
			f.enum = strings.Fields(strings.TrimPrefix(rule, "oneof="))
		case strings.HasPrefix(rule, "eq="):
			f.enum = []string{strings.TrimPrefix(rule, "eq=")}
		}
	}

	f.typ, f.ref = typeName(v.Type(), pkg)
	return f
}

// typeName returns a readable type, plus the local struct it refers to.
func typeName(t types.Type, pkg *types.Package) (string, string) {
	switch t := t.(type) {
	case *types.Pointer:
		return typeName(t.Elem(), pkg)
	case *types.Slice:
		name, ref := typeName(t.Elem(), pkg)
		return "list of " + name, ref
	case *types.Map:
		key, _ := typeName(t.Key(), pkg)
		val, ref := typeName(t.Elem(), pkg)
		return fmt.Sprintf("map of %s to %s", key, val), ref
	case *types.Named:
		_, isStruct := t.Underlying().(*types.Struct)
		if isStruct && t.Obj().Pkg() == pkg {
			return "object", t.Obj().Name()
		}
		return t.Obj().Name(), ""
	default:
		return types.TypeString(t, types.RelativeTo(pkg)), ""
	}
}

func render(sections []section) string {
	var b strings.Builder
	b.WriteString("# CraftJob reference\n\n")
	b.WriteString("Generated by `go run ./scripts/gen-docs.go`. Do not edit.\n")

	for _, s := range sections {
		fmt.Fprintf(&b, "\n## %s\n\n", s.name)
		if s.doc != "" {
			fmt.Fprintf(&b, "%s\n\n", s.doc)
		}
		b.WriteString("| Key | Type | Required | Description |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		for _, f := range s.fields {
			typ := f.typ
			if f.ref != "" {
				typ = strings.Replace(typ, "object", fmt.Sprintf("[%s](#%s)", f.ref, strings.ToLower(f.ref)), 1)
			}

			notes := []string{}
			if f.doc != "" {
				notes = append(notes, f.doc)
			}
			if len(f.enum) > 0 {
				notes = append(notes, "One of: `"+strings.Join(f.enum, "`, `")+"`.")
			}
			if f.template {
				notes = append(notes, "Supports `${VAR}` expansion.")
			}

			required := ""
			if f.required {
				required = "yes"
			}
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", f.key, typ, required, strings.Join(notes, " "))
		}
	}
	return b.String()
}

func projectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
