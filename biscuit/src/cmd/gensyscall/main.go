// Command gensyscall regenerates trap/syscall_string.go from the Syscall
// const block in trap/syscall.go, so the two never drift apart (§7: the
// syscall numbering is part of the user/kernel ABI).
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log"
	"os"
	"path/filepath"
	"text/template"

	"golang.org/x/tools/imports"
)

var (
	srcFlag = flag.String("src", "../../trap/syscall.go", "path to the file declaring the Syscall const block")
	outFlag = flag.String("out", "../../trap/syscall_string.go", "path to write the generated String method to")
)

const stringerTemplate = `// Code generated by cmd/gensyscall from syscall.go; DO NOT EDIT.

package trap

import "strconv"

func (s Syscall) String() string {
	switch s {
{{- range . }}
	case {{ . }}:
		return "{{ . }}"
{{- end }}
	default:
		return "Syscall(" + strconv.Itoa(int(s)) + ")"
	}
}
`

func main() {
	flag.Parse()
	names, err := syscallNames(*srcFlag)
	if err != nil {
		log.Fatalf("gensyscall: %v", err)
	}

	tmpl := template.Must(template.New("syscall_string").Parse(stringerTemplate))
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, names); err != nil {
		log.Fatalf("gensyscall: rendering template: %v", err)
	}

	formatted, err := imports.Process(*outFlag, buf.Bytes(), nil)
	if err != nil {
		log.Fatalf("gensyscall: goimports failed on generated source: %v", err)
	}

	if err := os.WriteFile(*outFlag, formatted, 0o644); err != nil {
		log.Fatalf("gensyscall: writing %s: %v", *outFlag, err)
	}
	fmt.Printf("gensyscall: wrote %s (%d syscalls)\n", filepath.Clean(*outFlag), len(names))
}

// syscallNames parses src and returns, in declaration order, the identifiers
// of every constant in each const block from its first Syscall-typed
// constant onward.
func syscallNames(src string) ([]string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, src, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", src, err)
	}

	var names []string
	for _, decl := range f.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.CONST {
			continue
		}
		sawSyscallType := false
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			if ident, ok := vs.Type.(*ast.Ident); ok && ident.Name == "Syscall" {
				sawSyscallType = true
			}
			if !sawSyscallType {
				continue
			}
			for _, name := range vs.Names {
				names = append(names, name.Name)
			}
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no Syscall constants found in %s", src)
	}
	return names, nil
}
