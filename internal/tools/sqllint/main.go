// Command sqllint checks that every SQL string constant in the tree opens
// with a "--sql <uuid>" audit marker, the format internal/infra.SQLRunner
// requires. Run it over internal/ before committing new queries.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	sqlKeyword  = regexp.MustCompile(`(?i)\b(select|insert|update|delete|with|create)\b`)
	auditMarker = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

func main() {
	flag.Parse()
	roots := flag.Args()
	if len(roots) == 0 {
		roots = []string{"internal"}
	}

	bad := 0
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") || d.Name() == "vendor" {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			bad += lintFile(path)
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
			os.Exit(1)
		}
	}
	if bad > 0 {
		fmt.Fprintf(os.Stderr, "sqllint: %d statement(s) missing audit markers\n", bad)
		os.Exit(1)
	}
}

func lintFile(path string) int {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
		return 1
	}

	bad := 0
	ast.Inspect(file, func(n ast.Node) bool {
		lit, ok := n.(*ast.BasicLit)
		if !ok || lit.Kind != token.STRING {
			return true
		}
		text, ok := unquote(lit.Value)
		if !ok || !sqlKeyword.MatchString(text) {
			return true
		}
		if !auditMarker.MatchString(firstLine(text)) {
			pos := fset.Position(lit.Pos())
			fmt.Fprintf(os.Stderr, "%s:%d: SQL literal without --sql <uuid> marker\n", pos.Filename, pos.Line)
			bad++
		}
		return true
	})
	return bad
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, " \t\r\n")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, bool) {
	if strings.HasPrefix(v, "`") && strings.HasSuffix(v, "`") && len(v) >= 2 {
		return v[1 : len(v)-1], true
	}
	s, err := strconv.Unquote(v)
	return s, err == nil
}
