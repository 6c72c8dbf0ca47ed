package db

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"
)

var queryNamePattern = regexp.MustCompile(`-- name: (\w+) (:\w+)`)

// The generated package must stay in step with the SQL sqlc reads, or the
// next `go tool sqlc generate` silently drops or renames queries.
func TestGeneratedQueriesMatchSQLSources(t *testing.T) {
	sources := collectQueryNames(t, filepath.Join("sql", "*.sql"))
	generated := collectQueryNames(t, filepath.Join("queries", "*.sql.go"))

	if len(sources) == 0 {
		t.Fatal("no sqlc query sources found")
	}
	if strings.Join(sources, "\n") != strings.Join(generated, "\n") {
		t.Fatalf("query sources and generated package differ\nsql:\n%s\ngo:\n%s",
			strings.Join(sources, "\n"), strings.Join(generated, "\n"))
	}

	files, _ := filepath.Glob(filepath.Join("queries", "*.sql.go"))
	for _, file := range files {
		base := strings.TrimSuffix(filepath.Base(file), ".go")
		if _, err := os.Stat(filepath.Join("sql", base)); err != nil {
			t.Fatalf("%s has no matching sql source: %v", file, err)
		}
	}
}

func TestSQLCConfigTargetsQueriesPackage(t *testing.T) {
	raw, err := os.ReadFile("sqlc.yaml")
	if err != nil {
		t.Fatalf("read sqlc config: %v", err)
	}
	config := string(raw)
	for _, want := range []string{`engine: "sqlite"`, `schema: "migrations"`, `queries: "sql"`, `package: "queries"`, `out: "queries"`} {
		if !strings.Contains(config, want) {
			t.Fatalf("sqlc config missing %s", want)
		}
	}

	mod, err := os.ReadFile(filepath.Join("..", "..", "go.mod"))
	if err != nil {
		t.Fatalf("read go.mod: %v", err)
	}
	if !strings.Contains(string(mod), "tool github.com/sqlc-dev/sqlc/cmd/sqlc") {
		t.Fatal("go.mod does not pin the sqlc tool")
	}
}

func collectQueryNames(t *testing.T, pattern string) []string {
	t.Helper()

	files, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatalf("glob %s: %v", pattern, err)
	}
	var names []string
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			t.Fatalf("read %s: %v", file, err)
		}
		for _, match := range queryNamePattern.FindAllStringSubmatch(string(raw), -1) {
			names = append(names, filepath.Base(file)+" "+match[1]+" "+match[2])
		}
	}
	for i, name := range names {
		// listings.sql and listings.sql.go hold the same queries.
		names[i] = strings.Replace(name, ".sql.go ", ".sql ", 1)
	}
	sort.Strings(names)
	return names
}
