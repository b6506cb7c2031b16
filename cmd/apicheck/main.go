// Command apicheck fails when a revised swagger.yaml breaks clients of the base one.
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var httpMethods = []string{"get", "put", "post", "delete", "patch", "head", "options"}

type parameter struct {
	Name     string `yaml:"name"`
	In       string `yaml:"in"`
	Required bool   `yaml:"required"`
}

type operation struct {
	Parameters []parameter          `yaml:"parameters"`
	Responses  map[string]yaml.Node `yaml:"responses"`
}

// document keeps only what the compatibility rules look at.
type document struct {
	Paths map[string]map[string]yaml.Node `yaml:"paths"`
}

type apiSurface map[string]map[string]operation

func main() {
	basePath := flag.String("base", "", "base swagger.yaml")
	revisionPath := flag.String("revision", "docs/swagger.yaml", "revised swagger.yaml")
	flag.Parse()

	if strings.TrimSpace(*basePath) == "" {
		fmt.Fprintln(os.Stderr, "usage: apicheck -base <path> [-revision <path>]")
		os.Exit(2)
	}

	base, err := loadFile(*basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load base: %v\n", err)
		os.Exit(1)
	}
	revision, err := loadFile(*revisionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load revision: %v\n", err)
		os.Exit(1)
	}

	if problems := compare(base, revision); len(problems) > 0 {
		fmt.Fprintln(os.Stderr, "breaking API changes:")
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "  %s\n", p)
		}
		os.Exit(1)
	}
	fmt.Println("api is backward compatible")
}

func loadFile(path string) (apiSurface, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(raw)
}

func parse(raw []byte) (apiSurface, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Paths == nil {
		return nil, fmt.Errorf("document has no paths")
	}

	surface := apiSurface{}
	for path, item := range doc.Paths {
		ops := map[string]operation{}
		for key, node := range item {
			method := strings.ToLower(key)
			if !slices.Contains(httpMethods, method) {
				continue
			}
			var op operation
			if err := node.Decode(&op); err != nil {
				return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(method), path, err)
			}
			ops[method] = op
		}
		surface[path] = ops
	}
	return surface, nil
}

// compare lists changes that break an existing client: a path, operation or
// documented response disappears, or a request gains a required parameter.
func compare(base, revision apiSurface) []string {
	var problems []string

	for _, path := range sortedKeys(base) {
		revOps, ok := revision[path]
		if !ok {
			problems = append(problems, "path removed: "+path)
			continue
		}
		for _, method := range sortedKeys(base[path]) {
			endpoint := strings.ToUpper(method) + " " + path
			revOp, ok := revOps[method]
			if !ok {
				problems = append(problems, "operation removed: "+endpoint)
				continue
			}
			baseOp := base[path][method]
			for _, code := range sortedKeys(baseOp.Responses) {
				if _, ok := revOp.Responses[code]; !ok {
					problems = append(problems, fmt.Sprintf("response %s removed: %s", code, endpoint))
				}
			}
			for _, p := range revOp.Parameters {
				if p.Required && !hasParameter(baseOp.Parameters, p) {
					problems = append(problems, fmt.Sprintf("new required %s parameter %q: %s", p.In, p.Name, endpoint))
				}
			}
		}
	}
	return problems
}

func hasParameter(params []parameter, want parameter) bool {
	return slices.ContainsFunc(params, func(p parameter) bool {
		return p.Name == want.Name && p.In == want.In
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
