package locator

import (
	"fmt"
	"sort"
)

// Finding is one problem reported by Vet.
type Finding struct {
	File    string // file the locator came from
	Name    string // locator name
	Message string
}

func (f Finding) String() string {
	if f.Name == "" {
		return fmt.Sprintf("%s: %s", f.File, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", f.File, f.Name, f.Message)
}

// Vet checks locator YAML files for empty selectors, unknown strategies and
// names defined in more than one file. Findings are ordered by file, then
// name; an empty slice means the files are clean. A file that fails to load
// produces a finding rather than an error, so one broken file does not hide
// the rest.
func Vet(paths []string) []Finding {
	var findings []Finding
	seen := map[string]string{} // locator name -> first defining file

	for _, path := range paths {
		set, err := LoadFile(path)
		if err != nil {
			findings = append(findings, Finding{File: path, Message: err.Error()})
			continue
		}

		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			entry := set[name]
			if entry.Selector == "" {
				findings = append(findings, Finding{
					File: path, Name: name, Message: "empty selector",
				})
			}
			if entry.Strategy != "" && !entry.Strategy.Valid() {
				findings = append(findings, Finding{
					File: path, Name: name,
					Message: fmt.Sprintf("unknown strategy %q", entry.Strategy),
				})
			}
			if first, dup := seen[name]; dup && first != path {
				findings = append(findings, Finding{
					File: path, Name: name,
					Message: fmt.Sprintf("already defined in %s", first),
				})
			} else if !dup {
				seen[name] = path
			}
		}
	}
	return findings
}
