package buildplan

import (
	"strings"
)

// rule is a Ninja rule declaration. Empty fields are omitted.
type rule struct {
	name           string
	command        string
	description    string
	depfile        string
	deps           string
	rspfile        string
	rspfileContent string
}

type binding struct {
	name  string
	value string
}

// edge is a Ninja build statement:
//
//	build outputs | implicitOutputs: rule inputs | implicit || orderOnly
type edge struct {
	outputs         []string
	implicitOutputs []string
	rule            string
	inputs          []string
	implicit        []string
	orderOnly       []string
	vars            []binding
}

// ninjaWriter renders Ninja build file syntax into memory.
type ninjaWriter struct {
	sb strings.Builder
}

func (w *ninjaWriter) comment(text string) {
	for line := range strings.SplitSeq(text, "\n") {
		if line == "" {
			w.sb.WriteString("#\n")
			continue
		}
		w.sb.WriteString("# " + line + "\n")
	}
}

func (w *ninjaWriter) newline() {
	w.sb.WriteString("\n")
}

func (w *ninjaWriter) variable(name, value string) {
	w.line("", name, value)
}

func (w *ninjaWriter) line(indent, name, value string) {
	w.sb.WriteString(indent + name + " =")
	if value != "" {
		w.sb.WriteString(" " + value)
	}
	w.sb.WriteString("\n")
}

func (w *ninjaWriter) rule(r rule) {
	w.sb.WriteString("rule " + r.name + "\n")
	for _, b := range []binding{
		{"command", r.command},
		{"description", r.description},
		{"depfile", r.depfile},
		{"deps", r.deps},
		{"rspfile", r.rspfile},
		{"rspfile_content", r.rspfileContent},
	} {
		if b.value != "" {
			w.line("  ", b.name, b.value)
		}
	}
	w.newline()
}

func (w *ninjaWriter) build(e edge) {
	w.sb.WriteString("build " + joinPaths(e.outputs))
	if len(e.implicitOutputs) > 0 {
		w.sb.WriteString(" | " + joinPaths(e.implicitOutputs))
	}
	w.sb.WriteString(": " + e.rule)
	if len(e.inputs) > 0 {
		w.sb.WriteString(" " + joinPaths(e.inputs))
	}
	if len(e.implicit) > 0 {
		w.sb.WriteString(" | " + joinPaths(e.implicit))
	}
	if len(e.orderOnly) > 0 {
		w.sb.WriteString(" || " + joinPaths(e.orderOnly))
	}
	w.sb.WriteString("\n")
	for _, v := range e.vars {
		w.line("  ", v.name, v.value)
	}
}

func (w *ninjaWriter) defaults(targets ...string) {
	w.sb.WriteString("default " + joinPaths(targets) + "\n")
}

func (w *ninjaWriter) bytes() []byte {
	return []byte(w.sb.String())
}

var (
	pathEscaper  = strings.NewReplacer("$", "$$", " ", "$ ", ":", "$:")
	valueEscaper = strings.NewReplacer("$", "$$")
)

// escapePath escapes a path for use in a build or default line.
func escapePath(p string) string {
	return pathEscaper.Replace(p)
}

// escapeValue escapes text for the right-hand side of a binding.
func escapeValue(v string) string {
	return valueEscaper.Replace(v)
}

func joinPaths(paths []string) string {
	escaped := make([]string, len(paths))
	for i, p := range paths {
		escaped[i] = escapePath(p)
	}
	return strings.Join(escaped, " ")
}
