package buildplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNinjaWriter_Build(t *testing.T) {
	w := &ninjaWriter{}

	w.build(edge{
		outputs:         []string{"out/a.o"},
		implicitOutputs: []string{"out/a.pcm"},
		rule:            "cxx_module",
		inputs:          []string{"a.cppm"},
		implicit:        []string{"a.h"},
		orderOnly:       []string{"out/b.o", "out/c.o"},
		vars:            []binding{{"module_output", "-fmodule-output"}},
	})

	assert.Equal(t,
		"build out/a.o | out/a.pcm: cxx_module a.cppm | a.h || out/b.o out/c.o\n"+
			"  module_output = -fmodule-output\n",
		string(w.bytes()))
}

func TestNinjaWriter_RuleOmitsEmptyFields(t *testing.T) {
	w := &ninjaWriter{}

	w.rule(rule{name: "touch", command: "touch $out"})

	assert.Equal(t, "rule touch\n  command = touch $out\n\n", string(w.bytes()))
}

func TestNinjaWriter_VariableAndComment(t *testing.T) {
	w := &ninjaWriter{}

	w.comment("first\n\nthird")
	w.variable("empty", "")
	w.variable("flags", "-O2")

	assert.Equal(t, "# first\n#\n# third\nempty =\nflags = -O2\n", string(w.bytes()))
}

func TestEscaping(t *testing.T) {
	assert.Equal(t, "c$:/my$ dir/$$x.o", escapePath("c:/my dir/$x.o"))
	assert.Equal(t, "-DNAME=$$HOME a:b", escapeValue("-DNAME=$HOME a:b"))
}
