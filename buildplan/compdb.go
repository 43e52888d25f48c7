package buildplan

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/modgen/depgraph/languages/cpp"
)

// CompileCommandsFileName is the name of the compilation database inside the build directory.
const CompileCommandsFileName = "compile_commands.json"

// CompileCommand is one entry of a clang compilation database.
type CompileCommand struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Output    string   `json:"output"`
	Arguments []string `json:"arguments"`
}

// CompileCommands returns the compilation database for p, in build order.
// directory is the absolute project root the plan's paths are relative to.
func CompileCommands(p Plan, directory string) ([]CompileCommand, error) {
	flags, err := computeFlags(p)
	if err != nil {
		return nil, err
	}

	base := []string{p.Toolchain.Compiler}
	base = append(base, strings.Fields(p.Toolchain.Flags)...)
	if flags.pic {
		base = append(base, strings.Fields(p.Toolchain.PICFlags)...)
	}
	if flags.sanitize {
		base = append(base, strings.Fields(p.Toolchain.SanitizeFlags)...)
	}
	base = append(base, flags.moduleFlags...)

	commands := make([]CompileCommand, 0, len(p.Graph.BuildOrder))
	for _, sourcePath := range p.Graph.BuildOrder {
		unit, ok := p.Graph.Unit(sourcePath)
		if !ok {
			return nil, fmt.Errorf("build order names unknown source %s", sourcePath)
		}
		object := flags.objectPath(unit)

		args := append([]string(nil), base...)
		if unit.Kind == cpp.UnitInterface {
			args = append(args, strings.Fields(moduleOutputFlags)...)
		}
		args = append(args, "-c", unit.Path, "-o", object)

		commands = append(commands, CompileCommand{
			Directory: directory,
			File:      unit.Path,
			Output:    object,
			Arguments: args,
		})
	}
	return commands, nil
}

// EmitCompileCommands renders the compilation database for p as JSON.
func EmitCompileCommands(p Plan, directory string) ([]byte, error) {
	commands, err := CompileCommands(p, directory)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode compilation database: %w", err)
	}
	return append(data, '\n'), nil
}
