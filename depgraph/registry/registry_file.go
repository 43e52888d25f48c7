package registry

import (
	"fmt"
	"os"

	"github.com/LegacyCodeHQ/modgen/internal/failure"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// registryFile is the HCL shape of a loadable registry:
//
//	module "uzleo.json" {
//	  bmi  = "/opt/pkgs/bmi/uzleo/json.pcm"
//	  lib  = "json"
//	  deps = ["fmt", "std"]
//	}
type registryFile struct {
	Modules []moduleBlock `hcl:"module,block"`
}

type moduleBlock struct {
	ID   string   `hcl:"id,label"`
	BMI  string   `hcl:"bmi"`
	Lib  string   `hcl:"lib,optional"`
	Deps []string `hcl:"deps,optional"`
}

// LoadFile reads and decodes an HCL registry file.
func LoadFile(path string) (*Registry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, failure.IO(path, err)
	}
	return Parse(src, path)
}

// Parse decodes HCL registry source. filename is used in diagnostics only.
func Parse(src []byte, filename string) (*Registry, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse registry file %s: %s", filename, diags.Error())
	}

	var decoded registryFile
	diags = gohcl.DecodeBody(file.Body, nil, &decoded)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode registry file %s: %s", filename, diags.Error())
	}

	modules := make(map[string]ModuleInfo, len(decoded.Modules))
	for _, block := range decoded.Modules {
		if _, dup := modules[block.ID]; dup {
			return nil, fmt.Errorf("registry file %s declares module %q more than once", filename, block.ID)
		}
		modules[block.ID] = ModuleInfo{
			InterfaceArtifactPath: block.BMI,
			LinkLibraryName:       block.Lib,
			DirectDependencies:    block.Deps,
		}
	}

	return New(modules), nil
}
