package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variables that override the toolchain.
const (
	EnvCompiler  = "CXX"
	EnvFlags     = "CXXFLAGS"
	EnvArchiver  = "AR"
	EnvLinkFlags = "LDFLAGS"
	EnvSanitize  = "MODGEN_SANITIZE"
)

// Toolchain holds the compiler, archiver and flag settings written into the build plan.
type Toolchain struct {
	Compiler      string
	Flags         string
	Archiver      string
	LinkFlags     string
	PICFlags      string
	SanitizeFlags string
}

// DefaultToolchain is clang with libc++ in C++26 mode.
func DefaultToolchain() Toolchain {
	return Toolchain{
		Compiler:      "clang++",
		Flags:         "-std=c++26 -stdlib=libc++ -O3",
		Archiver:      "ar",
		LinkFlags:     "-stdlib=libc++",
		PICFlags:      "-fPIC",
		SanitizeFlags: "-fsanitize=address,undefined",
	}
}

// ToolchainFromEnv overlays the defaults with the variables lookup finds.
func ToolchainFromEnv(lookup func(string) (string, bool)) Toolchain {
	tc := DefaultToolchain()
	for key, field := range map[string]*string{
		EnvCompiler:  &tc.Compiler,
		EnvFlags:     &tc.Flags,
		EnvArchiver:  &tc.Archiver,
		EnvLinkFlags: &tc.LinkFlags,
		EnvSanitize:  &tc.SanitizeFlags,
	} {
		if value, ok := lookup(key); ok {
			*field = value
		}
	}
	return tc
}

// LoadToolchain reads the toolchain for a project. Variables in the process
// environment win over those in the project's .env file, which win over defaults.
func LoadToolchain(projectDir string) (Toolchain, error) {
	dotenv, err := godotenv.Read(filepath.Join(projectDir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Toolchain{}, fmt.Errorf("failed to read %s: %w", filepath.Join(projectDir, ".env"), err)
	}

	return ToolchainFromEnv(func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	}), nil
}
