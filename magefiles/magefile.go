//go:build mage

// Package main provides build targets for itemsvc using Mage.
//
// Usage:
//
//	mage build        Compile itemsvc to bin/
//	mage test         Run all tests
//	mage testShort    Run tests that need no Docker
//	mage lint         Run go vet and golangci-lint
//	mage migrate      Apply pending migrations with the built binary
//	mage clean        Remove build artifacts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "itemsvc"
	binaryDir  = "bin"
	cmdDir     = "./cmd/api"
)

// Default target when mage runs without arguments.
var Default = Build

// Build compiles the itemsvc binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	ldflags := "-X item-catalog/internal/cli.Version=" + version
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests, including the Postgres container tests.
func Test() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// TestShort runs tests without starting containers.
func TestShort() error {
	return sh.RunV(binGo, "test", "-short", "./...")
}

// Lint runs go vet and golangci-lint.
func Lint() error {
	if err := sh.RunV(binGo, "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Migrate applies pending migrations using the current environment.
func Migrate() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binaryDir, binaryName), "migrate", "up")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}
