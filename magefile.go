//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target when running mage without arguments.
var Default = Build

const (
	serverPkg     = "./cmd/server"
	adminTokenPkg = "./cmd/admintoken"
	injectorDir   = "./internal/app"
	coverProfile  = "coverage.out"
)

// Build builds the server and admintoken binaries into bin/.
func Build() error {
	mg.Deps(Generate)
	fmt.Println("Building vestire...")
	if err := sh.Run("go", "build", "-o", "bin/server", serverPkg); err != nil {
		return err
	}
	return sh.Run("go", "build", "-o", "bin/admintoken", adminTokenPkg)
}

// Generate regenerates the wire injector and the swagger docs.
func Generate() error {
	mg.Deps(Wire, Swagger)
	return nil
}

// Swagger regenerates the API docs served on /swagger.
func Swagger() error {
	fmt.Println("Running swag...")
	return sh.Run("swag", "init",
		"-g", "docs.go",
		"-d", "cmd/server,internal/module/order,internal/module/payment",
		"-o", "cmd/server/docs",
		"--parseDependency",
	)
}

// Wire regenerates internal/app/wire_gen.go.
func Wire() error {
	fmt.Println("Running wire...")
	return sh.Run("wire", injectorDir)
}

// Test runs every test, including the postgres container tests.
func Test() error {
	fmt.Println("Running tests...")
	return sh.RunV("go", "test", "-race", "-cover", "-coverprofile="+coverProfile, "./...")
}

// TestShort runs unit tests only, skipping container-backed tests.
func TestShort() error {
	fmt.Println("Running short tests...")
	return sh.RunV("go", "test", "-short", "./...")
}

// TestPostgres runs the order repository tests against a postgres container.
func TestPostgres() error {
	fmt.Println("Running postgres repository tests...")
	return sh.RunV("go", "test", "-run", "Postgres", "./internal/module/order/...")
}

// Lint runs golangci-lint.
func Lint() error {
	fmt.Println("Running linter...")
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build and coverage output.
func Clean() error {
	fmt.Println("Cleaning...")
	if err := os.RemoveAll("bin"); err != nil {
		return err
	}
	if err := os.Remove(coverProfile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Run starts the server from source. A .env file is picked up if present.
func Run() error {
	return sh.RunV("go", "run", serverPkg)
}

// AdminToken prints an admin bearer token for the configured JWT secret.
func AdminToken() error {
	return sh.RunV("go", "run", adminTokenPkg)
}

// CI regenerates code, lints and runs the short suite.
func CI() error {
	mg.SerialDeps(Generate, Lint, TestShort)
	return nil
}
