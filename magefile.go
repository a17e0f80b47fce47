//go:build mage

package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

var (
	Go = "go"
)

const (
	binary  = "bin/dcc-verifier"
	mainPkg = "./cmd/verifier"
)

// Build builds the verifier binary.
func Build() error {
	fmt.Println("Building...")
	return sh.Run(Go, "build", "-o", binary, mainPkg)
}

// Clean deletes any build artifacts.
func Clean() {
	fmt.Println("Cleaning...")
	_ = os.RemoveAll("bin")
}

// Run builds and runs the verifier with the config found at CONFIG_PATH, or the dev config.
func Run() error {
	mg.Deps(Build)
	return sh.RunV(binary)
}

// Test runs unit tests without coverage.
// The mage `-v` option will trigger a verbose output of the test
func Test() error {
	return runTests()
}

// CITest runs unit tests with coverage as a part of CI.
// The mage `-v` option will trigger a verbose output of the test
func CITest() error {
	return runTests("-covermode=atomic", "-coverprofile=coverage.out")
}

// Generate regenerates the mocks of the rule engine.
func Generate() error {
	if err := installIfNotPresent("mockgen", "go.uber.org/mock/mockgen@v0.2.0"); err != nil {
		return err
	}
	return sh.Run(Go, "generate", "./...")
}

// Spec generates an OpenAPI spec yaml based on code annotations.
func Spec() error {
	swagCommand := "swag"
	if err := installIfNotPresent(swagCommand, "github.com/swaggo/swag/cmd/swag@latest"); err != nil {
		logrus.Fatal(err)
		return err
	}
	return sh.Run(swagCommand, "init", "-g", "cmd/verifier/main.go", "--pd", "-o", "doc", "-ot", "yaml")
}

func runTests(extraTestArgs ...string) error {
	args := []string{"test"}
	if mg.Verbose() {
		args = append(args, "-v")
	}
	args = append(args, "-race")
	args = append(args, extraTestArgs...)
	args = append(args, "./...")
	testEnv := map[string]string{
		"CGO_ENABLED": "1",
		"GO111MODULE": "on",
	}
	writer := ColorizeTestStdout()
	fmt.Printf("%+v\n", args)
	_, err := sh.Exec(testEnv, writer, os.Stderr, Go, args...)
	return err
}

func ColorizeTestOutput(w io.Writer) io.Writer {
	writer := NewRegexpWriter(w, `PASS.*`, "\033[32m$0\033[0m")
	return NewRegexpWriter(writer, `FAIL.*`, "\033[31m$0\033[0m")
}

func ColorizeTestStdout() io.Writer {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return ColorizeTestOutput(os.Stdout)
	}
	return os.Stdout
}

type regexpWriter struct {
	inner io.Writer
	re    *regexp.Regexp
	repl  []byte
}

func NewRegexpWriter(inner io.Writer, re string, repl string) io.Writer {
	return &regexpWriter{inner, regexp.MustCompile(re), []byte(repl)}
}

func (w *regexpWriter) Write(p []byte) (int, error) {
	r := w.re.ReplaceAll(p, w.repl)
	n, err := w.inner.Write(r)
	if n > len(r) {
		n = len(r)
	}
	return n, err
}

// installIfNotPresent installs a go based tool (if not already installed)
func installIfNotPresent(execName, goPackage string) error {
	if findOnPathOrGoPath(execName) != "" {
		return nil
	}
	fmt.Printf("Attempting to go install %s\n", execName)
	cmd := exec.Command(Go, "install", goPackage)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func findOnPathOrGoPath(execName string) string {
	if p := findOnPath(execName); p != "" {
		return p
	}
	p := filepath.Join(goPath(), "bin", execName)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	fmt.Printf("Could not find %s on PATH or in GOPATH/bin\n", execName)
	return ""
}

func findOnPath(execName string) string {
	pathEnv := os.Getenv("PATH")
	for _, pathDirectory := range strings.Split(pathEnv, string(os.PathListSeparator)) {
		possible := filepath.Join(pathDirectory, execName)
		stat, err := os.Stat(possible)
		if err == nil && stat.Mode()&0111 != 0 {
			return possible
		}
	}
	return ""
}

func goPath() string {
	if goPath, ok := os.LookupEnv("GOPATH"); ok {
		return goPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		logrus.Fatal(err)
		return ""
	}
	return filepath.Join(home, Go)
}

// CBT runs clean; build; test.
func CBT() error {
	Clean()
	if err := Build(); err != nil {
		return err
	}
	return Test()
}
