package magetasks

import (
	"errors"
	"fmt"

	"github.com/magefile/mage/sh"
)

const golangciDisabled = "--disable=exhaustruct,varnamelen,ireturn,wrapcheck,nlreturn,gochecknoglobals,mnd,depguard,tagalign"

// LintAll runs every linter. Missing optional linters are skipped.
func LintAll() error {
	PrintH2Header("Lint")
	var errs []error
	if err := LintVet(); err != nil {
		errs = append(errs, err)
	}
	for _, lint := range []func() error{LintStaticcheck, LintGolangci} {
		if err := lint(); err != nil && !IsCommandNotFound(err) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	PrintSuccess("All linters passed")
	return nil
}

// LintVet runs go vet.
func LintVet() error {
	return sh.RunV("go", "vet", "./...")
}

// LintStaticcheck runs staticcheck.
func LintStaticcheck() error {
	return optional("staticcheck", "honnef.co/go/tools/cmd/staticcheck@latest", "./...")
}

// LintGolangci runs golangci-lint.
func LintGolangci() error {
	return optional("golangci-lint", "github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
		"run", golangciDisabled, "--timeout=5m", "./...")
}

func optional(tool, install string, args ...string) error {
	if err := sh.RunV(tool, args...); err != nil {
		if IsCommandNotFound(err) {
			PrintWarning(fmt.Sprintf("%s not found (install: go install %s)", tool, install))
			return err
		}
		return fmt.Errorf("%s failed: %w", tool, err)
	}
	return nil
}
