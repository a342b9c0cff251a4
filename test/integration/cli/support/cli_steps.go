package support

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/MeKo-Tech/lapwatch/cmd/lapwatch/cmd"
	"github.com/cucumber/godog"
)

// substituteCommandVariables expands {tmp} to the scenario's temp directory.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	return strings.ReplaceAll(command, "{tmp}", testCtx.TempDir)
}

// iRunCommand runs a lapwatch command line in-process.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteCommandVariables(command)
	testCtx.LastCommand = command

	parts := strings.Fields(command)
	if len(parts) == 0 || parts[0] != "lapwatch" {
		return fmt.Errorf("expected a lapwatch command, got %q", command)
	}

	root := cmd.NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(parts[1:])

	start := time.Now()
	testCtx.LastError = root.Execute()
	testCtx.LastDuration = time.Since(start)
	testCtx.LastOutput = buf.String()
	return nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("command failed: %w\nOutput: %s", testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastError == nil {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	if testCtx.LastError == nil || !strings.Contains(testCtx.LastError.Error(), errorText) {
		return fmt.Errorf("expected error mentioning %q, got %v", errorText, testCtx.LastError)
	}
	return nil
}

// RegisterCLISteps registers command execution step definitions.
func (testCtx *TestContext) RegisterCLISteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
}
