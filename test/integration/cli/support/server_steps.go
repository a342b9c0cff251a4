package support

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/lapwatch/internal/server"
	"github.com/cucumber/godog"
)

func (testCtx *TestContext) theAPIServerIsRunning() error {
	return testCtx.startTestHTTPServer(server.Config{})
}

func (testCtx *TestContext) theAPIServerIsRunningWithRateLimit(perMinute int) error {
	return testCtx.startTestHTTPServer(server.Config{RateLimitEnabled: true, RequestsPerMinute: perMinute})
}

func (testCtx *TestContext) iSendRequest(method, path string) error {
	return testCtx.sendRequest(method, path, "")
}

func (testCtx *TestContext) iSendRequestWithBody(method, path string, body *godog.DocString) error {
	return testCtx.sendRequest(method, path, body.Content)
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastHTTPStatusCode != status {
		return fmt.Errorf("expected status %d, got %d\nBody: %s", status, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain %q\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, value string) error {
	if got := testCtx.LastHTTPHeaders[name]; got != value {
		return fmt.Errorf("expected header %s=%q, got %q", name, value, got)
	}
	return nil
}

// theJSONFieldShouldBe compares a dotted path such as "stopwatch.laps.0.ms"
// in the last response with the expected value rendered as a string.
func (testCtx *TestContext) theJSONFieldShouldBe(path, expected string) error {
	var data interface{}
	if err := json.Unmarshal([]byte(testCtx.LastHTTPResponse), &data); err != nil {
		return fmt.Errorf("response is not valid JSON: %w\nBody: %s", err, testCtx.LastHTTPResponse)
	}

	current := data
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			v, ok := node[part]
			if !ok {
				return fmt.Errorf("field %q not found in %s", part, testCtx.LastHTTPResponse)
			}
			current = v
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return fmt.Errorf("invalid index %q for array of length %d", part, len(node))
			}
			current = node[idx]
		default:
			return fmt.Errorf("cannot descend into %T at %q", current, part)
		}
	}

	if got := fmt.Sprint(current); got != expected {
		return fmt.Errorf("expected %s=%q, got %q", path, expected, got)
	}
	return nil
}

// RegisterServerSteps registers HTTP API step definitions.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the API server is running$`, testCtx.theAPIServerIsRunning)
	sc.Step(`^the API server is running with a limit of (\d+) requests per minute$`, testCtx.theAPIServerIsRunningWithRateLimit)
	sc.Step(`^I send "(GET|POST|PUT|DELETE)" to "([^"]*)"$`, testCtx.iSendRequest)
	sc.Step(`^I send "(GET|POST|PUT|DELETE)" to "([^"]*)" with body:$`, testCtx.iSendRequestWithBody)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
}
