// Command logcheck reports which behavioral triggers appear in persisted
// sandbox session logs.
//
// Usage:
//
//	logcheck sandbox/logs/session_20240102_030405.json [more.json ...]
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GriffinCanCode/PhishGuard/backend/internal/sandbox"
	"github.com/bytedance/sonic"
)

// Trigger is a console marker emitted by instrumented test pages
type Trigger struct {
	Name   string
	Marker string
}

// Triggers in display order
var Triggers = []Trigger{
	{"🪤 Auto-download", "🪤 Auto-download triggered"},
	{"👀 Mouse movement", "👀 Mouse moved"},
	{"💥 Click event", "💥 Click event triggered"},
	{"🧬 Eval", "🧬 base64 payload decoded"},
	{"📤 C2 Beacon Sent", "📤 C2 beacon sent"},
	{"❌ C2 Beacon Failed", "❌ C2 beacon failed"},
	{"🔁 Redirect Log", "🔁 Redirecting to"},
	{"🚪 Unload Detected", "🚪 Page is unloading for redirect"},
}

var errUsage = errors.New("usage: logcheck path/to/session_log.json [...]")

// Result is the outcome of one trigger check
type Result struct {
	Trigger Trigger
	Found   bool
}

// Check matches every trigger against the report's console lines
func Check(report sandbox.Report) []Result {
	results := make([]Result, 0, len(Triggers))
	for _, t := range Triggers {
		found := false
		for _, line := range report.ConsoleLogs {
			if strings.Contains(line, t.Marker) {
				found = true
				break
			}
		}
		results = append(results, Result{Trigger: t, Found: found})
	}
	return results
}

func load(path string) (sandbox.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sandbox.Report{}, err
	}
	var report sandbox.Report
	if err := sonic.ConfigDefault.Unmarshal(data, &report); err != nil {
		return sandbox.Report{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return report, nil
}

func printReport(w io.Writer, path string, report sandbox.Report) {
	fmt.Fprintf(w, "\n📄 Checking Sandbox Log: %s\n\n", path)
	for _, r := range Check(report) {
		status := "❌"
		if r.Found {
			status = "✅"
		}
		fmt.Fprintf(w, "%s %s\n", status, r.Trigger.Name)
	}

	screenshot := "None"
	if report.ScreenshotPath != nil {
		screenshot = *report.ScreenshotPath
	}
	fmt.Fprintf(w, "\n🎯 Heuristic Score: %d\n", report.HeuristicScore)
	fmt.Fprintf(w, "🛡️  Auto-Download Detected: %t\n", report.AutoDownloadDetected)
	fmt.Fprintf(w, "📸 Screenshot saved at: %s\n", screenshot)
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	for _, path := range args {
		report, err := load(path)
		if err != nil {
			return err
		}
		printReport(stdout, path, report)
	}
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
