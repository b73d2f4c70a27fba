/*
Package sandbox implements the behavioral analysis engine.

A scan loads an untrusted URL in an isolated headless browser, watches what
the page does, pokes it like a human would, and reduces the observations to a
0-10 heuristic score plus evidence on disk.

# Components

  - Policy: aborts image, font and media requests
  - Recorder: console and download hooks, alert tasks
  - Interaction: scripted pointer sequence and settle delay
  - Scorer: pure scoring over content, events and URL structure
  - Session: browser lifecycle state machine with guaranteed teardown
  - Writer: session logs and screenshots
  - Service: admission control, scan timeout, persistence

The browser is reached only through the Engine, Browser, Page and Mouse
interfaces, so tests run against fakes and the rod implementation lives in
internal/providers/browser.

# Lifecycle

	INIT -> LAUNCHED -> NAVIGATING -> NAVIGATION_FAILED -> TEARDOWN -> DONE
	                              \-> LOADED -> INTERACTING -> SCORING
	                                  -> CAPTURING_SCREENSHOT -> TEARDOWN -> DONE

Teardown closes the page and the browser once, then waits a bounded time for
alert tasks scheduled by forced downloads.

# Usage

	svc := sandbox.NewService(cfg, browser.NewEngine(logger.Logger), dispatcher, logger,
		sandbox.WithObserver(metrics))
	report := svc.Analyze(ctx, "http://example.com")
*/
package sandbox
