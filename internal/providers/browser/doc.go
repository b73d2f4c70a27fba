/*
Package browser implements the sandbox browser capability with go-rod.

Every scan gets its own Chromium process launched with hardening flags, and
every page lives in a fresh incognito context, so concurrent scans never share
cookies, storage or cache.

# Page setup

Before a page is handed to the session:

  - the go-rod/stealth evasions are injected
  - the user agent is overridden
  - downloads are denied for the context with download events enabled
  - every request is routed through the resource policy (blocked kinds
    fail with BlockedByClient)
  - console API calls are forwarded to the recorder

# Teardown

Page.Close stops the hijack router and the event listeners. Browser.Close
closes the DevTools connection, kills the process and removes the temporary
profile directory. Both are safe to call more than once.
*/
package browser
