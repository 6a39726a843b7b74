// Command folio serves a portfolio site and manages its posts and pending
// contact submissions.
package main

// version is set at build time via ldflags.
var version = "dev"

func main() {
	Execute()
}
