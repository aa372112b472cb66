// Command aisdlc scaffolds and advances AI-assisted development lifecycles.
package main

import "aisdlc/internal/cli"

func main() {
	cli.Execute()
}
