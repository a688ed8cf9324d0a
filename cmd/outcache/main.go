// Command outcache is the output cache CLI.
package main

import "github.com/bolasblack/outcache/internal/cli"

func main() {
	cli.Execute()
}
