// Command busharness runs a design under test on the tagged memory bus.
package main

import "github.com/sarchlab/busharness/busharness/cmd"

func main() {
	cmd.Execute()
}
