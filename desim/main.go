// Command desim runs the bundled simulation models.
package main

import "github.com/sarchlab/desim/desim/cmd"

func main() {
	cmd.Execute()
}
