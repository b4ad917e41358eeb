// Command prism is the operator CLI: ask a question through the pipeline from
// a terminal, inspect the perspective sets, or run the gateway.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
