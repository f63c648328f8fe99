// Command weekum tracks weekly spending budgets from the terminal and can
// serve the same ledger over HTTP.
package main

func main() {
	Execute()
}
