package main

import "github.com/shakram02/sql-schema-mcp/cmd"

func main() {
	cmd.Execute()
}
