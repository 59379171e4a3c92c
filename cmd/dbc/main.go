// Command dbc runs queries against any database reachable through a dbc
// provider.
//
//	dbc query --uri sqlite:app.db "SELECT id, name FROM users WHERE id = ?" --param 7
//	dbc exec --uri sqlite:app.db --tx "DELETE FROM sessions"
//	dbc providers
//
// Flags may also be set through DBC_* environment variables or a .dbc.yaml
// file in the working or user config directory.
package main

import (
	"fmt"
	"os"
)

func main() {
	c := New(Config{Out: os.Stdout, Err: os.Stderr, Providers: defaultProviders()})
	if err := c.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
