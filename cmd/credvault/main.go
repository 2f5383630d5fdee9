/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package main

import (
	"fmt"
	"os"

	"github.com/inventario/credvault/app"
)

func main() {
	code, err := app.New(os.Stdout, os.Args).Run()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "credvault: %v\n", err)
	}
	os.Exit(code)
}
