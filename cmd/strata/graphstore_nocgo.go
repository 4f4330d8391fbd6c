//go:build !cgo

package main

import (
	"errors"

	"github.com/dusk-indust/strata/internal/scan"
)

var errNoKuzu = errors.New("kuzu graph store requires a cgo build")

func persistKuzu(string, *scan.Result) error {
	return errNoKuzu
}
