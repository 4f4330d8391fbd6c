//go:build !cgo

package main

func runDiagram([]string) error {
	return errNoKuzu
}
