//go:build !cgo

package main

var cgoProviders []ProviderFactory
