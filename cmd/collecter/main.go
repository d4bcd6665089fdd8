// Package main provides the entry point for the collecter CLI.
//
// Collecter downloads product images from a public image-search engine
// based on the rows of a CSV product catalog, validating and normalizing
// each saved file's image format.
//
// Usage:
//
//	collecter collect --csv products.csv --images-dir images
//	collecter history
//
// See --help for all available options.
package main

// main is the entry point for collecter.
func main() {
	Execute()
}
