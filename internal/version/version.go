// ABOUTME: Version and product constants
// ABOUTME: Shown by -version and advertised in server/hello
package version

import "fmt"

const (
	// Version is the release version
	Version = "0.3.0"

	// Product is the product name
	Product = "Binary Waterfall"

	// Manufacturer identifies the maintainers
	Manufacturer = "binary-waterfall"
)

// String returns "Product Version"
func String() string {
	return fmt.Sprintf("%s %s", Product, Version)
}
