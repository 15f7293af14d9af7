// ABOUTME: Product and version constants
// ABOUTME: Reported by -version and in the startup log line
package version

import "fmt"

const (
	// Version is the release version
	Version = "0.1.0"

	// Product is the application name
	Product = "Waveview"

	// Manufacturer identifies the publisher
	Manufacturer = "Resonate"
)

// String returns the banner printed by -version
func String() string {
	return fmt.Sprintf("%s %s (%s)", Product, Version, Manufacturer)
}
