// ABOUTME: Version information for filterplay
// ABOUTME: Product strings reported by the CLI, the TUI and mDNS
package version

const (
	// Version is the current release
	Version = "0.3.0"

	// Product is the name shown in the TUI and advertised over mDNS
	Product = "filterplay"

	// Manufacturer identifies the publisher
	Manufacturer = "Sendspin"
)

// String returns "product version"
func String() string {
	return Product + " " + Version
}
