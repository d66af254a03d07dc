// ABOUTME: Version information for the audio daemon
// ABOUTME: Reported in logs, the bridge hello and -version output
package version

const (
	// Version is the release version
	Version = "0.1.0"
	// Product is the product name
	Product = "Casino Audio"
	// Manufacturer identifies the publisher
	Manufacturer = "Resonate Protocol"
)

// String returns "Product Version"
func String() string {
	return Product + " " + Version
}
