package version

// Version represents the current version of efinder
const Version = "0.4.0"

// BuildVersion returns the version string for display
func BuildVersion() string {
	return "efinder version " + Version
}

// UserAgent is sent on every request to the search backend.
func UserAgent() string {
	return "efinder/" + Version
}
