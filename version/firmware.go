package version

// will be replaced with the release version when using goreleaser
var version = "development"

const developmentBase = "0.0.0"

// FirmwareVersion returns the version string of the running firmware
func FirmwareVersion() string {
	return version
}

// Running parses FirmwareVersion. Development builds report 0.0.0 so that any
// published release is considered newer.
func Running() (Version, error) {
	if version == "development" {
		return MustParse(developmentBase), nil
	}
	return Parse(version)
}
