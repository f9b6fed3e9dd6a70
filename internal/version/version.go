package version

import "fmt"

type Version struct {
	MajorNumber int64
	MinorNumber int64
	PatchNumber int64
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.MajorNumber, v.MinorNumber, v.PatchNumber)
}

// Commit is set at build time with -ldflags "-X .../version.Commit=...".
var Commit = ""

var AppVersion = Version{
	MajorNumber: 0,
	MinorNumber: 3,
	PatchNumber: 0,
}

// Full returns the version with the build commit, when known.
func Full() string {
	if Commit == "" {
		return AppVersion.String()
	}
	return AppVersion.String() + " (" + Commit + ")"
}
