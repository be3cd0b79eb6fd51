package example

import (
	"embed"
	"io/fs"

	"github.com/GriffinCanCode/dockerhttp/internal/fixtures"
)

//go:embed fixtures
var embedded embed.FS

// Fixture names used by the requests of this package.
const (
	FixtureResources        = "getResources2.json"
	FixtureResource         = "addResource.json"
	FixtureResourceNotFound = "resourceNotFound.json"
	FixtureUpload           = "uploadResource.json"
	FixtureDownload         = "dog.txt"
	FixtureImage            = "dog.png"
)

// FixtureFS returns the embedded fixture files, rooted at the fixtures
// directory.
func FixtureFS() fs.FS {
	sub, err := fs.Sub(embedded, "fixtures")
	if err != nil {
		panic(err) // the directory is embedded at compile time
	}
	return sub
}

// Fixtures returns a fixture store over the embedded files.
func Fixtures() *fixtures.FSStore {
	return fixtures.NewFSStore(FixtureFS())
}

// Image returns the sample image uploaded by UploadRequest.
func Image() []byte {
	data, err := fs.ReadFile(FixtureFS(), FixtureImage)
	if err != nil {
		panic(err)
	}
	return data
}
