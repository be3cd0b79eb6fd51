package example

import (
	"net/http"
	"path/filepath"

	"github.com/GriffinCanCode/dockerhttp/internal/service"
)

// DefaultBaseURL is where cmd/mockserver listens by default.
const DefaultBaseURL = "http://127.0.0.1:8080"

// ResourcesService is the resource collection.
func ResourcesService(baseURL string) *service.Service {
	return service.NewService(baseURL, "/resources")
}

// ResourceService is a single resource.
func ResourceService(baseURL string) *service.Service {
	return service.NewService(baseURL, "/resources/:id")
}

// UploadService attaches a file to a resource.
func UploadService(baseURL string) *service.Service {
	return service.NewService(baseURL, "/resources/:id/file")
}

// DownloadService is a plain file.
func DownloadService(baseURL string) *service.Service {
	return service.NewService(baseURL, "/files/dog.txt")
}

func jsonRequest(svc *service.Service) *service.Request {
	r := service.NewJSONRequest()
	r.Service = svc
	r.UseDifferentResponseForErrors = true
	r.DemoFailureFileName = FixtureResourceNotFound
	r.DemoFailureStatusCode = http.StatusNotFound
	return r
}

// GetResourcesRequest lists every resource.
func GetResourcesRequest(baseURL string) *service.Request {
	r := jsonRequest(ResourcesService(baseURL))
	r.DemoSuccessFileName = FixtureResources
	return r
}

// PostResourceRequest creates resource.
func PostResourceRequest(baseURL string, resource Resource) *service.Request {
	r := jsonRequest(ResourcesService(baseURL))
	r.Method = service.MethodPost
	r.Body = resource
	r.DemoSuccessFileName = FixtureResource
	r.DemoSuccessStatusCode = http.StatusCreated
	return r
}

// GetResourceByIDRequest fetches one resource.
func GetResourceByIDRequest(baseURL string, id int) *service.Request {
	r := jsonRequest(ResourceService(baseURL))
	r.PathParameters["id"] = id
	r.DemoSuccessFileName = FixtureResource
	return r
}

// UploadRequest attaches image to the resource id as a multipart form.
func UploadRequest(baseURL string, id int, image []byte) *service.Request {
	r := jsonRequest(UploadService(baseURL))
	r.Method = service.MethodPost
	r.Type = service.UploadMultipartType()
	r.PathParameters["id"] = id
	delete(r.Headers, "Content-Type")
	r.MultipartBodyParts = []service.MultipartBodyPart{{
		Data:     image,
		Name:     "image",
		FileName: FixtureImage,
		MimeType: "image/png",
	}}
	r.DemoSuccessFileName = FixtureUpload
	return r
}

// DownloadRequest saves the sample file as dog.txt in dir, replacing any
// previous copy.
func DownloadRequest(baseURL, dir string) *service.Request {
	r := service.NewRequest()
	r.Service = DownloadService(baseURL)
	r.Headers["Accept"] = "text/plain"
	r.Type = service.DownloadType(func(*http.Response) (string, service.DownloadOptions) {
		return filepath.Join(dir, "dog.txt"), service.DownloadOptions{
			RemovePreviousFile:            true,
			CreateIntermediateDirectories: true,
		}
	})
	r.DemoSuccessFileName = FixtureDownload
	return r
}
