package example

import "fmt"

// Resource is the main entity of the resources API.
type Resource struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Boolean       bool           `json:"boolean"`
	Double        float64        `json:"double"`
	NestedObjects []NestedObject `json:"nestedObjects,omitempty"`
}

// NestedObject is a child of a Resource.
type NestedObject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ErrorResult is the error payload of the resources API.
type ErrorResult struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e ErrorResult) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// UploadResult acknowledges a file attached to a resource.
type UploadResult struct {
	ID   string `json:"id"`
	File string `json:"file"`
	Size int64  `json:"size"`
}
