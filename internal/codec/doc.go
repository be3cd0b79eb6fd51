// Package codec provides the body serializers used for request payloads and
// response decoding: JSON (sonic), XML property lists, YAML and TOML.
//
// Dates travel as Timestamp values, which every codec writes as seconds since
// the Unix epoch. Byte slices are base64 encoded in JSON and written as <data>
// in property lists.
//
//	body, err := codec.JSON.Marshal(resource)
//	err = codec.JSON.Unmarshal(body, &resource)
package codec
