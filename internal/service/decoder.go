package service

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"

	"github.com/GriffinCanCode/dockerhttp/internal/codec"
)

// Decoder turns response bytes into the success type S or the error
// payload type E.
type Decoder[S, E any] interface {
	DecodeSuccess(b Body) (S, error)
	DecodeFailure(b Body) (E, error)
}

// CodecDecoder decodes both payloads with Codec.
type CodecDecoder[S, E any] struct {
	Codec codec.Codec
}

func (d CodecDecoder[S, E]) DecodeSuccess(b Body) (S, error) {
	var v S
	err := d.decode(b, &v)
	return v, err
}

func (d CodecDecoder[S, E]) DecodeFailure(b Body) (E, error) {
	var v E
	err := d.decode(b, &v)
	return v, err
}

func (d CodecDecoder[S, E]) decode(b Body, v any) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("empty body")
	}
	return d.Codec.Unmarshal(data, v)
}

// JSONDecoder decodes JSON payloads.
func JSONDecoder[S, E any]() CodecDecoder[S, E] {
	return CodecDecoder[S, E]{Codec: codec.JSON}
}

// PListDecoder decodes property list payloads.
func PListDecoder[S, E any]() CodecDecoder[S, E] {
	return CodecDecoder[S, E]{Codec: codec.PList}
}

// YAMLDecoder decodes YAML payloads.
func YAMLDecoder[S, E any]() CodecDecoder[S, E] {
	return CodecDecoder[S, E]{Codec: codec.YAML}
}

// TOMLDecoder decodes TOML payloads.
func TOMLDecoder[S, E any]() CodecDecoder[S, E] {
	return CodecDecoder[S, E]{Codec: codec.TOML}
}

// RawDecoder hands back the response bytes unchanged.
type RawDecoder struct{}

func (RawDecoder) DecodeSuccess(b Body) ([]byte, error) { return b.Bytes() }
func (RawDecoder) DecodeFailure(b Body) ([]byte, error) { return b.Bytes() }

// DownloadedFile describes a file written by a download request.
type DownloadedFile struct {
	Path string
	MIME string
	Size int64
}

// FileDecoder reports where a download landed and what it contains. Error
// payloads are returned as raw bytes.
type FileDecoder struct{}

func (FileDecoder) DecodeSuccess(b Body) (DownloadedFile, error) {
	if b.Location == "" {
		return DownloadedFile{}, errors.New("response has no downloaded file")
	}
	info, err := os.Stat(b.Location)
	if err != nil {
		return DownloadedFile{}, err
	}
	mtype, err := mimetype.DetectFile(b.Location)
	if err != nil {
		return DownloadedFile{}, fmt.Errorf("mime detection failed: %w", err)
	}
	return DownloadedFile{Path: b.Location, MIME: mtype.String(), Size: info.Size()}, nil
}

func (FileDecoder) DecodeFailure(b Body) ([]byte, error) { return b.Bytes() }

// StringDecoder reads a text payload, in memory or downloaded. Content that
// is not valid UTF-8 is rejected with the detected charset in the error.
type StringDecoder struct{}

func (StringDecoder) DecodeSuccess(b Body) (string, error) {
	data, err := b.Bytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("content is not UTF-8 (detected %s)", detectCharset(data))
	}
	return string(data), nil
}

func (StringDecoder) DecodeFailure(b Body) ([]byte, error) { return b.Bytes() }

func detectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "unknown"
	}
	return strings.ToLower(result.Charset)
}
