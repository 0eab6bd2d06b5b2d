package parser

import (
	"errors"
	"fmt"

	"github.com/githubnext/yamlctx/pkg/yamlerr"
	goccy "github.com/goccy/go-yaml"
	"gopkg.in/yaml.v3"
)

// Decoder names the YAML library used to decode documents
type Decoder string

const (
	// DecoderGoccy decodes with github.com/goccy/go-yaml
	DecoderGoccy Decoder = "goccy"
	// DecoderYAMLv3 decodes with gopkg.in/yaml.v3
	DecoderYAMLv3 Decoder = "yaml.v3"
)

// ParseDecoder validates a decoder name
func ParseDecoder(name string) (Decoder, error) {
	switch Decoder(name) {
	case "":
		return DecoderGoccy, nil
	case DecoderGoccy, DecoderYAMLv3:
		return Decoder(name), nil
	}
	return "", fmt.Errorf("invalid decoder value '%s'. Must be 'goccy' or 'yaml.v3'", name)
}

// MarkerFormat returns the format of the location markers in this decoder's errors
func (d Decoder) MarkerFormat() yamlerr.MarkerFormat {
	if d == DecoderYAMLv3 {
		return yamlerr.GoYAMLv3Format{}
	}
	return yamlerr.GoccyFormat{}
}

// DecodeDocument decodes YAML text into a generic value.
// A decode failure is not returned as an error: it is analyzed into one record
// per reported problem. The error return is reserved for unusable arguments.
func DecodeDocument(text string, decoder Decoder) (any, []yamlerr.ErrorAndContext, error) {
	var doc any
	var err error

	switch decoder {
	case DecoderGoccy:
		err = goccy.Unmarshal([]byte(text), &doc)
	case DecoderYAMLv3:
		err = yaml.Unmarshal([]byte(text), &doc)
	default:
		return nil, nil, fmt.Errorf("unsupported decoder '%s'", decoder)
	}

	if err != nil {
		return nil, AnalyzeDecodeError(text, err, decoder), nil
	}
	return doc, nil, nil
}

// AnalyzeDecodeError turns a decoder error into located records.
// yaml.v3 collects type errors into a single *yaml.TypeError; each entry is
// an independent problem with its own line, so each gets its own record.
func AnalyzeDecodeError(text string, err error, decoder Decoder) []yamlerr.ErrorAndContext {
	format := decoder.MarkerFormat()

	var typeErr *yaml.TypeError
	if decoder == DecoderYAMLv3 && errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		records := make([]yamlerr.ErrorAndContext, 0, len(typeErr.Errors))
		for _, entry := range typeErr.Errors {
			records = append(records, yamlerr.AnalyzeWith(format, text, entry))
		}
		return records
	}

	message := err.Error()
	if decoder == DecoderGoccy {
		// without the source excerpt, which the renderer draws from the span
		message = goccy.FormatError(err, false, false)
	}
	return []yamlerr.ErrorAndContext{yamlerr.AnalyzeWith(format, text, message)}
}
