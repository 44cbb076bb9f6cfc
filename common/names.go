package common

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/pretty"
)

var re_unsafe = regexp.MustCompile(`[^A-Za-z0-9_]`)
var re_separators = regexp.MustCompile(`[\\/:]`)

// SafeName reduces name to the characters [A-Za-z0-9_] so it can be used in filenames and
// generated identifiers. Note that the result may be empty.
func SafeName(name string) string {
	return re_unsafe.ReplaceAllString(name, "")
}

// ArtifactName returns the deterministic name of the artifacts for the layer at position index.
func ArtifactName(layer_name string, index int) string {
	return fmt.Sprintf("%s_%d", SafeName(layer_name), index)
}

// Minify removes all whitespace outside of quoted string literals from a JSON document.
func Minify(body []byte) []byte {
	return pretty.Ugly(body)
}

// ImageFileName flattens an attachment path into a single filename by replacing path separators
// (and drive letter colons) with underscores.
func ImageFileName(path string) string {
	return strings.TrimSpace(re_separators.ReplaceAllString(path, "_"))
}
