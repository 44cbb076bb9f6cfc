package fields

import (
	"strings"

	"github.com/sfomuseum/go-webmap-layers/host"
)

// HiddenPrefix is prepended to the exported name of fields that are hidden in the editor but are
// still required for styling or labeling.
const HiddenPrefix = "q2wHide_"

// LabelField returns the name of the field used for labels if labeling is enabled for layer.
func LabelField(layer host.Layer) (string, bool) {

	enabled, ok := layer.CustomProperty(host.PropertyLabelsEnabled)

	if !ok || strings.ToLower(enabled) != "true" {
		return "", false
	}

	name, ok := layer.CustomProperty(host.PropertyLabelsFieldName)

	if !ok || name == "" {
		return "", false
	}

	return name, true
}

// StyleFields returns the names of the fields that drive the styling and labeling of layer.
func StyleFields(layer host.VectorLayer) []string {

	names := make([]string, 0)

	class_attr, ok := layer.Style().ClassificationField()

	if ok {
		names = append(names, class_attr)
	}

	label, ok := LabelField(layer)

	if ok {
		names = append(names, label)
	}

	return names
}

// IsHidden reports whether the field at index i is hidden in the layer's editor configuration.
func IsHidden(layer host.VectorLayer, i int) bool {
	return layer.EditorWidget(i) == host.WidgetHidden
}

// UsedFields returns, in layer order, the indices of the fields that need to be exported: every
// field that is not hidden plus any hidden field that drives styling or labeling.
func UsedFields(layer host.VectorLayer) []int {

	required := make(map[string]bool)

	for _, name := range StyleFields(layer) {
		required[name] = true
	}

	used := make([]int, 0)

	for i, f := range layer.Fields() {

		if !IsHidden(layer, i) || required[f.Name] {
			used = append(used, i)
		}
	}

	return used
}

// ExportName returns the name the field at index i is exported as.
func ExportName(layer host.VectorLayer, i int) string {

	name := layer.Fields()[i].Name

	if IsHidden(layer, i) {
		return HiddenPrefix + name
	}

	return name
}
