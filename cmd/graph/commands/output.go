package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/graph-client/internal/constants"
)

// writeOutput prints data in the requested format.
func writeOutput(w io.Writer, format string, data interface{}) error {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("encoding output to JSON: %w", err)
		}

		return nil
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		err := encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("encoding output to YAML: %w", err)
		}

		return nil
	case constants.FormatTable, "":
		return renderTable(w, data)
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownOutput, format)
	}
}

func renderTable(w io.Writer, data interface{}) error {
	switch value := data.(type) {
	case nil:
		return nil
	case []byte:
		_, err := w.Write(value)

		return err
	case string:
		_, err := fmt.Fprintln(w, value)

		return err
	case []interface{}:
		return renderCollection(w, value)
	case map[string]interface{}:
		if items, ok := value[constants.ValueField].([]interface{}); ok {
			return renderCollection(w, items)
		}

		return renderProperties(w, value)
	default:
		_, err := fmt.Fprintln(w, cellValue(value))

		return err
	}
}

func renderProperties(w io.Writer, properties map[string]interface{}) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	for _, key := range sortedKeys(properties) {
		_ = table.Append(key, cellValue(properties[key]))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func renderCollection(w io.Writer, items []interface{}) error {
	if len(items) == 0 {
		_, err := io.WriteString(w, "No items found\n")

		return err
	}

	columns := collectionColumns(items)
	if len(columns) == 0 {
		for _, item := range items {
			if _, err := fmt.Fprintln(w, cellValue(item)); err != nil {
				return err
			}
		}

		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header(toAny(columns)...)

	for _, item := range items {
		fields, _ := item.(map[string]interface{})

		row := make([]any, len(columns))
		for i, column := range columns {
			row[i] = cellValue(fields[column])
		}

		_ = table.Append(row...)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// collectionColumns is the sorted union of item keys, minus OData annotations.
func collectionColumns(items []interface{}) []string {
	seen := make(map[string]interface{})

	for _, item := range items {
		fields, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		for key := range fields {
			if !strings.HasPrefix(key, "@odata.") {
				seen[key] = nil
			}
		}
	}

	return sortedKeys(seen)
}

func cellValue(value interface{}) string {
	switch value.(type) {
	case nil:
		return ""
	case map[string]interface{}, []interface{}:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}

		return string(encoded)
	default:
		return cast.ToString(value)
	}
}

func toAny(values []string) []any {
	converted := make([]any, len(values))
	for i, value := range values {
		converted[i] = value
	}

	return converted
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
