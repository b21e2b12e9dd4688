package api

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mgwoorl/design-patterns-galiulina/core"
	"github.com/mgwoorl/design-patterns-galiulina/models"
	"github.com/mgwoorl/design-patterns-galiulina/repository"
)

// FormatBucket renders a bucket dump in the requested format, returning the
// body and its content type. All four formats read the same field-descriptor
// tables, so a column set change in one model propagates everywhere.
func FormatBucket(format models.ResponseFormat, kind repository.Kind, entities []models.Reference) (string, string, error) {
	switch format {
	case models.FormatJSON:
		body, err := formatJSON(entities)
		return body, echo.MIMEApplicationJSON, err
	case models.FormatCSV:
		return formatCSV(entities), "text/csv", nil
	case models.FormatMarkdown:
		return formatMarkdown(entities), "text/markdown", nil
	case models.FormatXML:
		return formatXML(kind, entities), echo.MIMEApplicationXML, nil
	}
	return "", "", core.NewArgumentError("unknown response format %q", format)
}

func formatJSON(entities []models.Reference) (string, error) {
	docs := make([]map[string]interface{}, 0, len(entities))
	for _, entity := range entities {
		docs = append(docs, models.Document(entity))
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return "", core.WrapOperationError(err, "cannot encode the response")
	}
	return string(data), nil
}

func formatCSV(entities []models.Reference) string {
	if len(entities) == 0 {
		return ""
	}
	var b strings.Builder
	header := entities[0].FieldNames()
	b.WriteString(strings.Join(header, ";"))
	b.WriteString("\n")
	for _, entity := range entities {
		cells := make([]string, 0, len(header))
		for _, field := range header {
			cells = append(cells, cell(entity, field))
		}
		b.WriteString(strings.Join(cells, ";"))
		b.WriteString("\n")
	}
	return b.String()
}

func formatMarkdown(entities []models.Reference) string {
	if len(entities) == 0 {
		return ""
	}
	var b strings.Builder
	header := entities[0].FieldNames()
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	separators := make([]string, len(header))
	for i := range separators {
		separators[i] = "---"
	}
	b.WriteString("| " + strings.Join(separators, " | ") + " |\n")
	for _, entity := range entities {
		cells := make([]string, 0, len(header))
		for _, field := range header {
			cells = append(cells, cell(entity, field))
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

func formatXML(kind repository.Kind, entities []models.Reference) string {
	root := string(kind)
	element := strings.TrimSuffix(root, "s")

	var b strings.Builder
	b.WriteString("<" + root + ">\n")
	for _, entity := range entities {
		b.WriteString("  <" + element + ">\n")
		for _, field := range entity.FieldNames() {
			b.WriteString("    <" + field + ">" + escapeXML(cell(entity, field)) + "</" + field + ">\n")
		}
		b.WriteString("  </" + element + ">\n")
	}
	b.WriteString("</" + root + ">\n")
	return b.String()
}

// cell renders one field for the tabular formats: referenced entities show
// their display name, scalars their wire form.
func cell(entity models.Reference, field string) string {
	value, ok := entity.Field(field)
	if !ok {
		return ""
	}
	if named, isNamed := value.(core.Named); isNamed {
		return named.Name()
	}
	return core.Stringify(value)
}

func escapeXML(value string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(value)); err != nil {
		return value
	}
	return buf.String()
}
