package models

import (
	"strings"
	"time"
)

// ResponseFormat selects how bucket dumps are rendered.
type ResponseFormat string

const (
	FormatJSON     ResponseFormat = "json"
	FormatCSV      ResponseFormat = "csv"
	FormatMarkdown ResponseFormat = "markdown"
	FormatXML      ResponseFormat = "xml"
)

// ResponseFormats lists the supported dump formats.
func ResponseFormats() []ResponseFormat {
	return []ResponseFormat{FormatCSV, FormatMarkdown, FormatJSON, FormatXML}
}

// ParseResponseFormat resolves a format name case-insensitively, defaulting
// to JSON.
func ParseResponseFormat(name string) (ResponseFormat, bool) {
	switch ResponseFormat(strings.ToLower(strings.TrimSpace(name))) {
	case FormatJSON:
		return FormatJSON, true
	case FormatCSV:
		return FormatCSV, true
	case FormatMarkdown:
		return FormatMarkdown, true
	case FormatXML:
		return FormatXML, true
	}
	return FormatJSON, false
}

// Company is the descriptive record of the organization running the catalog.
type Company struct {
	Name        string `json:"name"`
	INN         string `json:"inn"`
	BIC         string `json:"bic"`
	CorrAccount string `json:"corr_account"`
	Account     string `json:"account"`
	Ownership   string `json:"ownership"`
}

// Settings is the application settings object: company record, response
// format, first-start flag and the nullable block period (cutoff).
type Settings struct {
	Company        Company
	ResponseFormat ResponseFormat
	IsFirstStart   bool
	BlockPeriod    *time.Time
}

// DefaultSettings returns the settings used before any file is loaded.
func DefaultSettings() *Settings {
	return &Settings{
		Company:        Company{Name: "Roga i Kopyta"},
		ResponseFormat: FormatJSON,
		IsFirstStart:   true,
	}
}
