package llm

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"jobtrail/internal/database"
)

//go:embed prompts/cover_letter.md
var coverLetterPromptRaw string

//go:embed prompts/cold_message.md
var coldMessagePromptRaw string

// 模板在包初始化时解析一次，之后每次生成复用。
var (
	coverLetterTemplate = template.Must(template.New("cover_letter").Parse(coverLetterPromptRaw))
	coldMessageTemplate = template.Must(template.New("cold_message").Parse(coldMessagePromptRaw))
)

// PromptData carries everything the prompt templates may reference.
type PromptData struct {
	Company        string
	Position       string
	Location       string
	SalaryRange    string
	Notes          string
	Name           string
	Email          string
	HasProfile     bool
	Experience     string
	Skills         string
	Education      string
	JobDescription string
	Tone           string
}

// BuildPrompt renders the prompt for the given document type.
func BuildPrompt(docType string, data PromptData) (string, error) {
	var tmpl *template.Template
	switch docType {
	case database.DocumentTypeCoverLetter:
		tmpl = coverLetterTemplate
	case database.DocumentTypeColdMessage:
		tmpl = coldMessageTemplate
	default:
		return "", fmt.Errorf("unsupported document type: %s", docType)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", docType, err)
	}
	return buf.String(), nil
}
