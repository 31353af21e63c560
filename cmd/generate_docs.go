package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/template"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/teemow/voicecal/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Render markdown for every tool that "voicecal mcp" registers.
The output is built from the live tool definitions, so it cannot drift
from the arguments the tools actually accept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := registeredTools()
			if err != nil {
				return err
			}
			if outputFile == "" {
				return writeToolsMarkdown(cmd.OutOrStdout(), tools)
			}

			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outputFile, err)
			}
			if err := writeToolsMarkdown(f, tools); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// registeredTools registers everything against a context with no gateways.
// Registration only needs the context, not working clients.
func registeredTools() ([]mcp.Tool, error) {
	sc := server.NewServerContext(context.Background(), nil)
	defer func() { _ = sc.Shutdown() }()

	mcpSrv, err := newMCPServer(sc)
	if err != nil {
		return nil, err
	}

	tools := make([]mcp.Tool, 0, len(mcpSrv.ListTools()))
	for _, st := range mcpSrv.ListTools() {
		tools = append(tools, st.Tool)
	}
	return tools, nil
}

type toolCategory struct {
	Title string
	Tools []toolDoc
}

func (c toolCategory) Anchor() string {
	return strings.ToLower(strings.ReplaceAll(c.Title, " ", "-"))
}

type toolDoc struct {
	Name        string
	Description string
	Args        []argDoc
}

type argDoc struct {
	Name        string
	Required    bool
	Description string
}

var toolsMarkdown = template.Must(template.New("tools").Parse(`# MCP Tools Reference

Every tool available when running ` + "`voicecal mcp`" + `. Generated from the tool definitions.

## Table of Contents

{{range .}}- [{{.Title}}](#{{.Anchor}})
{{end}}
## Caller Identity

Tools that accept a ` + "`user_id`" + ` argument record it in the audit log. When omitted the caller is recorded as ` + "`anonymous`" + `.
{{range .}}
## {{.Title}}
{{range .Tools}}
### {{.Name}}
{{if .Description}}
{{.Description}}
{{end}}{{if .Args}}
**Arguments:**
{{range .Args}}- ` + "`{{.Name}}`" + ` ({{if .Required}}required{{else}}optional{{end}}): {{.Description}}
{{end}}{{end}}{{end}}{{end}}`))

func writeToolsMarkdown(w io.Writer, tools []mcp.Tool) error {
	return toolsMarkdown.Execute(w, categorize(tools))
}

// categorize groups tools by name prefix. Categories and the tools inside
// them are sorted so the output is stable.
func categorize(tools []mcp.Tool) []toolCategory {
	byTitle := map[string][]toolDoc{}
	for _, tool := range tools {
		title := categoryFor(tool.Name)
		byTitle[title] = append(byTitle[title], describeTool(tool))
	}

	categories := make([]toolCategory, 0, len(byTitle))
	for title, docs := range byTitle {
		slices.SortFunc(docs, func(a, b toolDoc) int { return strings.Compare(a.Name, b.Name) })
		categories = append(categories, toolCategory{Title: title, Tools: docs})
	}
	slices.SortFunc(categories, func(a, b toolCategory) int { return strings.Compare(a.Title, b.Title) })
	return categories
}

func categoryFor(name string) string {
	prefix, _, _ := strings.Cut(name, "_")
	switch prefix {
	case "assistant":
		return "Assistant Tools"
	case "calendar":
		return "Google Calendar Tools"
	case "speech":
		return "Speech Tools"
	case "clock":
		return "Clock Tools"
	case "google":
		return "Google Authorization Tools"
	}
	return "Other"
}

func describeTool(tool mcp.Tool) toolDoc {
	doc := toolDoc{Name: tool.Name, Description: tool.Description}

	for name, raw := range tool.InputSchema.Properties {
		prop, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		desc, _ := prop["description"].(string)
		if desc == "" {
			kind, _ := prop["type"].(string)
			if kind == "" {
				kind = "any"
			}
			desc = kind + " parameter"
		}
		doc.Args = append(doc.Args, argDoc{
			Name:        name,
			Required:    slices.Contains(tool.InputSchema.Required, name),
			Description: desc,
		})
	}
	slices.SortFunc(doc.Args, func(a, b argDoc) int { return strings.Compare(a.Name, b.Name) })
	return doc
}
