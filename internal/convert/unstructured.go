package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/kfreiman/docbridge/internal/catalog"
)

// Unstructured adapts the unstructured-io partition API. The backend only
// emits a JSON element tree; markdown, text, and HTML outputs are assembled
// locally from the elements.
type Unstructured struct {
	serviceClient
}

func NewUnstructured(baseURL string, client *http.Client) *Unstructured {
	return &Unstructured{serviceClient: newServiceClient(catalog.ServiceUnstructured, baseURL, client)}
}

func (u *Unstructured) Service() catalog.Service {
	return catalog.ServiceUnstructured
}

// element is one node of the partition response.
type element struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Metadata struct {
		CategoryDepth int    `json:"category_depth"`
		TextAsHTML    string `json:"text_as_html"`
	} `json:"metadata"`
}

func (u *Unstructured) Convert(ctx context.Context, in *Input, step catalog.Step) ([]byte, string, error) {
	content, err := in.Content()
	if err != nil {
		return nil, "", err
	}

	body, contentType, err := u.postMultipart(ctx, "/general/v0/general",
		[]filePart{{field: "files", filename: in.Filename, content: content}},
		nil)
	if err != nil {
		return nil, "", err
	}

	if step.OutputFormat == "json" {
		return body, contentType, nil
	}

	var elements []element
	if err := json.Unmarshal(body, &elements); err != nil {
		return nil, "", &UpstreamUnavailableError{
			Service: catalog.ServiceUnstructured,
			Err:     fmt.Errorf("unparseable partition response: %w", err),
		}
	}

	switch step.OutputFormat {
	case "md":
		return []byte(elementsToMarkdown(elements)), "text/markdown", nil
	case "txt":
		return []byte(elementsToText(elements)), "text/plain", nil
	case "html":
		return []byte(elementsToHTML(elements)), "text/html", nil
	default:
		return nil, "", &InvalidRequestError{
			Reason: fmt.Sprintf("unstructured-io cannot produce %s output", step.OutputFormat),
		}
	}
}

func elementsToMarkdown(elements []element) string {
	var sb strings.Builder
	for _, el := range elements {
		text := strings.TrimSpace(el.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		switch el.Type {
		case "Title":
			level := el.Metadata.CategoryDepth + 1
			if level < 1 {
				level = 1
			}
			if level > 6 {
				level = 6
			}
			sb.WriteString(strings.Repeat("#", level))
			sb.WriteString(" ")
			sb.WriteString(text)
		case "ListItem":
			sb.WriteString("- ")
			sb.WriteString(text)
		default:
			sb.WriteString(text)
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func elementsToText(elements []element) string {
	var parts []string
	for _, el := range elements {
		text := strings.TrimSpace(el.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func elementsToHTML(elements []element) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<body>\n")
	for _, el := range elements {
		// Tables arrive pre-rendered as an HTML fragment; use it verbatim.
		if el.Type == "Table" && el.Metadata.TextAsHTML != "" {
			sb.WriteString(el.Metadata.TextAsHTML)
			sb.WriteString("\n")
			continue
		}
		text := strings.TrimSpace(el.Text)
		if text == "" {
			continue
		}
		escaped := html.EscapeString(text)
		switch el.Type {
		case "Title":
			fmt.Fprintf(&sb, "<h1>%s</h1>\n", escaped)
		case "ListItem":
			fmt.Fprintf(&sb, "<li>%s</li>\n", escaped)
		default:
			fmt.Fprintf(&sb, "<p>%s</p>\n", escaped)
		}
	}
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

// Ping accepts the statuses the partition endpoint answers without a
// payload; 404, 405, and 422 all mean the service is up.
func (u *Unstructured) Ping(ctx context.Context) error {
	status, err := u.ping(ctx, "/general/v0/general")
	if err != nil {
		return err
	}
	return healthStatus(catalog.ServiceUnstructured, status,
		http.StatusOK, http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusUnprocessableEntity)
}
