package convert

import (
	"context"
	"net/http"
	"strings"

	"github.com/kfreiman/docbridge/internal/catalog"
)

// pandocFormats maps catalog format names onto pandoc reader/writer names
// where they differ.
var pandocFormats = map[string]string{
	"md":  "markdown",
	"tex": "latex",
	"txt": "plain",
}

func pandocName(format string) string {
	if name, ok := pandocFormats[format]; ok {
		return name
	}
	return format
}

// Pandoc adapts the pandoc-server wrapper: multipart file plus an output
// format name and optional extra CLI arguments.
type Pandoc struct {
	serviceClient
}

func NewPandoc(baseURL string, client *http.Client) *Pandoc {
	return &Pandoc{serviceClient: newServiceClient(catalog.ServicePandoc, baseURL, client)}
}

func (p *Pandoc) Service() catalog.Service {
	return catalog.ServicePandoc
}

func (p *Pandoc) Convert(ctx context.Context, in *Input, step catalog.Step) ([]byte, string, error) {
	content, err := in.Content()
	if err != nil {
		return nil, "", err
	}

	args := []string{"--from=" + pandocName(step.InputFormat)}
	switch step.OutputFormat {
	case "html", "md", "txt":
		// Standalone so the result is a full document, not a fragment.
		args = append(args, "--standalone")
	}
	if extra, ok := step.ExtraParams["extra_args"]; ok && extra != "" {
		args = append(args, strings.Fields(extra)...)
	}

	fields := map[string]string{
		"output_format": pandocName(step.OutputFormat),
		"extra_args":    strings.Join(args, " "),
	}

	return p.postMultipart(ctx, "/convert",
		[]filePart{{field: "file", filename: in.Filename, content: content}},
		fields)
}

func (p *Pandoc) Ping(ctx context.Context) error {
	status, err := p.ping(ctx, "/ping")
	if err != nil {
		return err
	}
	return healthStatus(catalog.ServicePandoc, status, http.StatusOK)
}
