package convert

import (
	"context"
	"net/http"

	"github.com/kfreiman/docbridge/internal/catalog"
)

// Gotenberg adapts the Gotenberg PDF API. The route depends on the source:
// office documents go through the LibreOffice form, HTML through Chromium's
// file renderer, and bare URLs through Chromium's URL renderer.
type Gotenberg struct {
	serviceClient
}

func NewGotenberg(baseURL string, client *http.Client) *Gotenberg {
	return &Gotenberg{serviceClient: newServiceClient(catalog.ServiceGotenberg, baseURL, client)}
}

func (g *Gotenberg) Service() catalog.Service {
	return catalog.ServiceGotenberg
}

func (g *Gotenberg) Convert(ctx context.Context, in *Input, step catalog.Step) ([]byte, string, error) {
	if in.IsURL() {
		return g.postMultipart(ctx, "/forms/chromium/convert/url", nil,
			map[string]string{"url": in.URL})
	}

	content, err := in.Content()
	if err != nil {
		return nil, "", err
	}

	if step.InputFormat == "html" {
		// Chromium requires the entry file to be named index.html.
		return g.postMultipart(ctx, "/forms/chromium/convert/html",
			[]filePart{{field: "files", filename: "index.html", content: content}},
			nil)
	}

	return g.postMultipart(ctx, "/forms/libreoffice/convert",
		[]filePart{{field: "files", filename: in.Filename, content: content}},
		nil)
}

func (g *Gotenberg) Ping(ctx context.Context) error {
	status, err := g.ping(ctx, "/health")
	if err != nil {
		return err
	}
	return healthStatus(catalog.ServiceGotenberg, status, http.StatusOK)
}
