package convert

import (
	"context"
	"net/http"

	"github.com/kfreiman/docbridge/internal/catalog"
)

// LibreOffice adapts the unoserver-web API: one multipart endpoint that
// takes the document and the target format name.
type LibreOffice struct {
	serviceClient
}

func NewLibreOffice(baseURL string, client *http.Client) *LibreOffice {
	return &LibreOffice{serviceClient: newServiceClient(catalog.ServiceLibreOffice, baseURL, client)}
}

func (l *LibreOffice) Service() catalog.Service {
	return catalog.ServiceLibreOffice
}

func (l *LibreOffice) Convert(ctx context.Context, in *Input, step catalog.Step) ([]byte, string, error) {
	content, err := in.Content()
	if err != nil {
		return nil, "", err
	}

	fields := map[string]string{"convert-to": step.OutputFormat}
	for key, value := range step.ExtraParams {
		fields[key] = value
	}

	return l.postMultipart(ctx, "/request",
		[]filePart{{field: "file", filename: in.Filename, content: content}},
		fields)
}

// Ping treats any HTTP answer as healthy; unoserver-web has no health
// endpoint and answers 404 on the root path when it is up.
func (l *LibreOffice) Ping(ctx context.Context) error {
	_, err := l.ping(ctx, "/")
	return err
}
