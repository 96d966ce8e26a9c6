package catalog

// Capability describes what one backend service can accept, independent of
// where it is deployed. Base URLs and timeouts live in config; this table is
// the static part consulted by the input resolver when it decides between
// handing a service the raw URL or fetching to a temp file first.
type Capability struct {
	// InputFormats the service accepts as uploaded files.
	InputFormats []string
	// SupportsDirectURL is true when the service can fetch a URL itself.
	SupportsDirectURL bool
	// DirectURLTargets lists the output formats for which a URL may be
	// passed through directly instead of being fetched locally first.
	DirectURLTargets []string
}

var serviceCapabilities = map[Service]Capability{
	ServiceGotenberg: {
		InputFormats:      []string{"html", "docx", "pptx", "xlsx", "xls", "ppt", "odt", "ods", "odp", "pages", "numbers"},
		SupportsDirectURL: true,
		DirectURLTargets:  []string{"html", "pdf"},
	},
	ServiceUnstructured: {
		InputFormats: []string{"html", "pdf", "docx", "xlsx", "pptx", "txt", "md", "json", "epub", "rtf", "eml", "msg", "odt"},
	},
	ServiceLibreOffice: {
		InputFormats: []string{"doc", "docx", "xls", "xlsx", "ppt", "pptx", "odt", "ods", "odp", "rtf", "txt", "html", "pdf", "epub", "pages", "numbers", "md"},
	},
	ServicePandoc: {
		InputFormats: []string{"docx", "html", "md", "txt", "tex", "rtf", "odt", "epub"},
	},
}

// ServiceCapability returns the static capability record for a service.
func ServiceCapability(svc Service) (Capability, bool) {
	capability, ok := serviceCapabilities[svc]
	return capability, ok
}

// CanHandleURLDirectly reports whether the service accepts a raw URL as input
// when producing the given target format.
func CanHandleURLDirectly(svc Service, targetFormat string) bool {
	capability, ok := serviceCapabilities[svc]
	if !ok || !capability.SupportsDirectURL {
		return false
	}
	target := Normalize(targetFormat)
	for _, f := range capability.DirectURLTargets {
		if f == target {
			return true
		}
	}
	return false
}

// CanHandleFormat reports whether the service accepts files of the given
// input format.
func CanHandleFormat(svc Service, inputFormat string) bool {
	capability, ok := serviceCapabilities[svc]
	if !ok {
		return false
	}
	input := Normalize(inputFormat)
	for _, f := range capability.InputFormats {
		if f == input {
			return true
		}
	}
	return false
}

// Services lists all known backend services.
func Services() []Service {
	return []Service{ServiceUnstructured, ServiceLibreOffice, ServicePandoc, ServiceGotenberg}
}

// KnownService reports whether id names a configured backend.
func KnownService(id string) (Service, bool) {
	for _, svc := range Services() {
		if string(svc) == id {
			return svc, true
		}
	}
	return "", false
}
