// Package catalog holds the static routing tables for document conversion:
// which backend services can bridge which format pairs, in what preference
// order, and what each service is capable of. The tables are built once at
// package init and never mutated afterwards, so they are safe for concurrent
// reads from any number of requests.
package catalog

import "sort"

// Service identifies one of the external conversion backends.
type Service string

const (
	ServiceUnstructured Service = "unstructured-io"
	ServiceLibreOffice  Service = "libreoffice"
	ServicePandoc       Service = "pandoc"
	ServiceGotenberg    Service = "gotenberg"
)

// Priority ranks conversion candidates for a format pair. Lower value wins.
type Priority int

const (
	PriorityPrimary Priority = iota
	PrioritySecondary
	PriorityTertiary
)

func (p Priority) String() string {
	switch p {
	case PriorityPrimary:
		return "primary"
	case PrioritySecondary:
		return "secondary"
	case PriorityTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// Step is one hop in a conversion: a single service call turning InputFormat
// bytes into OutputFormat bytes. ExtraParams are forwarded as form fields.
type Step struct {
	Service      Service
	InputFormat  string
	OutputFormat string
	ExtraParams  map[string]string
}

// Candidate is one way to satisfy a format pair. A plain conversion has a
// single step; a chained conversion pipes each step's output into the next.
// Service is the service of the first step.
type Candidate struct {
	Service     Service
	Priority    Priority
	Description string
	Steps       []Step
}

// Chained reports whether this candidate requires more than one service call.
func (c Candidate) Chained() bool {
	return len(c.Steps) > 1
}

type formatPair struct {
	in, out string
}

// simple declares a one-step candidate. The step's formats are filled in
// from the matrix key when the tables are built.
func simple(svc Service, prio Priority, desc string) Candidate {
	return Candidate{Service: svc, Priority: prio, Description: desc}
}

// chain declares a multi-step candidate.
func chain(prio Priority, desc string, steps ...Step) Candidate {
	return Candidate{Service: steps[0].Service, Priority: prio, Description: desc, Steps: steps}
}

// conversionMatrix maps (input, output) format pairs to candidate backends,
// best first. Within the same priority, declaration order is the tie-break.
// Keys use canonical format names (see Normalize).
var conversionMatrix = map[formatPair][]Candidate{
	// PDF output. Gotenberg preferred where it supports the input.
	{"html", "pdf"}: {
		simple(ServiceGotenberg, PriorityPrimary, "high-fidelity HTML to PDF with CSS support"),
		simple(ServicePandoc, PrioritySecondary, "good for simple HTML"),
		simple(ServiceLibreOffice, PriorityTertiary, "basic HTML support"),
	},
	{"docx", "pdf"}: {
		simple(ServiceGotenberg, PriorityPrimary, "high-quality office document to PDF"),
		simple(ServiceLibreOffice, PrioritySecondary, "excellent office format support"),
		simple(ServicePandoc, PriorityTertiary, "limited office format support"),
	},
	{"pptx", "pdf"}: {
		simple(ServiceGotenberg, PriorityPrimary, "high-quality presentation to PDF"),
		simple(ServiceLibreOffice, PrioritySecondary, "excellent presentation support"),
	},
	{"ppt", "pdf"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "legacy presentation format support"),
		simple(ServiceGotenberg, PrioritySecondary, "may work via LibreOffice"),
	},
	{"xlsx", "pdf"}: {
		simple(ServiceGotenberg, PriorityPrimary, "high-quality spreadsheet to PDF"),
		simple(ServiceLibreOffice, PrioritySecondary, "excellent spreadsheet support"),
	},
	{"xls", "pdf"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "legacy spreadsheet format support"),
		simple(ServiceGotenberg, PrioritySecondary, "may work via LibreOffice"),
	},
	{"odt", "pdf"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "native OpenDocument support"),
		simple(ServicePandoc, PrioritySecondary, "good OpenDocument support"),
	},
	{"ods", "pdf"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "native OpenDocument spreadsheet support"),
	},
	{"odp", "pdf"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "native OpenDocument presentation support"),
	},
	{"rtf", "pdf"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "good RTF support"),
		simple(ServicePandoc, PrioritySecondary, "limited RTF support"),
	},
	{"txt", "pdf"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "simple text to PDF"),
		simple(ServicePandoc, PrioritySecondary, "text to PDF via LaTeX"),
	},
	{"md", "pdf"}: {
		simple(ServicePandoc, PriorityPrimary, "Markdown to PDF via LaTeX"),
		simple(ServiceLibreOffice, PrioritySecondary, "basic Markdown support"),
	},
	{"tex", "pdf"}: {
		simple(ServicePandoc, PriorityPrimary, "LaTeX to PDF"),
	},
	{"epub", "pdf"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "e-book to PDF"),
		simple(ServicePandoc, PrioritySecondary, "e-book format support"),
	},
	{"pages", "pdf"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "Apple Pages to PDF via LibreOffice"),
	},

	// JSON output: structure extraction through unstructured-io.
	{"docx", "json"}: {simple(ServiceUnstructured, PriorityPrimary, "document structure extraction")},
	{"pdf", "json"}:  {simple(ServiceUnstructured, PriorityPrimary, "PDF structure extraction")},
	{"pptx", "json"}: {simple(ServiceUnstructured, PriorityPrimary, "presentation structure extraction")},
	{"ppt", "json"}:  {simple(ServiceUnstructured, PriorityPrimary, "legacy presentation structure extraction")},
	{"xlsx", "json"}: {simple(ServiceUnstructured, PriorityPrimary, "spreadsheet structure extraction")},
	{"html", "json"}: {simple(ServiceUnstructured, PriorityPrimary, "HTML structure extraction")},
	{"epub", "json"}: {simple(ServiceUnstructured, PriorityPrimary, "e-book structure extraction")},
	{"rtf", "json"}:  {simple(ServiceUnstructured, PriorityPrimary, "RTF structure extraction")},
	{"txt", "json"}:  {simple(ServiceUnstructured, PriorityPrimary, "text structure extraction")},
	{"eml", "json"}:  {simple(ServiceUnstructured, PriorityPrimary, "email structure extraction")},
	{"msg", "json"}:  {simple(ServiceUnstructured, PriorityPrimary, "Outlook message structure extraction")},
	{"odt", "json"}:  {simple(ServiceUnstructured, PriorityPrimary, "OpenDocument structure extraction")},
	{"pages", "json"}: {
		chain(PriorityPrimary, "Apple Pages to JSON via LibreOffice and unstructured-io",
			Step{Service: ServiceLibreOffice, InputFormat: "pages", OutputFormat: "docx"},
			Step{Service: ServiceUnstructured, InputFormat: "docx", OutputFormat: "json"},
		),
	},

	// URL pseudo-input: rows consulted when resolving a URL request.
	{"url", "pdf"}:  {simple(ServiceGotenberg, PriorityPrimary, "URL to PDF conversion with full CSS support")},
	{"url", "json"}: {simple(ServiceUnstructured, PriorityPrimary, "URL content structure extraction")},
	{"url", "md"}:   {simple(ServiceUnstructured, PriorityPrimary, "URL to Markdown conversion")},
	{"url", "txt"}:  {simple(ServiceUnstructured, PriorityPrimary, "URL to text conversion")},

	// DOCX output.
	{"md", "docx"}: {
		simple(ServicePandoc, PriorityPrimary, "Markdown to Word"),
		simple(ServiceLibreOffice, PrioritySecondary, "via intermediate format"),
	},
	{"html", "docx"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "HTML to Word"),
		simple(ServicePandoc, PrioritySecondary, "HTML to Word"),
	},
	{"pdf", "docx"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "PDF to Word"),
	},
	{"rtf", "docx"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "RTF to Word"),
		simple(ServicePandoc, PrioritySecondary, "limited RTF support"),
	},
	{"txt", "docx"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "text to Word"),
		simple(ServicePandoc, PrioritySecondary, "text to Word"),
	},
	{"odt", "docx"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "OpenDocument to Word"),
		simple(ServicePandoc, PrioritySecondary, "OpenDocument support"),
	},
	{"pages", "docx"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "Apple Pages to DOCX via LibreOffice"),
	},

	// Markdown output: Pandoc preferred.
	{"docx", "md"}: {
		simple(ServicePandoc, PriorityPrimary, "Word to Markdown"),
		simple(ServiceUnstructured, PrioritySecondary, "structure extraction only"),
	},
	{"html", "md"}: {simple(ServicePandoc, PriorityPrimary, "HTML to Markdown")},
	{"pdf", "md"}:  {simple(ServiceUnstructured, PriorityPrimary, "PDF to text structure")},
	{"tex", "md"}:  {simple(ServicePandoc, PriorityPrimary, "LaTeX to Markdown")},
	{"rtf", "md"}:  {simple(ServicePandoc, PriorityPrimary, "RTF to Markdown")},
	{"txt", "md"}:  {simple(ServicePandoc, PriorityPrimary, "text to Markdown")},
	{"epub", "md"}: {simple(ServicePandoc, PriorityPrimary, "e-book to Markdown")},
	{"odt", "md"}: {
		simple(ServicePandoc, PriorityPrimary, "OpenDocument to Markdown"),
		simple(ServiceUnstructured, PrioritySecondary, "structure extraction only"),
	},
	{"pages", "md"}: {
		chain(PriorityPrimary, "Apple Pages to Markdown via LibreOffice and Pandoc",
			Step{Service: ServiceLibreOffice, InputFormat: "pages", OutputFormat: "docx"},
			Step{Service: ServicePandoc, InputFormat: "docx", OutputFormat: "md"},
		),
	},
	{"numbers", "md"}: {
		chain(PriorityPrimary, "Apple Numbers to Markdown via LibreOffice and Pandoc",
			Step{Service: ServiceLibreOffice, InputFormat: "numbers", OutputFormat: "html"},
			Step{Service: ServicePandoc, InputFormat: "html", OutputFormat: "md"},
		),
	},

	// HTML output.
	{"docx", "html"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "Word to HTML"),
		simple(ServicePandoc, PrioritySecondary, "Word to HTML"),
	},
	{"pdf", "html"}: {simple(ServiceLibreOffice, PriorityPrimary, "PDF to HTML")},
	{"md", "html"}:  {simple(ServicePandoc, PriorityPrimary, "Markdown to HTML")},
	{"tex", "html"}: {simple(ServicePandoc, PriorityPrimary, "LaTeX to HTML")},
	{"rtf", "html"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "RTF to HTML"),
		simple(ServicePandoc, PrioritySecondary, "limited RTF support"),
	},
	{"txt", "html"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "text to HTML"),
		simple(ServicePandoc, PrioritySecondary, "text to HTML"),
	},
	{"odt", "html"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "OpenDocument to HTML"),
		simple(ServicePandoc, PrioritySecondary, "OpenDocument support"),
	},
	{"pages", "html"}:   {simple(ServiceLibreOffice, PriorityPrimary, "Apple Pages to HTML via LibreOffice")},
	{"xlsx", "html"}:    {simple(ServiceLibreOffice, PriorityPrimary, "Excel to HTML via LibreOffice")},
	{"xls", "html"}:     {simple(ServiceLibreOffice, PriorityPrimary, "legacy Excel to HTML via LibreOffice")},
	{"ods", "html"}:     {simple(ServiceLibreOffice, PriorityPrimary, "OpenDocument spreadsheet to HTML")},
	{"numbers", "html"}: {simple(ServiceLibreOffice, PriorityPrimary, "Apple Numbers to HTML via LibreOffice")},

	// LaTeX output.
	{"md", "tex"}:   {simple(ServicePandoc, PriorityPrimary, "Markdown to LaTeX")},
	{"html", "tex"}: {simple(ServicePandoc, PriorityPrimary, "HTML to LaTeX")},
	{"docx", "tex"}: {simple(ServicePandoc, PriorityPrimary, "Word to LaTeX")},
	{"txt", "tex"}:  {simple(ServicePandoc, PriorityPrimary, "text to LaTeX")},

	// Text output.
	{"docx", "txt"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "Word to text"),
		simple(ServiceUnstructured, PrioritySecondary, "text extraction"),
		simple(ServicePandoc, PriorityTertiary, "Word to text"),
	},
	{"pdf", "txt"}: {
		simple(ServiceUnstructured, PriorityPrimary, "PDF text extraction"),
		simple(ServiceLibreOffice, PrioritySecondary, "PDF to text"),
	},
	{"html", "txt"}: {
		simple(ServiceUnstructured, PriorityPrimary, "HTML text extraction"),
		simple(ServiceLibreOffice, PrioritySecondary, "HTML to text"),
		simple(ServicePandoc, PriorityTertiary, "HTML to text"),
	},
	{"md", "txt"}: {
		simple(ServicePandoc, PriorityPrimary, "Markdown to text"),
		simple(ServiceUnstructured, PrioritySecondary, "text extraction"),
	},
	{"rtf", "txt"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "RTF to text"),
		simple(ServiceUnstructured, PrioritySecondary, "text extraction"),
	},
	{"odt", "txt"}: {
		simple(ServiceLibreOffice, PriorityPrimary, "OpenDocument to text"),
		simple(ServiceUnstructured, PrioritySecondary, "text extraction"),
		simple(ServicePandoc, PriorityTertiary, "OpenDocument to text"),
	},
	{"pages", "txt"}:   {simple(ServiceLibreOffice, PriorityPrimary, "Apple Pages to TXT via LibreOffice")},
	{"numbers", "txt"}: {simple(ServiceLibreOffice, PriorityPrimary, "Apple Numbers to text via LibreOffice")},

	// Remaining Apple Numbers targets.
	{"numbers", "xlsx"}: {simple(ServiceLibreOffice, PriorityPrimary, "Apple Numbers to Excel via LibreOffice")},
}

func init() {
	for pair, candidates := range conversionMatrix {
		for i := range candidates {
			if len(candidates[i].Steps) == 0 {
				candidates[i].Steps = []Step{{
					Service:      candidates[i].Service,
					InputFormat:  pair.in,
					OutputFormat: pair.out,
				}}
			}
		}
		// Declaration order is the tie-break within equal priority, so a
		// stable sort preserves it while guaranteeing the priority invariant.
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].Priority < candidates[b].Priority
		})
	}
}

// Candidates returns the candidate backends for a format pair, best first.
// The returned slice is shared immutable data; callers must not modify it.
// An unsupported pair yields nil.
func Candidates(inputFormat, outputFormat string) []Candidate {
	return conversionMatrix[formatPair{Normalize(inputFormat), Normalize(outputFormat)}]
}

// Primary returns the highest-priority candidate for a format pair.
func Primary(inputFormat, outputFormat string) (Candidate, bool) {
	candidates := Candidates(inputFormat, outputFormat)
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	return candidates[0], true
}

// Supported reports whether any backend can bridge the format pair.
func Supported(inputFormat, outputFormat string) bool {
	return len(Candidates(inputFormat, outputFormat)) > 0
}

// SupportedConversions maps every supported input format to its possible
// output formats, sorted for stable responses.
func SupportedConversions() map[string][]string {
	supported := make(map[string][]string)
	for pair := range conversionMatrix {
		supported[pair.in] = append(supported[pair.in], pair.out)
	}
	for in := range supported {
		sort.Strings(supported[in])
	}
	return supported
}
