package catalog

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionMatrix_Invariants(t *testing.T) {
	t.Run("every pair has at least one candidate", func(t *testing.T) {
		for pair, candidates := range conversionMatrix {
			assert.NotEmpty(t, candidates, "pair %s-%s has no candidates", pair.in, pair.out)
		}
	})

	t.Run("candidates are sorted by priority", func(t *testing.T) {
		for pair, candidates := range conversionMatrix {
			sorted := sort.SliceIsSorted(candidates, func(a, b int) bool {
				return candidates[a].Priority < candidates[b].Priority
			})
			assert.True(t, sorted, "pair %s-%s is not priority ordered", pair.in, pair.out)
		}
	})

	t.Run("every candidate has steps matching the pair", func(t *testing.T) {
		for pair, candidates := range conversionMatrix {
			for _, candidate := range candidates {
				require.NotEmpty(t, candidate.Steps, "pair %s-%s candidate %s has no steps",
					pair.in, pair.out, candidate.Service)
				assert.Equal(t, pair.in, candidate.Steps[0].InputFormat)
				assert.Equal(t, pair.out, candidate.Steps[len(candidate.Steps)-1].OutputFormat)
				assert.Equal(t, candidate.Service, candidate.Steps[0].Service)
			}
		}
	})

	t.Run("chain steps pipe output into input", func(t *testing.T) {
		for pair, candidates := range conversionMatrix {
			for _, candidate := range candidates {
				for i := 1; i < len(candidate.Steps); i++ {
					assert.Equal(t,
						candidate.Steps[i-1].OutputFormat,
						candidate.Steps[i].InputFormat,
						"pair %s-%s chain breaks between step %d and %d", pair.in, pair.out, i, i+1)
				}
			}
		}
	})

	t.Run("chain services are known", func(t *testing.T) {
		for pair, candidates := range conversionMatrix {
			for _, candidate := range candidates {
				for _, step := range candidate.Steps {
					_, known := serviceCapabilities[step.Service]
					assert.True(t, known, "pair %s-%s uses unknown service %s",
						pair.in, pair.out, step.Service)
				}
			}
		}
	})
}

func TestCandidates(t *testing.T) {
	t.Run("known pair returns candidates best first", func(t *testing.T) {
		candidates := Candidates("docx", "pdf")
		require.Len(t, candidates, 3)
		assert.Equal(t, ServiceGotenberg, candidates[0].Service)
		assert.Equal(t, ServiceLibreOffice, candidates[1].Service)
		assert.Equal(t, ServicePandoc, candidates[2].Service)
	})

	t.Run("aliases are normalized", func(t *testing.T) {
		viaAlias := Candidates("markdown", "pdf")
		canonical := Candidates("md", "pdf")
		assert.Equal(t, canonical, viaAlias)
	})

	t.Run("unknown pair returns nil", func(t *testing.T) {
		assert.Nil(t, Candidates("docx", "numbers"))
	})
}

func TestPrimary(t *testing.T) {
	t.Run("returns the top candidate", func(t *testing.T) {
		candidate, ok := Primary("md", "pdf")
		require.True(t, ok)
		assert.Equal(t, ServicePandoc, candidate.Service)
		assert.Equal(t, PriorityPrimary, candidate.Priority)
	})

	t.Run("reports unsupported pairs", func(t *testing.T) {
		_, ok := Primary("pdf", "pages")
		assert.False(t, ok)
	})
}

func TestChainedCandidates(t *testing.T) {
	candidate, ok := Primary("pages", "md")
	require.True(t, ok)
	assert.True(t, candidate.Chained())
	require.Len(t, candidate.Steps, 2)
	assert.Equal(t, ServiceLibreOffice, candidate.Steps[0].Service)
	assert.Equal(t, "docx", candidate.Steps[0].OutputFormat)
	assert.Equal(t, ServicePandoc, candidate.Steps[1].Service)
	assert.Equal(t, "md", candidate.Steps[1].OutputFormat)
}

func TestSupportedConversions(t *testing.T) {
	supported := SupportedConversions()
	require.Contains(t, supported, "docx")
	assert.True(t, sort.StringsAreSorted(supported["docx"]))
	assert.Contains(t, supported["docx"], "pdf")
	assert.Contains(t, supported["url"], "pdf")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"latex", "tex"},
		{"htm", "html"},
		{"markdown", "md"},
		{"doc", "docx"},
		{"PDF", "pdf"},
		{"  docx ", "docx"},
		{"csv", "csv"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestPassthroughEligible(t *testing.T) {
	assert.True(t, PassthroughEligible("html"))
	assert.True(t, PassthroughEligible("pdf"))
	assert.True(t, PassthroughEligible("markdown"))
	assert.False(t, PassthroughEligible("docx"))
	assert.False(t, PassthroughEligible("xlsx"))
}

func TestServiceCapabilities(t *testing.T) {
	t.Run("gotenberg handles URLs for pdf only among pdf targets", func(t *testing.T) {
		assert.True(t, CanHandleURLDirectly(ServiceGotenberg, "pdf"))
		assert.False(t, CanHandleURLDirectly(ServiceGotenberg, "md"))
		assert.False(t, CanHandleURLDirectly(ServicePandoc, "pdf"))
	})

	t.Run("input format checks use canonical names", func(t *testing.T) {
		assert.True(t, CanHandleFormat(ServicePandoc, "markdown"))
		assert.False(t, CanHandleFormat(ServicePandoc, "pages"))
	})

	t.Run("known services round-trip by id", func(t *testing.T) {
		for _, svc := range Services() {
			got, ok := KnownService(string(svc))
			require.True(t, ok)
			assert.Equal(t, svc, got)
		}
		_, ok := KnownService("wordperfect")
		assert.False(t, ok)
	})
}
