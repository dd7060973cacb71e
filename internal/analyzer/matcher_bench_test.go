package analyzer

import (
	"strings"
	"testing"
)

// benchmarkContent generates a realistic page text for benchmarking.
func benchmarkContent(size int) string {
	sb := strings.Builder{}
	sb.Grow(size)

	// Simulate a realistic manufacturer site with repeated content
	paragraphs := []string{
		"Our workshop produces custom wood furniture for residential and contract clients. Every piece uses certified European oak and walnut.",
		"The company exports luxury furniture to markets across Europe and the Middle East. Export documentation is handled in house.",
		"Quality standards follow ISO 9001 certification across all manufacturing lines. Finishing is done by hand in the Florence facility.",
		"Client portfolio includes hotels, restaurants and private residences. Contract manufacturing capacity covers large hospitality projects.",
		"Contact our sales team for product catalogues and lead times. Custom designs are quoted within five working days.",
	}

	for sb.Len() < size {
		for _, p := range paragraphs {
			sb.WriteString(p)
			sb.WriteString(". ")
		}
	}
	return sb.String()
}

func BenchmarkFindTermMatches_SmallContent(b *testing.B) {
	content := benchmarkContent(1024) // 1KB
	terms := []string{"furniture", "export", "oak", "manufacturing"}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		FindTermMatches(content, "https://example.com/about", "example.com", terms)
	}
}

func BenchmarkFindTermMatches_MediumContent(b *testing.B) {
	content := benchmarkContent(10 * 1024) // 10KB
	terms := []string{"furniture", "export", "oak", "manufacturing", "certification"}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		FindTermMatches(content, "https://example.com/about", "example.com", terms)
	}
}

func BenchmarkFindTermMatches_LargeContent(b *testing.B) {
	content := benchmarkContent(100 * 1024) // 100KB
	terms := []string{"furniture", "export", "oak", "manufacturing", "certification", "portfolio"}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		FindTermMatches(content, "https://example.com/about", "example.com", terms)
	}
}

func BenchmarkFindTermMatches_ManyTerms(b *testing.B) {
	content := benchmarkContent(50 * 1024) // 50KB
	terms := []string{
		"furniture", "export", "oak", "manufacturing", "certification",
		"portfolio", "luxury", "contract", "hospitality", "walnut",
		"catalogues", "quality", "finishing", "capacity", "residential",
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		FindTermMatches(content, "https://example.com/about", "example.com", terms)
	}
}

func BenchmarkSplitIntoSentences(b *testing.B) {
	content := benchmarkContent(50 * 1024) // 50KB

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		splitIntoSentences(content)
	}
}

func BenchmarkSplitIntoSentences_Short(b *testing.B) {
	content := "This is a short sentence. Here is another one! And a third?"

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		splitIntoSentences(content)
	}
}

// TestFindTermMatchesBasic is a sanity check for the matcher
func TestFindTermMatchesBasic(t *testing.T) {
	content := "Oak furniture is our specialty. Oak tables ship worldwide. Walnut finishes are available."
	terms := []string{"oak", "walnut"}

	results := FindTermMatches(content, "https://example.com", "example.com", terms)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	// Check first result (oak)
	if results[0].Term != "oak" {
		t.Errorf("expected term oak, got %s", results[0].Term)
	}
	if results[0].Count != 2 {
		t.Errorf("expected count 2, got %d", results[0].Count)
	}
	if len(results[0].Sentences) != 2 || results[0].Sentences[0] != "Oak furniture is our specialty." {
		t.Errorf("unexpected matched sentences: %v", results[0].Sentences)
	}

	// Check second result (walnut)
	if results[1].Term != "walnut" {
		t.Errorf("expected term walnut, got %s", results[1].Term)
	}
	if results[1].Count != 1 {
		t.Errorf("expected count 1, got %d", results[1].Count)
	}
}

// TestSplitIntoSentencesBasic tests sentence splitting
func TestSplitIntoSentencesBasic(t *testing.T) {
	content := "First sentence. Second one! Third?"
	sentences := splitIntoSentences(content)

	if len(sentences) != 3 {
		t.Fatalf("expected 3 sentences, got %d", len(sentences))
	}

	if sentences[0] != "First sentence." {
		t.Errorf("expected 'First sentence.', got '%s'", sentences[0])
	}
	if sentences[1] != "Second one!" {
		t.Errorf("expected 'Second one!', got '%s'", sentences[1])
	}
	if sentences[2] != "Third?" {
		t.Errorf("expected 'Third?', got '%s'", sentences[2])
	}
}
