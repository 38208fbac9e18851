package classifier

import (
	"testing"

	"github.com/openmemory/openmemory/internal/model"
)

func TestClassify_ExplicitSectorShortCircuits(t *testing.T) {
	c := New()
	res := c.Classify("anything at all", model.SectorProcedural, nil)
	if res.Primary != model.SectorProcedural {
		t.Fatalf("expected explicit sector to win, got %s", res.Primary)
	}
	if res.Confidence != 1.0 {
		t.Fatalf("expected confidence 1.0 for explicit sector, got %f", res.Confidence)
	}
}

func TestClassify_EpisodicCue(t *testing.T) {
	c := New()
	res := c.Classify("Yesterday I went to the dentist downtown.", "", nil)
	if res.Primary != model.SectorEpisodic {
		t.Fatalf("expected episodic, got %s", res.Primary)
	}
}

func TestClassify_ProceduralCue(t *testing.T) {
	c := New()
	res := c.Classify("Here is the procedure: first, open the valve, then check the pressure.", "", nil)
	if res.Primary != model.SectorProcedural {
		t.Fatalf("expected procedural, got %s", res.Primary)
	}
}

func TestClassify_EmotionalCue(t *testing.T) {
	c := New()
	res := c.Classify("I felt so happy and excited about the launch.", "", nil)
	if res.Primary != model.SectorEmotional {
		t.Fatalf("expected emotional, got %s", res.Primary)
	}
}

func TestClassify_NoMatchDefaultsToSemanticLowConfidence(t *testing.T) {
	c := New()
	res := c.Classify("xk7 qz99", "", nil)
	if res.Primary != model.SectorSemantic {
		t.Fatalf("expected default semantic sector, got %s", res.Primary)
	}
	if res.Confidence != 0.2 {
		t.Fatalf("expected low default confidence, got %f", res.Confidence)
	}
}

func TestClassify_LearnedOverrideOnlyAppliesToLowConfidenceSemantic(t *testing.T) {
	learned := fakeLearned{label: model.SectorReflective, confidence: 0.9}
	c := New(WithLearnedModel(learned))
	res := c.Classify("xk7 qz99", "", []float32{0.1, 0.2})
	if res.Primary != model.SectorReflective {
		t.Fatalf("expected learned override to fire on low-confidence semantic default, got %s", res.Primary)
	}
}

func TestClassify_LearnedOverrideSkippedWhenConfident(t *testing.T) {
	learned := fakeLearned{label: model.SectorReflective, confidence: 0.9}
	c := New(WithLearnedModel(learned))
	res := c.Classify("Yesterday I went to the dentist downtown.", "", nil)
	if res.Primary != model.SectorEpisodic {
		t.Fatalf("expected high-confidence rule match to win over learned override, got %s", res.Primary)
	}
}

func TestSectorWeight_UnknownDefaultsToOne(t *testing.T) {
	if w := SectorWeight(model.Sector("nonexistent")); w != 1.0 {
		t.Fatalf("expected default weight 1.0, got %f", w)
	}
}

func TestSectorWeight_KnownSectorsMatchTable(t *testing.T) {
	if w := SectorWeight(model.SectorEmotional); w != 1.4 {
		t.Fatalf("expected emotional weight 1.4, got %f", w)
	}
}

func TestContainsAnyToken_CaseInsensitive(t *testing.T) {
	if !ContainsAnyToken("The Quick Brown Fox", []string{"quick"}) {
		t.Fatalf("expected case-insensitive match")
	}
	if ContainsAnyToken("The Quick Brown Fox", []string{"slow"}) {
		t.Fatalf("expected no match")
	}
}

type fakeLearned struct {
	label      model.Sector
	confidence float64
}

func (f fakeLearned) Classify(meanVec []float32) (model.Sector, float64) {
	return f.label, f.confidence
}
